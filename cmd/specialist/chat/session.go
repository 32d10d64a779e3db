package chatcmder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/papercomputeco/specialist/pkg/attachment"
	"github.com/papercomputeco/specialist/pkg/cliui"
	"github.com/papercomputeco/specialist/pkg/conversation"
	"github.com/papercomputeco/specialist/pkg/llm"
	"github.com/papercomputeco/specialist/pkg/logger"
	"github.com/papercomputeco/specialist/pkg/memctx"
	"github.com/papercomputeco/specialist/pkg/utils"
)

var (
	userPrompt      = cliui.PromptStyle.Render("you> ")
	assistantPrompt = cliui.DimStyle.Render("assistant> ")
)

// inputKind classifies a REPL line.
type inputKind int

const (
	inputEmpty inputKind = iota
	inputMessage
	inputQuit
	inputShowContext
	inputShowMemories
	inputResetMemory
	inputAttach
)

// parseInput classifies line. For inputAttach the returned string is the
// file path, for inputMessage the message text.
func parseInput(line string) (inputKind, string) {
	trimmed := strings.TrimSpace(line)

	switch trimmed {
	case "":
		return inputEmpty, ""
	case "q", "/exit":
		return inputQuit, ""
	case "?":
		return inputShowContext, ""
	case "?m":
		return inputShowMemories, ""
	case "?reset":
		return inputResetMemory, ""
	}

	if path, ok := strings.CutPrefix(trimmed, "file:"); ok {
		return inputAttach, strings.TrimSpace(path)
	}

	return inputMessage, trimmed
}

// session is a running chat REPL. With mem set, every turn goes through the
// memory-aware context and the transcript is cleared after each reply.
type session struct {
	client llm.Client
	model  llm.Model

	conv conversation.Context
	mem  *memctx.Context

	in     io.Reader
	out    io.Writer
	logger *slog.Logger
}

type sessionConfig struct {
	Client llm.Client
	Model  llm.Model
	System string

	// Memory enables memory when set.
	Memory memctx.Store

	// SessionIDFunc overrides the memory session id generator.
	SessionIDFunc func() string

	In     io.Reader
	Out    io.Writer
	Logger *slog.Logger
}

func newSession(cfg sessionConfig) *session {
	s := &session{
		client: cfg.Client,
		model:  cfg.Model,
		conv:   conversation.New(cfg.System),
		in:     cfg.In,
		out:    cfg.Out,
		logger: logger.OrNop(cfg.Logger),
	}

	if cfg.Memory != nil {
		opts := []memctx.Option{memctx.WithLogger(s.logger)}
		if cfg.SessionIDFunc != nil {
			opts = append(opts, memctx.WithSessionIDFunc(cfg.SessionIDFunc))
		}
		mem := memctx.New(s.conv, cfg.Memory, opts...)
		s.mem = &mem
	}

	return s
}

func (s *session) memoryEnabled() bool {
	return s.mem != nil
}

// messages returns the transcript of whichever context is active.
func (s *session) messages() []llm.Message {
	if s.memoryEnabled() {
		return s.mem.Messages()
	}
	return s.conv.Messages()
}

// run reads lines until quit or end of input.
func (s *session) run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(s.out, userPrompt)

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("reading input: %w", err)
			}
			fmt.Fprintln(s.out)
			return nil
		}

		if quit := s.handle(ctx, scanner.Text()); quit {
			return nil
		}
	}
}

// handle processes one line and reports whether the session should end.
func (s *session) handle(ctx context.Context, line string) bool {
	kind, arg := parseInput(line)

	switch kind {
	case inputEmpty:
	case inputQuit:
		return true
	case inputShowContext:
		s.showContext()
	case inputShowMemories:
		s.showMemories(ctx)
	case inputResetMemory:
		s.resetMemory()
	case inputAttach:
		s.attach(ctx, arg)
	case inputMessage:
		if err := s.send(ctx, arg); err != nil {
			fmt.Fprintf(s.out, "\n  %s %v\n\n", cliui.FailMark, err)
		}
	}
	return false
}

func (s *session) showContext() {
	fmt.Fprintln(s.out)
	if s.memoryEnabled() {
		fmt.Fprintf(s.out, "%s %s\n", cliui.KeyStyle.Render("session:"), s.mem.SessionID())
		fmt.Fprintln(s.out, s.mem.Base().String())
	} else {
		fmt.Fprintln(s.out, s.conv.String())
	}
	fmt.Fprintln(s.out)
}

func (s *session) showMemories(ctx context.Context) {
	if !s.memoryEnabled() {
		fmt.Fprintf(s.out, "  %s Memory is not enabled. Restart with --memory.\n", cliui.WarnStyle.Render("!"))
		return
	}

	records, err := s.mem.Memories(ctx)
	if err != nil {
		fmt.Fprintf(s.out, "  %s loading memories: %v\n", cliui.FailMark, err)
		return
	}

	fmt.Fprintf(s.out, "\n  %s\n", cliui.HeaderStyle.Render("Stored memories"))
	if len(records) == 0 {
		fmt.Fprintf(s.out, "  %s\n\n", cliui.DimStyle.Render("No memories stored yet."))
		return
	}
	for i, r := range records {
		fmt.Fprintf(s.out, "  [%d] %s %s\n", i+1, utils.SingleLine(r.Text),
			cliui.DimStyle.Render("("+r.CreatedAt.Local().Format(time.DateTime)+")"))
	}
	fmt.Fprintln(s.out)
}

func (s *session) resetMemory() {
	if !s.memoryEnabled() {
		fmt.Fprintf(s.out, "  %s Memory is not enabled. Restart with --memory.\n", cliui.WarnStyle.Render("!"))
		return
	}

	reset := s.mem.ResetMemory()
	s.mem = &reset
	fmt.Fprintf(s.out, "  %s Memory reset for this session.\n", cliui.SuccessMark)
}

// attach adds the file at path to the transcript without calling the model.
func (s *session) attach(ctx context.Context, path string) {
	if err := s.attachFile(ctx, path); err != nil {
		fmt.Fprintf(s.out, "  %s %v\n", cliui.FailMark, err)
		return
	}
	fmt.Fprintf(s.out, "  %s Attached %s\n", cliui.SuccessMark, cliui.NameStyle.Render(path))
}

func (s *session) attachFile(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("file path required, e.g. file:/path/to/document.pdf")
	}

	a, err := attachment.Load(path)
	if err != nil {
		return err
	}

	if s.memoryEnabled() {
		mem, err := s.mem.AddAttachment(ctx, a)
		if err != nil {
			return err
		}
		s.mem = &mem
		return nil
	}

	conv, err := s.conv.AddAttachment(a)
	if err != nil {
		return err
	}
	s.conv = conv
	return nil
}

// send runs one turn. The transcript is only advanced when the reply
// completes.
func (s *session) send(ctx context.Context, text string) error {
	if s.memoryEnabled() {
		return s.sendWithMemory(ctx, text)
	}

	conv := s.conv.AddUserMessage(text)
	resp, err := s.stream(ctx, conv.Request(s.model.Name))
	if err != nil {
		return err
	}

	s.conv = conv.AddAssistantResponse(resp.Text()).WithUsage(resp.Usage)
	return nil
}

func (s *session) sendWithMemory(ctx context.Context, text string) error {
	mem := s.mem.AddUserMessage(ctx, text)
	mem = mem.EnrichContextWithMemories(ctx, "")

	resp, err := s.stream(ctx, &llm.ChatRequest{
		Model:    s.model.Name,
		Messages: mem.Messages(),
	})
	if err != nil {
		return err
	}

	mem = mem.AddAssistantResponse(ctx, resp.Text()).WithUsage(resp.Usage)
	mem = mem.ClearMessages()
	s.mem = &mem
	return nil
}

func (s *session) stream(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	fmt.Fprintf(s.out, "\n%s", assistantPrompt)

	s.logger.Debug("streaming reply",
		"model", s.model.String(),
		"messages", len(req.Messages),
	)

	resp, err := s.client.Stream(ctx, req, func(chunk *llm.StreamChunk) error {
		_, err := io.WriteString(s.out, chunk.Delta)
		return err
	})
	fmt.Fprint(s.out, "\n\n")
	if err != nil {
		return nil, fmt.Errorf("generating response: %w", err)
	}
	return resp, nil
}

// Package wiring builds the loggers, provider clients, usage trackers and
// memory stores shared by the specialist commands from resolved settings.
package wiring

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/specialist/pkg/credentials"
	"github.com/papercomputeco/specialist/pkg/dotdir"
	"github.com/papercomputeco/specialist/pkg/llm"
	"github.com/papercomputeco/specialist/pkg/llm/provider"
	"github.com/papercomputeco/specialist/pkg/logger"
	"github.com/papercomputeco/specialist/pkg/memory"
	"github.com/papercomputeco/specialist/pkg/memory/local"
	"github.com/papercomputeco/specialist/pkg/memory/sqlite"
	"github.com/papercomputeco/specialist/pkg/usage"
)

const (
	// MemoryDirName is the default memory directory inside .specialist/.
	MemoryDirName = "memories"

	MemoryProviderLocal  = "local"
	MemoryProviderSQLite = "sqlite"
)

// ErrUnknownMemoryProvider is returned by NewDriver for backends it does not know.
var ErrUnknownMemoryProvider = errors.New("unknown memory provider")

// Settings is the subset of configuration the commands need to build their
// dependencies. Read it from viper with FromViper so flags, environment and
// config.toml are all honored.
type Settings struct {
	ConfigDir string

	ProviderURLs map[string]string

	MemoryProvider string
	MemoryPath     string
	MemoryModel    string

	UsageEnabled bool
	UsagePath    string
}

// FromViper reads Settings from v.
func FromViper(v *viper.Viper, configDir string) Settings {
	urls := make(map[string]string, len(provider.SupportedProviders()))
	for _, p := range provider.SupportedProviders() {
		urls[p] = v.GetString("providers." + p + "_url")
	}

	return Settings{
		ConfigDir:      configDir,
		ProviderURLs:   urls,
		MemoryProvider: v.GetString("memory.provider"),
		MemoryPath:     v.GetString("memory.path"),
		MemoryModel:    v.GetString("memory.model"),
		UsageEnabled:   v.GetBool("usage.enabled"),
		UsagePath:      v.GetString("usage.path"),
	}
}

// NewLogger returns the CLI logger: pretty records on stderr, debug level
// when debug is set.
func NewLogger(debug bool) *slog.Logger {
	return logger.New(
		logger.WithDebug(debug),
		logger.WithPretty(true),
	)
}

// NewServerLogger returns the CLI logger, teed into JSON records appended to
// path when path is set. The returned func closes the log file.
func NewServerLogger(debug bool, path string) (*slog.Logger, func() error, error) {
	cli := NewLogger(debug)
	if path == "" {
		return cli, func() error { return nil }, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	file := logger.New(
		logger.WithDebug(debug),
		logger.WithJSON(true),
		logger.WithSource(debug),
		logger.WithWriter(f),
	)
	return logger.Multi(cli, file), f.Close, nil
}

// NewClient builds the provider client for model, using the configured base
// URL and the keys stored by "specialist auth".
func NewClient(s Settings, model llm.Model, l *slog.Logger) (llm.Client, error) {
	credMgr, err := credentials.NewManager(s.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}

	client, err := provider.New(model, provider.Options{
		BaseURL: s.ProviderURLs[model.Provider],
		CredMgr: credMgr,
		Logger:  l,
	})
	if err != nil {
		return nil, fmt.Errorf("creating %s client: %w", model.Provider, err)
	}
	return client, nil
}

// NewTracker returns the usage tracker, or a NopTracker when usage tracking
// is disabled.
func NewTracker(s Settings, l *slog.Logger) (usage.Tracker, error) {
	if !s.UsageEnabled {
		return usage.NopTracker{}, nil
	}

	path, err := UsagePath(s)
	if err != nil {
		return nil, err
	}
	return usage.NewFileTracker(path, l), nil
}

// UsagePath resolves the usage log location, defaulting to usage.json in the
// .specialist/ directory.
func UsagePath(s Settings) (string, error) {
	if s.UsagePath != "" {
		return s.UsagePath, nil
	}

	path, err := dotdir.NewManager().Join(s.ConfigDir, usage.FileName)
	if err != nil {
		return "", fmt.Errorf("resolving usage path: %w", err)
	}
	return path, nil
}

// MemoryPath resolves the memory directory, defaulting to memories/ in the
// .specialist/ directory.
func MemoryPath(s Settings) (string, error) {
	if s.MemoryPath != "" {
		return s.MemoryPath, nil
	}

	path, err := dotdir.NewManager().Join(s.ConfigDir, MemoryDirName)
	if err != nil {
		return "", fmt.Errorf("resolving memory path: %w", err)
	}
	return path, nil
}

// NewDriver opens the configured memory backend.
func NewDriver(s Settings, l *slog.Logger) (memory.Driver, error) {
	path, err := MemoryPath(s)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(s.MemoryProvider)) {
	case "", MemoryProviderLocal:
		driver, err := local.NewDriver(local.Config{
			Path:   path,
			Logger: l,
		})
		if err != nil {
			return nil, fmt.Errorf("opening local memory store: %w", err)
		}
		return driver, nil

	case MemoryProviderSQLite:
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("creating memory directory: %w", err)
		}
		driver, err := sqlite.NewDriver(sqlite.Config{
			DBPath: filepath.Join(path, sqlite.FileName),
			Logger: l,
		})
		if err != nil {
			return nil, fmt.Errorf("opening sqlite memory store: %w", err)
		}
		return driver, nil

	default:
		return nil, fmt.Errorf("%w: %q (supported: %s, %s)",
			ErrUnknownMemoryProvider, s.MemoryProvider, MemoryProviderLocal, MemoryProviderSQLite)
	}
}

// MemoryOptions configures NewMemory.
type MemoryOptions struct {
	// Driver persists records. Required.
	Driver memory.Driver

	// Client backs fact extraction and reconciliation. Without it the memory
	// stores every added fact verbatim.
	Client llm.Client

	// Model is the model Client serves.
	Model llm.Model

	Tracker usage.Tracker
	Logger  *slog.Logger
}

// NewMemory builds the fact store with model-backed extraction and
// reconciliation, each metered under its own usage operation.
func NewMemory(opts MemoryOptions) (*memory.Memory, error) {
	cfg := memory.Config{
		Driver: opts.Driver,
		Logger: opts.Logger,
	}

	if opts.Client != nil {
		meter := func(op string) llm.Client {
			return usage.Meter(opts.Client, usage.MeterConfig{
				Tracker:   opts.Tracker,
				Model:     opts.Model.String(),
				Operation: op,
				Logger:    opts.Logger,
			})
		}

		cfg.Extractor = memory.NewLLMExtractor(memory.ExtractorConfig{
			Client: meter(usage.OpExtractFacts),
			Model:  opts.Model.Name,
			Logger: opts.Logger,
		})
		cfg.Reconciler = memory.NewLLMReconciler(memory.ReconcilerConfig{
			Client: meter(usage.OpDetermineOps),
			Model:  opts.Model.Name,
			Logger: opts.Logger,
		})
	}

	return memory.New(cfg)
}

// ResolveMemoryModel returns the model used for memory operations: the
// configured memory model, or fallback when none is set.
func ResolveMemoryModel(s Settings, fallback llm.Model) (llm.Model, error) {
	if strings.TrimSpace(s.MemoryModel) == "" {
		return fallback, nil
	}

	m, err := llm.ParseModel(s.MemoryModel)
	if err != nil {
		return llm.Model{}, fmt.Errorf("parsing memory model: %w", err)
	}
	return m, nil
}

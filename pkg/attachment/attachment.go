// Package attachment loads files for inclusion in a conversation. Only images
// and PDFs can be turned into message content.
package attachment

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/papercomputeco/specialist/pkg/llm"
)

// ErrUnsupportedType is returned for attachments that are neither an image
// nor a PDF.
var ErrUnsupportedType = errors.New("unsupported file type")

// MimePDF is the only non-image type accepted as content.
const MimePDF = "application/pdf"

// Attachment is a file read into memory and base64 encoded.
type Attachment struct {
	Filename string `json:"filename"`
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// Load reads path and sniffs its MIME type from the content. Unknown content
// is typed application/octet-stream.
func Load(path string) (Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Attachment{}, fmt.Errorf("reading attachment: %w", err)
	}
	return New(filepath.Base(path), data), nil
}

// New builds an attachment from raw bytes.
func New(filename string, data []byte) Attachment {
	mt, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	return Attachment{
		Filename: filename,
		MimeType: strings.TrimSpace(mt),
		Data:     base64.StdEncoding.EncodeToString(data),
	}
}

func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.MimeType, "image/")
}

func (a Attachment) IsPDF() bool {
	return a.MimeType == MimePDF
}

// ContentBlock converts the attachment into an image or document block.
func (a Attachment) ContentBlock() (llm.ContentBlock, error) {
	switch {
	case a.IsImage():
		return llm.ContentBlock{Type: llm.BlockImage, Data: a.Data, MediaType: a.MimeType, Filename: a.Filename}, nil
	case a.IsPDF():
		return llm.ContentBlock{Type: llm.BlockDocument, Data: a.Data, MediaType: a.MimeType, Filename: a.Filename}, nil
	default:
		return llm.ContentBlock{}, fmt.Errorf("%w: %s", ErrUnsupportedType, a.MimeType)
	}
}

// Message builds a user message naming the file followed by its content.
func (a Attachment) Message() (llm.Message, error) {
	block, err := a.ContentBlock()
	if err != nil {
		return llm.Message{}, err
	}
	return llm.Message{
		Role: llm.RoleUser,
		Content: []llm.ContentBlock{
			{Type: llm.BlockText, Text: "Attached file: " + a.Filename},
			block,
		},
	}, nil
}

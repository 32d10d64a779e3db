package attachment_test

import (
	"encoding/base64"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/specialist/pkg/attachment"
	"github.com/papercomputeco/specialist/pkg/llm"
)

var (
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")
)

var _ = Describe("Attachment", func() {
	It("sniffs and encodes an image", func() {
		path := filepath.Join(GinkgoT().TempDir(), "pixel.bin")
		Expect(os.WriteFile(path, pngBytes, 0o600)).To(Succeed())

		a, err := attachment.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Filename).To(Equal("pixel.bin"))
		Expect(a.MimeType).To(Equal("image/png"))
		Expect(a.Data).To(Equal(base64.StdEncoding.EncodeToString(pngBytes)))
		Expect(a.IsImage()).To(BeTrue())
	})

	It("fails for a missing file", func() {
		_, err := attachment.Load(filepath.Join(GinkgoT().TempDir(), "nope.png"))
		Expect(err).To(HaveOccurred())
	})

	It("builds an image message", func() {
		msg, err := attachment.New("pixel.png", pngBytes).Message()
		Expect(err).NotTo(HaveOccurred())
		Expect(msg.Role).To(Equal(llm.RoleUser))
		Expect(msg.Content).To(HaveLen(2))
		Expect(msg.Content[0].Text).To(ContainSubstring("pixel.png"))
		Expect(msg.Content[1].Type).To(Equal(llm.BlockImage))
		Expect(msg.Content[1].MediaType).To(Equal("image/png"))
	})

	It("builds a document block for PDFs", func() {
		a := attachment.New("report.pdf", pdfBytes)
		Expect(a.IsPDF()).To(BeTrue())

		block, err := a.ContentBlock()
		Expect(err).NotTo(HaveOccurred())
		Expect(block.Type).To(Equal(llm.BlockDocument))
		Expect(block.Filename).To(Equal("report.pdf"))
	})

	It("rejects other types", func() {
		a := attachment.New("notes.txt", []byte("just some notes\n"))
		Expect(a.MimeType).To(Equal("text/plain"))

		_, err := a.Message()
		Expect(err).To(MatchError(attachment.ErrUnsupportedType))
		Expect(err.Error()).To(Equal("unsupported file type: text/plain"))
	})
})

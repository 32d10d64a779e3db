package cliui_test

import (
	"bytes"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/specialist/pkg/cliui"
)

var _ = Describe("cliui", func() {
	It("formats durations", func() {
		Expect(cliui.FormatDuration(12 * time.Millisecond)).To(Equal("12ms"))
		Expect(cliui.FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
	})

	It("marks errors", func() {
		Expect(cliui.Mark(nil)).To(Equal(cliui.SuccessMark))
		Expect(cliui.Mark(errors.New("boom"))).To(Equal(cliui.FailMark))
	})

	It("runs the step function and returns its error", func() {
		var buf bytes.Buffer
		want := errors.New("failed")

		err := cliui.Step(&buf, "loading memories", func() error { return want })
		Expect(err).To(MatchError(want))
		Expect(buf.String()).To(ContainSubstring("loading memories"))
	})

	It("writes markdown verbatim to non-terminals", func() {
		var buf bytes.Buffer
		Expect(cliui.RenderMarkdownTo(&buf, "# Title")).To(Succeed())
		Expect(buf.String()).To(Equal("# Title\n"))
		Expect(cliui.IsTerminal(&buf)).To(BeFalse())
	})
})

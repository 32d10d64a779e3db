package sse

import (
	"errors"
	"strings"
	"testing/iotest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Reader", func() {
	Describe("Next", func() {
		It("parses a single event", func() {
			r := NewReader(strings.NewReader("data: hello world\n\n"))

			ev, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Data).To(Equal("hello world"))
			Expect(ev.Type).To(BeEmpty())

			ev, err = r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev).To(BeNil())
		})

		It("parses consecutive events", func() {
			r := NewReader(strings.NewReader("data: first\n\ndata: second\n\n"))

			ev1, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev1.Data).To(Equal("first"))

			ev2, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev2.Data).To(Equal("second"))
		})

		It("parses event type and id", func() {
			r := NewReader(strings.NewReader("event: delta\nid: 7\ndata: {}\n\n"))

			ev, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Type).To(Equal("delta"))
			Expect(ev.ID).To(Equal("7"))
			Expect(ev.Data).To(Equal("{}"))
		})

		It("joins multiple data lines with a newline", func() {
			r := NewReader(strings.NewReader("data: one\ndata: two\n\n"))

			ev, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Data).To(Equal("one\ntwo"))
		})

		It("skips comments and keep-alive blank lines", func() {
			r := NewReader(strings.NewReader("\n\n: ping\n\ndata: payload\n\n"))

			ev, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Data).To(Equal("payload"))
		})

		It("handles CRLF line endings", func() {
			r := NewReader(strings.NewReader("data: windows\r\n\r\n"))

			ev, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Data).To(Equal("windows"))
		})

		It("yields a trailing event without a terminating blank line", func() {
			r := NewReader(strings.NewReader("data: tail"))

			ev, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Data).To(Equal("tail"))
		})

		It("returns read errors", func() {
			r := NewReader(iotest.ErrReader(errors.New("boom")))

			_, err := r.Next()
			Expect(err).To(MatchError("boom"))
		})
	})

	Describe("IsDone", func() {
		It("recognizes the [DONE] terminator", func() {
			r := NewReader(strings.NewReader("data: [DONE]\n\n"))

			ev, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.IsDone()).To(BeTrue())
		})

		It("is false for nil events", func() {
			var ev *Event
			Expect(ev.IsDone()).To(BeFalse())
		})
	})
})

package utils

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("truncate", func() {
	It("returns the string unchanged when within the limit", func() {
		Expect(Truncate("short", 10)).To(Equal("short"))
	})

	It("returns the string unchanged when exactly at the limit", func() {
		Expect(Truncate("12345", 5)).To(Equal("12345"))
	})

	It("truncates with ellipsis when over the limit", func() {
		result := Truncate("this is a long string", 10)
		Expect(result).To(Equal("this is a ..."))
	})
})

var _ = Describe("SingleLine", func() {
	It("collapses newlines and repeated spaces", func() {
		Expect(SingleLine("Name is\n  John\tSmith ")).To(Equal("Name is John Smith"))
	})

	It("returns an empty string for whitespace only input", func() {
		Expect(SingleLine(" \n\t ")).To(BeEmpty())
	})
})

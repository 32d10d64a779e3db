package testutils

import (
	"strconv"
	"sync/atomic"
)

// SeqID formats a sequential id such as "m3".
func SeqID(prefix string, n int) string {
	return prefix + strconv.Itoa(n)
}

// NewSeqIDFunc returns a goroutine-safe id generator yielding prefix1,
// prefix2, ...
func NewSeqIDFunc(prefix string) func() string {
	var n atomic.Int64
	return func() string {
		return prefix + strconv.FormatInt(n.Add(1), 10)
	}
}

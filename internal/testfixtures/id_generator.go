package testfixtures

import (
	"strconv"
	"sync/atomic"
)

// IDGenerator hands out "<prefix>-<n>" identifiers starting at 1. It is safe
// for the concurrent reminder workers.
type IDGenerator struct {
	prefix string
	next   atomic.Uint64
}

// NewIDGenerator defaults an empty prefix to "id".
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

func (g *IDGenerator) Next() string {
	return g.prefix + "-" + strconv.FormatUint(g.next.Add(1), 10)
}

// Issued reports how many identifiers have been handed out.
func (g *IDGenerator) Issued() uint64 {
	return g.next.Load()
}

// NextFunc adapts the generator to the func() string the services take.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

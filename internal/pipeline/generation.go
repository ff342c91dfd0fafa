package pipeline

import "sync/atomic"

// Generation hands out increasing request numbers so a consumer that starts
// a new run before the previous one finished can drop the stale result.
// Process never consults it; it exists for callers.
//
// The zero value is ready to use and safe for concurrent use.
type Generation struct {
	n atomic.Uint64
}

// Next starts a new generation and returns its number.
func (g *Generation) Next() uint64 {
	return g.n.Add(1)
}

// Current returns the newest generation handed out.
func (g *Generation) Current() uint64 {
	return g.n.Load()
}

// IsCurrent reports whether gen is still the newest generation.
func (g *Generation) IsCurrent(gen uint64) bool {
	return g.n.Load() == gen
}

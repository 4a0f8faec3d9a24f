// Package generation implements fetch generations: a counter that every
// asynchronous operation captures at issue time and compares on completion,
// so that results belonging to a superseded request are dropped.
package generation

import "sync/atomic"

// Token is the generation captured by one operation.
type Token struct {
	c     *Counter
	value uint64
}

// Value is the captured generation number.
func (t Token) Value() uint64 {
	return t.value
}

// Current reports whether no newer generation has started since t was taken.
func (t Token) Current() bool {
	return t.c != nil && t.c.value.Load() == t.value
}

// Counter is a monotonically increasing generation. The zero value is ready
// to use.
type Counter struct {
	value atomic.Uint64
}

// Next starts a new generation and returns its token. Every token issued
// before is no longer current.
func (c *Counter) Next() Token {
	return Token{c: c, value: c.value.Add(1)}
}

// Token captures the current generation without advancing it.
func (c *Counter) Token() Token {
	return Token{c: c, value: c.value.Load()}
}

// Value is the live generation number.
func (c *Counter) Value() uint64 {
	return c.value.Load()
}

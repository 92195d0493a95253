package testutil

import (
	"fmt"
	"sync"

	"github.com/roach88/nblineage/internal/meme"
)

// SequentialGenerator mints UUIDs from a counter:
// 00000000-0000-1000-8000-000000000001, ...-000000000002, and so on.
//
// Unlike meme.FixedGenerator it never runs out, and it can be reset so the
// same scenario produces identical identities on every run.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialGenerator creates a generator whose first UUID ends in 1.
// prefix replaces the first group when non-empty; it must be 8 hex digits.
func NewSequentialGenerator(prefix string) *SequentialGenerator {
	if prefix == "" {
		prefix = "00000000"
	}
	return &SequentialGenerator{prefix: prefix}
}

// Generate implements meme.Generator.
func (g *SequentialGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-0000-1000-8000-%012x", g.prefix, g.n)
}

// Count returns how many UUIDs have been generated since the last reset.
func (g *SequentialGenerator) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}

// Reset rewinds the generator to its initial state.
func (g *SequentialGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}

// SequentialTokens hands out branch tokens 0001, 0002, ...
//
// Thread-safety: safe for concurrent use via internal mutex.
type SequentialTokens struct {
	mu sync.Mutex
	n  int
}

// Token implements meme.TokenSource.
func (s *SequentialTokens) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%04x", s.n&0xffff)
}

// NewCodec returns a codec backed by a SequentialGenerator and
// SequentialTokens. The generator is returned so tests can inspect or
// reset it.
func NewCodec() (*meme.Codec, *SequentialGenerator) {
	gen := NewSequentialGenerator("")
	return meme.NewCodec(meme.WithGenerator(gen), meme.WithTokenSource(&SequentialTokens{})), gen
}

// ID returns the identity SequentialGenerator produces on its n-th call
// with the default prefix.
func ID(n int) meme.Identity {
	return meme.Identity(fmt.Sprintf("00000000-0000-1000-8000-%012x", n))
}

package meme

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Generator produces fresh UUID strings for minting.
type Generator interface {
	Generate() string
}

// UUIDv1Generator generates time-based version 1 UUIDs, the format written
// by existing notebook tooling.
//
// Uses github.com/google/uuid. Safe for concurrent use.
type UUIDv1Generator struct{}

// Generate creates a new UUIDv1 and returns it as a hyphenated string.
//
// Panics if the clock sequence cannot be initialised (should never happen
// in practice).
func (UUIDv1Generator) Generate() string {
	return uuid.Must(uuid.NewUUID()).String()
}

// UUIDv7Generator generates time-sortable UUIDv7 strings.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined UUIDs for testing.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu    sync.Mutex
	uuids []string
	idx   int
}

// NewFixedGenerator creates a generator that returns uuids in order.
//
// Panics once all values are consumed, which catches tests that mint more
// identities than they expected.
func NewFixedGenerator(uuids ...string) *FixedGenerator {
	return &FixedGenerator{uuids: uuids}
}

// Generate returns the next predetermined UUID.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.uuids) {
		panic("FixedGenerator: all uuids exhausted")
	}
	id := g.uuids[g.idx]
	g.idx++
	return id
}

// Remaining reports how many values have not been handed out yet.
func (g *FixedGenerator) Remaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.uuids) - g.idx
}

// TokenSource produces candidate branch tokens. Candidates need not be
// unique; Codec.Branch rejects those already present in the window.
type TokenSource interface {
	Token() string
}

// RandomTokens draws tokens uniformly from 0000..fffe using the
// process-wide math/rand/v2 generator.
type RandomTokens struct{}

// Token returns four lowercase hex characters.
func (RandomTokens) Token() string {
	return fmt.Sprintf("%04x", rand.IntN(0xffff))
}

// FixedTokens returns predetermined tokens for testing.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedTokens struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixedTokens creates a token source that returns tokens in order and
// panics when exhausted.
func NewFixedTokens(tokens ...string) *FixedTokens {
	return &FixedTokens{tokens: slices.Clone(tokens)}
}

// Token returns the next predetermined token.
func (s *FixedTokens) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.idx >= len(s.tokens) {
		panic("FixedTokens: all tokens exhausted")
	}
	tok := s.tokens[s.idx]
	s.idx++
	return tok
}

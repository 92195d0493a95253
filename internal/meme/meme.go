package meme

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// MaxBranchTokens is the size of the branch token window.
const MaxBranchTokens = 10

// TokenLength is the length of a single branch token.
const TokenLength = 4

// uuidGroups is the number of dash-separated groups forming the UUID part.
const uuidGroups = 5

// Identity is a lineage identity string, bare or branch-extended.
// The empty Identity means "no identity".
type Identity string

// String implements fmt.Stringer.
func (id Identity) String() string { return string(id) }

// ErrMalformedIdentity is the sentinel wrapped by MalformedIdentityError.
var ErrMalformedIdentity = errors.New("malformed identity")

// MalformedIdentityError reports an identity that cannot be decoded.
type MalformedIdentityError struct {
	Identity Identity
	Reason   string
}

func (e *MalformedIdentityError) Error() string {
	return fmt.Sprintf("malformed identity %q: %s", string(e.Identity), e.Reason)
}

func (e *MalformedIdentityError) Unwrap() error { return ErrMalformedIdentity }

// Parts is the decoded form of an Identity.
type Parts struct {
	UUID         string
	BranchCount  int
	BranchTokens []string
}

// Decode splits an identity into its UUID, branch count and branch tokens.
// A bare identity decodes to BranchCount 0 and no tokens.
func Decode(id Identity) (Parts, error) {
	groups := strings.Split(string(id), "-")
	if len(groups) < uuidGroups {
		return Parts{}, &MalformedIdentityError{Identity: id, Reason: "fewer than 5 leading groups"}
	}
	for i, g := range groups[:uuidGroups] {
		if g == "" || !isHex(g) {
			return Parts{}, &MalformedIdentityError{
				Identity: id,
				Reason:   fmt.Sprintf("group %d is not hexadecimal", i+1),
			}
		}
	}

	parts := Parts{UUID: strings.Join(groups[:uuidGroups], "-")}
	if len(groups) == uuidGroups {
		return parts, nil
	}

	count, err := strconv.Atoi(groups[uuidGroups])
	if err != nil || count < 0 {
		return Parts{}, &MalformedIdentityError{Identity: id, Reason: "branch count is not a non-negative integer"}
	}
	tokens := groups[uuidGroups+1:]
	if len(tokens) > MaxBranchTokens || len(tokens) > count {
		return Parts{}, &MalformedIdentityError{
			Identity: id,
			Reason:   fmt.Sprintf("%d branch tokens for branch count %d", len(tokens), count),
		}
	}
	for _, tok := range tokens {
		if tok == "" {
			return Parts{}, &MalformedIdentityError{Identity: id, Reason: "empty branch token"}
		}
	}

	parts.BranchCount = count
	parts.BranchTokens = slices.Clone(tokens)
	return parts, nil
}

// Encode is the inverse of Decode. A zero BranchCount yields the bare UUID.
func Encode(p Parts) Identity {
	if p.BranchCount <= 0 {
		return Identity(p.UUID)
	}
	var b strings.Builder
	b.WriteString(p.UUID)
	b.WriteByte('-')
	b.WriteString(strconv.Itoa(p.BranchCount))
	for _, tok := range p.BranchTokens {
		b.WriteByte('-')
		b.WriteString(tok)
	}
	return Identity(b.String())
}

// SameLineage reports whether a and b share a UUID.
func SameLineage(a, b Identity) (bool, error) {
	pa, err := Decode(a)
	if err != nil {
		return false, err
	}
	pb, err := Decode(b)
	if err != nil {
		return false, err
	}
	return pa.UUID == pb.UUID, nil
}

// Codec mints and branches identities.
//
// Thread-safety: Codec holds no mutable state of its own; it is as safe for
// concurrent use as its Generator and TokenSource.
type Codec struct {
	gen    Generator
	tokens TokenSource
}

// Option configures a Codec.
type Option func(*Codec)

// WithGenerator overrides the UUID generator (UUIDv1Generator by default).
func WithGenerator(g Generator) Option {
	return func(c *Codec) { c.gen = g }
}

// WithTokenSource overrides the branch token source (RandomTokens by default).
func WithTokenSource(s TokenSource) Option {
	return func(c *Codec) { c.tokens = s }
}

// NewCodec creates a Codec.
func NewCodec(opts ...Option) *Codec {
	c := &Codec{
		gen:    UUIDv1Generator{},
		tokens: RandomTokens{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mint produces a fresh unbranched identity.
func (c *Codec) Mint() Identity {
	return Identity(c.gen.Generate())
}

// MintN produces n fresh identities.
func (c *Codec) MintN(n int) []Identity {
	ids := make([]Identity, n)
	for i := range ids {
		ids[i] = c.Mint()
	}
	return ids
}

// Branch records one duplication event: the UUID is kept, the branch count
// is incremented and a new token, unique within the current window, is
// appended. The window is truncated to the last MaxBranchTokens tokens.
//
// Call exactly once per duplicated unit.
func (c *Codec) Branch(id Identity) (Identity, error) {
	parts, err := Decode(id)
	if err != nil {
		return "", err
	}

	tok := c.tokens.Token()
	for slices.Contains(parts.BranchTokens, tok) {
		tok = c.tokens.Token()
	}
	if len(tok) != TokenLength {
		return "", fmt.Errorf("branch token %q: want %d characters", tok, TokenLength)
	}

	parts.BranchTokens = append(parts.BranchTokens, tok)
	if len(parts.BranchTokens) > MaxBranchTokens {
		parts.BranchTokens = parts.BranchTokens[len(parts.BranchTokens)-MaxBranchTokens:]
	}
	parts.BranchCount++
	return Encode(parts), nil
}

func isHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

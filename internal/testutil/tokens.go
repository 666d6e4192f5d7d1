package testutil

import (
	"fmt"
	"sync"
)

// SequentialTokens generates "<prefix>1", "<prefix>2", ...
//
// Unlike engine.FixedGenerator it never runs out, so traces stay stable no
// matter how many transitions a scenario submits.
type SequentialTokens struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialTokens creates a generator. An empty prefix defaults to "t".
func NewSequentialTokens(prefix string) *SequentialTokens {
	if prefix == "" {
		prefix = "t"
	}
	return &SequentialTokens{prefix: prefix}
}

// Generate returns the next token.
func (g *SequentialTokens) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s%d", g.prefix, g.n)
}

// Count returns how many tokens have been generated.
func (g *SequentialTokens) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}

package testutil

import (
	"fmt"
	"sync"
)

// SequentialTokenGenerator generates call tokens "call-1", "call-2", ...
//
// This enables deterministic test execution and golden trace comparison
// without declaring the call count upfront: unlike dispatch.FixedGenerator,
// it never exhausts, so scenario runners can make as many calls as the
// scenario file declares.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type SequentialTokenGenerator struct {
	mu sync.Mutex
	n  int
}

// NewSequentialTokenGenerator creates a generator starting at "call-1".
func NewSequentialTokenGenerator() *SequentialTokenGenerator {
	return &SequentialTokenGenerator{}
}

// Generate returns the next token in the sequence.
func (g *SequentialTokenGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("call-%d", g.n)
}

// Reset restarts the sequence. After Reset(), the next call to Generate()
// returns "call-1" again, so the same scenario can run multiple times with
// identical traces.
func (g *SequentialTokenGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}

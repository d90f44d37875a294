package testutil

import (
	"fmt"
	"sync"

	"github.com/roach88/verifly/internal/trace"
)

// SequentialTokens yields "<prefix>-0001", "<prefix>-0002", ... and never
// runs out, unlike trace.FixedGenerator.
type SequentialTokens struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialTokens returns a generator with the given prefix.
// An empty prefix defaults to "inv".
func NewSequentialTokens(prefix string) *SequentialTokens {
	if prefix == "" {
		prefix = "inv"
	}
	return &SequentialTokens{prefix: prefix}
}

// Generate returns the next token.
func (g *SequentialTokens) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// NewRecorder returns a recorder whose token and step seqs are fully
// determined: token "<prefix>-0001", steps numbered from 1.
func NewRecorder(prefix string) *trace.Recorder {
	return trace.NewRecorder(NewSequentialTokens(prefix), NewDeterministicClock())
}

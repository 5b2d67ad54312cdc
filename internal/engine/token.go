package engine

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// CycleTokenGenerator mints the token attached to every log record of a
// cycle, so one cycle's reads, generation calls, and commits can be
// correlated in the output.
type CycleTokenGenerator interface {
	Generate() string
}

// UUIDv7Generator is the production token source. UUIDv7 embeds a
// timestamp in the high bits, so tokens sort by cycle start time.
//
// Stateless and safe for concurrent use; panics only if the platform's
// entropy source is broken.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7 string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SequenceGenerator returns "cycle-1", "cycle-2", ... for deterministic
// test logs.
type SequenceGenerator struct {
	mu sync.Mutex
	n  int
}

// Generate returns the next token in the sequence.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("cycle-%d", g.n)
}

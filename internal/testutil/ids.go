package testutil

import (
	"encoding/binary"
	"sync"

	"github.com/google/uuid"
)

// SequentialIDs generates version 7 shaped UUIDs from a counter, so
// repeated runs report the same identifiers.
//
// Thread-safety: all methods are safe for concurrent use.
type SequentialIDs struct {
	mu  sync.Mutex
	seq uint64
}

// NewSequentialIDs creates a generator whose first ID ends in 1.
func NewSequentialIDs() *SequentialIDs {
	return &SequentialIDs{}
}

// Next returns the next identifier. The error is always nil; the signature
// matches uuid.NewV7.
func (g *SequentialIDs) Next() (uuid.UUID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++

	var id uuid.UUID
	binary.BigEndian.PutUint64(id[8:], g.seq)
	id[6] = 0x70 // version 7
	id[8] |= 0x80 // RFC 4122 variant
	return id, nil
}

// Reset restarts the sequence. The next ID ends in 1 again.
func (g *SequentialIDs) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}

package harness

import "github.com/google/uuid"

// RunIDGenerator names harness runs in the journal.
// Implemented by UUIDv7Generator (default) and testutil.FixedRunIDs (tests).
type RunIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-ordered run IDs, so the journal lists runs
// chronologically when sorted by ID.
//
// Thread-safe: uuid.NewV7 is safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7 string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

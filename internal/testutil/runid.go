package testutil

// FixedRunIDs hands out a fixed run identifier.
//
// Harness runs stamped with FixedRunIDs produce byte-identical journals and
// golden files. The zero value returns "test-run-default".
//
// Thread-safety: FixedRunIDs is stateless and safe for concurrent use.
type FixedRunIDs struct {
	id string
}

// NewFixedRunIDs creates a generator that always returns id.
func NewFixedRunIDs(id string) *FixedRunIDs {
	return &FixedRunIDs{id: id}
}

// Generate returns the fixed run ID.
func (g *FixedRunIDs) Generate() string {
	if g == nil || g.id == "" {
		return "test-run-default"
	}
	return g.id
}

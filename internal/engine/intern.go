package engine

import "github.com/roach88/rill/internal/ir"

// internTable maps signal descriptors to field indices.
// Lookups hash by the node's precomputed digest and confirm with a
// structural comparison, so a digest collision can never merge two fields.
type internTable struct {
	buckets map[ir.Digest][]internEntry
}

type internEntry struct {
	node  *ir.Node
	field int
}

func newInternTable() *internTable {
	return &internTable{buckets: make(map[ir.Digest][]internEntry)}
}

func (t *internTable) lookup(n *ir.Node) (int, bool) {
	for _, e := range t.buckets[n.Digest()] {
		if e.node.Equal(n) {
			return e.field, true
		}
	}
	return 0, false
}

func (t *internTable) insert(n *ir.Node, field int) {
	d := n.Digest()
	t.buckets[d] = append(t.buckets[d], internEntry{node: n, field: field})
}

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/rill/internal/ir"
	"github.com/roach88/rill/internal/signal"
)

func TestInternTable_LookupByStructure(t *testing.T) {
	table := newInternTable()
	refA, a := signal.Input[uint64]()
	refB, b := signal.Input[uint64]()

	table.insert(signal.Add(a, b).Node(), 7)

	rebuilt := signal.Add(signal.Of[uint64](refA), signal.Of[uint64](refB))
	field, ok := table.lookup(rebuilt.Node())
	assert.True(t, ok)
	assert.Equal(t, 7, field)

	_, ok = table.lookup(signal.Add(b, a).Node())
	assert.False(t, ok)

	_, ok = table.lookup(ir.NewInput(refA, ir.TypeInt64))
	assert.False(t, ok, "type tag is part of identity")
}

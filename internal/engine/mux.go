package engine

import "reflect"

// mux waits on a dynamic set of readiness channels.
//
// Operand indices are assigned in insertion order and never shift. Removing
// an operand zeroes its channel, which reflect.Select ignores, so the slot
// stays in place as a tombstone.
type mux struct {
	cases []reflect.SelectCase
	live  int
}

func newMux(control <-chan struct{}) *mux {
	m := &mux{}
	m.install(control)
	return m
}

// install adds ch as the next operand and returns its index.
func (m *mux) install(ch <-chan struct{}) int {
	m.cases = append(m.cases, reflect.SelectCase{
		Dir:  reflect.SelectRecv,
		Chan: reflect.ValueOf(ch),
	})
	m.live++
	return len(m.cases) - 1
}

// remove tombstones operand i.
func (m *mux) remove(i int) {
	if !m.cases[i].Chan.IsValid() {
		return
	}
	m.cases[i].Chan = reflect.Value{}
	m.live--
}

// wait blocks until an operand is ready and returns its index.
func (m *mux) wait() int {
	chosen, _, _ := reflect.Select(m.cases)
	return chosen
}

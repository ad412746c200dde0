// Package engine implements the rill dataflow worker.
//
// An Engine owns exactly one worker goroutine. Every mutable structure
// (field values, listeners, the interning table, attached emitters) lives
// on that goroutine; clients talk to it only through the control pipe and
// the data pipes they receive from Listen and Emit.
//
// ARCHITECTURE:
//
// Single-Writer Worker:
// The worker waits on one multiplexer whose operand 0 is the control pipe
// and whose operand k is emitter slot k-1. Each wake handles exactly one
// command or one value and runs it to completion before waiting again.
//
// Lifecycle:
//
//	NotStarted --Start--> Running --Shutdown--> Terminated
//	NotStarted --Shutdown-------------------> Terminated
//
// Before Start, values read from emitters are queued as pending updates.
// Start applies them in arrival order and only then acknowledges. Shutdown
// before Start discards them. Terminated is absorbing: the worker releases
// every adapter and exits.
//
// Fields:
// Each distinct signal descriptor maps to one field index the first time
// the worker sees it. A derived field is computed once, from its operands'
// values at that moment, and is not recomputed when operands change later.
//
// Sequencing:
// Every applied update is stamped from the worker's logical Clock. Wall
// time is never used for ordering.
package engine

// Package compiler turns CUE graph definitions into ir signal graphs.
//
// A graph file declares inputs and derived nodes by label:
//
//	input: {
//		a: {type: "u64"}
//		b: {type: "u64"}
//	}
//	node: {
//		sum:   {op: "add", left: "a", right: "b"}
//		twice: {op: "add", left: "sum", right: "sum"}
//	}
//
// Operands name either an input or another node. Each compile allocates
// fresh InputRefs, so two compiles of one file describe unrelated inputs.
package compiler

// # Description
//
// Package cfg builds the Control Flow Graph (CFG) of a CIL method body.
//
// ## Control Flow Graph (CFG)
//
// A CFG is a representation, using graph notation, of all paths that might be traversed
// through a method during its execution. In a CFG:
//
//   - Each node in the graph represents a basic block (a straight-line run of instructions without any jumps).
//   - The directed edges represent branches, fall-through, and the jump into an exception handler.
//
// Blocks start at the method entry, at branch and switch targets, after any
// instruction that transfers control, and at the boundaries of protected
// regions and their handlers.
//
// ## Package Functionality
//
//  1. CFG Construction: use `FromBody` to split a body into blocks.
//  2. Traverse the graph with `Blocks`, `Succs`, `Preds` and `Reachable`.
//  3. Export it with `PrintDot` for GraphViz.
package cfg

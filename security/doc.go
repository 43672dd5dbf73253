// Package security screens submitted source code before execution.
//
// The validator applies a fixed set of case-insensitive deny patterns for
// process, filesystem, network and reflection escape primitives, then a
// maximum-length rule. It is a deliberately conservative heuristic layer
// that rejects before any process is spawned; the container constraints in
// the sandbox package remain the actual security boundary.
package security

// Package flow provides the in-memory pipeline document: lanes, nodes,
// and wires stored in flat id-indexed maps with a monotonic identifier
// counter.
//
// # Overview
//
// A [Document] is the single source of truth for one pipeline. Nodes are
// typed processing steps instantiated from templates, wires are directed
// data-flow edges between node ports, and lanes are purely organizational
// horizontal groupings. Wires hold node and port identifiers rather than
// pointers, which keeps the structure cycle-free and makes snapshots and
// serialization trivial.
//
// # Mutators
//
// All edits go through named mutators ([Document.AddNode],
// [Document.RemoveNode], [Document.AddWire], and so on). Each mutator
// returns the before/after element snapshots a history log needs to
// reverse it. Mutators on an unknown id are no-ops rather than errors:
// the editor may race a deletion against an in-flight gesture, and a
// redundant delete must not fail.
//
// # Concurrency
//
// Document instances are not safe for concurrent use. The model assumes
// a single writer; callers must not mutate a document while an execution
// run is reading its snapshot.
package flow

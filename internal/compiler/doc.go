// Package compiler turns CUE group declarations into ir.GroupSpec values
// and builds runnable callback groups from them.
//
// Declarations live under the top-level "group" field:
//
//	group: save_base: {
//		identity: "save"          // optional, defaults to the label
//		callbacks: [
//			{name: "bar", position: "before"},
//			{name: "foo", position: "before", requires: "bar", insert_before: ["baz"]},
//		]
//	}
//
// The pipeline is CompileGroup → Validate → MergeByIdentity → Build.
// Build attaches bodies that record flags on a trace.Tape, so a compiled
// group can be run and its ordering observed without user code.
package compiler

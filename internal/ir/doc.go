// Package ir holds the declarative form of callback groups.
//
// A GroupSpec is what the CUE compiler produces and what scenarios, the
// trace store and the CLI exchange. It carries names and constraints only;
// bodies are attached later by compiler.Build.
//
// ir imports nothing internal. Constraints:
//   - All JSON and YAML tags use snake_case
//   - Canonical JSON (MarshalCanonical) is the only encoding used for hashing
//     and golden snapshots
//   - Names are NFC-normalized at the serialization boundary
package ir

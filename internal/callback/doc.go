// Package callback implements dependency-ordered callback composition.
//
// A Group owns callbacks that share one identity. Each callback has a
// position (before, after or around the wrapped action), a name, and
// ordering constraints expressed against other names:
//
//	g := callback.NewGroup[*Record]("save")
//	g.Before("validate", validate)
//	g.Before("normalize", normalize, callback.InsertBefore("validate"))
//	g.Around("transaction", inTx)
//	err := g.Invoke(rec, persist)
//
// RESOLUTION:
//
// Constraints build a directed graph over callback names. Resolve performs a
// stable topological sort: callbacks that are not ordered relative to each
// other keep their insertion order. Constraints naming a callback that is not
// in the group are dropped, so groups can be wired incrementally and joined
// later with Merge. Any cycle fails resolution with a CYCLIC_CONSTRAINT error
// that lists the offending names.
//
// INVOCATION:
//
// The resolved order is split by position. Around callbacks nest outermost
// first; the innermost layer runs every before callback, the action, then
// every after callback. All bodies run synchronously on the caller's
// goroutine. The first error aborts the rest of the pipeline and is returned
// to the caller as-is.
package callback

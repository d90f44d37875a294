// Package trace records what happened during a callback invocation.
//
// A Tape is the target passed to groups built from declarative specs: every
// body appends a flag such as "before_x" to it. A Recorder is a
// callback.Hooks producer that turns enter/leave events into ordered Steps
// and the finished run into an Invocation, ready for the trace store.
//
// Ordering uses a logical clock (Sequencer), never wall-clock time, so a
// trace recorded under DeterministicClock and a fixed token generator is
// byte-for-byte reproducible.
package trace

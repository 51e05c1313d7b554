// Package bfevfl reads and writes BFEVFL ("Event Flow") files, the
// scripted-behavior binary format used by The Legend of Zelda: Breath of
// the Wild.
//
// A BFEVFL file holds at most one flowchart (a state-machine-like directed
// graph of action/switch/fork/join/sub-flow events) and at most one
// timeline (time-aligned actor clips, oneshots, triggers and cuts). Both
// reference a shared pool of actors and carry optional parameter
// containers.
//
// The package's job is to round-trip these structures byte-for-byte with
// Nintendo's engine: a pointer-fixup writer, a radix-tree dictionary (DIC)
// bit-identical to the engine's own, a polymorphic container subformat,
// and the index resolution / reachability analysis that ties a flowchart's
// entry points to the events they can reach.
//
//	flow, err := bfevfl.Parse(data)
//	...
//	out, err := flow.Serialize()
//
// The package does not interpret or execute flows, and it does not attempt
// schema validation beyond what the binary layout itself demands.
package bfevfl

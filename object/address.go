// Package object defines the runtime's universal heap-value capability
// (debug rendering, reference enumeration, downcast-by-type-assertion) and
// the concrete leaf/composite shapes the interpreter itself interprets.
package object

import "fmt"

// TaskId is minted by the Portal; it never changes for the lifetime of a
// task and is the first component of every Address.
type TaskId uint64

// Address is a stable handle naming a slot in the Collector: a pair
// (TaskId, serial). Addresses are copyable value types with no ownership
// semantics of their own — they can be freely passed across task
// boundaries once the underlying object has been made reachable via
// cross-task transfer.
type Address struct {
	Task   TaskId
	Serial uint32
}

func (a Address) String() string {
	return fmt.Sprintf("(%d.%d)", a.Task, a.Serial)
}

// Object is the capability every heap value must implement: enumeration
// of the addresses it holds outbound references to (leaves enumerate
// nothing), plus a debug rendering. Concrete downcast happens at use
// sites via a plain Go type assertion on the Object interface value —
// there is no bytecode-level type system (spec.md Non-goals).
type Object interface {
	fmt.Stringer
	// EnumerateReference calls yield once per outbound address this
	// object holds. Leaf objects call yield zero times.
	EnumerateReference(yield func(Address))
}

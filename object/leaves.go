package object

// LeafObject is the zero-outbound-reference half of the capability set:
// embedding it satisfies Object's EnumerateReference with a no-op,
// mirroring the blanket `impl<T: LeafObject> EnumerateReference for T` in
// the original source.
type LeafObject struct{}

func (LeafObject) EnumerateReference(func(Address)) {}

// True and False are the boolean markers Jump inspects. They carry no
// payload; a shared-constant optimization is noted but not mandated
// (spec.md §9).
type True struct{ LeafObject }

func (True) String() string { return "True" }

type False struct{ LeafObject }

func (False) String() string { return "False" }

// Pending marks a coroutine not yet ready.
type Pending struct{ LeafObject }

func (Pending) String() string { return "Pending" }

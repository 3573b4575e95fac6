package object

import "fmt"

// Ready wraps a completed coroutine's value. It enumerates that single
// value address, since the collector must keep it reachable.
type Ready struct {
	Value Address
}

func (r Ready) EnumerateReference(yield func(Address)) { yield(r.Value) }

func (r Ready) String() string { return fmt.Sprintf("Ready(%s)", r.Value) }

package object

import "fmt"

// Closure is the runtime callable built from a ClosureMeta: a dispatch
// target together with a captured address list. Its capture list is
// replaced wholesale (never mutated in place) by the closure primitives in
// package closure, via Collector.Replace, to respect the exclusive-mutation
// discipline (spec.md §5).
type Closure struct {
	Dispatch    Dispatch
	CaptureList []Address
}

func (c Closure) EnumerateReference(yield func(Address)) {
	for _, a := range c.CaptureList {
		yield(a)
	}
}

func (c Closure) String() string {
	return fmt.Sprintf("Closure(%s, captures=%v)", c.Dispatch, c.CaptureList)
}

// WithCaptureList returns a copy of c with a replaced capture list, used to
// build the Owned value passed to Collector.Replace when checkpointing
// coroutine state.
func (c Closure) WithCaptureList(captures []Address) Closure {
	c.CaptureList = append([]Address(nil), captures...)
	return c
}

package object

import "go.uber.org/atomic"

// ref is the shared cell behind both Owned and Shared: an Object plus an
// atomic strong count, playing the role of Rust's Arc<dyn GeneralInterface>
// in the original source. The count starts at 1 when an object is first
// allocated (representing the heap's own storage slot); every Shared handed
// out by Collector.Inspect beyond that first one increments it via Share,
// and the caller must call Release when done — the Go analogue of an Arc's
// Drop glue, which the language does not run for us automatically.
type ref struct {
	obj   Object
	count atomic.Int32
}

// Owned is a uniquely-held object: either freshly constructed (not yet
// inserted into any heap) or returned from Collector.Replace, where the
// precondition guarantees no other Shared aliases it.
type Owned struct{ r *ref }

// NewOwned wraps obj as a freshly, uniquely owned object (strong count 1).
func NewOwned(obj Object) Owned {
	o := Owned{r: &ref{obj: obj}}
	o.r.count.Store(1)
	return o
}

func (o Owned) Object() Object { return o.r.obj }

// IntoStored converts a uniquely-owned object into the Shared representing
// its new home in heap storage. The strong count (1) is left untouched —
// it now stands for "referenced by the heap table" rather than "exclusively
// held by the caller".
func (o Owned) IntoStored() Shared { return Shared{r: o.r} }

// Shared is a reference-counted, thread-safe-shareable view of a heap
// object, as returned by Collector.Inspect.
type Shared struct{ r *ref }

func (s Shared) Object() Object { return s.r.obj }

// StrongCount reports the current number of outstanding references,
// matching Arc::strong_count in the original source. Used by Collector to
// enforce the replace precondition.
func (s Shared) StrongCount() int32 { return s.r.count.Load() }

// Share mints another Shared over the same cell, incrementing the strong
// count. Used both by Collector (handing a caller a view of a stored
// object) and by callers that need to fan a Shared out further.
func (s Shared) Share() Shared {
	s.r.count.Inc()
	return s
}

// Release drops this Shared's hold on the object. Call sites that receive
// a Shared from Collector.Inspect and are done observing it should defer
// Release, the same way an Arc's scope-exit Drop would decrement.
func (s Shared) Release() { s.r.count.Dec() }

// IntoOwned reclaims unique ownership of a Shared whose strong count is
// known to be 1 (the Collector.Replace precondition). Panics if called
// with outstanding aliases — callers must check StrongCount first.
func (s Shared) IntoOwned() Owned {
	if s.r.count.Load() != 1 {
		panic("object: IntoOwned called on a non-uniquely-held reference")
	}
	return Owned{r: s.r}
}

package object

import "fmt"

// List is an ordered sequence of addresses produced by PackFloating and
// consumed by Unpack, and is also the shape of a closure's capture pack.
type List struct {
	Elements []Address
}

func NewList(elements ...Address) List {
	return List{Elements: append([]Address(nil), elements...)}
}

func (l List) EnumerateReference(yield func(Address)) {
	for _, a := range l.Elements {
		yield(a)
	}
}

func (l List) String() string { return fmt.Sprintf("List%v", l.Elements) }

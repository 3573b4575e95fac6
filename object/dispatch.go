package object

import "fmt"

// ModuleId names a Module loaded into an interpreter's module table.
type ModuleId = string

// Dispatch is a (module_id, symbol) entry-point handle — a leaf object.
type Dispatch struct {
	LeafObject
	ModuleId ModuleId
	Symbol   string
}

func (d Dispatch) String() string { return fmt.Sprintf("Dispatch(%s::%s)", d.ModuleId, d.Symbol) }

// ClosureMeta is the bytecode-literal describing how to build a Closure:
// a leaf object, since it is carried verbatim in a program and never
// itself references heap addresses.
type ClosureMeta struct {
	LeafObject
	Dispatch  Dispatch
	NCapture  uint8
}

func (m ClosureMeta) String() string {
	return fmt.Sprintf("ClosureMeta(%s, n_capture=%d)", m.Dispatch, m.NCapture)
}

package collector

import (
	"fmt"

	"github.com/ais-project/portalvm/object"
)

// Fault is a fatal, task-local invariant violation (spec.md §7): an
// unresolvable address, a spawn of an already-live task, or a Replace
// called without unique ownership. Collector operations panic with a
// *Fault rather than returning an error, since none of these conditions
// are recoverable within the runtime itself — only a Runner boundary
// recover() can observe one.
type Fault struct {
	Op   string
	Addr object.Address
	Msg  string
}

func (f *Fault) Error() string {
	if f.Addr == (object.Address{}) && f.Msg != "" && f.Op != "" {
		return fmt.Sprintf("collector: %s: %s", f.Op, f.Msg)
	}
	return fmt.Sprintf("collector: %s %s: %s", f.Op, f.Addr, f.Msg)
}

func fault(op string, addr object.Address, msg string) *Fault {
	return &Fault{Op: op, Addr: addr, Msg: msg}
}

package interpreter

import (
	"github.com/ais-project/portalvm/object"
)

type frame struct {
	moduleID  object.ModuleId
	pc        int
	stackSize int
}

// Interpreter holds one task's variable stack, call stack, and the module
// table it was loaded with. It is not itself concurrency-safe: each Runner
// worker goroutine owns exactly one Interpreter and drives it
// single-threaded, matching the
// "uninterruptible within a poll" rule of spec.md §5.
type Interpreter struct {
	moduleTable   map[object.ModuleId]*Module
	variableStack []object.Address
	callStack     []frame
}

func New() *Interpreter {
	return &Interpreter{moduleTable: make(map[object.ModuleId]*Module)}
}

// LoadModule installs m into the module table, replacing any prior module
// with the same id.
func (ip *Interpreter) LoadModule(m *Module) {
	ip.moduleTable[m.Id] = m
}

// PushCall resolves dispatch to a program offset via the module/symbol
// table and pushes a new call frame. A missing module or symbol is fatal
// (spec.md §6: "Missing symbol is fatal").
func (ip *Interpreter) PushCall(dispatch object.Dispatch, stackSize int) {
	mod, ok := ip.moduleTable[dispatch.ModuleId]
	if !ok {
		panic(fault("push_call", "unknown module "+dispatch.ModuleId))
	}
	offset, ok := mod.SymbolTable[dispatch.Symbol]
	if !ok {
		panic(fault("push_call", "unknown symbol "+dispatch.Symbol+" in module "+dispatch.ModuleId))
	}
	ip.callStack = append(ip.callStack, frame{moduleID: dispatch.ModuleId, pc: offset, stackSize: stackSize})
}

// HasStep reports whether there is a frame left to execute.
func (ip *Interpreter) HasStep() bool { return len(ip.callStack) > 0 }

// Reset drains and returns the variable stack. Valid only when the call
// stack is empty (a completed top-level run).
func (ip *Interpreter) Reset() []object.Address {
	if ip.HasStep() {
		panic(fault("reset", "call stack is not free"))
	}
	out := ip.variableStack
	ip.variableStack = nil
	return out
}

// PushVariable pushes addr onto the variable stack. Valid only when the
// call stack is empty, i.e. before a fresh top-level PushCall.
func (ip *Interpreter) PushVariable(addr object.Address) {
	if ip.HasStep() {
		panic(fault("push_variable", "call stack is not free"))
	}
	ip.variableStack = append(ip.variableStack, addr)
}

// StackView is a debug/test helper returning the current floating values,
// inspected through coll. Each returned Shared must be Released by the
// caller.
func (ip *Interpreter) StackView(coll CollectorInterface) []object.Shared {
	out := make([]object.Shared, len(ip.variableStack))
	for i, a := range ip.variableStack {
		out[i] = coll.Inspect(a)
	}
	return out
}

// Step executes exactly one bytecode instruction of the top call frame.
func (ip *Interpreter) Step(coll CollectorInterface) {
	top := len(ip.callStack) - 1
	mod := ip.moduleTable[ip.callStack[top].moduleID]
	pc := ip.callStack[top].pc
	instr := mod.Program[pc]
	ip.callStack[top].pc = pc + 1

	switch instr.Op {
	case OpCopy:
		k := int(instr.N)
		if k < 1 || k > len(ip.variableStack) {
			panic(fault("copy", "offset out of range"))
		}
		ip.variableStack = append(ip.variableStack, ip.variableStack[len(ip.variableStack)-k])

	case OpOperate:
		n := int(instr.N)
		if n > len(ip.variableStack) {
			panic(fault("operate", "stack underflow"))
		}
		argOffset := len(ip.variableStack) - n
		view := &operateView{coll: coll, ip: ip, argOffset: argOffset}
		instr.Operate(view)

	case OpJump:
		if len(ip.variableStack) == 0 {
			panic(fault("jump", "stack underflow"))
		}
		topAddr := ip.variableStack[len(ip.variableStack)-1]
		shared := coll.Inspect(topAddr)
		switch shared.Object().(type) {
		case object.True:
			shared.Release()
			delta := instr.Delta
			if delta > 0 {
				ip.callStack[top].pc += int(delta)
			} else {
				ip.callStack[top].pc -= int(-delta)
			}
		case object.False:
			shared.Release()
		default:
			shared.Release()
			panic(fault("jump", "jump on non-boolean variable"))
		}

	case OpCall:
		if len(ip.variableStack) == 0 {
			panic(fault("call", "stack underflow"))
		}
		dAddr := ip.variableStack[len(ip.variableStack)-1]
		dShared := coll.Inspect(dAddr)
		dispatch, ok := dShared.Object().(object.Dispatch)
		dShared.Release()
		if !ok {
			panic(fault("call", "stack top is not a Dispatch"))
		}
		ip.variableStack = ip.variableStack[:len(ip.variableStack)-1]
		n := int(instr.N)
		if n > len(ip.variableStack) {
			panic(fault("call", "stack underflow for arguments"))
		}
		// The n remaining arguments become the callee's floating region, and
		// the caller's own stackSize is moved up to the same base: the
		// caller's values below the arguments now sit beneath its base, so
		// the callee's Return leaves them in place, and the caller's later
		// AssertFloating/PackFloating count only what lies above that base.
		stackSize := len(ip.variableStack) - n
		ip.callStack[top].stackSize = stackSize
		ip.PushCall(dispatch, stackSize)

	case OpReturn:
		r := int(instr.N)
		ip.callStack = ip.callStack[:top]
		stackSize := 0
		if len(ip.callStack) > 0 {
			stackSize = ip.callStack[len(ip.callStack)-1].stackSize
		}
		if len(ip.variableStack)-r < stackSize {
			panic(fault("return", "fewer floating values than requested"))
		}
		keepFrom := len(ip.variableStack) - r
		copy(ip.variableStack[stackSize:], ip.variableStack[keepFrom:])
		ip.variableStack = ip.variableStack[:stackSize+r]

	case OpAssertFloating:
		m := int(instr.N)
		if len(ip.variableStack)-ip.callStack[top].stackSize != m {
			panic(fault("assert_floating", "floating variable count mismatch"))
		}

	case OpPackFloating:
		n := int(instr.N)
		stackSize := ip.callStack[top].stackSize
		if len(ip.variableStack)-stackSize < n {
			panic(fault("pack_floating", "fewer floating values than requested"))
		}
		packOffset := stackSize + n
		elems := append([]object.Address(nil), ip.variableStack[packOffset:]...)
		listAddr := coll.Allocate(object.NewOwned(object.NewList(elems...)))
		ip.variableStack = append(ip.variableStack[:packOffset], listAddr)

	case OpUnpack:
		if len(ip.variableStack) == 0 {
			panic(fault("unpack", "stack underflow"))
		}
		packAddr := ip.variableStack[len(ip.variableStack)-1]
		shared := coll.Inspect(packAddr)
		list, ok := shared.Object().(object.List)
		if !ok {
			shared.Release()
			panic(fault("unpack", "stack top is not a List"))
		}
		elems := append([]object.Address(nil), list.Elements...)
		shared.Release()
		ip.variableStack = ip.variableStack[:len(ip.variableStack)-1]
		ip.variableStack = append(ip.variableStack, elems...)

	default:
		panic(fault("step", "unknown opcode"))
	}
}

type operateView struct {
	coll      CollectorInterface
	ip        *Interpreter
	argOffset int
}

func (v *operateView) Allocate(owned object.Owned) object.Address { return v.coll.Allocate(owned) }
func (v *operateView) Inspect(addr object.Address) object.Shared  { return v.coll.Inspect(addr) }
func (v *operateView) Replace(addr object.Address, owned object.Owned) object.Owned {
	return v.coll.Replace(addr, owned)
}

func (v *operateView) GetArgument(index uint8) object.Address {
	return v.ip.variableStack[v.argOffset+int(index)]
}

func (v *operateView) SetArgument(index uint8, addr object.Address) {
	v.ip.variableStack[v.argOffset+int(index)] = addr
}

func (v *operateView) PushResult(addr object.Address) {
	v.ip.variableStack = append(v.ip.variableStack, addr)
}

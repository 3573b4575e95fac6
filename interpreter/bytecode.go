// Package interpreter implements the stack-based bytecode interpreter: a
// per-task variable stack and call stack of frames, driven one instruction
// at a time by Step so a Runner can interleave it with Portal fetch/suspend
// decisions.
//
// Grounded on interpreter.rs (original_source): the ByteCode enum, Frame
// shape, and the Copy/Operate/Jump/Call/Return/AssertFloating/
// PackFloating/Unpack semantics are carried over field-for-field.
package interpreter

import "github.com/ais-project/portalvm/object"

// Op identifies a bytecode instruction kind (spec.md §4.3).
type Op int

const (
	OpCopy Op = iota
	OpOperate
	OpJump
	OpCall
	OpReturn
	OpAssertFloating
	OpPackFloating
	OpUnpack
)

// OperateFunc is a host operator invoked by Operate(n, f): it treats the
// top n variable-stack entries as arguments and may push any number of
// results via OperateContext.
type OperateFunc func(OperateContext)

// ByteCode is one instruction. Only the fields relevant to Op are
// meaningful; this mirrors the original source's enum variants without
// Go's lack of sum types forcing an interface-per-op split, which would
// make Program []ByteCode unnecessarily heap-heavy for a hot step loop.
type ByteCode struct {
	Op      Op
	N       uint8       // Copy(k) / Operate(n) / Call(n) / Return(r) / AssertFloating(m) / PackFloating(n)
	Delta   int8        // Jump(δ)
	Operate OperateFunc // Operate(n, f)
}

func Copy(k uint8) ByteCode                  { return ByteCode{Op: OpCopy, N: k} }
func OperateOp(n uint8, f OperateFunc) ByteCode { return ByteCode{Op: OpOperate, N: n, Operate: f} }
func Jump(delta int8) ByteCode               { return ByteCode{Op: OpJump, Delta: delta} }
func Call(n uint8) ByteCode                  { return ByteCode{Op: OpCall, N: n} }
func Return(r uint8) ByteCode                { return ByteCode{Op: OpReturn, N: r} }
func AssertFloating(m uint8) ByteCode        { return ByteCode{Op: OpAssertFloating, N: m} }
// PackFloating(n) leaves the bottom n floating values untouched and packs
// everything above them into a single List.
func PackFloating(n uint8) ByteCode { return ByteCode{Op: OpPackFloating, N: n} }
func Unpack() ByteCode                       { return ByteCode{Op: OpUnpack} }

// CollectorInterface is the task-scoped view of the Collector a Runner
// hands to Step: TaskId is baked in by the caller (see runner package),
// matching CollectorInterface in runner.rs (original_source).
type CollectorInterface interface {
	Allocate(owned object.Owned) object.Address
	Inspect(addr object.Address) object.Shared
	Replace(addr object.Address, owned object.Owned) object.Owned
}

// OperateContext is what an OperateFunc receives: argument access plus the
// task-scoped collector view.
type OperateContext interface {
	CollectorInterface
	GetArgument(index uint8) object.Address
	SetArgument(index uint8, addr object.Address)
	PushResult(addr object.Address)
}

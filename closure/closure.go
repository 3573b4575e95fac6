// Package closure implements the four closure primitives of spec.md §4.4 as
// interpreter.OperateFunc host operators: operate_new builds a Closure from
// a ClosureMeta literal and its captures, operate_apply unpacks one back
// into a capture pack plus a dispatch target, operate_capture checkpoints a
// closure's capture list in place, and operate_poll implements the
// checkpoint-on-Pending / extract-on-Ready protocol coroutines use to
// encode resumable state inside their own capture list.
//
// Grounded on objects.rs and closure.rs (original_source): operate_apply's
// doc comment ("result: 1 pack of variables (captured) + 1 Dispatch") fixes
// the push order; operate_capture and operate_poll are unimplemented stubs
// upstream, so their bodies here follow spec.md §4.4/§9's consolidated
// contract directly.
package closure

import (
	"github.com/ais-project/portalvm/interpreter"
	"github.com/ais-project/portalvm/object"
)

// New is Closure::operate_new: argument 0 is a ClosureMeta, arguments
// 1..n_capture are the values to capture. Result: one Closure address.
func New(ctx interpreter.OperateContext) {
	metaShared := ctx.Inspect(ctx.GetArgument(0))
	meta, ok := metaShared.Object().(object.ClosureMeta)
	metaShared.Release()
	if !ok {
		panic("closure: operate_new argument 0 is not a ClosureMeta")
	}
	captures := make([]object.Address, meta.NCapture)
	for i := range captures {
		captures[i] = ctx.GetArgument(1 + uint8(i))
	}
	closureAddr := ctx.Allocate(object.NewOwned(object.Closure{
		Dispatch:    meta.Dispatch,
		CaptureList: captures,
	}))
	ctx.PushResult(closureAddr)
}

// Apply is Closure::operate_apply: argument 0 is a Closure. Results, in
// order: a List of its captures (the "capture pack"), then its Dispatch.
// The caller follows with Call(1): the callee receives the pack as its sole
// argument and Unpacks it to restore the captured values ahead of any
// caller-supplied arguments.
func Apply(ctx interpreter.OperateContext) {
	shared := ctx.Inspect(ctx.GetArgument(0))
	c, ok := shared.Object().(object.Closure)
	shared.Release()
	if !ok {
		panic("closure: operate_apply argument 0 is not a Closure")
	}
	pack := ctx.Allocate(object.NewOwned(object.NewList(c.CaptureList...)))
	ctx.PushResult(pack)
	dispatch := ctx.Allocate(object.NewOwned(c.Dispatch))
	ctx.PushResult(dispatch)
}

// Capture is Closure::operate_capture: argument 0 is a closure address
// (mutated in place via Replace), argument 1 is a List of replacement
// captures. No result; this is the checkpoint primitive coroutines use to
// persist state across polls.
func Capture(ctx interpreter.OperateContext) {
	closureAddr := ctx.GetArgument(0)
	closureShared := ctx.Inspect(closureAddr)
	c, ok := closureShared.Object().(object.Closure)
	if !ok {
		closureShared.Release()
		panic("closure: operate_capture argument 0 is not a Closure")
	}
	closureShared.Release()

	packShared := ctx.Inspect(ctx.GetArgument(1))
	list, ok := packShared.Object().(object.List)
	packShared.Release()
	if !ok {
		panic("closure: operate_capture argument 1 is not a List")
	}

	prev := ctx.Replace(closureAddr, object.NewOwned(c.WithCaptureList(list.Elements)))
	_ = prev.Object() // drop the previous capture list; it was uniquely held
}

// Poll is Closure::operate_poll: argument 0 is the closure being
// checkpointed, argument 1 is the poll_slot (an address holding either a
// Pending or a Ready(value)), argument 2 is the current capture pack. On
// Pending it checkpoints the closure's capture list and pushes False; on
// Ready it overwrites the poll_slot stack position with the Ready value's
// own address and pushes True.
func Poll(ctx interpreter.OperateContext) {
	slotAddr := ctx.GetArgument(1)
	slotShared := ctx.Inspect(slotAddr)

	switch v := slotShared.Object().(type) {
	case object.Pending:
		slotShared.Release()
		closureAddr := ctx.GetArgument(0)
		closureShared := ctx.Inspect(closureAddr)
		c, ok := closureShared.Object().(object.Closure)
		closureShared.Release()
		if !ok {
			panic("closure: operate_poll argument 0 is not a Closure")
		}
		packShared := ctx.Inspect(ctx.GetArgument(2))
		list, ok := packShared.Object().(object.List)
		packShared.Release()
		if !ok {
			panic("closure: operate_poll argument 2 is not a List")
		}
		prev := ctx.Replace(closureAddr, object.NewOwned(c.WithCaptureList(list.Elements)))
		_ = prev.Object()
		ctx.PushResult(ctx.Allocate(object.NewOwned(object.False{})))

	case object.Ready:
		slotShared.Release()
		ctx.SetArgument(1, v.Value)
		ctx.PushResult(ctx.Allocate(object.NewOwned(object.True{})))

	default:
		slotShared.Release()
		panic("closure: operate_poll argument 1 is neither Pending nor Ready")
	}
}

// ReadyNew is Ready::operate_new: argument 0 is a value address. Result:
// one Ready address wrapping it.
func ReadyNew(ctx interpreter.OperateContext) {
	value := ctx.GetArgument(0)
	ctx.PushResult(ctx.Allocate(object.NewOwned(object.Ready{Value: value})))
}

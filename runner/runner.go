// Package runner glues Portal, Collector, and Interpreter into the loop
// spec.md §4.6 describes: fetch a task, apply its closure through the
// fixed top-level poll program, and route the resulting (ready_flag, slot)
// pair to completion or suspension.
//
// Grounded on runner.rs (original_source) for the overall poll_one shape
// and its per-task CollectorInterface adapter; the fixed top-level
// bytecode program is spec.md §4.6's own listing, hand-verified against
// interpreter.Step's Call/Return semantics (see its OpCall and OpReturn
// cases).
// Panic recovery at the poll boundary follows the teacher's xact package
// convention of wrapping unexpected failures with github.com/pkg/errors
// before logging them via nlog, rather than letting one task's bug take
// down a worker goroutine.
package runner

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/ais-project/portalvm/closure"
	"github.com/ais-project/portalvm/cmn"
	"github.com/ais-project/portalvm/cmn/cos"
	"github.com/ais-project/portalvm/cmn/mono"
	"github.com/ais-project/portalvm/cmn/nlog"
	"github.com/ais-project/portalvm/collector"
	"github.com/ais-project/portalvm/interpreter"
	"github.com/ais-project/portalvm/metrics"
	"github.com/ais-project/portalvm/object"
	"github.com/ais-project/portalvm/portal"
)

const (
	topLevelModuleID = "runtime"
	topLevelSymbol   = "poll_one"
)

var topLevelDispatch = object.Dispatch{ModuleId: topLevelModuleID, Symbol: topLevelSymbol}

// topLevelModule is the fixed poll program of spec.md §4.6:
//
//	AssertFloating(1)
//	Operate(1, Closure::operate_apply)
//	Call(1)
//	PackFloating(1)
//	Operate(3, Closure::operate_poll)
//	Copy(3)
//	Return(2)
//
// A task's closure is its sole input; the result is always a 2-tuple
// (ready_flag, value_or_slot).
func topLevelModule() *interpreter.Module {
	return &interpreter.Module{
		Id:          topLevelModuleID,
		SymbolTable: map[string]int{topLevelSymbol: 0},
		Program: []interpreter.ByteCode{
			interpreter.AssertFloating(1),
			interpreter.OperateOp(1, closure.Apply),
			interpreter.Call(1),
			interpreter.PackFloating(1),
			interpreter.OperateOp(3, closure.Poll),
			interpreter.Copy(3),
			interpreter.Return(2),
		},
	}
}

// taskView binds a TaskId to the Collector, the per-poll adapter handed to
// Interpreter.Step as its CollectorInterface (runner.rs's own
// CollectorInterface impl, carried over field-for-field).
type taskView struct {
	coll *collector.Collector
	id   object.TaskId
}

func (v taskView) Allocate(owned object.Owned) object.Address { return v.coll.Allocate(v.id, owned) }
func (v taskView) Inspect(addr object.Address) object.Shared  { return v.coll.Inspect(v.id, addr) }
func (v taskView) Replace(addr object.Address, owned object.Owned) object.Owned {
	return v.coll.Replace(addr, owned)
}

type outcome int

const (
	outcomeReady outcome = iota
	outcomePending
	outcomeFaulted
)

type pollResult struct {
	outcome outcome
	value   object.Address
}

// Runner drives one Interpreter per worker thread against a shared Portal
// and Collector.
type Runner struct {
	portal  *portal.Portal
	coll    *collector.Collector
	modules []*interpreter.Module

	nThreads int
	interps  []*interpreter.Interpreter

	mu      sync.Mutex
	wakers  map[object.TaskId]func()
	results map[object.TaskId]object.Address

	done chan object.TaskId
	wg   sync.WaitGroup

	epochMu   sync.Mutex
	lastEpoch int64
}

// New builds a Runner with nThreads workers sharing coll as the heap
// owner. Call LoadModule for every user module before Start.
func New(nThreads int, coll *collector.Collector) *Runner {
	if nThreads < 1 {
		nThreads = 1
	}
	return &Runner{
		portal:   portal.New(nThreads),
		coll:     coll,
		nThreads: nThreads,
		modules:  []*interpreter.Module{topLevelModule()},
		wakers:    make(map[object.TaskId]func()),
		results:   make(map[object.TaskId]object.Address),
		done:      make(chan object.TaskId, 64),
		lastEpoch: mono.NanoTime(),
	}
}

// LoadModule installs m into every worker thread's interpreter. Call
// before Start; modules loaded after Start are not picked up.
func (r *Runner) LoadModule(m *interpreter.Module) {
	r.modules = append(r.modules, m)
}

// Start builds one Interpreter per worker thread (loaded with every
// module registered so far) and launches their poll loops.
func (r *Runner) Start() {
	r.interps = make([]*interpreter.Interpreter, r.nThreads)
	for i := range r.interps {
		ip := interpreter.New()
		for _, m := range r.modules {
			ip.LoadModule(m)
		}
		r.interps[i] = ip
	}
	for i := 0; i < r.nThreads; i++ {
		threadId := portal.ThreadId(i)
		r.wg.Add(1)
		go r.workerLoop(threadId)
	}
}

// Stop shuts the Portal down and waits for every worker goroutine to
// drain.
func (r *Runner) Stop() {
	r.portal.Shutdown()
	r.wg.Wait()
}

// Submit spawns a fresh task on threadId running closureAddr, creating its
// heap. closureAddr may belong to any task's heap already known to the
// Collector (the closure itself need not have been allocated by the new
// task).
func (r *Runner) Submit(threadId portal.ThreadId, closureAddr object.Address) object.TaskId {
	task := r.portal.Spawn(threadId, closureAddr)
	r.coll.Spawn(task.Id)
	return task.Id
}

// Wake invokes the stored waker for taskID, if the task is currently
// suspended; a no-op otherwise (including for an unknown or already
// completed task).
func (r *Runner) Wake(taskID object.TaskId) {
	r.mu.Lock()
	wake := r.wakers[taskID]
	r.mu.Unlock()
	if wake != nil {
		wake()
	}
}

// Result returns the value a completed task resolved to, if any.
func (r *Runner) Result(taskID object.TaskId) (object.Address, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.results[taskID]
	return v, ok
}

// Done reports the TaskId of each task as it completes (reaches Ready). The
// channel buffers up to 64 ids; a completion that finds it full is not
// reported on it (its Result is still recorded).
func (r *Runner) Done() <-chan object.TaskId { return r.done }

// MaybeEpochChange rotates the Collector's transfer/limbo epoch via
// witnessFn, but only if cmn.GCO.Get().EpochInterval has elapsed since the
// last rotation this Runner performed. A host ticker calls this
// periodically; interval tracking uses cmn/mono (teacher's own monotonic
// clock helper) rather than wall-clock time.
func (r *Runner) MaybeEpochChange(witnessFn func() map[object.TaskId]struct{}) {
	r.epochMu.Lock()
	last := r.lastEpoch
	r.epochMu.Unlock()

	if mono.Since(last) < cmn.GCO.Get().EpochInterval {
		return
	}
	r.coll.EpochChange(witnessFn)

	r.epochMu.Lock()
	r.lastEpoch = mono.NanoTime()
	r.epochMu.Unlock()
}

func (r *Runner) workerLoop(threadId portal.ThreadId) {
	defer r.wg.Done()
	ip := r.interps[threadId]
	for {
		task, ok := r.portal.Fetch(threadId)
		if !ok {
			return
		}
		res := r.pollOnce(ip, task.Id, task.Closure)
		switch res.outcome {
		case outcomeReady:
			r.coll.Join(task.Id)
			metrics.TasksCompleted.Inc()
			r.mu.Lock()
			r.results[task.Id] = res.value
			delete(r.wakers, task.Id)
			r.mu.Unlock()
			if cmn.Rom.FastV(3, cos.SmoduleRunner) {
				nlog.Infof("runner: task %d ready with %s", task.Id, res.value)
			}
			select {
			case r.done <- task.Id:
			default:
			}

		case outcomePending:
			r.portal.Suspend(threadId, task)
			waker := r.portal.Waker(threadId, task)
			r.mu.Lock()
			r.wakers[task.Id] = waker
			r.mu.Unlock()
			if cmn.Rom.FastV(4, cos.SmoduleRunner) {
				nlog.Infof("runner: task %d pending", task.Id)
			}

		case outcomeFaulted:
			r.coll.Join(task.Id)
			metrics.TasksFaulted.Inc()
			r.mu.Lock()
			delete(r.wakers, task.Id)
			r.mu.Unlock()
			// The faulted poll left ip mid-program; give the next task a
			// fresh interpreter loaded with the same modules.
			ip = interpreter.New()
			for _, m := range r.modules {
				ip.LoadModule(m)
			}
			r.interps[threadId] = ip
		}
	}
}

// pollOnce drives the fixed top-level poll program once for taskID against
// closureAddr, decoding its (ready_flag, slot) result. A panic anywhere in
// Step (a Fault, or a host operator's own panic) is recovered at this
// boundary and turned into outcomeFaulted: the task's heap still gets
// joined so any addresses it held move to the transfer table rather than
// leaking, but no result is ever produced for it.
func (r *Runner) pollOnce(ip *interpreter.Interpreter, taskID object.TaskId, closureAddr object.Address) (res pollResult) {
	tv := taskView{coll: r.coll, id: taskID}
	defer func() {
		if rec := recover(); rec != nil {
			err := errors.Errorf("task %d faulted during poll: %v", taskID, rec)
			nlog.Errorln(err)
			res = pollResult{outcome: outcomeFaulted}
		}
	}()

	ip.PushVariable(closureAddr)
	ip.PushCall(topLevelDispatch, 0)
	for ip.HasStep() {
		ip.Step(tv)
	}

	stack := ip.Reset()
	if len(stack) != 2 {
		panic(fmt.Sprintf("poll_one produced %d values, want 2", len(stack)))
	}

	flagShared := tv.Inspect(stack[0])
	_, ready := flagShared.Object().(object.True)
	flagShared.Release()
	if ready {
		return pollResult{outcome: outcomeReady, value: stack[1]}
	}
	return pollResult{outcome: outcomePending, value: stack[1]}
}

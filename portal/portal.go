// Package portal implements the cooperative task scheduler (spec.md §4.5):
// per-thread poll lists and pending sets, spawn/fetch/suspend/waker, and
// work-stealing fetch across worker threads.
//
// Grounded on portal.rs (original_source) for the entity shapes (Task,
// per-thread poll_list/pending_set); portal.rs's own scheduling loop is an
// incomplete sketch, so fetch/suspend/waker follow spec.md §4.5's fuller,
// consolidated contract. Go idioms (mutex-guarded maps, atomic counters,
// nlog, interface-guard style) are grounded on the teacher's xact/xs
// package conventions.
package portal

import (
	"strconv"
	"sync"

	"github.com/teris-io/shortid"
	"go.uber.org/atomic"

	"github.com/ais-project/portalvm/cmn"
	"github.com/ais-project/portalvm/cmn/cos"
	"github.com/ais-project/portalvm/cmn/nlog"
	"github.com/ais-project/portalvm/metrics"
	"github.com/ais-project/portalvm/object"
)

// ThreadId identifies one of the Portal's fixed set of worker threads.
type ThreadId int

// Task is (TaskId, closure address) — the unit of scheduling.
type Task struct {
	Id      object.TaskId
	Closure object.Address
}

type peer struct {
	mu         sync.Mutex
	pollList   []Task // LIFO: owner pops/pushes at the tail
	pendingSet map[object.TaskId]Task
}

// Portal owns every worker thread's poll_list/pending_set plus a single
// park/unpark signal shared by fetch. spawn and waker broadcast on it so
// any thread blocked in fetch retries immediately.
type Portal struct {
	peers []peer

	parkMu sync.Mutex
	park   *sync.Cond

	nextID atomic.Uint64
	sid    *shortid.Shortid

	closed atomic.Bool
}

// New creates a Portal with nThreads fixed worker slots.
func New(nThreads int) *Portal {
	p := &Portal{peers: make([]peer, nThreads)}
	p.park = sync.NewCond(&p.parkMu)
	for i := range p.peers {
		p.peers[i].pendingSet = make(map[object.TaskId]Task)
	}
	sid, err := shortid.New(1, shortid.DefaultABC, 1)
	if err != nil {
		sid = shortid.MustNew(1, shortid.DefaultABC, 1)
	}
	p.sid = sid
	return p
}

// Spawn mints a fresh TaskId, enqueues the task on threadId's poll_list,
// and unparks every thread (the new task may be stolen by any of them).
func (p *Portal) Spawn(threadId ThreadId, closureAddr object.Address) Task {
	id := object.TaskId(p.nextID.Add(1))
	task := Task{Id: id, Closure: closureAddr}

	pr := &p.peers[threadId]
	pr.mu.Lock()
	pr.pollList = append(pr.pollList, task)
	depth := len(pr.pollList)
	pr.mu.Unlock()

	metrics.TasksSpawned.Inc()
	metrics.QueueDepth.WithLabelValues(strconv.Itoa(int(threadId))).Set(float64(depth))
	if cmn.Rom.FastV(4, cos.SmodulePortal) {
		tag, _ := p.sid.Generate()
		nlog.Infof("portal: spawned task %d (tag=%s) on thread %d", id, tag, threadId)
	}
	p.wakeAll()
	return task
}

// Fetch pops the next runnable task for threadId: local poll_list first,
// else work-stealing from a peer's poll_list, else parks until a Spawn,
// Waker, or Shutdown unparks it and retries. The second return value is
// false only once Shutdown has been called and no task remains anywhere.
func (p *Portal) Fetch(threadId ThreadId) (Task, bool) {
	for {
		if task, ok := p.popLocal(threadId); ok {
			return task, true
		}
		if task, ok := p.steal(threadId); ok {
			return task, true
		}
		p.parkMu.Lock()
		if p.closed.Load() {
			p.parkMu.Unlock()
			return Task{}, false
		}
		p.park.Wait()
		p.parkMu.Unlock()
	}
}

// Shutdown marks the Portal closed and unparks every thread. A thread
// blocked in Fetch with no runnable task returns (Task{}, false) instead
// of parking again.
func (p *Portal) Shutdown() {
	p.closed.Store(true)
	p.wakeAll()
}

func (p *Portal) popLocal(threadId ThreadId) (Task, bool) {
	pr := &p.peers[threadId]
	pr.mu.Lock()
	n := len(pr.pollList)
	if n == 0 {
		pr.mu.Unlock()
		return Task{}, false
	}
	task := pr.pollList[n-1]
	pr.pollList = pr.pollList[:n-1]
	depth := len(pr.pollList)
	pr.mu.Unlock()
	metrics.QueueDepth.WithLabelValues(strconv.Itoa(int(threadId))).Set(float64(depth))
	return task, true
}

// steal pops from the front of a peer's poll_list (the owner pops from the
// tail), the usual work-stealing convention for minimizing contention
// between an owner and thieves on the same deque.
func (p *Portal) steal(self ThreadId) (Task, bool) {
	for i := range p.peers {
		threadId := ThreadId(i)
		if threadId == self {
			continue
		}
		pr := &p.peers[threadId]
		pr.mu.Lock()
		if len(pr.pollList) == 0 {
			pr.mu.Unlock()
			continue
		}
		task := pr.pollList[0]
		pr.pollList = pr.pollList[1:]
		depth := len(pr.pollList)
		pr.mu.Unlock()
		metrics.QueueDepth.WithLabelValues(strconv.Itoa(int(threadId))).Set(float64(depth))
		if cmn.Rom.FastV(4, cos.SmodulePortal) {
			nlog.Infof("portal: thread %d stole task %d from thread %d", self, task.Id, threadId)
		}
		return task, true
	}
	return Task{}, false
}

// Suspend moves task into threadId's pending_set. Call only for a task
// whose poll just returned Pending.
func (p *Portal) Suspend(threadId ThreadId, task Task) {
	pr := &p.peers[threadId]
	pr.mu.Lock()
	pr.pendingSet[task.Id] = task
	pr.mu.Unlock()
	metrics.TasksSuspended.Inc()
}

// Waker returns a one-shot wake callback for task, bound to the thread
// that suspended it. Invoking it moves the task from pending_set back to
// poll_list and unparks every thread; a wake on an already-ready task (one
// no longer present in pending_set, whether because it was already woken
// or never suspended) is a no-op.
func (p *Portal) Waker(threadId ThreadId, task Task) func() {
	return func() {
		pr := &p.peers[threadId]
		pr.mu.Lock()
		_, pending := pr.pendingSet[task.Id]
		var depth int
		if pending {
			delete(pr.pendingSet, task.Id)
			pr.pollList = append(pr.pollList, task)
			depth = len(pr.pollList)
		}
		pr.mu.Unlock()
		if !pending {
			return
		}
		metrics.QueueDepth.WithLabelValues(strconv.Itoa(int(threadId))).Set(float64(depth))
		if cmn.Rom.FastV(4, cos.SmodulePortal) {
			nlog.Infof("portal: woke task %d on thread %d", task.Id, threadId)
		}
		p.wakeAll()
	}
}

func (p *Portal) wakeAll() {
	p.parkMu.Lock()
	p.park.Broadcast()
	p.parkMu.Unlock()
}

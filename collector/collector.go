// Package collector implements the multi-heap copying garbage collector:
// per-task heaps, precise copy-collection over a worklist, and the
// transfer/limbo epoch pair that lets any task observe a cross-task
// address for a full epoch after its origin heap collects it.
//
// Grounded on collector.rs (original_source): Collector.heap_table is a
// read/write-locked map of per-task mutexes; the transfer table is
// write-locked when CopyCollect extends it and during epoch rotation, the
// limbo table only during epoch rotation, and the witness set sits behind
// its own plain mutex.
package collector

import (
	"strconv"
	"sync"

	"github.com/ais-project/portalvm/cmn"
	"github.com/ais-project/portalvm/cmn/cos"
	"github.com/ais-project/portalvm/cmn/nlog"
	"github.com/ais-project/portalvm/metrics"
	"github.com/ais-project/portalvm/object"
)

type heap struct {
	mu             sync.Mutex
	storage        map[object.Address]object.Shared
	allocateNumber uint32
}

func newHeap() *heap {
	return &heap{storage: make(map[object.Address]object.Shared)}
}

// Collector owns every task's heap plus the transfer/limbo epoch tables.
type Collector struct {
	mu        sync.RWMutex // guards heapTable's structure (insert/remove of tasks)
	heapTable map[object.TaskId]*heap

	tmu           sync.RWMutex
	transferTable map[object.Address]object.Shared

	lmu        sync.RWMutex
	limboTable map[object.Address]object.Shared

	wmu        sync.Mutex
	witnessSet map[object.TaskId]struct{}
}

func New() *Collector {
	return &Collector{
		heapTable:     make(map[object.TaskId]*heap),
		transferTable: make(map[object.Address]object.Shared),
		limboTable:    make(map[object.Address]object.Shared),
		witnessSet:    make(map[object.TaskId]struct{}),
	}
}

// Spawn creates an empty heap slot for id. Spawning an id that is already
// live is a bug (spec.md §4.1): idempotency is not required.
func (c *Collector) Spawn(id object.TaskId) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.heapTable[id]; exists {
		panic(fault("spawn", object.Address{Task: id}, "task already live"))
	}
	c.heapTable[id] = newHeap()
}

// Allocate moves owned into heap[id] under a fresh (id, next_serial)
// address.
func (c *Collector) Allocate(id object.TaskId, owned object.Owned) object.Address {
	h := c.mustHeap("allocate", id)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.allocateNumber++
	addr := object.Address{Task: id, Serial: h.allocateNumber}
	h.storage[addr] = owned.IntoStored()
	return addr
}

// Inspect returns a reference-counted Shared view of the object at addr,
// resolved from heap[id], else heap[addr.Task], else transfer, else limbo.
// A remote resolution is cached into heap[id] (read caching).
func (c *Collector) Inspect(id object.TaskId, addr object.Address) object.Shared {
	h := c.mustHeap("inspect", id)
	h.mu.Lock()
	defer h.mu.Unlock()
	shared, local := c.resolve(id, addr, h)
	if !local {
		h.storage[addr] = shared.Share()
		if cmn.Rom.FastV(4, cos.SmoduleCollector) {
			nlog.Infof("collector: cached remote %s into heap of task %d", addr, id)
		}
	}
	return shared
}

// resolve looks addr up without taking ownership of caching decisions: it
// reports whether the object was already resident in self (the caller's
// own heap), so Inspect can decide to cache while CopyCollect's internal
// traversal never does (spec.md §9: caching during collection must not
// grow the heap being replaced).
func (c *Collector) resolve(selfID object.TaskId, addr object.Address, self *heap) (shared object.Shared, local bool) {
	if shared, ok := self.storage[addr]; ok {
		return shared.Share(), true
	}
	if addr.Task != selfID {
		c.mu.RLock()
		remote, ok := c.heapTable[addr.Task]
		c.mu.RUnlock()
		if ok {
			remote.mu.Lock()
			shared, ok2 := remote.storage[addr]
			remote.mu.Unlock()
			if ok2 {
				return shared.Share(), false
			}
		}
	}
	c.tmu.RLock()
	if shared, ok := c.transferTable[addr]; ok {
		c.tmu.RUnlock()
		return shared.Share(), false
	}
	c.tmu.RUnlock()

	c.lmu.RLock()
	defer c.lmu.RUnlock()
	shared, ok := c.limboTable[addr]
	if !ok {
		panic(fault("inspect", addr, "address not found in any table"))
	}
	return shared.Share(), false
}

// Replace swaps owned in at addr (in its owning heap) and returns the
// previous contents. The caller must hold the only strong reference to the
// previous object (exclusive-mutation discipline, spec.md §5): Replace
// asserts strong count 1 before handing back ownership.
func (c *Collector) Replace(addr object.Address, owned object.Owned) object.Owned {
	h := c.mustHeap("replace", addr.Task)
	h.mu.Lock()
	defer h.mu.Unlock()
	prev, ok := h.storage[addr]
	if !ok {
		panic(fault("replace", addr, "address not present in its owning heap"))
	}
	if prev.StrongCount() != 1 {
		panic(fault("replace", addr, "outgoing object is not uniquely held"))
	}
	h.storage[addr] = owned.IntoStored()
	return prev.IntoOwned()
}

// CopyCollect performs a mark-copy traversal over heap[id] reachable from
// roots. The entire previous contents of heap[id] (reachable or not) move
// into the transfer table rather than being dropped; the reachable subset
// also becomes the new heap[id] — so a reachable address resolves via both
// heap[id] and the transfer table until the next epoch_change, and an
// unreachable one resolves only via transfer.
func (c *Collector) CopyCollect(id object.TaskId, roots []object.Address) {
	h := c.mustHeap("copy_collect", id)
	h.mu.Lock()

	kept := make(map[object.Address]object.Shared, len(h.storage))
	gray := append([]object.Address(nil), roots...)
	for len(gray) > 0 {
		addr := gray[len(gray)-1]
		gray = gray[:len(gray)-1]
		if _, ok := kept[addr]; ok {
			continue
		}
		shared, _ := c.resolve(id, addr, h)
		kept[addr] = shared
		shared.Object().EnumerateReference(func(next object.Address) {
			if _, ok := kept[next]; !ok {
				gray = append(gray, next)
			}
		})
	}
	old := h.storage
	h.storage = kept
	h.mu.Unlock()

	c.tmu.Lock()
	for addr, shared := range old {
		c.transferTable[addr] = shared
	}
	c.tmu.Unlock()

	c.wmu.Lock()
	delete(c.witnessSet, id)
	c.wmu.Unlock()

	metrics.CopyCollectCycles.Inc()
	metrics.HeapSize.WithLabelValues(strconv.FormatUint(uint64(id), 10)).Set(float64(len(kept)))
	if cmn.Rom.FastV(3, cos.SmoduleCollector) {
		nlog.Infof("collector: copy_collect task=%d kept=%d transferred=%d", id, len(kept), len(old))
	}
}

// Join collects with empty roots (draining the whole heap to transfer)
// then removes the heap entirely.
func (c *Collector) Join(id object.TaskId) {
	c.CopyCollect(id, nil)
	c.mu.Lock()
	delete(c.heapTable, id)
	c.mu.Unlock()
}

// EpochChange rotates the epoch iff the witness set is currently empty:
// drop limbo, promote transfer to limbo, and reseed the witness set from
// witnessFn. No-op otherwise (spec.md §4.1).
func (c *Collector) EpochChange(witnessFn func() map[object.TaskId]struct{}) {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if len(c.witnessSet) > 0 {
		return
	}
	c.lmu.Lock()
	c.tmu.Lock()
	previousTransfer := c.transferTable
	c.transferTable = make(map[object.Address]object.Shared)
	c.limboTable = previousTransfer
	c.tmu.Unlock()
	c.lmu.Unlock()

	c.witnessSet = witnessFn()
	metrics.EpochChanges.Inc()
	if cmn.Rom.FastV(2, cos.SmoduleCollector) {
		nlog.Infof("collector: epoch_change, new witness set size=%d", len(c.witnessSet))
	}
}

func (c *Collector) mustHeap(op string, id object.TaskId) *heap {
	c.mu.RLock()
	h, ok := c.heapTable[id]
	c.mu.RUnlock()
	if !ok {
		panic(fault(op, object.Address{Task: id}, "no live heap for task"))
	}
	return h
}

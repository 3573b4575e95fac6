package collector_test

import (
	"github.com/ais-project/portalvm/collector"
	"github.com/ais-project/portalvm/object"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("epoch rotation", func() {
	var (
		c    *collector.Collector
		addr object.Address
	)

	empty := func() map[object.TaskId]struct{} { return map[object.TaskId]struct{}{} }

	BeforeEach(func() {
		c = collector.New()
		c.Spawn(1)
		addr = c.Allocate(1, object.NewOwned(intLeaf(5)))
		// unreachable from empty roots: the whole heap, including addr,
		// moves to the transfer table.
		c.CopyCollect(1, nil)
	})

	Context("within the epoch the object was collected in", func() {
		It("still resolves via the transfer table from another task", func() {
			c.Spawn(2)
			shared := c.Inspect(2, addr)
			defer shared.Release()
			Expect(shared.Object()).To(Equal(intLeaf(5)))
		})
	})

	Context("after exactly one epoch_change", func() {
		It("still resolves via limbo", func() {
			c.EpochChange(empty)
			c.Spawn(3)
			shared := c.Inspect(3, addr)
			defer shared.Release()
			Expect(shared.Object()).To(Equal(intLeaf(5)))
		})
	})

	Context("after two epoch_change cycles", func() {
		It("no longer resolves anywhere", func() {
			c.EpochChange(empty)
			c.EpochChange(empty)
			c.Spawn(4)
			Expect(func() { c.Inspect(4, addr) }).To(Panic())
		})
	})

	Context("when the witness set is non-empty", func() {
		It("epoch_change is a no-op", func() {
			c.EpochChange(func() map[object.TaskId]struct{} {
				return map[object.TaskId]struct{}{99: {}}
			})
			// a second call should no-op since witness set (99) is non-empty
			c.EpochChange(empty)
			c.Spawn(5)
			shared := c.Inspect(5, addr)
			defer shared.Release()
			Expect(shared.Object()).To(Equal(intLeaf(5)))
		})
	})
})

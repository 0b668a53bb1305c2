package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Cache", func() {
	var c *Cache

	BeforeEach(func() {
		c = MakeBuilder().Build("L1D")
	})

	It("should derive the number of sets from the configuration", func() {
		Expect(c.NumSets()).To(Equal(uint64(64)))
		Expect(c.Size()).To(Equal(uint64(16 * KB)))
		Expect(c.LineSize()).To(Equal(uint64(64)))
		Expect(c.Associativity()).To(Equal(4))
	})

	It("should split an address into tag, set index, and offset", func() {
		tag, setIndex, lineOffset := c.SplitAddressOffset(0x1043)

		Expect(tag.Identity()).To(Equal(uint64(0x41)))
		Expect(setIndex).To(Equal(uint64(1)))
		Expect(lineOffset).To(Equal(uint64(3)))
	})

	It("should miss on a cold cache and hit afterwards", func() {
		Expect(c.AccessSingleLine(0, AccessLoad)).To(BeFalse())
		Expect(c.AccessSingleLine(0, AccessLoad)).To(BeTrue())

		Expect(c.Hits(AccessLoad)).To(Equal(uint64(1)))
		Expect(c.Misses(AccessLoad)).To(Equal(uint64(1)))
	})

	It("should evict the least recently used line of a full set", func() {
		// Lines 0, 4096, 8192, and 12288 all map to set 0 in a 16 KB,
		// 64 B line, 4-way cache.
		Expect(c.AccessSingleLine(0, AccessLoad)).To(BeFalse())
		Expect(c.AccessSingleLine(0, AccessLoad)).To(BeTrue())
		Expect(c.AccessSingleLine(4096, AccessLoad)).To(BeFalse())
		Expect(c.AccessSingleLine(8192, AccessLoad)).To(BeFalse())
		Expect(c.AccessSingleLine(12288, AccessLoad)).To(BeFalse())

		// A fifth distinct line evicts line 0, the least recently used.
		Expect(c.AccessSingleLine(16384, AccessStore)).To(BeFalse())

		// Reloading line 0 misses and allocates again. That allocation
		// evicts line 4096, the oldest of the remaining residents; the
		// other three lines stay put.
		Expect(c.AccessSingleLine(0, AccessLoad)).To(BeFalse())
		Expect(c.AccessSingleLine(8192, AccessLoad)).To(BeTrue())
		Expect(c.AccessSingleLine(12288, AccessLoad)).To(BeTrue())
		Expect(c.AccessSingleLine(16384, AccessLoad)).To(BeTrue())
		Expect(c.AccessSingleLine(0, AccessLoad)).To(BeTrue())
		Expect(c.AccessSingleLine(4096, AccessLoad)).To(BeFalse())
	})

	It("should keep hits plus misses equal to accesses", func() {
		addrs := []uint64{0, 64, 4096, 0, 128, 64, 16384, 8, 72}
		for i, addr := range addrs {
			kind := AccessLoad
			if i%2 == 1 {
				kind = AccessStore
			}

			c.AccessSingleLine(addr, kind)

			for _, k := range []AccessKind{AccessLoad, AccessStore} {
				Expect(c.Hits(k) + c.Misses(k)).To(Equal(c.Accesses(k)))
			}
		}

		Expect(c.TotalAccesses()).To(Equal(uint64(len(addrs))))
	})

	It("should report a miss when a spanning access covers a non-resident line",
		func() {
			c.AccessSingleLine(0, AccessLoad)

			// [60, 68) covers line 0, already resident, and line 64, which
			// is not.
			Expect(c.Access(60, 8, AccessLoad)).To(BeFalse())

			Expect(c.Accesses(AccessLoad)).To(Equal(uint64(3)))
			Expect(c.Hits(AccessLoad)).To(Equal(uint64(1)))
			Expect(c.Misses(AccessLoad)).To(Equal(uint64(2)))
		})

	It("should hit when every covered line is resident", func() {
		c.Access(60, 8, AccessLoad)

		Expect(c.Access(60, 8, AccessLoad)).To(BeTrue())
	})

	It("should classify a within-line access as one sub-access", func() {
		c.Access(100, 4, AccessLoad)

		Expect(c.Accesses(AccessLoad)).To(Equal(uint64(1)))
	})

	It("should refuse a zero-sized access", func() {
		Expect(func() { c.Access(0, 0, AccessLoad) }).To(Panic())
	})
})

var _ = Describe("Cache construction", func() {
	It("should refuse a non-power-of-two line size", func() {
		Expect(func() {
			MakeBuilder().WithLineSize(48).Build("L1D")
		}).To(Panic())
	})

	It("should refuse a configuration with a non-power-of-two set count",
		func() {
			Expect(func() {
				NewCache(Config{
					Name:          "L1D",
					Size:          24 * KB,
					LineSize:      64,
					Associativity: 4,
				})
			}).To(Panic())
		})

	It("should refuse an associativity above the maximum", func() {
		Expect(func() {
			MakeBuilder().WithAssociativity(32).Build("L1D")
		}).To(Panic())
	})

	It("should refuse a set count above the maximum", func() {
		Expect(func() {
			MakeBuilder().
				WithSize(16 * MB).
				WithMaxSets(1024).
				Build("L2")
		}).To(Panic())
	})

	It("should refuse a direct-mapped cache with associativity above 1",
		func() {
			Expect(func() {
				MakeBuilder().
					WithReplacement("directMapped").
					Build("L1D")
			}).To(Panic())
		})

	It("should build a direct-mapped cache with associativity 1", func() {
		c := MakeBuilder().
			WithReplacement("directMapped").
			WithAssociativity(1).
			Build("L1D")

		Expect(c.NumSets()).To(Equal(uint64(256)))
	})

	It("should refuse an unknown replacement strategy", func() {
		Expect(func() {
			MakeBuilder().WithReplacement("random").Build("L1D")
		}).To(Panic())
	})
})

var _ = Describe("Direct-mapped cache", func() {
	var c *Cache

	BeforeEach(func() {
		c = MakeBuilder().
			WithReplacement("directMapped").
			WithAssociativity(1).
			Build("L1D")
	})

	It("should hit only when the previous access to the set carried the same tag",
		func() {
			Expect(c.AccessSingleLine(0, AccessLoad)).To(BeFalse())
			Expect(c.AccessSingleLine(0, AccessLoad)).To(BeTrue())
			Expect(c.AccessSingleLine(0, AccessLoad)).To(BeTrue())

			// Line 16384 maps to set 0 as well and displaces line 0.
			Expect(c.AccessSingleLine(16384, AccessLoad)).To(BeFalse())
			Expect(c.AccessSingleLine(0, AccessLoad)).To(BeFalse())
		})
})

var _ = Describe("Cache dispatch", func() {
	var (
		mockCtrl *gomock.Controller
		mockSet  *MockSet
		c        *Cache
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		mockSet = NewMockSet(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should allocate on a load miss", func() {
		c = MakeBuilder().Build("L1D")
		c.sets[0] = mockSet
		tag, _ := c.SplitAddress(0)

		mockSet.EXPECT().Find(tag).Return(false)
		mockSet.EXPECT().Replace(tag)

		Expect(c.AccessSingleLine(0, AccessLoad)).To(BeFalse())
	})

	It("should not touch the set beyond the lookup on a hit", func() {
		c = MakeBuilder().Build("L1D")
		c.sets[0] = mockSet
		tag, _ := c.SplitAddress(0)

		mockSet.EXPECT().Find(tag).Return(true)

		Expect(c.AccessSingleLine(0, AccessStore)).To(BeTrue())
	})

	It("should allocate on a store miss under the allocate policy", func() {
		c = MakeBuilder().WithStoreAllocation("allocate").Build("L1D")
		c.sets[0] = mockSet
		tag, _ := c.SplitAddress(0)

		mockSet.EXPECT().Find(tag).Return(false)
		mockSet.EXPECT().Replace(tag)

		Expect(c.AccessSingleLine(0, AccessStore)).To(BeFalse())
	})

	It("should not allocate on a store miss under the no-allocate policy",
		func() {
			c = MakeBuilder().WithStoreAllocation("noAllocate").Build("L1D")
			c.sets[0] = mockSet
			tag, _ := c.SplitAddress(0)

			mockSet.EXPECT().Find(tag).Return(false)

			Expect(c.AccessSingleLine(0, AccessStore)).To(BeFalse())
			Expect(c.Misses(AccessStore)).To(Equal(uint64(1)))
		})
})

var _ = Describe("Store no-allocate cache", func() {
	var c *Cache

	BeforeEach(func() {
		c = MakeBuilder().WithStoreAllocation("noAllocate").Build("L1D")
	})

	It("should keep missing on repeated stores to the same line", func() {
		Expect(c.AccessSingleLine(0, AccessStore)).To(BeFalse())
		Expect(c.AccessSingleLine(0, AccessStore)).To(BeFalse())
	})

	It("should still insert the line on a load miss", func() {
		c.AccessSingleLine(0, AccessStore)
		c.AccessSingleLine(0, AccessLoad)

		Expect(c.AccessSingleLine(0, AccessStore)).To(BeTrue())
	})
})

package mem

import "fmt"

// PagePool_t backs every PhysPageNum_t with real storage. On actual
// RISC-V hardware the kernel would reach physical memory through an
// identity or direct map; here the pool is the one place that
// indirection lives, which keeps the allocator, page table and
// address-space code below free of unsafe pointer arithmetic and lets
// them run unmodified under `go test`.
type PagePool_t struct {
	start PhysPageNum_t
	bytes []byte
}

var pool *PagePool_t

/// InitPagePool reserves backing storage for the physical page range
/// [start, end) and makes it the pool every PhysPageNum_t in that
/// range resolves against. It must be called once, before the frame
/// allocator or any page table is used.
func InitPagePool(start, end PhysPageNum_t) {
	if end < start {
		panic(fmt.Sprintf("mem: InitPagePool: end %v before start %v", end, start))
	}
	n := uint64(end) - uint64(start)
	pool = &PagePool_t{
		start: start,
		bytes: make([]byte, n*uint64(PageSize)),
	}
}

/// PageBytes returns the PageSize-byte window backing ppn. It panics
/// if ppn falls outside the initialized pool, which can only happen
/// from a programming error (an unmapped or never-allocated PPN).
func PageBytes(ppn PhysPageNum_t) []byte {
	if pool == nil {
		panic("mem: PageBytes: page pool not initialized")
	}
	if ppn < pool.start {
		panic(fmt.Sprintf("mem: PageBytes: %v below pool start %v", ppn, pool.start))
	}
	off := (uint64(ppn) - uint64(pool.start)) * uint64(PageSize)
	if off+uint64(PageSize) > uint64(len(pool.bytes)) {
		panic(fmt.Sprintf("mem: PageBytes: %v outside pool", ppn))
	}
	return pool.bytes[off : off+uint64(PageSize)]
}

/// ZeroPage fills the page backing ppn with zero bytes.
func ZeroPage(ppn PhysPageNum_t) {
	b := PageBytes(ppn)
	for i := range b {
		b[i] = 0
	}
}

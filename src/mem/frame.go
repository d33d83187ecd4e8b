package mem

import (
	"fmt"
	"sync"
)

/// StackFrameAllocator_t is a stack allocator over a contiguous
/// physical page-number window, with a recycle list for freed pages.
/// It is not safe for concurrent use on its own; callers go through
/// the process-wide guard below, matching the single-hart exclusive-
/// cell discipline the rest of the kernel uses for shared state.
type StackFrameAllocator_t struct {
	current PhysPageNum_t
	end     PhysPageNum_t
	// recycled is used as a stack: append to push, slice off the tail to pop.
	recycled []PhysPageNum_t
}

/// Init sets the allocator's window to [l, r). Called once, after the
/// page pool backing that window has been installed.
func (a *StackFrameAllocator_t) Init(l, r PhysPageNum_t) {
	a.current = l
	a.end = r
	a.recycled = nil
}

/// Alloc returns the next free PPN, preferring the recycle list, or
/// false if the window is exhausted.
func (a *StackFrameAllocator_t) Alloc() (PhysPageNum_t, bool) {
	if n := len(a.recycled); n > 0 {
		ppn := a.recycled[n-1]
		a.recycled = a.recycled[:n-1]
		return ppn, true
	}
	if a.current == a.end {
		return 0, false
	}
	ppn := a.current
	a.current++
	return ppn, true
}

/// Dealloc returns ppn to the recycle list. It panics if ppn was never
/// handed out by Alloc or is already recycled — a double-free or
/// foreign-frame free is a caller bug, not a recoverable error.
func (a *StackFrameAllocator_t) Dealloc(ppn PhysPageNum_t) {
	if ppn >= a.current {
		panic(fmt.Sprintf("mem: Dealloc: frame %v was never allocated", ppn))
	}
	for _, r := range a.recycled {
		if r == ppn {
			panic(fmt.Sprintf("mem: Dealloc: frame %v already free", ppn))
		}
	}
	a.recycled = append(a.recycled, ppn)
}

// frameAllocator is the process-wide singleton. The embedded mutex
// guards it as an exclusive cell: callers must hold it for the
// minimum span needed and never across a task switch.
var frameAllocator struct {
	sync.Mutex
	a StackFrameAllocator_t
}

/// InitFrameAllocator configures the global allocator's window. It
/// does not itself reserve the backing pool; callers initialize
/// InitPagePool with the same range first.
func InitFrameAllocator(l, r PhysPageNum_t) {
	frameAllocator.Lock()
	defer frameAllocator.Unlock()
	frameAllocator.a.Init(l, r)
}

/// FrameTracker_t is the unique owner of one zeroed physical page. Its
/// zero value is not valid; obtain one from FrameAlloc. Ownership is
/// meant to move, never alias: whichever structure holds the
/// FrameTracker_t is responsible for calling Drop exactly once.
type FrameTracker_t struct {
	PPN PhysPageNum_t
}

/// FrameAlloc allocates a zero-filled physical page and wraps it in a
/// FrameTracker_t, or returns false if no frames remain.
func FrameAlloc() (FrameTracker_t, bool) {
	frameAllocator.Lock()
	ppn, ok := frameAllocator.a.Alloc()
	frameAllocator.Unlock()
	if !ok {
		return FrameTracker_t{}, false
	}
	ZeroPage(ppn)
	return FrameTracker_t{PPN: ppn}, true
}

/// Drop releases the frame back to the allocator. Callers must not use
/// the FrameTracker_t afterward. A second Drop of a frame that is still
/// on the recycle list panics; if the frame has been handed out again in
/// between, a second Drop frees it out from under its new owner, since
/// there is no reference count to catch that.
func (f FrameTracker_t) Drop() {
	frameAllocator.Lock()
	defer frameAllocator.Unlock()
	frameAllocator.a.Dealloc(f.PPN)
}

/// FrameAllocatorStats_t is a snapshot of the frame allocator's free
/// capacity, used by host-side diagnostics (see cmd/meminfo).
type FrameAllocatorStats_t struct {
	Current   PhysPageNum_t
	End       PhysPageNum_t
	Recycled  int
	FreeTotal uint64
}

/// Stats reports a snapshot of the global frame allocator.
func Stats() FrameAllocatorStats_t {
	frameAllocator.Lock()
	defer frameAllocator.Unlock()
	a := &frameAllocator.a
	return FrameAllocatorStats_t{
		Current:   a.current,
		End:       a.end,
		Recycled:  len(a.recycled),
		FreeTotal: uint64(a.end-a.current) + uint64(len(a.recycled)),
	}
}

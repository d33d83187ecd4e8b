package mem

import "testing"

func setupPool(t *testing.T, npages uint64) {
	t.Helper()
	InitPagePool(0, PhysPageNum_t(npages))
	InitFrameAllocator(0, PhysPageNum_t(npages))
}

func TestFrameAllocUnique(t *testing.T) {
	setupPool(t, 8)
	seen := map[PhysPageNum_t]bool{}
	var outstanding []FrameTracker_t
	for i := 0; i < 8; i++ {
		f, ok := FrameAlloc()
		if !ok {
			t.Fatalf("alloc %d failed early", i)
		}
		if seen[f.PPN] {
			t.Fatalf("PPN %v allocated twice while outstanding", f.PPN)
		}
		seen[f.PPN] = true
		outstanding = append(outstanding, f)
	}
	if _, ok := FrameAlloc(); ok {
		t.Fatal("expected exhaustion after allocating the whole window")
	}
	for _, f := range outstanding {
		f.Drop()
	}
	// recycled frames must be reusable and still unique while outstanding.
	reseen := map[PhysPageNum_t]bool{}
	for i := 0; i < 8; i++ {
		f, ok := FrameAlloc()
		if !ok {
			t.Fatalf("realloc %d failed", i)
		}
		if reseen[f.PPN] {
			t.Fatalf("PPN %v double-allocated after recycling", f.PPN)
		}
		reseen[f.PPN] = true
	}
}

func TestFrameDeallocOfUnallocatedPanics(t *testing.T) {
	setupPool(t, 4)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic deallocating a never-allocated frame")
		}
	}()
	frameAllocator.Lock()
	defer frameAllocator.Unlock()
	frameAllocator.a.Dealloc(3)
}

func TestFrameDeallocTwicePanics(t *testing.T) {
	setupPool(t, 4)
	f, ok := FrameAlloc()
	if !ok {
		t.Fatal("alloc failed")
	}
	f.Drop()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on double free")
		}
	}()
	f.Drop()
}

func TestFrameAllocIsZeroed(t *testing.T) {
	setupPool(t, 2)
	f, ok := FrameAlloc()
	if !ok {
		t.Fatal("alloc failed")
	}
	b := PageBytes(f.PPN)
	b[10] = 0xff
	f.Drop()

	g, ok := FrameAlloc()
	if !ok {
		t.Fatal("realloc failed")
	}
	if g.PPN != f.PPN {
		t.Fatalf("expected the freed frame (%v) to be reused, got %v", f.PPN, g.PPN)
	}
	for i, v := range PageBytes(g.PPN) {
		if v != 0 {
			t.Fatalf("recycled frame not zeroed at byte %d: %#x", i, v)
		}
	}
}

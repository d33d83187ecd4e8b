package mem

import "testing"

func TestPageTableMapTranslateUnmap(t *testing.T) {
	setupPool(t, 64)
	pt, ok := NewPageTable()
	if !ok {
		t.Fatal("NewPageTable failed")
	}
	defer pt.Drop()

	dataFrame, ok := FrameAlloc()
	if !ok {
		t.Fatal("FrameAlloc failed")
	}
	vpn := VirtPageNum_t(0x42)
	pt.Map(vpn, dataFrame.PPN, PteR|PteW|PteU)

	pte, ok := pt.Translate(vpn)
	if !ok {
		t.Fatal("expected translation to succeed after Map")
	}
	if pte.PPN() != dataFrame.PPN {
		t.Fatalf("translated PPN = %v, want %v", pte.PPN(), dataFrame.PPN)
	}
	if !pte.Valid() || !pte.Readable() || !pte.Writable() {
		t.Fatalf("expected V|R|W set, got flags %#x", pte.Flags())
	}
	if pte.Executable() {
		t.Fatal("did not expect X to be set")
	}

	pt.Unmap(vpn)
	if _, ok := pt.Translate(vpn); ok {
		t.Fatal("expected translation to fail after Unmap")
	}
}

func TestPageTableMapTwicePanics(t *testing.T) {
	setupPool(t, 64)
	pt, _ := NewPageTable()
	defer pt.Drop()
	f, _ := FrameAlloc()
	pt.Map(1, f.PPN, PteR)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic mapping an already-mapped VPN")
		}
	}()
	pt.Map(1, f.PPN, PteR)
}

func TestPageTableUnmapUnmappedPanics(t *testing.T) {
	setupPool(t, 64)
	pt, _ := NewPageTable()
	defer pt.Drop()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic unmapping a never-mapped VPN")
		}
	}()
	pt.Unmap(7)
}

func TestFromTokenDoesNotOwnFrames(t *testing.T) {
	setupPool(t, 64)
	pt, _ := NewPageTable()
	f, _ := FrameAlloc()
	pt.Map(3, f.PPN, PteR|PteW)
	token := pt.Token()

	view := FromToken(token)
	pte, ok := view.Translate(3)
	if !ok || pte.PPN() != f.PPN {
		t.Fatal("view should translate through the same tree")
	}
	// Drop on a view must not free the real table's frames.
	view.Drop()
	if _, ok := pt.Translate(3); !ok {
		t.Fatal("dropping a FromToken view must not affect the owning table")
	}
	pt.Drop()
}

func TestTranslatedByteBufferSpansPages(t *testing.T) {
	setupPool(t, 64)
	pt, _ := NewPageTable()
	defer pt.Drop()

	f0, _ := FrameAlloc()
	f1, _ := FrameAlloc()
	pt.Map(0, f0.PPN, PteR|PteW|PteU)
	pt.Map(1, f1.PPN, PteR|PteW|PteU)

	start := uint64(PageSize) - 4
	ln := uint64(8)
	bufs := TranslatedByteBuffer(pt.Token(), start, ln)
	total := 0
	for _, b := range bufs {
		total += len(b)
	}
	if total != int(ln) {
		t.Fatalf("buffers cover %d bytes, want %d", total, ln)
	}
	if len(bufs) != 2 {
		t.Fatalf("expected the range to straddle two pages, got %d segments", len(bufs))
	}
}

func TestTranslatedByteBufferPanicsOnUnmapped(t *testing.T) {
	setupPool(t, 64)
	pt, _ := NewPageTable()
	defer pt.Drop()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic translating an unmapped page")
		}
	}()
	TranslatedByteBuffer(pt.Token(), 0, 8)
}

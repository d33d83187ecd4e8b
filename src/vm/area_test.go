package vm

import (
	"testing"

	"mem"
)

func setupPool(t *testing.T, npages int) {
	t.Helper()
	mem.InitPagePool(mem.PhysPageNum_t(0), mem.PhysPageNum_t(npages))
	mem.InitFrameAllocator(mem.PhysPageNum_t(0), mem.PhysPageNum_t(npages))
}

func TestFramedAreaMapUnmapFreesFrames(t *testing.T) {
	setupPool(t, 64)
	pt, _ := mem.NewPageTable()
	defer pt.Drop()

	area := NewMapArea(0, mem.VirtAddr_t(3*mem.PageSize), Framed, PermR|PermW|PermU)
	area.Map(&pt)

	before := mem.Stats()
	area.Unmap(&pt)
	after := mem.Stats()
	if after.Recycled <= before.Recycled {
		t.Fatalf("expected frames to be recycled on unmap: before=%+v after=%+v", before, after)
	}
	if _, ok := pt.Translate(0); ok {
		t.Fatal("expected page 0 to be unmapped")
	}
}

func TestMemorySetMapCreateOverlapRejected(t *testing.T) {
	setupPool(t, 64)
	ms, ok := NewBare()
	if !ok {
		t.Fatal("NewBare failed")
	}
	if !ms.MapCreate(0x10000000, 8192, PermR|PermW) {
		t.Fatal("first mmap should succeed")
	}
	if ms.MapCreate(mem.VirtAddr_t(0x10000000+mem.PageSize*1), 4096, PermR|PermW) {
		t.Fatal("overlapping mmap must fail")
	}
}

func TestMemorySetMapCreateThenMunmapThenAccessUnmapped(t *testing.T) {
	setupPool(t, 64)
	ms, _ := NewBare()
	if !ms.MapCreate(0x10000000, 4096, PermR|PermW) {
		t.Fatal("mmap should succeed")
	}
	if _, ok := ms.Translate(mem.VAToVPN(0x10000000)); !ok {
		t.Fatal("expected page to be mapped after mmap")
	}
	if !ms.Munmap(0x10000000, 4096) {
		t.Fatal("munmap should succeed")
	}
	if _, ok := ms.Translate(mem.VAToVPN(0x10000000)); ok {
		t.Fatal("expected page to be unmapped after munmap")
	}
}

func TestMemorySetMunmapRequiresExactRange(t *testing.T) {
	setupPool(t, 64)
	ms, _ := NewBare()
	ms.MapCreate(0x10000000, 8192, PermR|PermW)
	if ms.Munmap(0x10000000, 4096) {
		t.Fatal("munmap of a sub-range must not match the larger area")
	}
}

func TestNewKernelPermissions(t *testing.T) {
	setupPool(t, 256)
	layout := KernelLayout_t{
		TextStart:      0x80200000,
		TextEnd:        0x80210000,
		RodataStart:    0x80210000,
		RodataEnd:      0x80220000,
		DataStart:      0x80220000,
		DataEnd:        0x80230000,
		BssStart:       0x80230000,
		BssEnd:         0x80240000,
		KernelEnd:      0x80240000,
		TrampolinePhys: 0,
	}
	ms := NewKernel(layout)
	if err := ms.CheckKernelPermissions(layout); err != nil {
		t.Fatalf("unexpected permission violation: %v", err)
	}
}

func TestTrampolineIdenticallyMappedAcrossSpaces(t *testing.T) {
	setupPool(t, 256)
	layout := KernelLayout_t{
		TextStart: 0x80200000, TextEnd: 0x80210000,
		RodataStart: 0x80210000, RodataEnd: 0x80220000,
		DataStart: 0x80220000, DataEnd: 0x80230000,
		BssStart: 0x80230000, BssEnd: 0x80240000,
		KernelEnd:      0x80240000,
		TrampolinePhys: mem.PhysAddr_t(7 * mem.PageSize),
	}
	kernel := NewKernel(layout)
	user, _ := NewBare()
	user.mapTrampoline(layout.TrampolinePhys)

	kpte, ok := kernel.Translate(mem.VAToVPN(mem.VirtAddr_t(mem.Trampoline)))
	if !ok {
		t.Fatal("kernel space missing trampoline mapping")
	}
	upte, ok := user.Translate(mem.VAToVPN(mem.VirtAddr_t(mem.Trampoline)))
	if !ok {
		t.Fatal("user space missing trampoline mapping")
	}
	if kpte.PPN() != upte.PPN() {
		t.Fatalf("trampoline must map to the same physical page in every space: kernel=%v user=%v", kpte.PPN(), upte.PPN())
	}
}

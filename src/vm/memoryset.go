package vm

import (
	"fmt"

	"mem"
)

// KernelLayout_t describes the boundaries of the running kernel image
// needed to build its identity-mapped address space. On real hardware
// these come from the linker script; in tests or host tools they are
// supplied directly, which is why NewKernel takes the layout as a
// parameter instead of reading link-time symbols itself.
type KernelLayout_t struct {
	TextStart, TextEnd     mem.VirtAddr_t
	RodataStart, RodataEnd mem.VirtAddr_t
	DataStart, DataEnd     mem.VirtAddr_t
	BssStart, BssEnd       mem.VirtAddr_t
	KernelEnd              mem.VirtAddr_t
	// TrampolinePhys is the physical page backing the trap entry/exit
	// trampoline, identity-mapped at the top of every address space.
	TrampolinePhys mem.PhysAddr_t
}

// MemorySet_t is a page table together with the MapArea_t records that
// describe what is mapped through it. The areas exist so the set can
// be unmapped, inspected, or matched against an munmap request; the
// page table alone cannot answer "what maps VPN range X".
type MemorySet_t struct {
	PageTable mem.PageTable_t
	areas     []MapArea_t
}

// NewBare builds an empty address space with a fresh root page table.
func NewBare() (MemorySet_t, bool) {
	pt, ok := mem.NewPageTable()
	if !ok {
		return MemorySet_t{}, false
	}
	return MemorySet_t{PageTable: pt}, true
}

func (ms *MemorySet_t) mapTrampoline(trampolinePhys mem.PhysAddr_t) {
	ms.PageTable.Map(mem.VAToVPN(mem.VirtAddr_t(mem.Trampoline)), mem.PAToPPN(trampolinePhys), mem.PteR|mem.PteX)
}

// push maps area into the page table, optionally copying data into its
// backing frames, and records it for later lookup.
func (ms *MemorySet_t) push(area MapArea_t, data []byte) {
	area.Map(&ms.PageTable)
	if data != nil {
		area.CopyData(&ms.PageTable, data)
	}
	ms.areas = append(ms.areas, area)
}

// InsertFramedArea maps a new Framed, zero-initialized area with the
// given permissions.
func (ms *MemorySet_t) InsertFramedArea(startVA, endVA mem.VirtAddr_t, perm MapPermission_t) {
	ms.push(NewMapArea(startVA, endVA, Framed, perm), nil)
}

// Active returns the satp token that activates this address space. It
// has no hardware side effect itself: kernel.Boot hands the token to
// the kernel.ActivateSatp hook, which is what installs it.
func (ms *MemorySet_t) Active() uint64 {
	return ms.PageTable.Token()
}

// Token returns the satp value for this address space.
func (ms *MemorySet_t) Token() uint64 {
	return ms.PageTable.Token()
}

// Translate looks up the page table entry mapping vpn, if any.
func (ms *MemorySet_t) Translate(vpn mem.VirtPageNum_t) (mem.PageTableEntry_t, bool) {
	return ms.PageTable.Translate(vpn)
}

// TranslateAddrUnchecked resolves a virtual address to a physical one
// without validating permissions — callers that care about access
// rights must check the PTE flags themselves.
func (ms *MemorySet_t) TranslateAddrUnchecked(va mem.VirtAddr_t) (mem.PhysAddr_t, bool) {
	pte, ok := ms.Translate(va.Floor())
	if !ok {
		return 0, false
	}
	base := mem.PPNToPA(pte.PPN())
	return base + mem.PhysAddr_t(va.PageOffset()), true
}

// overlapsAny reports whether any existing area shares a page with vr.
func (ms *MemorySet_t) overlapsAny(vr mem.VPNRange_t) bool {
	for i := range ms.areas {
		if ms.areas[i].Overlaps(vr) {
			return true
		}
	}
	return false
}

// MapCreate implements the sys_mmap address-space operation: it maps
// len bytes starting at start with the given permission, failing if
// the range overlaps any existing area.
func (ms *MemorySet_t) MapCreate(start mem.VirtAddr_t, length uint64, perm MapPermission_t) bool {
	vr := mem.NewVPNRange(start.Floor(), mem.VirtAddr_t(uint64(start)+length).Ceil())
	if ms.overlapsAny(vr) {
		return false
	}
	ms.push(NewMapArea(start, mem.VirtAddr_t(uint64(start)+length), Framed, perm), nil)
	return true
}

// Munmap implements the sys_munmap address-space operation: it removes
// the single area whose range matches [start, start+len) exactly.
func (ms *MemorySet_t) Munmap(start mem.VirtAddr_t, length uint64) bool {
	vr := mem.NewVPNRange(start.Floor(), mem.VirtAddr_t(uint64(start)+length).Ceil())
	idx := -1
	for i := range ms.areas {
		if ms.areas[i].sameRange(vr) {
			ms.areas[i].Unmap(&ms.PageTable)
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	ms.areas = append(ms.areas[:idx], ms.areas[idx+1:]...)
	return true
}

// NewKernel builds the kernel's own address space: trampoline plus
// identity maps over .text, .rodata, .data+.bss and the remaining
// physical memory up to MemoryEnd, each with the minimal permissions
// that section needs.
func NewKernel(layout KernelLayout_t) MemorySet_t {
	ms, ok := NewBare()
	if !ok {
		panic("vm: NewKernel: out of frames for root page table")
	}
	ms.mapTrampoline(layout.TrampolinePhys)

	ms.push(NewMapArea(layout.TextStart, layout.TextEnd, Identical, mem.PteR|mem.PteX), nil)
	ms.push(NewMapArea(layout.RodataStart, layout.RodataEnd, Identical, mem.PteR), nil)
	ms.push(NewMapArea(layout.DataStart, layout.DataEnd, Identical, mem.PteR|mem.PteW), nil)
	ms.push(NewMapArea(layout.BssStart, layout.BssEnd, Identical, mem.PteR|mem.PteW), nil)
	ms.push(NewMapArea(layout.KernelEnd, mem.VirtAddr_t(mem.MemoryEnd), Identical, mem.PteR|mem.PteW), nil)

	return ms
}

// CheckKernelPermissions asserts that a kernel address space was built
// with the expected section permissions: .text must not be writable,
// .rodata must not be writable, .data must not be executable. It
// returns an error describing the first violation instead of panicking
// so callers can decide how to report a boot-time sanity failure.
func (ms *MemorySet_t) CheckKernelPermissions(layout KernelLayout_t) error {
	mid := func(a, b mem.VirtAddr_t) mem.VirtPageNum_t {
		return mem.VirtAddr_t((uint64(a) + uint64(b)) / 2).Floor()
	}
	pte, ok := ms.Translate(mid(layout.TextStart, layout.TextEnd))
	if !ok {
		return fmt.Errorf("vm: CheckKernelPermissions: .text not mapped")
	}
	if pte.Writable() {
		return fmt.Errorf("vm: CheckKernelPermissions: .text is writable")
	}
	pte, ok = ms.Translate(mid(layout.RodataStart, layout.RodataEnd))
	if !ok {
		return fmt.Errorf("vm: CheckKernelPermissions: .rodata not mapped")
	}
	if pte.Writable() {
		return fmt.Errorf("vm: CheckKernelPermissions: .rodata is writable")
	}
	pte, ok = ms.Translate(mid(layout.DataStart, layout.DataEnd))
	if !ok {
		return fmt.Errorf("vm: CheckKernelPermissions: .data not mapped")
	}
	if pte.Executable() {
		return fmt.Errorf("vm: CheckKernelPermissions: .data is executable")
	}
	return nil
}

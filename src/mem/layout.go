// Package mem implements the physical-memory primitives of the kernel:
// typed addresses and page numbers, the SV39 page table walker, and the
// process-wide physical frame allocator. Higher-level address-space
// composition (MapArea/MemorySet) lives in package vm.
package mem

/// PageShift is the base-2 exponent of the page size.
const PageShift uint = 12

/// PageSize is the size of a single page in bytes.
const PageSize int = 1 << PageShift

/// PageOffsetMask masks the in-page offset bits of an address.
const PageOffsetMask uint64 = uint64(PageSize) - 1

/// PaWidthSv39 is the number of bits in an SV39 physical address.
const PaWidthSv39 uint = 56

/// PpnWidthSv39 is the number of bits in an SV39 physical page number.
const PpnWidthSv39 uint = PaWidthSv39 - PageShift

/// VaWidthSv39 is the number of bits in an SV39 virtual address.
const VaWidthSv39 uint = 39

/// VpnWidthSv39 is the number of bits in an SV39 virtual page number.
const VpnWidthSv39 uint = VaWidthSv39 - PageShift

/// Sv39Mode is the mode field written to satp to select SV39 paging.
const Sv39Mode uint64 = 8

// Kernel virtual-memory layout. Trampoline sits in the highest page
// shared identically by every address space; the trap context lives
// in the page immediately below it so trap_return can locate it
// without walking any page table other than the one about to be
// switched away from.

/// Trampoline is the fixed virtual address of the shared trap entry page.
const Trampoline uint64 = (uint64(1) << VaWidthSv39) - uint64(PageSize)

/// TrapContext is the fixed virtual address of a task's trap-context page.
const TrapContext uint64 = Trampoline - uint64(PageSize)

/// UserStackSize is the size, in bytes, of each task's user stack.
const UserStackSize uint64 = 8 * 1024

/// KernelStackSize is the size, in bytes, of each task's kernel stack.
const KernelStackSize uint64 = 8 * 1024

/// MemoryEnd bounds the physical RAM the kernel manages.
//
// A real boot image supplies this from the platform memory map; the
// value below matches the QEMU virt machine's default 8MB governed by
// the rest of this kernel's tutorial lineage.
const MemoryEnd uint64 = 0x80800000

/// KernelStackPosition returns the [bottom, top) virtual range of the
/// kernel stack reserved for app_id within KERNEL_SPACE. A one-page
/// guard gap separates consecutive stacks so a kernel stack overflow
/// faults instead of silently corrupting its neighbor.
func KernelStackPosition(appID int) (bottom, top uint64) {
	top = Trampoline - uint64(appID)*(KernelStackSize+uint64(PageSize))
	bottom = top - KernelStackSize
	return bottom, top
}

// Command rvkernel is the kernel's entrypoint: it assembles the boot
// configuration the linker script would otherwise supply and hands it
// to kernel.Boot. There is no linker script in this build, so the
// section boundaries below are fixed placeholders rather than values
// taken from a linked image.
package main

import (
	"fmt"
	"os"

	"kernel"
	"mem"
	"vm"
)

func main() {
	const base = uint64(0x80200000)
	const textSize = uint64(0x100000)
	const rodataSize = uint64(0x40000)
	const dataSize = uint64(0x40000)
	const bssSize = uint64(0x40000)

	layout := vm.KernelLayout_t{
		TextStart:      mem.VirtAddr_t(base),
		TextEnd:        mem.VirtAddr_t(base + textSize),
		RodataStart:    mem.VirtAddr_t(base + textSize),
		RodataEnd:      mem.VirtAddr_t(base + textSize + rodataSize),
		DataStart:      mem.VirtAddr_t(base + textSize + rodataSize),
		DataEnd:        mem.VirtAddr_t(base + textSize + rodataSize + dataSize),
		BssStart:       mem.VirtAddr_t(base + textSize + rodataSize + dataSize),
		BssEnd:         mem.VirtAddr_t(base + textSize + rodataSize + dataSize + bssSize),
		KernelEnd:      mem.VirtAddr_t(base + textSize + rodataSize + dataSize + bssSize),
		TrampolinePhys: mem.PhysAddr_t(base + textSize + rodataSize + dataSize + bssSize),
	}

	cfg := kernel.Config_t{
		KernelLayout:    layout,
		PhysMemEnd:      mem.PhysPageNum_t(mem.MemoryEnd >> mem.PageShift),
		TrapHandlerAddr: uint64(mem.Trampoline),
	}

	if err := kernel.Boot(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "rvkernel: %v\n", err)
		os.Exit(1)
	}
}

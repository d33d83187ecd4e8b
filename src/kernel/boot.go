// Package kernel wires the other packages into the boot sequence:
// physical memory, the kernel's own address space, one task per
// embedded application, the timer, and the first dispatch. It is
// intentionally thin — every interesting behavior lives in the
// package that owns it, and this package just calls things in order.
//
// There is no heap-initialization step here. A bump allocator handing
// out a backing arena before any dynamic collection can run is only
// needed in a freestanding environment with no heap yet; Go's runtime
// heap is already live before main ever starts.
package kernel

import (
	"fmt"

	"loader"
	"mem"
	"proc"
	"timer"
	"vm"
)

// Config_t carries everything Boot needs that varies by build target:
// where physical memory starts and ends, the kernel's own section
// boundaries (for NewKernel and CheckKernelPermissions), and the
// address the trap handler will resume at for every freshly created
// task. The riscv64 entrypoint fills this in from linker symbols; test
// and tooling code can supply a synthetic layout.
type Config_t struct {
	KernelLayout    vm.KernelLayout_t
	PhysMemEnd      mem.PhysPageNum_t
	TrapHandlerAddr uint64
}

// ActivateSatp installs a root page table token into satp and flushes
// the TLB. On riscv64 this is wired to the real csrw satp + sfence.vma
// sequence during boot; the host default is a no-op since there is no
// MMU to program.
var ActivateSatp = func(token uint64) {}

// EnableTimerInterrupt unmasks the supervisor timer interrupt. Wired
// to sie::set_stimer on riscv64; a no-op on the host.
var EnableTimerInterrupt = func() {}

// Boot runs the init sequence: frame allocator, kernel address space,
// one task per embedded application, the timer, and the first
// dispatch. On the host build it returns once RunFirstTask's stubbed
// switch has run; on riscv64 it never returns.
func Boot(cfg Config_t) error {
	// The kernel's identity map means KernelEnd's virtual and physical
	// page numbers coincide; InitPagePool/InitFrameAllocator want the
	// physical one.
	kernelEndPPN := mem.PhysPageNum_t(cfg.KernelLayout.KernelEnd.Ceil())
	mem.InitPagePool(kernelEndPPN, cfg.PhysMemEnd)
	mem.InitFrameAllocator(kernelEndPPN, cfg.PhysMemEnd)

	kernelSpace := vm.NewKernel(cfg.KernelLayout)
	if err := kernelSpace.CheckKernelPermissions(cfg.KernelLayout); err != nil {
		return fmt.Errorf("kernel: Boot: %w", err)
	}
	ActivateSatp(kernelSpace.Active())

	numApp := loader.GetNumApp()
	if numApp == 0 {
		return fmt.Errorf("kernel: Boot: no applications embedded, nothing to run")
	}
	tasks := make([]*proc.TaskControlBlock_t, numApp)
	for i := 0; i < numApp; i++ {
		tcb, err := proc.NewTaskControlBlock(loader.GetAppData(i), proc.KernelStackLayout_t{
			AppID:          i,
			TrampolinePhys: cfg.KernelLayout.TrampolinePhys,
			KernelSatp:     kernelSpace.Token(),
			TrapHandler:    cfg.TrapHandlerAddr,
		}, &kernelSpace)
		if err != nil {
			return fmt.Errorf("kernel: Boot: loading app %d: %w", i, err)
		}
		tasks[i] = tcb
	}
	proc.InitTaskManager(tasks)

	EnableTimerInterrupt()
	timer.SetNextTrigger()

	proc.RunFirstTask()
	return nil
}

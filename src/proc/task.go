package proc

import (
	"accnt"
	"mem"
	"trap"
	"vm"
)

// MaxSyscallNum bounds the per-task syscall counter table. It is an
// implementation-internal array size, not an ABI constant, so it is
// sized generously rather than tied to any particular syscall table.
const MaxSyscallNum = 500

// TaskControlBlock_t is one task's complete kernel-visible state: its
// address space, its kernel-mode register context, where its trap
// frame lives physically, and its scheduling bookkeeping.
//
// BaseSize is the task's address-space high-water mark (the user stack
// top returned by vm.FromELF) — not consulted by the scheduler itself,
// but useful diagnostic surface for tooling that reports per-task
// memory footprint.
type TaskControlBlock_t struct {
	Status       TaskStatus_t
	Context      TaskContext_t
	TrapCxPPN    mem.PhysPageNum_t
	MemorySet    vm.MemorySet_t
	Clock        accnt.TaskClock_t
	SyscallTimes [MaxSyscallNum]uint32
	BaseSize     uint64
}

// KernelStackLayout_t carries the parameters NewTaskControlBlock needs
// to reserve this task's kernel stack inside the kernel's own address
// space and to point its trap context at the running trap handler.
type KernelStackLayout_t struct {
	AppID          int
	TrampolinePhys mem.PhysAddr_t
	KernelSatp     uint64
	TrapHandler    uint64
}

// NewTaskControlBlock builds a Ready task from an ELF image: its user
// address space, a freshly reserved kernel stack in kernelSpace, and
// an initialized trap context ready for the trampoline's restore path.
func NewTaskControlBlock(elfData []byte, layout KernelStackLayout_t, kernelSpace *vm.MemorySet_t) (*TaskControlBlock_t, error) {
	ms, userSP, entry, err := vm.FromELF(elfData, layout.TrampolinePhys)
	if err != nil {
		return nil, err
	}
	trapCxPTE, ok := ms.Translate(mem.VAToVPN(mem.VirtAddr_t(mem.TrapContext)))
	if !ok {
		panic("proc: NewTaskControlBlock: trap context page not mapped by FromELF")
	}

	kernelBottom, kernelTop := mem.KernelStackPosition(layout.AppID)
	kernelSpace.InsertFramedArea(mem.VirtAddr_t(kernelBottom), mem.VirtAddr_t(kernelTop), vm.PermR|vm.PermW)

	tcb := &TaskControlBlock_t{
		Status:    Ready,
		Context:   GotoTrapReturn(kernelTop),
		TrapCxPPN: trapCxPTE.PPN(),
		MemorySet: ms,
		BaseSize:  uint64(userSP),
	}

	trapCx := trap.AppInitContext(uint64(entry), uint64(userSP), layout.KernelSatp, kernelTop, layout.TrapHandler)
	trap.Write(tcb.TrapCxPPN, trapCx)

	return tcb, nil
}

// UserToken returns the satp value for this task's address space.
func (tcb *TaskControlBlock_t) UserToken() uint64 {
	return tcb.MemorySet.Token()
}

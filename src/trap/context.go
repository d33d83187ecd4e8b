// Package trap holds the user/kernel trap frame layout and the
// riscv64 entry/exit glue around it. It intentionally does not depend
// on package proc: initializing and reading a trap context is pure
// data manipulation, while dispatching on scause and deciding what the
// scheduler should do next is policy that lives above this package (in
// package syscalls), which keeps the dependency graph acyclic.
package trap

import "mem"

// TrapContext_t is the register save area the trampoline spills user
// GPRs into on entry and restores from on return. Its layout mirrors
// the riscv64 calling convention: 32 general-purpose registers, the
// sstatus CSR, sepc, and three kernel-side fields the trampoline needs
// to find its way back into the scheduler without touching any other
// kernel state.
type TrapContext_t struct {
	X           [32]uint64
	Sstatus     uint64
	Sepc        uint64
	KernelSatp  uint64
	KernelSp    uint64
	TrapHandler uint64
}

// sstatusSPPMask is the SPP bit (bit 8) of sstatus: 0 selects U-mode
// as the privilege trap returns to.
const sstatusSPPMask = 1 << 8

// ReadSstatus reads the current sstatus CSR. The riscv64 build wires
// this to the real csrr; the host build used by tests and tooling
// returns 0, since AppInitContext only cares about clearing the SPP
// bit regardless of what else was set.
var ReadSstatus = func() uint64 { return 0 }

// AppInitContext builds the trap context a freshly loaded task resumes
// into: pc at entry, sp at userSP, SPP cleared so sret drops to user
// mode, and the kernel-side bookkeeping trap_return needs to get back
// into the scheduler on the next trap.
func AppInitContext(entry, userSP, kernelSatp, kernelSP, trapHandler uint64) TrapContext_t {
	cx := TrapContext_t{
		Sstatus:     ReadSstatus() &^ sstatusSPPMask,
		Sepc:        entry,
		KernelSatp:  kernelSatp,
		KernelSp:    kernelSP,
		TrapHandler: trapHandler,
	}
	cx.X[2] = userSP // sp
	return cx
}

const trapContextSize = 32*8 + 8*5

// Write encodes cx into the physical page backing ppn, in the layout
// the trampoline's assembly expects.
func Write(ppn mem.PhysPageNum_t, cx TrapContext_t) {
	page := mem.PageBytes(ppn)
	off := 0
	for _, reg := range cx.X {
		putU64(page, off, reg)
		off += 8
	}
	putU64(page, off, cx.Sstatus)
	off += 8
	putU64(page, off, cx.Sepc)
	off += 8
	putU64(page, off, cx.KernelSatp)
	off += 8
	putU64(page, off, cx.KernelSp)
	off += 8
	putU64(page, off, cx.TrapHandler)
}

// Read decodes the trap context currently stored in the physical page
// backing ppn.
func Read(ppn mem.PhysPageNum_t) TrapContext_t {
	page := mem.PageBytes(ppn)
	var cx TrapContext_t
	off := 0
	for i := range cx.X {
		cx.X[i] = getU64(page, off)
		off += 8
	}
	cx.Sstatus = getU64(page, off)
	off += 8
	cx.Sepc = getU64(page, off)
	off += 8
	cx.KernelSatp = getU64(page, off)
	off += 8
	cx.KernelSp = getU64(page, off)
	off += 8
	cx.TrapHandler = getU64(page, off)
	return cx
}

func putU64(b []byte, off int, v uint64) {
	for i := 0; i < 8; i++ {
		b[off+i] = byte(v >> (8 * i))
	}
}

func getU64(b []byte, off int) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[off+i]) << (8 * i)
	}
	return v
}

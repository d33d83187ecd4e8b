package proc

// TaskContext_t is the kernel-mode register snapshot swapped by
// Switch: return address, stack pointer, and the twelve callee-saved
// s-registers a RISC-V leaf call must preserve across a call boundary.
type TaskContext_t struct {
	Ra uint64
	Sp uint64
	S  [12]uint64
}

// GotoTrapReturn builds the context a brand new task resumes into: its
// kernel stack pointer set to kernelStackTop and its return address
// pointed at trap_return, so the first Switch into it behaves like a
// function call into trap_return that never returns to its caller.
func GotoTrapReturn(kernelStackTop uint64) TaskContext_t {
	return TaskContext_t{
		Ra: trapReturnAddr(),
		Sp: kernelStackTop,
	}
}

// trapReturnAddr resolves the address Switch should resume at for a
// freshly created task. The riscv64 build points this at the real
// assembly trap_return entry; the host build used by tests returns 0,
// since SwitchFunc is swapped for a recording stub there instead of
// ever dereferencing this value.
var trapReturnAddr = func() uint64 { return 0 }

// SwitchFunc performs the actual context switch: save the currently
// running register state into old and resume execution from new. The
// riscv64 build wires this to the assembly __switch routine. There is
// no running hardware state to save on a host, so the default here is
// a no-op; tests that care which contexts were switched between
// replace it with a recording stub.
var SwitchFunc = func(old, new *TaskContext_t) {}

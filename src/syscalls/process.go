// Package syscalls implements the kernel's system call surface and the
// scause dispatch that drives it. It is the one package allowed to
// depend on both proc (the scheduler) and trap (the trap frame
// layout), which keeps those two packages themselves free of a
// dependency cycle.
package syscalls

import (
	"fmt"

	"accnt"
	"caller"
	"defs"
	"mem"
	"proc"
	"timer"
	"trap"
	"util"
	"vm"
)

// faultDump deduplicates repeated fault reports from the same call
// chain, so a storm of identical faults from one task logs once
// instead of flooding the console.
var faultDump = caller.Distinct_caller_t{Enabled: true}

// Syscall ids, matching the numbering the user-space toolchain this
// kernel targets already assigns them (borrowed from the Linux riscv64
// ABI, as the rest of the pack's user programs expect).
const (
	SyscallWrite       = 64
	SyscallExit        = 93
	SyscallYield       = 124
	SyscallSetPriority = 140
	SyscallGetTime     = 169
	SyscallMunmap      = 215
	SyscallMmap        = 222
	SyscallTaskInfo    = 410
)

// TaskInfo_t is the struct sys_task_info writes into user memory.
type TaskInfo_t struct {
	Status       proc.TaskStatus_t
	SyscallTimes [proc.MaxSyscallNum]uint32
	TimeMs       uint64
}

// toErrno maps the kernel's internal error vocabulary to the syscall
// ABI's convention: 0 on success, -1 on any failure. EINVAL/EEXIST/
// ESRCH/EFAULT stay useful distinctions inside the kernel; the ABI
// itself only ever carries success or failure across the boundary.
func toErrno(err defs.Err_t) int64 {
	if err != defs.Ok {
		return -1
	}
	return 0
}

// writeUserStruct resolves va in the current task's address space and
// writes n bytes there via the supplied encoder. It returns false
// without writing anything if va does not resolve.
func writeUserStruct(va mem.VirtAddr_t, n int, encode func([]byte)) bool {
	pa, ok := proc.Translate(va)
	if !ok {
		return false
	}
	page := mem.PageBytes(pa.Floor())
	off := int(pa.PageOffset())
	encode(page[off : off+n])
	return true
}

// SysExit implements sys_exit: log, mark the task Exited, and schedule
// the next Ready task. It never returns.
func SysExit(exitCode int32) {
	fmt.Printf("[kernel] application exited with code %d\n", exitCode)
	proc.MarkCurrentExited()
	proc.RunNextTask()
	panic("syscalls: SysExit: unreachable, scheduler returned to an exited task")
}

// SysYield implements sys_yield: give up the remaining quantum.
func SysYield() int64 {
	proc.MarkCurrentSuspended()
	proc.RunNextTask()
	return toErrno(defs.Ok)
}

// SysGetTime implements sys_get_time: write {sec, usec} to the user
// pointer ts, resolved through the current task's address space.
func SysGetTime(ts mem.VirtAddr_t) int64 {
	tv := accnt.TimeVal(timer.GetTimeUs())
	ok := writeUserStruct(ts, len(tv), func(b []byte) { copy(b, tv) })
	if !ok {
		return toErrno(defs.EFAULT)
	}
	return toErrno(defs.Ok)
}

// SysTaskInfo implements sys_task_info: report the running task as
// Running (it could not have trapped here otherwise), its per-syscall
// counts, and elapsed milliseconds since it was first scheduled.
func SysTaskInfo(ti mem.VirtAddr_t) int64 {
	elapsedMs := uint64(proc.CurrentElapsedMs())
	counts := proc.CurrentSyscallInfo()

	size := 8 + 4*proc.MaxSyscallNum + 8
	ok := writeUserStruct(ti, size, func(b []byte) {
		util.WriteWord(b, 8, 0, uint64(proc.Running))
		off := 8
		for _, c := range counts {
			util.WriteWord(b, 4, off, uint64(c))
			off += 4
		}
		util.WriteWord(b, 8, off, elapsedMs)
	})
	if !ok {
		return toErrno(defs.EFAULT)
	}
	return toErrno(defs.Ok)
}

// SysMmap implements sys_mmap: start must be page-aligned and port
// must name at least one of R/W/X and no bit outside them. The
// resulting permission always includes U, since a task can only mmap
// into its own user-visible address space.
func SysMmap(start mem.VirtAddr_t, length uint64, port uint64) int64 {
	if !mem.VirtAddr_t(start).Aligned() {
		return toErrno(defs.EINVAL)
	}
	if port == 0 || port >= 8 {
		return toErrno(defs.EINVAL)
	}
	perm := vm.MapPermission_t(port<<1) | vm.PermU
	if !proc.CurrentMapCreate(start, length, perm) {
		return toErrno(defs.EEXIST)
	}
	return toErrno(defs.Ok)
}

// SysMunmap implements sys_munmap: start must be page-aligned; the
// range must match an existing area exactly.
func SysMunmap(start mem.VirtAddr_t, length uint64) int64 {
	if !mem.VirtAddr_t(start).Aligned() {
		return toErrno(defs.EINVAL)
	}
	if !proc.CurrentMunmap(start, length) {
		return toErrno(defs.ESRCH)
	}
	return toErrno(defs.Ok)
}

// SysSetPriority is unimplemented scheduling-priority plumbing; every
// call fails.
func SysSetPriority(prio int64) int64 {
	return toErrno(defs.EINVAL)
}

// Dispatch routes a syscall id and its three argument registers to the
// matching Sys* implementation, returning the value to place in a0.
func Dispatch(id int, args [3]uint64) int64 {
	switch id {
	case SyscallExit:
		SysExit(int32(args[0]))
		return 0
	case SyscallYield:
		return SysYield()
	case SyscallGetTime:
		return SysGetTime(mem.VirtAddr_t(args[0]))
	case SyscallTaskInfo:
		return SysTaskInfo(mem.VirtAddr_t(args[0]))
	case SyscallMmap:
		return SysMmap(mem.VirtAddr_t(args[0]), args[1], args[2])
	case SyscallMunmap:
		return SysMunmap(mem.VirtAddr_t(args[0]), args[1])
	case SyscallSetPriority:
		return SysSetPriority(int64(args[0]))
	default:
		panic(fmt.Sprintf("syscalls: Dispatch: unsupported syscall id %d", id))
	}
}

// TrapHandler dispatches on the trap cause reported by the riscv64
// scause/stval CSRs and returns control to trap_return once it has
// decided what the scheduler should do next. scause/stval are passed
// in rather than read directly so the dispatch logic runs unchanged on
// a host that has neither register.
func TrapHandler(scause trap.Cause, stval uint64) {
	switch scause {
	case trap.CauseUserEnvCall:
		ppn := proc.CurrentTrapCxPPN()
		cx := trap.Read(ppn)
		cx.Sepc += 4
		trap.Write(ppn, cx)

		id := int(cx.X[17])
		proc.CurrentSyscallPlus(id)
		ret := Dispatch(id, [3]uint64{cx.X[10], cx.X[11], cx.X[12]})

		cx = trap.Read(ppn)
		cx.X[10] = uint64(ret)
		trap.Write(ppn, cx)
	case trap.CauseStoreFault, trap.CauseStorePageFault, trap.CauseLoadPageFault, trap.CauseIllegalInstruction:
		if novel, trace := faultDump.Distinct(proc.CurrentTaskID()); novel {
			if scause == trap.CauseIllegalInstruction {
				fmt.Printf("[kernel] trap %v in application (%s), core dumped\n%s", scause, trap.DisassembleIllegalInstruction(stval), trace)
			} else {
				fmt.Printf("[kernel] trap %v in application (stval=%#x), core dumped\n%s", scause, stval, trace)
			}
		}
		proc.MarkCurrentExited()
		proc.RunNextTask()
	case trap.CauseSupervisorTimer:
		timer.SetNextTrigger()
		proc.MarkCurrentSuspended()
		proc.RunNextTask()
	default:
		panic(fmt.Sprintf("syscalls: TrapHandler: unsupported trap %v, stval=%#x", scause, stval))
	}
}

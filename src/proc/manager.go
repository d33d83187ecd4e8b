package proc

import (
	"fmt"
	"sync"

	"accnt"
	"mem"
	"vm"
)

// TaskManager_t is the process-wide scheduler: a fixed vector of tasks
// built once at boot and an index naming whichever one is Running. All
// access goes through the package-level singleton and its mutex, which
// stands in for the single-hart exclusive-access cell a kernel with no
// concurrent harts still needs for safe access from trap context.
type TaskManager_t struct {
	sync.Mutex
	tasks    []*TaskControlBlock_t
	current  int
	runSince int64
}

var manager TaskManager_t

// InitTaskManager installs tasks as the fixed scheduling vector. It
// must be called exactly once at boot, after every TaskControlBlock_t
// has been constructed from its embedded ELF image.
func InitTaskManager(tasks []*TaskControlBlock_t) {
	manager.Lock()
	defer manager.Unlock()
	manager.tasks = tasks
	manager.current = 0
}

// RunFirstTask marks task 0 Running and switches into it. It returns
// only on the host build, where SwitchFunc is a hook rather than a
// real hardware jump; on riscv64 it never returns.
func RunFirstTask() {
	manager.Lock()
	if len(manager.tasks) == 0 {
		manager.Unlock()
		panic("proc: RunFirstTask: no tasks loaded")
	}
	next := manager.tasks[0]
	next.Status = Running
	next.Clock.MarkFirstRun()
	manager.runSince = accnt.Now()
	nextCx := &next.Context
	manager.Unlock()

	var unused TaskContext_t
	SwitchFunc(&unused, nextCx)
}

func markCurrentStatus(status TaskStatus_t) {
	manager.Lock()
	defer manager.Unlock()
	manager.tasks[manager.current].Status = status
}

// MarkCurrentSuspended transitions the running task back to Ready.
func MarkCurrentSuspended() { markCurrentStatus(Ready) }

// MarkCurrentExited transitions the running task to Exited. Exited
// tasks are never revisited by FindNextTask; their resources are not
// reclaimed until the kernel itself shuts down.
func MarkCurrentExited() { markCurrentStatus(Exited) }

// FindNextTask probes forward from the task after current, wrapping
// around, and returns the first Ready index it finds.
func FindNextTask() (int, bool) {
	manager.Lock()
	defer manager.Unlock()
	n := len(manager.tasks)
	for off := 1; off <= n; off++ {
		id := (manager.current + off) % n
		if manager.tasks[id].Status == Ready {
			return id, true
		}
	}
	return 0, false
}

// RunNextTask advances the scheduler to the next Ready task and
// switches its kernel context in. It panics if no task is Ready: with
// nothing left runnable, the kernel has no work to schedule.
func RunNextTask() {
	next, ok := FindNextTask()
	if !ok {
		panic("proc: RunNextTask: all applications completed")
	}

	manager.Lock()
	current := manager.current
	now := accnt.Now()
	manager.tasks[current].Clock.Accumulate(now - manager.runSince)
	manager.tasks[next].Status = Running
	manager.tasks[next].Clock.MarkFirstRun()
	manager.runSince = now
	manager.current = next
	oldCx := &manager.tasks[current].Context
	newCx := &manager.tasks[next].Context
	manager.Unlock()

	SwitchFunc(oldCx, newCx)
}

// CurrentUserToken returns the satp value for the running task's
// address space.
func CurrentUserToken() uint64 {
	manager.Lock()
	defer manager.Unlock()
	return manager.tasks[manager.current].UserToken()
}

// CurrentTrapCxPPN returns the physical page holding the running
// task's trap context.
func CurrentTrapCxPPN() mem.PhysPageNum_t {
	manager.Lock()
	defer manager.Unlock()
	return manager.tasks[manager.current].TrapCxPPN
}

// CurrentSyscallPlus increments the running task's counter for
// syscall id n.
func CurrentSyscallPlus(n int) {
	manager.Lock()
	defer manager.Unlock()
	manager.tasks[manager.current].SyscallTimes[n]++
}

// CurrentSyscallInfo returns a copy of the running task's per-syscall
// counters.
func CurrentSyscallInfo() [MaxSyscallNum]uint32 {
	manager.Lock()
	defer manager.Unlock()
	return manager.tasks[manager.current].SyscallTimes
}

// CurrentElapsedMs returns how many milliseconds have passed since the
// running task was first dispatched, or 0 if it has never run.
func CurrentElapsedMs() int64 {
	manager.Lock()
	clock := &manager.tasks[manager.current].Clock
	manager.Unlock()
	return clock.ElapsedMs()
}

// CurrentStatus returns the running task's status.
func CurrentStatus() TaskStatus_t {
	manager.Lock()
	defer manager.Unlock()
	return manager.tasks[manager.current].Status
}

// CurrentTaskID returns the running task's index in the scheduling
// vector. Boot builds that vector in application order, so the index is
// also the KernelStackLayout_t.AppID the task was created with.
func CurrentTaskID() int {
	manager.Lock()
	defer manager.Unlock()
	return manager.current
}

// CurrentMapCreate forwards an mmap request to the running task's
// address space.
func CurrentMapCreate(start mem.VirtAddr_t, length uint64, perm vm.MapPermission_t) bool {
	manager.Lock()
	defer manager.Unlock()
	return manager.tasks[manager.current].MemorySet.MapCreate(start, length, perm)
}

// CurrentMunmap forwards an munmap request to the running task's
// address space.
func CurrentMunmap(start mem.VirtAddr_t, length uint64) bool {
	manager.Lock()
	defer manager.Unlock()
	return manager.tasks[manager.current].MemorySet.Munmap(start, length)
}

// Translate resolves a virtual address in the running task's address
// space to a physical one, without checking access permissions.
func Translate(va mem.VirtAddr_t) (mem.PhysAddr_t, bool) {
	manager.Lock()
	defer manager.Unlock()
	return manager.tasks[manager.current].MemorySet.TranslateAddrUnchecked(va)
}

// Stats summarizes the scheduler for diagnostics: the fixed task
// count, the current task index, and that task's status.
func Stats() string {
	manager.Lock()
	defer manager.Unlock()
	return fmt.Sprintf("tasks=%d current=%d status=%v", len(manager.tasks), manager.current, manager.tasks[manager.current].Status)
}

// TaskTrace_t is one task's scheduling snapshot, for cmd/schedtrace to
// turn into pprof samples: one per (task, syscall id) pair with a
// nonzero count.
type TaskTrace_t struct {
	TaskID       int
	Status       TaskStatus_t
	ElapsedMs    int64
	RunningMs    int64
	SyscallTimes [MaxSyscallNum]uint32
}

// Trace returns a snapshot of every task's scheduling state.
func Trace() []TaskTrace_t {
	manager.Lock()
	defer manager.Unlock()
	out := make([]TaskTrace_t, len(manager.tasks))
	for i, tcb := range manager.tasks {
		out[i] = TaskTrace_t{
			TaskID:       i,
			Status:       tcb.Status,
			ElapsedMs:    tcb.Clock.ElapsedMs(),
			RunningMs:    tcb.Clock.RunningMs(),
			SyscallTimes: tcb.SyscallTimes,
		}
	}
	return out
}

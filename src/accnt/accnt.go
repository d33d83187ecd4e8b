// Package accnt tracks per-task CPU time for the task_info syscall:
// when a task was first scheduled and how much wall-clock time has
// elapsed since.
package accnt

import (
	"sync"
	"sync/atomic"
	"time"

	"util"
)

// TaskClock_t records the first-dispatch timestamp of a task and
// accumulates the time it has spent scheduled. The embedded mutex lets
// task_info take a consistent snapshot while the scheduler is free to
// update the clock on every context switch.
type TaskClock_t struct {
	// FirstRunUs is the monotonic timestamp, in microseconds, at which
	// this task was first dispatched. Zero means never run.
	FirstRunUs int64
	// RunningNs accumulates nanoseconds spent in the Running state.
	RunningNs int64
	sync.Mutex
}

// Now returns the current time in nanoseconds, read from the host's
// wall clock by default; tests override it to get deterministic
// elapsed times.
var Now = func() int64 { return time.Now().UnixNano() }

// MarkFirstRun records the dispatch timestamp the first time a task
// runs; later calls are no-ops.
func (c *TaskClock_t) MarkFirstRun() {
	c.Lock()
	defer c.Unlock()
	if c.FirstRunUs == 0 {
		c.FirstRunUs = Now() / 1000
	}
}

// Accumulate adds delta nanoseconds of running time.
func (c *TaskClock_t) Accumulate(delta int64) {
	atomic.AddInt64(&c.RunningNs, delta)
}

// RunningMs returns the total milliseconds this task has spent
// Running, as tracked by Accumulate.
func (c *TaskClock_t) RunningMs() int64 {
	return atomic.LoadInt64(&c.RunningNs) / 1e6
}

// ElapsedMs returns the number of milliseconds since this task's first
// dispatch, or 0 if it has never run.
func (c *TaskClock_t) ElapsedMs() int64 {
	c.Lock()
	first := c.FirstRunUs
	c.Unlock()
	if first == 0 {
		return 0
	}
	return Now()/1e6 - first/1000
}

// TimeVal marshals us microseconds as a (seconds, microseconds) pair
// into a byte buffer, matching the layout the get_time syscall copies
// into user memory.
func TimeVal(us int64) []uint8 {
	ret := make([]uint8, 16)
	util.WriteWord(ret, 8, 0, uint64(us/1_000_000))
	util.WriteWord(ret, 8, 8, uint64(us%1_000_000))
	return ret
}

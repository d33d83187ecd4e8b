// Package timer wraps the kernel's one time source: a free-running
// hardware counter on riscv64, wall-clock time on every other GOOS/GOARCH
// so the scheduler and get_time syscall are testable on a host.
package timer

import "time"

// ClockFreq is the QEMU virt machine's default core clock rate in Hz.
// The host GetTimeUs reads wall-clock time through Active and does not
// use it.
const ClockFreq = 12500000

// TicksPerSec is how many timer interrupts per second SetNextTrigger
// schedules — the scheduler's preemption quantum.
const TicksPerSec = 100

// Source abstracts the underlying clock so tests can inject a
// deterministic one instead of depending on wall-clock time.
type Source interface {
	NowUs() int64
}

type hostClock struct{}

func (hostClock) NowUs() int64 { return time.Now().UnixNano() / 1000 }

// Active is the clock GetTimeUs and SetNextTrigger consult. The
// riscv64 build point swaps this for a CSR-backed Source during boot;
// tests may substitute a fake for deterministic timestamps.
var Active Source = hostClock{}

// GetTimeUs returns the current time in microseconds.
func GetTimeUs() int64 {
	return Active.NowUs()
}

// triggerNext is overridden on riscv64 to issue the SBI set_timer
// call; on the host build it is a no-op; there is no interrupt
// controller to program.
var triggerNext = func(deadlineUs int64) {}

// SetNextTrigger schedules the next timer interrupt one scheduling
// quantum (1/TicksPerSec seconds) from now.
func SetNextTrigger() {
	triggerNext(GetTimeUs() + 1_000_000/TicksPerSec)
}

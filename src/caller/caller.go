// Package caller deduplicates repeated fault reports. A task that
// keeps faulting from the same program location would otherwise flood
// the console with an identical trace on every trap; this package
// tracks which (task, call chain) pairs have already been reported.
package caller

import (
	"fmt"
	"runtime"
	"sync"
)

// Distinct_caller_t tracks whether a (task, call chain) pair has been
// seen before. Keying on task identity as well as the call chain means
// two different tasks faulting at the same program counter are each
// reported once, rather than the second task's fault going silent
// because some earlier task already tripped the same line. Fields are
// protected by the embedded mutex.
type Distinct_caller_t struct {
	sync.Mutex
	Enabled bool
	did     map[uintptr]bool
	Whitel  map[string]bool
}

// pcHash folds the faulting task's id into the call chain's hash, so
// the same call chain from two different tasks produces two distinct
// keys.
func (dc *Distinct_caller_t) pcHash(taskID int, pcs []uintptr) uintptr {
	if len(pcs) == 0 {
		panic("caller: pcHash: empty call chain")
	}
	ret := uintptr(taskID)*2654435761 + 1
	for _, pc := range pcs {
		pc = pc*1103515245 + 12345
		ret ^= pc
	}
	return ret
}

// Len returns the number of unique (task, call chain) pairs recorded.
func (dc *Distinct_caller_t) Len() int {
	dc.Lock()
	ret := len(dc.did)
	dc.Unlock()
	return ret
}

// Distinct reports whether taskID's current call chain is new. It
// returns true along with a formatted stack trace when not seen
// before for this task.
func (dc *Distinct_caller_t) Distinct(taskID int) (bool, string) {
	dc.Lock()
	defer dc.Unlock()
	if !dc.Enabled {
		return false, ""
	}

	if dc.did == nil {
		dc.did = make(map[uintptr]bool)
	}

	var pcs []uintptr
	for sz, got := 30, 30; got >= sz; sz *= 2 {
		pcs = make([]uintptr, sz)
		got = runtime.Callers(3, pcs)
		if got == 0 {
			panic("caller: Distinct: runtime.Callers returned no frames")
		}
	}
	h := dc.pcHash(taskID, pcs)
	if ok := dc.did[h]; !ok {
		dc.did[h] = true
		frames := runtime.CallersFrames(pcs)
		fs := ""
		for {
			fr, more := frames.Next()
			if ok := dc.Whitel[fr.Function]; ok {
				return false, ""
			}
			if fs == "" {
				fs = fmt.Sprintf("%v (%v:%v)\n", fr.Function,
					fr.File, fr.Line)
			} else {
				fs += fmt.Sprintf("\t%v (%v:%v)\n", fr.Function,
					fr.File, fr.Line)
			}
			if !more || fr.Function == "runtime.goexit" {
				break
			}
		}
		return true, fs
	}
	return false, ""
}

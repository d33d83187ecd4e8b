// Command schedtrace converts a scheduling trace dumped by the kernel
// (one JSON-encoded []proc.TaskTrace_t per run) into a pprof profile,
// so `go tool pprof -http=:8080 trace.pprof` can be used to eyeball
// which tasks consumed the most syscalls and wall-clock time.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/pprof/profile"

	"proc"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: schedtrace <trace.json> <out.pprof>\n")
	os.Exit(2)
}

func main() {
	if len(os.Args) != 3 {
		usage()
	}
	in, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "schedtrace: %v\n", err)
		os.Exit(1)
	}
	var trace []proc.TaskTrace_t
	if err := json.Unmarshal(in, &trace); err != nil {
		fmt.Fprintf(os.Stderr, "schedtrace: decoding trace: %v\n", err)
		os.Exit(1)
	}

	p, err := buildProfile(trace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "schedtrace: %v\n", err)
		os.Exit(1)
	}

	out, err := os.Create(os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "schedtrace: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()
	if err := p.Write(out); err != nil {
		fmt.Fprintf(os.Stderr, "schedtrace: writing profile: %v\n", err)
		os.Exit(1)
	}
}

// buildProfile turns one sample per (task, syscall id) pair with a
// nonzero count into a pprof profile keyed by a synthetic per-task
// "function", so the pprof UI's flat/graph views group by task.
func buildProfile(trace []proc.TaskTrace_t) (*profile.Profile, error) {
	p := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "syscalls", Unit: "count"},
			{Type: "elapsed", Unit: "milliseconds"},
			{Type: "running", Unit: "milliseconds"},
		},
		PeriodType: &profile.ValueType{Type: "task", Unit: "count"},
		Period:     1,
	}

	var nextID uint64 = 1
	for _, task := range trace {
		fn := &profile.Function{
			ID:   nextID,
			Name: fmt.Sprintf("task%d[%v]", task.TaskID, task.Status),
		}
		loc := &profile.Location{
			ID:   nextID,
			Line: []profile.Line{{Function: fn}},
		}
		nextID++
		p.Function = append(p.Function, fn)
		p.Location = append(p.Location, loc)

		for id, count := range task.SyscallTimes {
			if count == 0 {
				continue
			}
			p.Sample = append(p.Sample, &profile.Sample{
				Location: []*profile.Location{loc},
				Value:    []int64{int64(count), task.ElapsedMs, task.RunningMs},
				Label:    map[string][]string{"syscall": {fmt.Sprint(id)}},
			})
		}
	}

	if err := p.CheckValid(); err != nil {
		return nil, fmt.Errorf("building profile: %w", err)
	}
	return p, nil
}

package kernel

import (
	"encoding/json"
	"os"

	"proc"
)

// DumpTrace writes the scheduler's current per-task state to path as
// JSON, in the shape cmd/schedtrace expects. It is meant to be called
// from a debug syscall or at shutdown on builds where a filesystem is
// actually available; the host build exercises it directly in tests.
func DumpTrace(path string) error {
	data, err := json.Marshal(proc.Trace())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

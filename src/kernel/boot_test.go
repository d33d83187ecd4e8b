package kernel

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"os"
	"testing"

	"mem"
	"proc"
	"vm"
)

func testLayout() vm.KernelLayout_t {
	const base = uint64(0x80200000)
	const size = uint64(0x100000)
	return vm.KernelLayout_t{
		TextStart:      mem.VirtAddr_t(base),
		TextEnd:        mem.VirtAddr_t(base + size),
		RodataStart:    mem.VirtAddr_t(base + size),
		RodataEnd:      mem.VirtAddr_t(base + 2*size),
		DataStart:      mem.VirtAddr_t(base + 2*size),
		DataEnd:        mem.VirtAddr_t(base + 3*size),
		BssStart:       mem.VirtAddr_t(base + 3*size),
		BssEnd:         mem.VirtAddr_t(base + 4*size),
		KernelEnd:      mem.VirtAddr_t(base + 4*size),
		TrampolinePhys: mem.PhysAddr_t(base + 4*size),
	}
}

func setupPool(t *testing.T, npages int) {
	t.Helper()
	mem.InitPagePool(mem.PhysPageNum_t(0), mem.PhysPageNum_t(npages))
	mem.InitFrameAllocator(mem.PhysPageNum_t(0), mem.PhysPageNum_t(npages))
}

func buildMinimalELF(t *testing.T, vaddr uint64) []byte {
	t.Helper()
	const ehsize = 64
	const phsize = 56
	code := bytes.Repeat([]byte{0x13, 0x00, 0x00, 0x00}, 4)

	buf := &bytes.Buffer{}
	ident := [16]byte{0x7f, 'E', 'L', 'F', 2, 1, 1, 0}
	buf.Write(ident[:])
	binary.Write(buf, binary.LittleEndian, uint16(2))
	binary.Write(buf, binary.LittleEndian, uint16(243))
	binary.Write(buf, binary.LittleEndian, uint32(1))
	binary.Write(buf, binary.LittleEndian, vaddr)
	binary.Write(buf, binary.LittleEndian, uint64(ehsize))
	binary.Write(buf, binary.LittleEndian, uint64(0))
	binary.Write(buf, binary.LittleEndian, uint32(0))
	binary.Write(buf, binary.LittleEndian, uint16(ehsize))
	binary.Write(buf, binary.LittleEndian, uint16(phsize))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, uint16(0))
	binary.Write(buf, binary.LittleEndian, uint16(0))
	binary.Write(buf, binary.LittleEndian, uint16(0))

	off := uint64(ehsize + phsize)
	binary.Write(buf, binary.LittleEndian, uint32(1))
	binary.Write(buf, binary.LittleEndian, uint32(5))
	binary.Write(buf, binary.LittleEndian, off)
	binary.Write(buf, binary.LittleEndian, vaddr)
	binary.Write(buf, binary.LittleEndian, vaddr)
	binary.Write(buf, binary.LittleEndian, uint64(len(code)))
	binary.Write(buf, binary.LittleEndian, uint64(len(code)))
	binary.Write(buf, binary.LittleEndian, uint64(mem.PageSize))

	buf.Write(code)
	return buf.Bytes()
}

func setupTasks(t *testing.T, n int) []*proc.TaskControlBlock_t {
	t.Helper()
	kernelSpace, ok := vm.NewBare()
	if !ok {
		t.Fatal("failed to build kernel space")
	}
	var tasks []*proc.TaskControlBlock_t
	for i := 0; i < n; i++ {
		elf := buildMinimalELF(t, uint64(0x10000+i*0x1000))
		tcb, err := proc.NewTaskControlBlock(elf, proc.KernelStackLayout_t{AppID: i, KernelSatp: kernelSpace.Token()}, &kernelSpace)
		if err != nil {
			t.Fatalf("NewTaskControlBlock(%d): %v", i, err)
		}
		tasks = append(tasks, tcb)
	}
	return tasks
}

// The checked-in loader has no embedded applications (only the
// placeholder that keeps go:embed happy), so Boot must fail cleanly
// rather than run the task manager with zero tasks.
func TestBootFailsWithNoEmbeddedApplications(t *testing.T) {
	cfg := Config_t{
		KernelLayout:    testLayout(),
		PhysMemEnd:      mem.PhysPageNum_t(mem.MemoryEnd >> mem.PageShift),
		TrapHandlerAddr: 0x1000,
	}
	if err := Boot(cfg); err == nil {
		t.Fatal("expected Boot to fail with no embedded applications")
	}
}

func TestActivateSatpAndEnableTimerInterruptDefaultToNoop(t *testing.T) {
	// Host defaults must not panic; riscv64 builds replace these vars.
	ActivateSatp(0)
	EnableTimerInterrupt()
}

func TestDumpTraceWritesReadableJSON(t *testing.T) {
	setupPool(t, 4096)
	tasks := setupTasks(t, 2)
	proc.InitTaskManager(tasks)
	proc.RunFirstTask()

	path := t.TempDir() + "/trace.json"
	if err := DumpTrace(path); err != nil {
		t.Fatalf("DumpTrace: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading dumped trace: %v", err)
	}
	var trace []proc.TaskTrace_t
	if err := json.Unmarshal(data, &trace); err != nil {
		t.Fatalf("decoding dumped trace: %v", err)
	}
	if len(trace) != 2 {
		t.Fatalf("dumped trace has %d entries, want 2", len(trace))
	}
}

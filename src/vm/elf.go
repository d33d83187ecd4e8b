package vm

import (
	"bytes"
	"debug/elf"
	"fmt"

	"mem"
)

// FromELF builds a user address space from a RISC-V ELF executable:
// one Framed area per PT_LOAD segment (permissions taken from the
// segment's flags, always user-accessible), a guard page, a user
// stack, and the per-task trap context page, plus the shared
// trampoline mapping every address space carries.
//
// It returns the new address space, the initial user stack pointer,
// and the entry point recorded in the ELF header.
func FromELF(elfData []byte, trampolinePhys mem.PhysAddr_t) (MemorySet_t, mem.VirtAddr_t, mem.VirtAddr_t, error) {
	ms, ok := NewBare()
	if !ok {
		return MemorySet_t{}, 0, 0, fmt.Errorf("vm: FromELF: out of frames for root page table")
	}
	ms.mapTrampoline(trampolinePhys)

	f, err := elf.NewFile(bytes.NewReader(elfData))
	if err != nil {
		return MemorySet_t{}, 0, 0, fmt.Errorf("vm: FromELF: invalid elf: %w", err)
	}

	var maxEndVPN mem.VirtPageNum_t
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		startVA := mem.VirtAddr_t(prog.Vaddr)
		endVA := mem.VirtAddr_t(prog.Vaddr + prog.Memsz)

		perm := mem.PteU
		if prog.Flags&elf.PF_R != 0 {
			perm |= mem.PteR
		}
		if prog.Flags&elf.PF_W != 0 {
			perm |= mem.PteW
		}
		if prog.Flags&elf.PF_X != 0 {
			perm |= mem.PteX
		}

		area := NewMapArea(startVA, endVA, Framed, perm)
		if end := area.VPNRange.R; end > maxEndVPN {
			maxEndVPN = end
		}

		data := make([]byte, prog.Filesz)
		if _, err := prog.ReadAt(data, 0); err != nil {
			return MemorySet_t{}, 0, 0, fmt.Errorf("vm: FromELF: reading segment: %w", err)
		}
		ms.push(area, data)
	}

	maxEndVA := mem.VPNToVA(maxEndVPN)
	userStackBottom := uint64(maxEndVA) + uint64(mem.PageSize) // guard page
	userStackTop := userStackBottom + mem.UserStackSize
	ms.push(NewMapArea(mem.VirtAddr_t(userStackBottom), mem.VirtAddr_t(userStackTop), Framed, mem.PteR|mem.PteW|mem.PteU), nil)

	ms.push(NewMapArea(mem.VirtAddr_t(mem.TrapContext), mem.VirtAddr_t(mem.Trampoline), Framed, mem.PteR|mem.PteW), nil)

	return ms, mem.VirtAddr_t(userStackTop), mem.VirtAddr_t(f.Entry), nil
}

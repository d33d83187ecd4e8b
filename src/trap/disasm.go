package trap

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/arch/riscv64/riscv64asm"
)

// DisassembleIllegalInstruction decodes the raw instruction word an
// illegal-instruction trap reports in stval, so the fault message names
// the actual bad instruction instead of a bare hex word.
func DisassembleIllegalInstruction(stval uint64) string {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(stval))
	inst, err := riscv64asm.Decode(buf[:])
	if err != nil {
		return fmt.Sprintf("<undecodable instruction %#08x>", uint32(stval))
	}
	return inst.String()
}

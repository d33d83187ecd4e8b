package trap

import (
	"strings"
	"testing"
)

func TestDisassembleIllegalInstructionDecodesNop(t *testing.T) {
	// addi x0, x0, 0
	got := DisassembleIllegalInstruction(0x00000013)
	if got == "" || strings.HasPrefix(got, "<undecodable") {
		t.Fatalf("DisassembleIllegalInstruction(nop) = %q, want a decoded mnemonic", got)
	}
}

func TestDisassembleIllegalInstructionFallsBackOnGarbage(t *testing.T) {
	got := DisassembleIllegalInstruction(0xffffffff)
	if !strings.HasPrefix(got, "<undecodable") {
		t.Fatalf("DisassembleIllegalInstruction(garbage) = %q, want the undecodable fallback", got)
	}
}

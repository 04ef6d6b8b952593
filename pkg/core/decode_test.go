package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeRType assembles a minimal R-type word for ad hoc decode tests,
// independent of pkg/asm.
func encodeRType(funct7, rs2, rs1, funct3, rd, opcode uint32) uint32 {
	return (funct7 << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | (rd << 7) | opcode
}

func TestDecodeAluRegisterInstruction(t *testing.T) {
	regs := NewRegisterFile()
	regs.Poke(1, 10)
	regs.Poke(2, 20)

	// add x3, x1, x2
	word := encodeRType(0, 2, 1, 0b000, 3, 0b011_0011)

	d := NewDecode()
	d.Compute(DecodeInputs{
		FetchOut: FetchOutput{PC: 0x1000_0000, PCPlus4: 0x1000_0004, RawInstruction: word},
		Regs:     regs,
	})
	d.LatchNext()

	out := d.Output()
	assert.Equal(t, KindAlu, out.Instr.Kind)
	assert.Equal(t, uint8(3), out.Instr.Rd)
	assert.Equal(t, uint32(10), out.Instr.Rs1)
	assert.Equal(t, uint32(20), out.Instr.Rs2)
	assert.False(t, out.Trap)
}

func TestDecodeForwardsFetchFaultAsInstructionAddressMisaligned(t *testing.T) {
	d := NewDecode()
	d.Compute(DecodeInputs{
		FetchOut: FetchOutput{PC: 0x1000_0001, PCPlus4: 0x1000_0005, Fault: true, FaultAddress: 0x1000_0001},
		Regs:     NewRegisterFile(),
	})
	d.LatchNext()

	out := d.Output()
	assert.True(t, out.Trap)
	assert.Equal(t, uint32(CauseInstructionAddressMisaligned), out.MCause)
	assert.Equal(t, uint32(0x1000_0001), out.MTVal)
}

func TestDecodeUnknownOpcodeRaisesIllegalInstruction(t *testing.T) {
	d := NewDecode()
	d.Compute(DecodeInputs{
		FetchOut: FetchOutput{RawInstruction: 0xFFFF_FFFF},
		Regs:     NewRegisterFile(),
	})
	d.LatchNext()

	out := d.Output()
	assert.True(t, out.Trap)
	assert.Equal(t, uint32(CauseIllegalInstruction), out.MCause)
	assert.Equal(t, KindNone, out.Instr.Kind)
}

func TestDecodeDetectsMret(t *testing.T) {
	// mret: funct3=0, rd=0, rs1=0, imm12=0x302
	word := (uint32(0x302) << 20) | (0 << 15) | (0 << 12) | (0 << 7) | 0b1110011

	d := NewDecode()
	d.Compute(DecodeInputs{
		FetchOut: FetchOutput{RawInstruction: word},
		Regs:     NewRegisterFile(),
	})
	d.LatchNext()

	out := d.Output()
	assert.True(t, out.ReturnFromTrap)
}

func TestDecodeStallLeavesOutputUnchanged(t *testing.T) {
	regs := NewRegisterFile()
	d := NewDecode()
	word := encodeRType(0, 2, 1, 0b000, 3, 0b011_0011)
	d.Compute(DecodeInputs{FetchOut: FetchOutput{RawInstruction: word}, Regs: regs})
	d.LatchNext()
	before := d.Output()

	d.Compute(DecodeInputs{ShouldStall: true, FetchOut: FetchOutput{RawInstruction: 0xFFFF_FFFF}, Regs: regs})
	d.LatchNext()
	after := d.Output()

	require.Empty(t, cmp.Diff(before, after), "a stalled Decode must not mutate its latched output")
}

func TestDecodeJalComputesBranchAddress(t *testing.T) {
	// jal x1, -2: a 21-bit signed immediate of -2, scattered across the
	// J-type encoding as imm[20]|imm[10:1]|imm[11]|imm[19:12].
	var word uint32 = 0b1101111
	word |= uint32(1) << 7 // rd = x1
	word |= 1 << 31        // imm[20]
	word |= 0x3FF << 21    // imm[10:1], all set
	word |= 1 << 20        // imm[11]
	word |= 0xFF << 12     // imm[19:12], all set

	d := NewDecode()
	d.Compute(DecodeInputs{
		FetchOut: FetchOutput{PC: 0x1000_0010, RawInstruction: word},
		Regs:     NewRegisterFile(),
	})
	d.LatchNext()

	out := d.Output()
	assert.Equal(t, KindJal, out.Instr.Kind)
	assert.Equal(t, uint8(1), out.Instr.Rd)
	assert.Equal(t, uint32(0x1000_0010-2), out.Instr.BranchAddress)
}

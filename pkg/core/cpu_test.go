package core

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeIType(imm12 uint32, rs1, funct3, rd, opcode uint32) uint32 {
	return (imm12 << 20) | (rs1 << 15) | (funct3 << 12) | (rd << 7) | opcode
}

// runTicks advances the CPU n ticks.
func runTicks(cpu *CPU, n int) {
	for i := 0; i < n; i++ {
		cpu.Cycle()
	}
}

// TestCPUArithmeticSequence exercises ADDI/ADD/SUB against the values used
// by the reference implementation's own instruction test: reg[1] and
// reg[2] are pre-loaded, then an ADDI/ADD/SUB sequence is retired and the
// results checked bit for bit.
func TestCPUArithmeticSequence(t *testing.T) {
	cpu := NewCPU()
	cpu.Regs.Poke(1, 0x0102_0304)
	cpu.Regs.Poke(2, 0x0203_0405)

	addi := encodeIType(1, 1, aluADD, 3, 0b001_0011)          // addi x3, x1, 1
	add := encodeRType(0, 2, 1, aluADD, 4, 0b011_0011)         // add  x4, x1, x2
	sub := encodeRType(0b0100000, 1, 2, aluADD, 5, 0b011_0011) // sub  x5, x2, x1

	cpu.ROM.Load([]uint32{addi, add, sub})

	runTicks(cpu, 15) // 3 instructions * 5 ticks each

	if cpu.Regs.Get(3) != 0x0102_0305 {
		t.Fatalf("unexpected state: %s", spew.Sdump(cpu.Regs))
	}
	assert.Equal(t, uint32(0x0102_0305), cpu.Regs.Get(3))
	assert.Equal(t, uint32(0x0305_0709), cpu.Regs.Get(4))
	assert.Equal(t, uint32(0x0101_0101), cpu.Regs.Get(5))
	assert.Equal(t, uint64(3), cpu.CSR.Instret())
	assert.Equal(t, uint64(15), cpu.CSR.Cycles())
}

// TestCPUCyclesAndInstretCounting runs seven no-op instructions (addi
// x0, x0, 0 always discards its result) and checks the cycle/instret
// counters after exactly 35 ticks.
func TestCPUCyclesAndInstretCounting(t *testing.T) {
	cpu := NewCPU()
	nop := encodeIType(0, 0, aluADD, 0, 0b001_0011)
	words := make([]uint32, 7)
	for i := range words {
		words[i] = nop
	}
	cpu.ROM.Load(words)

	runTicks(cpu, 35)

	assert.Equal(t, uint64(35), cpu.CSR.Cycles())
	assert.Equal(t, uint64(7), cpu.CSR.Instret())
}

// TestCPUCSRReadObservesCycleCounterAtMemoryPhase follows the seven NOPs
// with a CSRRS that reads the cycle counter CSR into x15, and checks the
// value against the tick the Memory stage actually samples it on: Memory
// reads the CSR file's committed value before this tick's own increment
// is latched, so the 8th instruction's Memory phase (tick 39) observes
// 38, not the 40 total ticks elapsed once it fully retires (tick 40).
func TestCPUCSRReadObservesCycleCounterAtMemoryPhase(t *testing.T) {
	cpu := NewCPU()
	nop := encodeIType(0, 0, aluADD, 0, 0b001_0011)
	csrrs := encodeIType(csrCycle, 0, 0b010, 15, 0b1110011) // csrrs x15, cycle, x0
	words := []uint32{nop, nop, nop, nop, nop, nop, nop, csrrs}
	cpu.ROM.Load(words)

	runTicks(cpu, 40)

	require.Equal(t, uint64(8), cpu.CSR.Instret())
	assert.Equal(t, uint32(38), cpu.Regs.Get(15))
}

// TestCPUIllegalInstructionTrapsToMtvec plants an all-ones (illegal)
// word and checks that Decode's trap request is routed through the trap
// controller to redirect Fetch to the vectored mtvec entry for
// CauseIllegalInstruction, and that mstatus.MIE is cleared on entry.
func TestCPUIllegalInstructionTrapsToMtvec(t *testing.T) {
	cpu := NewCPU()
	cpu.CSR.SetMIE(true)
	cpu.ROM.Load([]uint32{0xFFFF_FFFF})

	// Fetch(1) Decode(2) raises the trap; tick 3 enters Trap mode and
	// flushes, tick 4 runs TrapSetCSRJump, tick 5 performs the redirect
	// (LatchNext commits Fetch's shadow unconditionally, even on a
	// stalled tick).
	runTicks(cpu, 5)

	assert.Equal(t, uint32(CauseIllegalInstruction), cpu.CSR.Mcause)
	assert.False(t, cpu.CSR.MIE(), "trap entry must clear MIE")

	want := (cpu.CSR.Mtvec &^ 0b11) + 48 + uint32(CauseIllegalInstruction)*4
	assert.Equal(t, want, cpu.CurrentLine(), "fetch must be redirected to the vectored trap handler")
}

// TestCPUMretRestoresMIEAndReturnsToMepc drives the machine through a
// full trap entry and then an MRET, checking that the saved MIE is
// restored and that Fetch lands back at mepc. The handler instruction
// must be pre-loaded into ROM: ROM writes are always no-ops, so the mret
// is placed at the known vectored offset (reset mtvec + 48 +
// CauseIllegalInstruction*4) before the machine ever runs.
func TestCPUMretRestoresMIEAndReturnsToMepc(t *testing.T) {
	cpu := NewCPU()
	cpu.CSR.SetMIE(true)

	mret := uint32(0x302)<<20 | 0b1110011
	words := make([]uint32, 16)
	words[0] = 0xFFFF_FFFF // illegal instruction at the reset vector
	words[15] = mret       // (0x1000_0004 &^ 0b11) + 48 + 2*4 == 0x1000_003C
	cpu.ROM.Load(words)

	runTicks(cpu, 5) // drive the trap to completion, landing in the handler
	require.Equal(t, uint32(0x1000_003C), cpu.CurrentLine())
	require.False(t, cpu.CSR.MIE())

	// The mret sitting at the handler address needs to be re-fetched and
	// retired, and its own trap-return sequence needs a further couple of
	// ticks after that. Rather than hand-count the exact tick the
	// redirect lands on, poll until MIE comes back, bounded generously.
	const budget = 60
	restored := false
	for i := 0; i < budget; i++ {
		cpu.Cycle()
		if cpu.CSR.MIE() {
			restored = true
			break
		}
	}

	require.True(t, restored, "mret never restored MIE within the tick budget")

	// The fetch redirect trails MIE restoration by a couple of ticks
	// (TrapReturnFromTrap -> TrapSetPc -> the main loop observing
	// ReturnToPipelineMode). Poll for it instead of hand-counting the gap,
	// so an extra tick either way doesn't make this test flaky.
	wantPC := cpu.CSR.Mepc
	redirected := cpu.CurrentLine() == wantPC
	for i := 0; i < budget && !redirected; i++ {
		cpu.Cycle()
		redirected = cpu.CurrentLine() == wantPC
	}
	assert.True(t, redirected, "mret must redirect fetch back to mepc")
}

func TestArbitrateTrapPrefersMemoryOverDecode(t *testing.T) {
	decodeOut := StageOutput{Trap: true, MCause: CauseIllegalInstruction}
	memoryOut := StageOutput{Trap: true, MCause: CauseLoadAddressMisaligned}

	req, ok := arbitrateTrap(decodeOut, memoryOut)
	require.True(t, ok)
	assert.Equal(t, uint32(CauseLoadAddressMisaligned), req.MCause, "Memory-stage traps must win arbitration")
}

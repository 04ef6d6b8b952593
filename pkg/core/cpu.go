package core

// Phase is the pipeline's sub-state while the top-level controller is in
// Pipeline mode: exactly one of the five stages is non-stalled per tick.
type Phase int

const (
	PhaseFetch Phase = iota
	PhaseDecode
	PhaseExecute
	PhaseMemory
	PhaseWriteback
)

func (p Phase) next() Phase {
	switch p {
	case PhaseFetch:
		return PhaseDecode
	case PhaseDecode:
		return PhaseExecute
	case PhaseExecute:
		return PhaseMemory
	case PhaseMemory:
		return PhaseWriteback
	default:
		return PhaseFetch
	}
}

// topState is the controller's top-level mode: normal pipeline advance,
// or servicing a trap entry/return via the trap controller's own FSM.
type topState int

const (
	topPipeline topState = iota
	topTrap
)

// CPU is the whole machine: register file, memory devices and bus, CSR
// file, trap controller, the five pipeline stages, and the tick loop
// that wires them together one cycle at a time.
type CPU struct {
	Regs *RegisterFile
	ROM  *ROM
	RAM  *RAM
	Bus  *Bus
	CSR  *CSRFile
	Trap *TrapController

	fetch     *Fetch
	decode    *Decode
	execute   *Execute
	memory    *Memory
	writeback *Writeback

	phase Phase
	top   topState
}

// NewCPU wires up a fresh machine in reset state: ROM filled with
// 0xFFFF_FFFF, RAM filled with 0xFFFF_FFFF, all registers zero, Fetch pointing at the ROM
// base address.
func NewCPU() *CPU {
	rom := NewROM()
	ram := NewRAM()
	return &CPU{
		Regs:      NewRegisterFile(),
		ROM:       rom,
		RAM:       ram,
		Bus:       NewBus(rom, ram),
		CSR:       NewCSRFile(),
		Trap:      NewTrapController(),
		fetch:     NewFetch(),
		decode:    NewDecode(),
		execute:   NewExecute(),
		memory:    NewMemory(),
		writeback: NewWriteback(),
		phase:     PhaseFetch,
		top:       topPipeline,
	}
}

// CurrentLine returns the program counter of the instruction currently
// occupying the Fetch stage's latch.
func (c *CPU) CurrentLine() uint32 {
	return c.fetch.Output().PC
}

// arbitrateTrap picks between a Decode-stage and a Memory-stage trap
// request gathered in the same tick, preferring the Memory-stage one.
func arbitrateTrap(decodeOut, memoryOut StageOutput) (TrapRequest, bool) {
	if memoryOut.Trap {
		return TrapRequest{MEPC: memoryOut.MEPC, MCause: memoryOut.MCause, MTVal: memoryOut.MTVal}, true
	}
	if decodeOut.Trap {
		return TrapRequest{MEPC: decodeOut.MEPC, MCause: decodeOut.MCause, MTVal: decodeOut.MTVal}, true
	}
	return TrapRequest{}, false
}

// Cycle runs a single tick: it gathers trap signals, arbitrates the
// top-level Pipeline/Trap mode, calls compute on every unit, advances the
// pipeline phase, and finally latches every unit's shadow state into its
// committed state.
func (c *CPU) Cycle() {
	decodeOut := c.decode.Output()
	memoryOut := c.memory.Output()
	req, hasTrap := arbitrateTrap(decodeOut, memoryOut)
	mret := decodeOut.ReturnFromTrap

	trapStall := c.top == topTrap || hasTrap || mret

	enteringTrap := trapStall && c.top == topPipeline
	beginTrap := enteringTrap && hasTrap
	beginTrapReturn := enteringTrap && !hasTrap && mret
	if enteringTrap {
		c.top = topTrap
	}

	if c.top == topTrap && c.Trap.ReturnToPipelineMode() {
		c.top = topPipeline
		c.phase = PhaseFetch
		if c.Trap.SetPcAsserted() {
			c.fetch.Redirect(c.Trap.PcToSet())
		}
	}

	if c.Trap.Flush() {
		c.fetch.Reset()
		c.decode.Reset()
		c.execute.Reset()
		c.memory.Reset()
	}

	execOut := c.execute.Output()
	redirect := execOut.Instr.Kind == KindJal || execOut.Instr.Kind == KindBranch
	c.fetch.Compute(FetchInputs{
		ShouldStall:               trapStall || c.phase != PhaseFetch,
		Bus:                       c.Bus,
		ExecuteOut:                execOut,
		ExecuteIsJalOrTakenBranch: redirect,
	})
	c.decode.Compute(DecodeInputs{
		ShouldStall: trapStall || c.phase != PhaseDecode,
		FetchOut:    c.fetch.Output(),
		Regs:        c.Regs,
	})
	c.execute.Compute(ExecuteInputs{
		ShouldStall: trapStall || c.phase != PhaseExecute,
		DecodeOut:   c.decode.Output(),
	})
	c.memory.Compute(MemoryInputs{
		ShouldStall: trapStall || c.phase != PhaseMemory,
		ExecuteOut:  c.execute.Output(),
		Bus:         c.Bus,
		CSR:         c.CSR,
	})
	c.writeback.Compute(trapStall || c.phase != PhaseWriteback, c.memory.Output(), c.Regs)

	c.CSR.compute()
	c.Trap.Compute(TrapInputs{
		CSR:             c.CSR,
		BeginTrap:       beginTrap,
		BeginTrapReturn: beginTrapReturn,
		Request:         req,
	})

	if !trapStall {
		c.phase = c.phase.next()
		if c.phase == PhaseFetch {
			c.CSR.incrementInstret()
		}
	}

	c.fetch.LatchNext()
	c.decode.LatchNext()
	c.execute.LatchNext()
	c.memory.LatchNext()
	c.writeback.LatchNext()
	c.CSR.latchNext()
	c.Trap.LatchNext()
}

package core

// Trap cause codes (mcause). The top bit distinguishes interrupts from
// exceptions; the reserved slots are defined for documentation even
// though this core, having no timer or external interrupt source, never
// raises an interrupt cause.
const (
	CauseUserSoftwareInterrupt       = 0x8000_0000
	CauseSupervisorSoftwareInterrupt = 0x8000_0001
	CauseReserved0                   = 0x8000_0002
	CauseMachineSoftwareInterrupt    = 0x8000_0003
	CauseUserTimerInterrupt          = 0x8000_0004
	CauseSupervisorTimerInterrupt    = 0x8000_0005
	CauseReserved1                   = 0x8000_0006
	CauseMachineTimerInterrupt       = 0x8000_0007
	CauseUserExternalInterrupt       = 0x8000_0008
	CauseSupervisorExternalInterrupt = 0x8000_0009
	CauseReserved2                   = 0x8000_000A
	CauseMachineExternalInterrupt    = 0x8000_000B

	CauseInstructionAddressMisaligned = 0x0000_0000
	CauseInstructionAccessFault       = 0x0000_0001
	CauseIllegalInstruction           = 0x0000_0002
	CauseBreakpoint                   = 0x0000_0003
	CauseLoadAddressMisaligned        = 0x0000_0004
	CauseLoadAccessFault              = 0x0000_0005
	CauseStoreAMOAddressMisaligned    = 0x0000_0006
	CauseStoreAMOAccessFault          = 0x0000_0007
	CauseEnvironmentCallFromUMode     = 0x0000_0008
	CauseEnvironmentCallFromSMode     = 0x0000_0009
	CauseReserved3                    = 0x0000_000A
	CauseEnvironmentCallFromMMode     = 0x0000_000B
	CauseInstructionPageFault         = 0x0000_000C
	CauseLoadPageFault                = 0x0000_000D
	CauseReserved4                    = 0x0000_000E
	CauseStoreAMOPageFault            = 0x0000_000F
)

// TrapState is the trap controller's own finite state machine, distinct
// from the top-level Pipeline/Trap mode the tick loop tracks.
type TrapState int

const (
	TrapIdle TrapState = iota
	TrapSetCSRJump
	TrapSetPc
	TrapReturnFromTrap
)

// TrapRequest carries the parameters of a newly detected trap, gathered
// from whichever pipeline stage (Decode or Memory) raised it.
type TrapRequest struct {
	MEPC   uint32
	MCause uint32
	MTVal  uint32
}

// TrapInputs are this unit's per-tick inputs.
type TrapInputs struct {
	CSR             *CSRFile
	BeginTrap       bool
	BeginTrapReturn bool
	Request         TrapRequest
}

// TrapController drives the trap-entry and trap-return sequencing. It
// does not itself detect traps; the tick loop gathers those from the
// pipeline stages and calls Compute with begin_trap/begin_trap_return set.
type TrapController struct {
	state                *Latch[TrapState]
	mepc                 *Latch[uint32]
	mcause               *Latch[uint32]
	mtval                *Latch[uint32]
	returnToPipelineMode *Latch[bool]
	setPc                *Latch[bool]
	pcToSet              *Latch[uint32]
	flush                *Latch[bool]
}

// NewTrapController returns an idle trap controller.
func NewTrapController() *TrapController {
	return &TrapController{
		state:                NewLatch(TrapIdle),
		mepc:                 NewLatch[uint32](0),
		mcause:               NewLatch[uint32](0),
		mtval:                NewLatch[uint32](0),
		returnToPipelineMode: NewLatch(false),
		setPc:                NewLatch(false),
		pcToSet:              NewLatch[uint32](0),
		flush:                NewLatch(false),
	}
}

func (t *TrapController) ReturnToPipelineMode() bool { return t.returnToPipelineMode.Get() }
func (t *TrapController) SetPcAsserted() bool         { return t.setPc.Get() }
func (t *TrapController) PcToSet() uint32             { return t.pcToSet.Get() }
func (t *TrapController) Flush() bool                 { return t.flush.Get() }

// Compute runs one tick of the trap FSM. begin_trap and begin_trap_return
// are expected to be one-tick pulses raised by the tick loop exactly when
// the top-level controller transitions from Pipeline into Trap mode;
// Compute itself does not gate on or track that transition.
func (t *TrapController) Compute(in TrapInputs) {
	switch {
	case in.BeginTrap:
		t.mepc.Set(in.Request.MEPC)
		t.mcause.Set(in.Request.MCause)
		t.mtval.Set(in.Request.MTVal)
		t.state.Set(TrapSetCSRJump)
		t.flush.Set(true)
	case in.BeginTrapReturn:
		t.state.Set(TrapReturnFromTrap)
		t.flush.Set(false)
	default:
		switch t.state.Get() {
		case TrapIdle:
			t.returnToPipelineMode.Set(false)
			t.setPc.Set(false)
		case TrapSetCSRJump:
			mcause := t.mcause.Get()
			in.CSR.Mepc = t.mepc.Get()
			in.CSR.Mcause = mcause
			in.CSR.Mtval = t.mtval.Get()
			in.CSR.SaveMIEToMPIE()

			index := mcause & 0x7FFF_FFFF
			isInterrupt := mcause&0x8000_0000 != 0
			offset := uint32(48)
			if isInterrupt {
				offset = 0
			}
			t.pcToSet.Set((in.CSR.Mtvec &^ 0b11) + offset + (index << 2))
			t.setPc.Set(true)
			t.returnToPipelineMode.Set(true)
			t.state.Set(TrapIdle)
		case TrapSetPc:
			t.setPc.Set(true)
			t.returnToPipelineMode.Set(true)
			t.state.Set(TrapIdle)
		case TrapReturnFromTrap:
			t.pcToSet.Set(in.CSR.Mepc)
			t.state.Set(TrapSetPc)
			in.CSR.RestoreMIEFromMPIE()
		}
		t.flush.Set(false)
	}
}

func (t *TrapController) LatchNext() {
	t.state.LatchNext()
	t.mepc.LatchNext()
	t.mcause.LatchNext()
	t.mtval.LatchNext()
	t.returnToPipelineMode.LatchNext()
	t.setPc.LatchNext()
	t.pcToSet.LatchNext()
	t.flush.LatchNext()
}

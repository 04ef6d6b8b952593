package core

// CSR addresses implemented by this machine-mode-only file.
const (
	csrCycle        = 0xC00
	csrCycleAlias   = 0xC01
	csrInstret      = 0xC02
	csrCycleH       = 0xC80
	csrCycleHAlias  = 0xC81
	csrInstretH     = 0xC82
	CSRMisa         = 0x301
	CSRMvendorid    = 0xF11
	CSRMarchid      = 0xF12
	CSRMimpid       = 0xF13
	CSRMhartid      = 0xF14
	CSRMstatus      = 0x300
	CSRMtvec        = 0x305
	CSRMie          = 0x304
	CSRMip          = 0x344
	CSRMcause       = 0x342
	CSRMepc         = 0x341
	CSRMscratch     = 0x340
	CSRMtval        = 0x343
)

// CSR operation selectors, the low 2 bits of a System instruction's
// funct3 field.
const (
	CSROpRW = 0b01
	CSROpRS = 0b10
	CSROpRC = 0b11
)

// MstatusMask keeps only MIE (bit 3) and MPIE (bit 7) writable; every
// other mstatus bit reads back zero regardless of what was written.
const MstatusMask = (1 << 3) | (1 << 7)

const mstatusMIEBit = 1 << 3
const mstatusMPIEBit = 1 << 7

// CSRFile is the machine-mode control and status register file: a pair
// of free-running 64-bit counters plus a handful of plain registers
// mutated directly by the trap controller.
type CSRFile struct {
	cycles  *Latch[uint64]
	instret *Latch[uint64]

	misa      uint32
	mvendorid uint32
	marchid   uint32
	mimpid    uint32
	mhartid   uint32
	mstatus   uint32
	Mtvec     uint32
	mie       uint32
	mip       uint32
	Mcause    uint32
	Mepc      uint32
	mscratch  uint32
	Mtval     uint32
}

// NewCSRFile returns the reset-state CSR file: misa reports RV32I, mtvec
// points just past the reset vector, and mie has the timer/external/
// software enable bits pre-armed (this core raises none of them, but the
// reset value is carried over from the reference implementation).
func NewCSRFile() *CSRFile {
	return &CSRFile{
		cycles:  NewLatch[uint64](0),
		instret: NewLatch[uint64](0),
		misa:    0x4000_0100,
		Mtvec:   0x1000_0004,
		mie:     0x0000_0888,
	}
}

func (c *CSRFile) Cycles() uint64  { return c.cycles.Get() }
func (c *CSRFile) Instret() uint64 { return c.instret.Get() }

// Read returns the value of the CSR at address, or ErrUnknownCSR.
func (c *CSRFile) Read(address uint32) (uint32, error) {
	switch address {
	case csrCycle, csrCycleAlias:
		return uint32(c.cycles.Get()), nil
	case csrInstret:
		return uint32(c.instret.Get()), nil
	case csrCycleH, csrCycleHAlias:
		return uint32(c.cycles.Get() >> 32), nil
	case csrInstretH:
		return uint32(c.instret.Get() >> 32), nil
	case CSRMisa:
		return c.misa, nil
	case CSRMvendorid:
		return c.mvendorid, nil
	case CSRMarchid:
		return c.marchid, nil
	case CSRMimpid:
		return c.mimpid, nil
	case CSRMhartid:
		return c.mhartid, nil
	case CSRMstatus:
		return c.mstatus, nil
	case CSRMtvec:
		return c.Mtvec, nil
	case CSRMie:
		return c.mie, nil
	case CSRMip:
		return c.mip, nil
	case CSRMcause:
		return c.Mcause, nil
	case CSRMepc:
		return c.Mepc, nil
	case CSRMscratch:
		return c.mscratch, nil
	case CSRMtval:
		return c.Mtval, nil
	default:
		return 0, ErrUnknownCSR
	}
}

// Write stores value into the CSR at address. Addresses whose top two
// bits are set are read-only performance/identity registers; writing to
// one of those returns ErrCSRReadOnly. An address that is read-write but
// not one of the registers above is a silent no-op, matching the
// reference machine's tolerant CSR decode.
func (c *CSRFile) Write(address uint32, value uint32) error {
	if address>>10 == 0b11 {
		return ErrCSRReadOnly
	}
	switch address {
	case CSRMstatus:
		c.mstatus = value & MstatusMask
	case CSRMie:
		c.mie = value
	case CSRMip:
		c.mip = value
	case CSRMcause:
		c.Mcause = value
	case CSRMepc:
		c.Mepc = value
	case CSRMscratch:
		c.mscratch = value
	case CSRMtval:
		c.Mtval = value
	}
	return nil
}

// MIE reports whether the machine-mode global interrupt enable bit is
// currently set.
func (c *CSRFile) MIE() bool { return c.mstatus&mstatusMIEBit != 0 }

// MPIE reports the saved interrupt-enable bit.
func (c *CSRFile) MPIE() bool { return c.mstatus&mstatusMPIEBit != 0 }

// SetMIE and SetMPIE are used by the trap controller to save/restore the
// interrupt-enable bit across a trap and its return.
func (c *CSRFile) SetMIE(v bool) {
	if v {
		c.mstatus |= mstatusMIEBit
	} else {
		c.mstatus &^= mstatusMIEBit
	}
}

func (c *CSRFile) SetMPIE(v bool) {
	if v {
		c.mstatus |= mstatusMPIEBit
	} else {
		c.mstatus &^= mstatusMPIEBit
	}
}

// SaveMIEToMPIE copies MIE into MPIE and clears MIE, the mstatus update a
// trap entry performs.
func (c *CSRFile) SaveMIEToMPIE() {
	mie := c.MIE()
	c.SetMPIE(mie)
	c.SetMIE(false)
}

// RestoreMIEFromMPIE copies MPIE back into MIE and clears MPIE, the
// mstatus update MRET performs.
func (c *CSRFile) RestoreMIEFromMPIE() {
	mpie := c.MPIE()
	c.SetMIE(mpie)
	c.SetMPIE(false)
}

// compute advances the free-running cycle counter. It runs unconditionally
// every tick, independent of trap_stall or the pipeline phase.
func (c *CSRFile) compute() {
	c.cycles.Set(c.cycles.Get() + 1)
}

// incrementInstret is called by the tick loop exactly once per retired
// instruction (on the Writeback-to-Fetch phase transition).
func (c *CSRFile) incrementInstret() {
	c.instret.Set(c.instret.Get() + 1)
}

func (c *CSRFile) latchNext() {
	c.cycles.LatchNext()
	c.instret.LatchNext()
}

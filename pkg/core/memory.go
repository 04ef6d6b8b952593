package core

// Memory is the Memory-access pipeline stage: it performs loads and
// stores, finalizes the write-back value for Lui/Auipc/Jal/System/Load,
// and is the other (besides Decode) source of trap requests.
type Memory struct {
	out *Latch[StageOutput]
}

func NewMemory() *Memory {
	return &Memory{out: NewLatch(StageOutput{})}
}

func (m *Memory) Output() StageOutput { return m.out.Get() }

type MemoryInputs struct {
	ShouldStall bool
	ExecuteOut  StageOutput
	Bus         *Bus
	CSR         *CSRFile
}

func (m *Memory) Compute(in MemoryInputs) {
	if in.ShouldStall {
		return
	}
	out := in.ExecuteOut
	d := out.Instr

	switch d.Kind {
	case KindLoad:
		addr := uint32(int32(d.Rs1) + d.Imm32)
		value, err := loadValue(in.Bus, addr, d.Funct3)
		if err != nil {
			out.Trap = true
			out.MCause = CauseLoadAddressMisaligned
			out.MTVal = out.RawInstruction
			out.MEPC = out.PCPlus4
		} else {
			out.WriteBackValue = value
		}
	case KindStore:
		addr := uint32(int32(d.Rs1) + d.Imm32)
		if err := storeValue(in.Bus, addr, d.Funct3, d.Rs2); err != nil {
			out.Trap = true
			out.MCause = CauseStoreAMOAddressMisaligned
			out.MTVal = out.RawInstruction
			out.MEPC = out.PCPlus4
		}
	case KindLui:
		out.WriteBackValue = d.ImmU32
	case KindAuipc:
		out.WriteBackValue = out.PC + d.ImmU32
	case KindJal:
		out.WriteBackValue = out.PCPlus4
	case KindSystem:
		out.WriteBackValue = computeSystem(in.CSR, d)
	}

	m.out.Set(out)
}

func loadValue(bus *Bus, addr uint32, funct3 uint8) (uint32, error) {
	unsigned := funct3&0b100 != 0
	switch funct3 & 0b011 {
	case 0b00:
		b := bus.ReadByte(addr)
		if unsigned {
			return uint32(b), nil
		}
		return uint32(int32(int8(b))), nil
	case 0b01:
		h, err := bus.ReadHalf(addr)
		if err != nil {
			return 0, err
		}
		if unsigned {
			return uint32(h), nil
		}
		return uint32(int32(int16(h))), nil
	default:
		return bus.ReadWord(addr)
	}
}

func storeValue(bus *Bus, addr uint32, funct3 uint8, value uint32) error {
	switch funct3 & 0b011 {
	case 0b00:
		bus.WriteByte(addr, uint8(value))
		return nil
	case 0b01:
		return bus.WriteHalf(addr, uint16(value))
	default:
		return bus.WriteWord(addr, value)
	}
}

// computeSystem applies a CSR read/modify/write. A panic here signals an
// implementation-level problem (an unknown CSR address, or an attempt to
// write a read-only one) rather than a guest-visible trap, matching the
// reference machine's treatment of CSR-layer faults as fatal.
func computeSystem(csr *CSRFile, d Decoded) uint32 {
	var current, writeBack uint32
	if d.ShouldRead {
		v, err := csr.Read(d.CSRAddress)
		if err != nil {
			panic(err)
		}
		current = v
		writeBack = v
	}
	if d.ShouldWrite {
		var newValue uint32
		switch d.Funct3 & 0b11 {
		case CSROpRW:
			newValue = d.Source
		case CSROpRS:
			newValue = current | d.Source
		case CSROpRC:
			newValue = current &^ d.Source
		}
		if err := csr.Write(d.CSRAddress, newValue); err != nil {
			panic(err)
		}
	}
	return writeBack
}

func (m *Memory) LatchNext() { m.out.LatchNext() }
func (m *Memory) Reset()     { m.out.Reset() }

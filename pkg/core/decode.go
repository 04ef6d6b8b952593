package core

// InstrKind discriminates the decoded-instruction variants. Go has no
// closed sum types, so the decoded instruction is a flat struct carrying
// this tag plus the union of every variant's fields, rather than a set of
// heap-allocated variant structs.
type InstrKind uint8

const (
	KindNone InstrKind = iota
	KindAlu
	KindStore
	KindLoad
	KindLui
	KindJal
	KindBranch
	KindSystem
	KindAuipc
)

// Decoded is the flat decoded-instruction record. Not every field is
// meaningful for every Kind; see the opcode cases in Decode.Compute.
type Decoded struct {
	Kind InstrKind

	Opcode uint8
	Funct3 uint8
	Shamt  uint8
	Imm12  uint16
	Rd     uint8
	Rs1    uint32
	Rs2    uint32
	Imm32  int32

	ImmU32 uint32

	BranchAddress uint32

	CSRAddress  uint32
	Source      uint32
	ShouldWrite bool
	ShouldRead  bool
}

// StageOutput is the flat pipeline record threaded from Decode through
// Writeback. It accumulates write_back_value (from Execute onward) and
// trap metadata (set by Decode or Memory).
type StageOutput struct {
	PC             uint32
	PCPlus4        uint32
	RawInstruction uint32
	Instr          Decoded

	WriteBackValue uint32
	BranchAddress  uint32

	ReturnFromTrap bool

	Trap   bool
	MEPC   uint32
	MCause uint32
	MTVal  uint32
}

// Decode is the Decode pipeline stage.
type Decode struct {
	out *Latch[StageOutput]
}

func NewDecode() *Decode {
	return &Decode{out: NewLatch(StageOutput{})}
}

func (d *Decode) Output() StageOutput { return d.out.Get() }

type DecodeInputs struct {
	ShouldStall bool
	FetchOut    FetchOutput
	Regs        *RegisterFile
}

func (d *Decode) Compute(in DecodeInputs) {
	if in.ShouldStall {
		return
	}

	out := StageOutput{
		PC:             in.FetchOut.PC,
		PCPlus4:        in.FetchOut.PCPlus4,
		RawInstruction: in.FetchOut.RawInstruction,
	}

	if in.FetchOut.Fault {
		out.Trap = true
		out.MCause = CauseInstructionAddressMisaligned
		out.MTVal = in.FetchOut.FaultAddress
		out.MEPC = in.FetchOut.PCPlus4
		d.out.Set(out)
		return
	}

	instr := in.FetchOut.RawInstruction
	opcode := uint8(instr & 0x7F)
	reg := in.Regs.Get

	switch opcode {
	case 0b001_0011, 0b011_0011: // ALU register/immediate
		imm12 := uint16((instr >> 20) & 0xFFF)
		rs1Addr := uint8((instr >> 15) & 0x1F)
		rs2Addr := uint8((instr >> 20) & 0x1F)
		out.Instr = Decoded{
			Kind:   KindAlu,
			Opcode: opcode,
			Funct3: uint8((instr >> 12) & 0x07),
			Shamt:  rs2Addr,
			Imm12:  imm12,
			Rd:     uint8((instr >> 7) & 0x1F),
			Rs1:    reg(rs1Addr),
			Rs2:    reg(rs2Addr),
			Imm32:  SignExtend32(12, uint32(imm12)),
		}
	case 0b010_0011: // Store
		rs1Addr := uint8((instr >> 15) & 0x1F)
		rs2Addr := uint8((instr >> 20) & 0x1F)
		imm12 := (((instr >> 25) & 0x7F) << 5) | ((instr >> 7) & 0x1F)
		out.Instr = Decoded{
			Kind:   KindStore,
			Funct3: uint8((instr >> 12) & 0x07),
			Rs1:    reg(rs1Addr),
			Rs2:    reg(rs2Addr),
			Imm32:  SignExtend32(12, imm12),
		}
	case 0b000_0011: // Load
		imm12 := uint16((instr >> 20) & 0xFFF)
		rs1Addr := uint8((instr >> 15) & 0x1F)
		out.Instr = Decoded{
			Kind:   KindLoad,
			Funct3: uint8((instr >> 12) & 0x07),
			Rd:     uint8((instr >> 7) & 0x1F),
			Rs1:    reg(rs1Addr),
			Imm32:  SignExtend32(12, uint32(imm12)),
		}
	case 0b0110111: // Lui
		out.Instr = Decoded{
			Kind:   KindLui,
			Rd:     uint8((instr >> 7) & 0x1F),
			ImmU32: (instr >> 12) << 12,
		}
	case 0b0010111: // Auipc
		out.Instr = Decoded{
			Kind:   KindAuipc,
			Rd:     uint8((instr >> 7) & 0x1F),
			ImmU32: (instr >> 12) << 12,
		}
	case 0b1101111: // Jal
		restructured := Bit(31, instr, 20) |
			Slice32(19, 12, instr, 19) |
			Bit(20, instr, 11) |
			Slice32(30, 21, instr, 10)
		imm32 := SignExtend32(21, restructured<<1)
		out.Instr = Decoded{
			Kind:          KindJal,
			Rd:            uint8((instr >> 7) & 0x1F),
			BranchAddress: in.FetchOut.PC + uint32(imm32),
		}
	case 0b1100111: // Jalr, re-emitted as a Jal whose target is already resolved
		imm12 := uint16((instr >> 20) & 0xFFF)
		imm32 := SignExtend32(12, uint32(imm12))
		rs1Addr := uint8((instr >> 15) & 0x1F)
		addr := uint32(int32(reg(rs1Addr)) + imm32)
		addr &^= 1
		out.Instr = Decoded{
			Kind:          KindJal,
			Rd:            uint8((instr >> 7) & 0x1F),
			BranchAddress: addr,
		}
	case 0b1100011: // Branch
		restructured := Bit(31, instr, 12) |
			Bit(7, instr, 11) |
			Slice32(30, 25, instr, 10) |
			Slice32(11, 8, instr, 4)
		imm32 := SignExtend32(13, restructured<<1)
		rs1Addr := uint8((instr >> 15) & 0x1F)
		rs2Addr := uint8((instr >> 20) & 0x1F)
		out.Instr = Decoded{
			Kind:          KindBranch,
			Funct3:        uint8((instr >> 12) & 0x07),
			BranchAddress: in.FetchOut.PC + uint32(imm32),
			Rs1:           reg(rs1Addr),
			Rs2:           reg(rs2Addr),
		}
	case 0b1110011: // System
		rd := uint8((instr >> 7) & 0x1F)
		rs1Addr := uint8((instr >> 15) & 0x1F)
		funct3 := uint8((instr >> 12) & 0x07)
		imm12 := instr >> 20

		if rd == 0 && rs1Addr == 0 && imm12 == 0x302 {
			out.ReturnFromTrap = true
			d.out.Set(out)
			return
		}

		var source uint32
		if funct3&0b100 == 0b100 {
			source = uint32(rs1Addr)
		} else {
			source = reg(rs1Addr)
		}
		var shouldWrite bool
		if funct3&0b11 == 0b01 {
			shouldWrite = true
		} else {
			shouldWrite = rs1Addr != 0
		}
		var shouldRead bool
		if funct3&0b11 == 0b01 {
			shouldRead = rd != 0
		} else {
			shouldRead = true
		}

		out.Instr = Decoded{
			Kind:        KindSystem,
			Funct3:      funct3,
			Rd:          rd,
			CSRAddress:  imm12,
			Source:      source,
			ShouldWrite: shouldWrite,
			ShouldRead:  shouldRead,
		}
	default:
		out.Instr = Decoded{Kind: KindNone}
		out.Trap = true
		out.MCause = CauseIllegalInstruction
		out.MTVal = instr
		out.MEPC = in.FetchOut.PCPlus4
	}

	d.out.Set(out)
}

func (d *Decode) LatchNext() { d.out.LatchNext() }
func (d *Decode) Reset()     { d.out.Reset() }

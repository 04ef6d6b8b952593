package asm

import (
	"fmt"
	"strconv"
)

// RV32I opcodes, as consumed by pkg/core's Decode stage.
const (
	opAluImm = 0b001_0011
	opAluReg = 0b011_0011
	opStore  = 0b010_0011
	opLoad   = 0b000_0011
	opLui    = 0b0110111
	opAuipc  = 0b0010111
	opJal    = 0b1101111
	opJalr   = 0b1100111
	opBranch = 0b1100011
	opSystem = 0b1110011
)

// Instruction is a parsed, not-yet-encoded instruction line, mirroring
// the teacher's two-pass label/encode protocol: pass one walks every
// Instruction to build the label table, pass two calls Encode with it.
type Instruction interface {
	// Err returns the error occurred processing the instruction. If this
	// function returns nil, then the instruction is valid.
	Err() error

	// Label returns the label associated with the instruction. If this
	// function returns nil, then there is no label.
	Label() *string

	// Line returns the line where the instruction appears in the input file.
	Line() int

	// Encode encodes the instruction. The table passed in input maps each
	// label to the corresponding word offset in memory.
	Encode(labels map[string]int64, pc uint32) (uint32, error)
}

// InstructionErr wraps a parse-time failure so a bad line still reports
// its original line number through the Instruction interface.
type InstructionErr struct {
	Error  error
	Lineno int
}

func (ia InstructionErr) Err() error     { return ia.Error }
func (ia InstructionErr) Label() *string { return nil }
func (ia InstructionErr) Line() int      { return ia.Lineno }
func (ia InstructionErr) Encode(map[string]int64, uint32) (uint32, error) {
	return 0, fmt.Errorf("%w: %s", ErrCannotEncode, ia.Error)
}

// NewParseError constructs a one-element instruction slice wrapping a
// parsing error, so the assembler's channel pipeline can report a bad
// line without special-casing error propagation.
func NewParseError(err error, lineno int) []Instruction {
	return []Instruction{InstructionErr{Error: err, Lineno: lineno}}
}

var _ Instruction = InstructionErr{}

// rType is ADD/SUB/AND/OR/XOR/SLL/SRL/SRA/SLT/SLTU, the register-register
// ALU form.
type rType struct {
	Lineno       int
	MaybeLabel   *string
	Funct7       uint32
	Funct3       uint32
	RD, RS1, RS2 uint32
}

func (i rType) Err() error     { return nil }
func (i rType) Label() *string { return i.MaybeLabel }
func (i rType) Line() int      { return i.Lineno }
func (i rType) Encode(map[string]int64, uint32) (uint32, error) {
	return (i.Funct7 << 25) | (i.RS2 << 20) | (i.RS1 << 15) | (i.Funct3 << 12) | (i.RD << 7) | opAluReg, nil
}

var _ Instruction = rType{}

// iType is ADDI/ANDI/.../LW/LH/LB/.../JALR, the register-immediate form. A
// nonzero Funct7Hi selects the SRAI alternate-shift top bits.
type iType struct {
	Lineno     int
	MaybeLabel *string
	Opcode     uint32
	Funct3     uint32
	Funct7Hi   uint32
	RD, RS1    uint32
	Imm        string
}

func (i iType) Err() error     { return nil }
func (i iType) Label() *string { return i.MaybeLabel }
func (i iType) Line() int      { return i.Lineno }
func (i iType) Encode(labels map[string]int64, pc uint32) (uint32, error) {
	imm, err := ResolveImmediate(labels, i.Imm, 12, i.Lineno)
	if err != nil {
		return 0, err
	}
	enc := imm & 0xFFF
	if i.Funct7Hi != 0 {
		enc = (i.Funct7Hi << 5) | (imm & 0x1F)
	}
	return (enc << 20) | (i.RS1 << 15) | (i.Funct3 << 12) | (i.RD << 7) | i.Opcode, nil
}

var _ Instruction = iType{}

// sType is SB/SH/SW.
type sType struct {
	Lineno     int
	MaybeLabel *string
	Funct3     uint32
	RS1, RS2   uint32
	Imm        string
}

func (i sType) Err() error     { return nil }
func (i sType) Label() *string { return i.MaybeLabel }
func (i sType) Line() int      { return i.Lineno }
func (i sType) Encode(labels map[string]int64, pc uint32) (uint32, error) {
	imm, err := ResolveImmediate(labels, i.Imm, 12, i.Lineno)
	if err != nil {
		return 0, err
	}
	hi := (imm >> 5) & 0x7F
	lo := imm & 0x1F
	return (hi << 25) | (i.RS2 << 20) | (i.RS1 << 15) | (i.Funct3 << 12) | (lo << 7) | opStore, nil
}

var _ Instruction = sType{}

// bType is BEQ/BNE/BLT/BGE/BLTU/BGEU. Target is a label name or a literal
// byte address counted from the start of the program; the encoded offset
// is relative to the instruction's own byte address, pc*4.
type bType struct {
	Lineno     int
	MaybeLabel *string
	Funct3     uint32
	RS1, RS2   uint32
	Target     string
}

func (i bType) Err() error     { return nil }
func (i bType) Label() *string { return i.MaybeLabel }
func (i bType) Line() int      { return i.Lineno }
func (i bType) Encode(labels map[string]int64, pc uint32) (uint32, error) {
	targetByteAddr, err := resolveAddress(labels, i.Target, i.Lineno)
	if err != nil {
		return 0, err
	}
	offset := targetByteAddr - int64(pc)*4
	imm, err := CastToUint32(offset, 13, i.Lineno)
	if err != nil {
		return 0, err
	}
	bit12 := (imm >> 12) & 1
	bit11 := (imm >> 11) & 1
	bits10to5 := (imm >> 5) & 0x3F
	bits4to1 := (imm >> 1) & 0xF
	return (bit12 << 31) | (bits10to5 << 25) | (i.RS2 << 20) | (i.RS1 << 15) |
		(i.Funct3 << 12) | (bits4to1 << 8) | (bit11 << 7) | opBranch, nil
}

var _ Instruction = bType{}

// uType is LUI/AUIPC.
type uType struct {
	Lineno     int
	MaybeLabel *string
	Opcode     uint32
	RD         uint32
	Imm        string
}

func (i uType) Err() error     { return nil }
func (i uType) Label() *string { return i.MaybeLabel }
func (i uType) Line() int      { return i.Lineno }
func (i uType) Encode(labels map[string]int64, pc uint32) (uint32, error) {
	imm, err := ResolveImmediate(labels, i.Imm, 32, i.Lineno)
	if err != nil {
		return 0, err
	}
	return (imm & 0xFFFFF000) | (i.RD << 7) | i.Opcode, nil
}

var _ Instruction = uType{}

// jType is JAL.
type jType struct {
	Lineno     int
	MaybeLabel *string
	RD         uint32
	Target     string
}

func (i jType) Err() error     { return nil }
func (i jType) Label() *string { return i.MaybeLabel }
func (i jType) Line() int      { return i.Lineno }
func (i jType) Encode(labels map[string]int64, pc uint32) (uint32, error) {
	targetByteAddr, err := resolveAddress(labels, i.Target, i.Lineno)
	if err != nil {
		return 0, err
	}
	offset := targetByteAddr - int64(pc)*4
	imm, err := CastToUint32(offset, 21, i.Lineno)
	if err != nil {
		return 0, err
	}
	bit20 := (imm >> 20) & 1
	bits10to1 := (imm >> 1) & 0x3FF
	bit11 := (imm >> 11) & 1
	bits19to12 := (imm >> 12) & 0xFF
	return (bit20 << 31) | (bits10to1 << 21) | (bit11 << 20) | (bits19to12 << 12) | (i.RD << 7) | opJal, nil
}

var _ Instruction = jType{}

// sysType is a CSR instruction, ECALL, or MRET; CSROrImm12 holds the CSR
// address for CSRR* forms or the funct12 discriminator for ECALL/MRET.
type sysType struct {
	Lineno     int
	MaybeLabel *string
	Funct3     uint32
	RD, RS1    uint32
	CSROrImm12 uint32
}

func (i sysType) Err() error     { return nil }
func (i sysType) Label() *string { return i.MaybeLabel }
func (i sysType) Line() int      { return i.Lineno }
func (i sysType) Encode(map[string]int64, uint32) (uint32, error) {
	return (i.CSROrImm12 << 20) | (i.RS1 << 15) | (i.Funct3 << 12) | (i.RD << 7) | opSystem, nil
}

var _ Instruction = sysType{}

// ResolveImmediate resolves an operand token to a width-checked uint32,
// treating it as a label reference when it doesn't parse as a literal.
func ResolveImmediate(labels map[string]int64, name string, bits, lineno int) (uint32, error) {
	value, err := strconv.ParseInt(name, 0, 64)
	if err != nil {
		v, found := labels[name]
		if !found {
			return 0, fmt.Errorf("%w because label '%s' is missing", ErrCannotEncode, name)
		}
		value = v
	}
	return CastToUint32(value, bits, lineno)
}

// resolveAddress returns a byte address, either a literal or a label's
// word index scaled by 4.
func resolveAddress(labels map[string]int64, name string, lineno int) (int64, error) {
	if v, err := strconv.ParseInt(name, 0, 64); err == nil {
		return v, nil
	}
	v, found := labels[name]
	if !found {
		return 0, fmt.Errorf("%w because label '%s' is missing", ErrCannotEncode, name)
	}
	return v * 4, nil
}

// CastToUint32 casts the given value to uint32, checking it fits in bits
// as a two's-complement signed quantity.
func CastToUint32(value int64, bits, lineno int) (uint32, error) {
	if bits < 1 || bits > 32 {
		panic("bits value out of range")
	}
	if value < -(1<<(bits-1)) || value > ((1<<(bits-1))-1) {
		return 0, fmt.Errorf("%w for %d-bit range on line %d", ErrOutOfRange, bits, lineno)
	}
	return uint32(value) & ((1 << uint(bits)) - 1), nil
}

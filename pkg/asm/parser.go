package asm

import (
	"fmt"
	"strconv"
	"strings"
)

// StartParsing consumes lexed lines and emits Instruction values, running
// concurrently with the lexer goroutine feeding it.
func StartParsing(lines <-chan line) <-chan Instruction {
	out := make(chan Instruction)
	go func() {
		defer close(out)
		var pendingLabel *string
		for l := range lines {
			if l.Mnemonic == "" {
				// A label-only line: hold the label and attach it to the
				// next real instruction instead of consuming an address
				// slot of its own.
				pendingLabel = l.Label
				continue
			}
			instr, err := parseLine(l)
			if err != nil {
				out <- InstructionErr{Error: err, Lineno: l.Lineno}
				return
			}
			if pendingLabel != nil && instr.Label() == nil {
				instr = withLabel(instr, pendingLabel)
			}
			pendingLabel = nil
			out <- instr
		}
	}()
	return out
}

// withLabel reattaches a label held over from a preceding label-only
// line to the instruction that actually occupies this address.
func withLabel(instr Instruction, label *string) Instruction {
	switch v := instr.(type) {
	case rType:
		v.MaybeLabel = label
		return v
	case iType:
		v.MaybeLabel = label
		return v
	case sType:
		v.MaybeLabel = label
		return v
	case bType:
		v.MaybeLabel = label
		return v
	case uType:
		v.MaybeLabel = label
		return v
	case jType:
		v.MaybeLabel = label
		return v
	case sysType:
		v.MaybeLabel = label
		return v
	default:
		return instr
	}
}

func parseLine(l line) (Instruction, error) {
	switch l.Mnemonic {
	case "ADD":
		return parseR(l, 0b0000000, 0b000)
	case "SUB":
		return parseR(l, 0b0100000, 0b000)
	case "SLL":
		return parseR(l, 0b0000000, 0b001)
	case "SLT":
		return parseR(l, 0b0000000, 0b010)
	case "SLTU":
		return parseR(l, 0b0000000, 0b011)
	case "XOR":
		return parseR(l, 0b0000000, 0b100)
	case "SRL":
		return parseR(l, 0b0000000, 0b101)
	case "SRA":
		return parseR(l, 0b0100000, 0b101)
	case "OR":
		return parseR(l, 0b0000000, 0b110)
	case "AND":
		return parseR(l, 0b0000000, 0b111)

	case "ADDI":
		return parseI(l, opAluImm, 0b000, 0)
	case "SLTI":
		return parseI(l, opAluImm, 0b010, 0)
	case "SLTIU":
		return parseI(l, opAluImm, 0b011, 0)
	case "XORI":
		return parseI(l, opAluImm, 0b100, 0)
	case "ORI":
		return parseI(l, opAluImm, 0b110, 0)
	case "ANDI":
		return parseI(l, opAluImm, 0b111, 0)
	case "SLLI":
		return parseI(l, opAluImm, 0b001, 0)
	case "SRLI":
		return parseI(l, opAluImm, 0b101, 0)
	case "SRAI":
		return parseI(l, opAluImm, 0b101, 0b0100000)

	case "LB":
		return parseLoad(l, 0b000)
	case "LH":
		return parseLoad(l, 0b001)
	case "LW":
		return parseLoad(l, 0b010)
	case "LBU":
		return parseLoad(l, 0b100)
	case "LHU":
		return parseLoad(l, 0b101)

	case "SB":
		return parseStore(l, 0b000)
	case "SH":
		return parseStore(l, 0b001)
	case "SW":
		return parseStore(l, 0b010)

	case "BEQ":
		return parseBranch(l, 0b000)
	case "BNE":
		return parseBranch(l, 0b001)
	case "BLT":
		return parseBranch(l, 0b100)
	case "BGE":
		return parseBranch(l, 0b101)
	case "BLTU":
		return parseBranch(l, 0b110)
	case "BGEU":
		return parseBranch(l, 0b111)

	case "LUI":
		return parseU(l, opLui)
	case "AUIPC":
		return parseU(l, opAuipc)

	case "JAL":
		return parseJal(l)
	case "JALR":
		return parseJalr(l)

	case "CSRRW":
		return parseCSR(l, 0b001)
	case "CSRRS":
		return parseCSR(l, 0b010)
	case "CSRRC":
		return parseCSR(l, 0b011)
	case "CSRRWI":
		return parseCSRImm(l, 0b101)
	case "CSRRSI":
		return parseCSRImm(l, 0b110)
	case "CSRRCI":
		return parseCSRImm(l, 0b111)

	case "ECALL":
		return sysType{Lineno: l.Lineno, MaybeLabel: l.Label, CSROrImm12: 0}, nil
	case "MRET":
		return sysType{Lineno: l.Lineno, MaybeLabel: l.Label, CSROrImm12: 0x302}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMnemonic, l.Mnemonic)
	}
}

func parseR(l line, funct7, funct3 uint32) (Instruction, error) {
	if len(l.Operands) != 3 {
		return nil, fmt.Errorf("%w: %s wants rd, rs1, rs2", ErrBadOperands, l.Mnemonic)
	}
	rd, err := ResolveRegister(l.Operands[0])
	if err != nil {
		return nil, err
	}
	rs1, err := ResolveRegister(l.Operands[1])
	if err != nil {
		return nil, err
	}
	rs2, err := ResolveRegister(l.Operands[2])
	if err != nil {
		return nil, err
	}
	return rType{Lineno: l.Lineno, MaybeLabel: l.Label, Funct7: funct7, Funct3: funct3, RD: rd, RS1: rs1, RS2: rs2}, nil
}

func parseI(l line, opcode, funct3, funct7Hi uint32) (Instruction, error) {
	if len(l.Operands) != 3 {
		return nil, fmt.Errorf("%w: %s wants rd, rs1, imm", ErrBadOperands, l.Mnemonic)
	}
	rd, err := ResolveRegister(l.Operands[0])
	if err != nil {
		return nil, err
	}
	rs1, err := ResolveRegister(l.Operands[1])
	if err != nil {
		return nil, err
	}
	return iType{Lineno: l.Lineno, MaybeLabel: l.Label, Opcode: opcode, Funct3: funct3, Funct7Hi: funct7Hi, RD: rd, RS1: rs1, Imm: l.Operands[2]}, nil
}

// parseLoad accepts the "rd, imm(rs1)" syntax common to RISC-V assemblers.
func parseLoad(l line, funct3 uint32) (Instruction, error) {
	if len(l.Operands) != 2 {
		return nil, fmt.Errorf("%w: %s wants rd, imm(rs1)", ErrBadOperands, l.Mnemonic)
	}
	rd, err := ResolveRegister(l.Operands[0])
	if err != nil {
		return nil, err
	}
	imm, reg, err := splitOffsetOperand(l.Operands[1])
	if err != nil {
		return nil, err
	}
	rs1, err := ResolveRegister(reg)
	if err != nil {
		return nil, err
	}
	return iType{Lineno: l.Lineno, MaybeLabel: l.Label, Opcode: opLoad, Funct3: funct3, RD: rd, RS1: rs1, Imm: imm}, nil
}

func parseStore(l line, funct3 uint32) (Instruction, error) {
	if len(l.Operands) != 2 {
		return nil, fmt.Errorf("%w: %s wants rs2, imm(rs1)", ErrBadOperands, l.Mnemonic)
	}
	rs2, err := ResolveRegister(l.Operands[0])
	if err != nil {
		return nil, err
	}
	imm, reg, err := splitOffsetOperand(l.Operands[1])
	if err != nil {
		return nil, err
	}
	rs1, err := ResolveRegister(reg)
	if err != nil {
		return nil, err
	}
	return sType{Lineno: l.Lineno, MaybeLabel: l.Label, Funct3: funct3, RS1: rs1, RS2: rs2, Imm: imm}, nil
}

func parseBranch(l line, funct3 uint32) (Instruction, error) {
	if len(l.Operands) != 3 {
		return nil, fmt.Errorf("%w: %s wants rs1, rs2, target", ErrBadOperands, l.Mnemonic)
	}
	rs1, err := ResolveRegister(l.Operands[0])
	if err != nil {
		return nil, err
	}
	rs2, err := ResolveRegister(l.Operands[1])
	if err != nil {
		return nil, err
	}
	return bType{Lineno: l.Lineno, MaybeLabel: l.Label, Funct3: funct3, RS1: rs1, RS2: rs2, Target: l.Operands[2]}, nil
}

func parseU(l line, opcode uint32) (Instruction, error) {
	if len(l.Operands) != 2 {
		return nil, fmt.Errorf("%w: %s wants rd, imm", ErrBadOperands, l.Mnemonic)
	}
	rd, err := ResolveRegister(l.Operands[0])
	if err != nil {
		return nil, err
	}
	return uType{Lineno: l.Lineno, MaybeLabel: l.Label, Opcode: opcode, RD: rd, Imm: l.Operands[1]}, nil
}

func parseJal(l line) (Instruction, error) {
	if len(l.Operands) != 2 {
		return nil, fmt.Errorf("%w: JAL wants rd, target", ErrBadOperands)
	}
	rd, err := ResolveRegister(l.Operands[0])
	if err != nil {
		return nil, err
	}
	return jType{Lineno: l.Lineno, MaybeLabel: l.Label, RD: rd, Target: l.Operands[1]}, nil
}

func parseJalr(l line) (Instruction, error) {
	if len(l.Operands) != 2 {
		return nil, fmt.Errorf("%w: JALR wants rd, imm(rs1)", ErrBadOperands)
	}
	rd, err := ResolveRegister(l.Operands[0])
	if err != nil {
		return nil, err
	}
	imm, reg, err := splitOffsetOperand(l.Operands[1])
	if err != nil {
		return nil, err
	}
	rs1, err := ResolveRegister(reg)
	if err != nil {
		return nil, err
	}
	return iType{Lineno: l.Lineno, MaybeLabel: l.Label, Opcode: opJalr, Funct3: 0, RD: rd, RS1: rs1, Imm: imm}, nil
}

func parseCSR(l line, funct3 uint32) (Instruction, error) {
	if len(l.Operands) != 3 {
		return nil, fmt.Errorf("%w: %s wants rd, csr, rs1", ErrBadOperands, l.Mnemonic)
	}
	rd, err := ResolveRegister(l.Operands[0])
	if err != nil {
		return nil, err
	}
	csr, err := parseCSRAddress(l.Operands[1])
	if err != nil {
		return nil, err
	}
	rs1, err := ResolveRegister(l.Operands[2])
	if err != nil {
		return nil, err
	}
	return sysType{Lineno: l.Lineno, MaybeLabel: l.Label, Funct3: funct3, RD: rd, RS1: rs1, CSROrImm12: csr}, nil
}

func parseCSRImm(l line, funct3 uint32) (Instruction, error) {
	if len(l.Operands) != 3 {
		return nil, fmt.Errorf("%w: %s wants rd, csr, uimm", ErrBadOperands, l.Mnemonic)
	}
	rd, err := ResolveRegister(l.Operands[0])
	if err != nil {
		return nil, err
	}
	csr, err := parseCSRAddress(l.Operands[1])
	if err != nil {
		return nil, err
	}
	uimm, err := parseUint(l.Operands[2], 5)
	if err != nil {
		return nil, err
	}
	return sysType{Lineno: l.Lineno, MaybeLabel: l.Label, Funct3: funct3, RD: rd, RS1: uimm, CSROrImm12: csr}, nil
}

// splitOffsetOperand splits a "imm(reg)" memory operand into its
// immediate token and register name.
func splitOffsetOperand(operand string) (imm, reg string, err error) {
	open := strings.IndexByte(operand, '(')
	shut := strings.IndexByte(operand, ')')
	if open < 0 || shut < open {
		return "", "", fmt.Errorf("%w: expected imm(reg), got %q", ErrBadOperands, operand)
	}
	imm = operand[:open]
	if imm == "" {
		imm = "0"
	}
	reg = operand[open+1 : shut]
	return imm, reg, nil
}

func parseCSRAddress(token string) (uint32, error) {
	v, err := strconv.ParseUint(token, 0, 12)
	if err != nil {
		return 0, fmt.Errorf("%w: bad csr address %q", ErrBadOperands, token)
	}
	return uint32(v), nil
}

func parseUint(token string, bits int) (uint32, error) {
	v, err := strconv.ParseUint(token, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("%w: bad immediate %q", ErrBadOperands, token)
	}
	return uint32(v), nil
}

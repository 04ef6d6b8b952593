package asm

import "errors"

// Sentinel errors produced while assembling, wrapped with fmt.Errorf to
// attach line numbers and offending tokens.
var (
	ErrCannotEncode        = errors.New("asm: cannot encode instruction")
	ErrOutOfRange          = errors.New("asm: immediate out of range")
	ErrTooManyInstructions = errors.New("asm: too many instructions")
	ErrUnknownMnemonic     = errors.New("asm: unknown mnemonic")
	ErrUnknownRegister     = errors.New("asm: unknown register")
	ErrBadOperands         = errors.New("asm: wrong number of operands")
)

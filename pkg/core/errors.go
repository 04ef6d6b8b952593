package core

import "errors"

// Sentinel errors returned by the memory devices, bus, and CSR file.
// Callers should compare with errors.Is; call sites wrap these with
// fmt.Errorf("%w: ...") to attach the offending address or value.
var (
	ErrUnalignedRead  = errors.New("core: unaligned read")
	ErrUnalignedWrite = errors.New("core: unaligned write")
	ErrCSRReadOnly    = errors.New("core: write to read-only CSR")
	ErrUnknownCSR     = errors.New("core: unknown CSR address")
)

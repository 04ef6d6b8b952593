package core

import "fmt"

const romBase = 0x1000_0000
const romSelectMask = 0x1000_0000
const ramBase = 0x2000_0000
const ramSelectMask = 0x2000_0000
const deviceAddressBits = 0x0FFF_FFFF

// Bus decodes addresses by bitmask equality, not by range: an address
// selects ROM when addr&0x1000_0000==0x1000_0000 and RAM when
// addr&0x2000_0000==0x2000_0000 (ROM takes priority when both match).
// The low 28 bits are handed to the selected device; an address matching
// neither mask reads as 0 and discards writes.
type Bus struct {
	ROM *ROM
	RAM *RAM
}

// NewBus wires a ROM and a RAM behind a single address space.
func NewBus(rom *ROM, ram *RAM) *Bus {
	return &Bus{ROM: rom, RAM: ram}
}

type device int

const (
	deviceNone device = iota
	deviceROM
	deviceRAM
)

func (b *Bus) decode(address uint32) (device, uint32) {
	offset := address & deviceAddressBits
	if address&romSelectMask == romSelectMask {
		return deviceROM, offset
	}
	if address&ramSelectMask == ramSelectMask {
		return deviceRAM, offset
	}
	return deviceNone, offset
}

func (b *Bus) ReadWord(address uint32) (uint32, error) {
	if address&0b11 != 0 {
		return 0, fmt.Errorf("%w: address 0x%08x", ErrUnalignedRead, address)
	}
	dev, offset := b.decode(address)
	switch dev {
	case deviceROM:
		return b.ROM.ReadWord(offset)
	case deviceRAM:
		return b.RAM.ReadWord(offset)
	default:
		return 0, nil
	}
}

func (b *Bus) ReadHalf(address uint32) (uint16, error) {
	if address&0b1 != 0 {
		return 0, fmt.Errorf("%w: address 0x%08x", ErrUnalignedRead, address)
	}
	dev, offset := b.decode(address)
	switch dev {
	case deviceROM:
		return b.ROM.ReadHalf(offset)
	case deviceRAM:
		return b.RAM.ReadHalf(offset)
	default:
		return 0, nil
	}
}

func (b *Bus) ReadByte(address uint32) uint8 {
	dev, offset := b.decode(address)
	switch dev {
	case deviceROM:
		return b.ROM.ReadByte(offset)
	case deviceRAM:
		return b.RAM.ReadByte(offset)
	default:
		return 0
	}
}

// WriteWord writes to RAM, no-ops on ROM or an unmapped address. Writes
// targeting ROM never raise an alignment error: nothing happens on a ROM
// write regardless of alignment, so there is nothing to complain about.
func (b *Bus) WriteWord(address uint32, value uint32) error {
	dev, offset := b.decode(address)
	if dev == deviceROM {
		return b.ROM.WriteWord(offset, value)
	}
	if address&0b11 != 0 {
		return fmt.Errorf("%w: address 0x%08x (value=0x%08x)", ErrUnalignedWrite, address, value)
	}
	if dev == deviceRAM {
		return b.RAM.WriteWord(offset, value)
	}
	return nil
}

func (b *Bus) WriteHalf(address uint32, value uint16) error {
	dev, offset := b.decode(address)
	if dev == deviceROM {
		return b.ROM.WriteHalf(offset, value)
	}
	if address&0b1 != 0 {
		return fmt.Errorf("%w: address 0x%08x (value=0x%04x)", ErrUnalignedWrite, address, value)
	}
	if dev == deviceRAM {
		return b.RAM.WriteHalf(offset, value)
	}
	return nil
}

func (b *Bus) WriteByte(address uint32, value uint8) {
	dev, offset := b.decode(address)
	switch dev {
	case deviceROM:
		b.ROM.WriteByte(offset, value)
	case deviceRAM:
		b.RAM.WriteByte(offset, value)
	}
}

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRAMResetsToAllOnes(t *testing.T) {
	r := NewRAM()
	word, err := r.ReadWord(0)
	assert.NoError(t, err)
	assert.Equal(t, uint32(0xFFFF_FFFF), word)
}

func TestRAMWordReadWriteRoundTrip(t *testing.T) {
	r := NewRAM()
	assert.NoError(t, r.WriteWord(0x100, 0x1122_3344))
	got, err := r.ReadWord(0x100)
	assert.NoError(t, err)
	assert.Equal(t, uint32(0x1122_3344), got)
}

func TestRAMHalfWritePreservesOtherLane(t *testing.T) {
	r := NewRAM()
	assert.NoError(t, r.WriteWord(0, 0x1111_2222))
	assert.NoError(t, r.WriteHalf(0, 0xBEEF))
	got, _ := r.ReadWord(0)
	assert.Equal(t, uint32(0xBEEF_2222), got, "writing the high half must preserve the low half")

	assert.NoError(t, r.WriteHalf(2, 0xCAFE))
	got2, _ := r.ReadWord(0)
	assert.Equal(t, uint32(0xBEEF_CAFE), got2, "writing the low half must preserve the high half")
}

func TestRAMByteWritePreservesOtherLanes(t *testing.T) {
	r := NewRAM()
	assert.NoError(t, r.WriteWord(0, 0x1122_3344))
	r.WriteByte(0, 0xAA)
	got, _ := r.ReadWord(0)
	assert.Equal(t, uint32(0xAA22_3344), got)

	r.WriteByte(3, 0xBB)
	got2, _ := r.ReadWord(0)
	assert.Equal(t, uint32(0xAA22_33BB), got2)
}

func TestRAMMirrorsAtWrapAddress(t *testing.T) {
	r := NewRAM()
	assert.NoError(t, r.WriteWord(0, 0xDEAD_BEEF))
	wrapped, err := r.ReadWord(4 * ramWords)
	assert.NoError(t, err)
	assert.Equal(t, uint32(0xDEAD_BEEF), wrapped)
}

func TestRAMReadByteLaneOrder(t *testing.T) {
	r := NewRAM()
	assert.NoError(t, r.WriteWord(0, 0x11223344))
	assert.Equal(t, uint8(0x11), r.ReadByte(0))
	assert.Equal(t, uint8(0x22), r.ReadByte(1))
	assert.Equal(t, uint8(0x33), r.ReadByte(2))
	assert.Equal(t, uint8(0x44), r.ReadByte(3))
}

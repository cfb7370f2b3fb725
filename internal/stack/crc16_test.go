package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func randomBits(t *rapid.T, label string, n int) []byte {
	bits := make([]byte, n)
	for i := range bits {
		bits[i] = byte(rapid.IntRange(0, 1).Draw(t, label))
	}
	return bits
}

// For any random type-1 bit-string, CRC-append followed by Crc16Check
// over the whole block succeeds.
func TestCrc16_AppendThenCheck(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 300).Draw(t, "n")
		type1 := NewBitBufferFromBits(randomBits(t, "bit", n))
		assert.NoError(t, Crc16Append(type1))
		assert.True(t, Crc16Check(type1.Bits()))
	})
}

func TestCrc16_FullLmacPipeline(t *testing.T) {
	log := NewLogger(false)
	lmac := NewLmacEntity(log, ScramblerInit(1, 1, 1))

	rapid.Check(t, func(t *rapid.T) {
		type1 := NewBitBufferFromBits(randomBits(t, "bit", channelParamsTable[ChanBSCH].Type1Bits))
		encoded, err := lmac.Encode(ChanBSCH, type1)
		assert.NoError(t, err)

		ind, ok := lmac.Decode(ChanBSCH, encoded)
		assert.True(t, ok)
		assert.True(t, ind.CrcPass)
		assert.Equal(t, type1.Bits(), ind.MacBlock.Bits())
	})
}

func TestCrc16_CorruptionIsDetected(t *testing.T) {
	type1 := NewBitBufferFromBits([]byte{1, 0, 1, 1, 0, 0, 1, 0})
	assert.NoError(t, Crc16Append(type1))
	assert.True(t, Crc16Check(type1.Bits()))

	corrupted := append([]byte(nil), type1.Bits()...)
	corrupted[0] ^= 1
	assert.False(t, Crc16Check(corrupted))
}

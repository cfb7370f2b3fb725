package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestReorder_RoundtripCodecChannelCodec(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		codec := make([]byte, 274)
		for i := range codec {
			codec[i] = byte(rapid.IntRange(0, 1).Draw(t, "bit"))
		}

		channel := ReorderCodecToChannel(codec)
		recovered := ReorderChannelToCodec(channel)
		assert.Equal(t, codec, recovered)
	})
}

func TestReorder_ChangesBitOrder(t *testing.T) {
	codec := make([]byte, 274)
	for i := range codec {
		codec[i] = byte((i*7 + 3) % 2)
	}

	channel := ReorderCodecToChannel(codec)
	assert.NotEqual(t, codec, channel)
}

func TestReorder_PositionTablesCoverAllBitsExactlyOnce(t *testing.T) {
	covered := make([]bool, tchsNumAcelpBits)
	all := append(append(append([]int{}, tchsClass0Pos[:]...), tchsClass1Pos[:]...), tchsClass2Pos[:]...)
	assert.Len(t, all, tchsNumAcelpBits)
	for _, p := range all {
		idx := p - 1
		assert.False(t, covered[idx], "position %d duplicated", p)
		covered[idx] = true
	}
	for i, c := range covered {
		assert.True(t, c, "position %d not covered", i+1)
	}
}

package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// For any sequence first, next*, last delivered on the same
// (slot, ssi), the reassembled bitstream equals the concatenation of the
// payload portions in arrival order, and the defragmenter's state is
// Inactive afterwards.
func TestDefragmenter_ReassemblyConcatenation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		log := NewLogger(false)
		d := NewDefragmenter(log)

		ts := uint8(2)
		addr := TetraAddress{Ssi: uint32(rapid.IntRange(1, 1000).Draw(t, "ssi"))}
		now := DefaultTdmaTime()

		numMiddle := rapid.IntRange(0, 4).Draw(t, "numMiddle")

		first := randomBits(t, "first", rapid.IntRange(0, 20).Draw(t, "firstLen"))
		var want []byte
		want = append(want, first...)
		d.FirstFragment(ts, now, addr, NewBitBufferFromBits(first))

		for i := 0; i < numMiddle; i++ {
			now = now.AddSlots(1)
			mid := randomBits(t, "mid", rapid.IntRange(0, 20).Draw(t, "midLen"))
			want = append(want, mid...)
			d.NextFragment(ts, now, addr.Ssi, NewBitBufferFromBits(mid))
		}

		now = now.AddSlots(1)
		last := randomBits(t, "last", rapid.IntRange(0, 20).Draw(t, "lastLen"))
		want = append(want, last...)
		out, ok := d.LastFragment(ts, now, addr.Ssi, NewBitBufferFromBits(last))
		assert.True(t, ok)
		assert.Equal(t, want, out.Bits())

		state, _ := d.Lookup(ts, addr.Ssi)
		assert.Equal(t, DefragInactive, state)
	})
}

func TestDefragmenter_TimeoutDiscards(t *testing.T) {
	log := NewLogger(false)
	d := NewDefragmenter(log)
	ts := uint8(3)
	addr := TetraAddress{Ssi: 42}
	now := DefaultTdmaTime()

	d.FirstFragment(ts, now, addr, NewBitBufferFromBits([]byte{1, 0, 1}))

	later := now.AddSlots(DefragTimeoutSlots + 1)
	d.NextFragment(ts, later, addr.Ssi, NewBitBufferFromBits([]byte{1}))

	state, ok := d.Lookup(ts, addr.Ssi)
	assert.False(t, ok)
	assert.Equal(t, DefragInactive, state)
}

func TestDefragmenter_NextWithoutActiveWarnsAndDrops(t *testing.T) {
	log := NewLogger(false)
	d := NewDefragmenter(log)
	d.NextFragment(2, DefaultTdmaTime(), 99, NewBitBufferFromBits([]byte{1}))
	state, ok := d.Lookup(2, 99)
	assert.False(t, ok)
	assert.Equal(t, DefragInactive, state)
}

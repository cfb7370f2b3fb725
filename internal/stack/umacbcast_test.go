package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComposeSyncPdu_FillsBschBlock(t *testing.T) {
	cell := testCell()
	ts := TdmaTime{H: 0, M: 5, F: 18, T: 2}
	b := ComposeSyncPdu(cell, ts)
	assert.Equal(t, channelParamsTable[ChanBSCH].Type1Bits, b.Len())

	b.Seek(0)
	sysCode, _ := b.ReadBits(4)
	assert.Equal(t, uint64(syncSystemCode), sysCode)
	colour, _ := b.ReadBits(6)
	assert.Equal(t, uint64(cell.ColourCode), colour)
	slotNum, _ := b.ReadBits(2)
	assert.Equal(t, uint64(ts.T-1), slotNum)
}

func TestComposeSysinfoPdu_ParsesAsBroadcast(t *testing.T) {
	cell := testCell()
	b, err := ComposeSysinfoPdu(cell)
	assert.NoError(t, err)
	assert.Equal(t, channelParamsTable[ChanSCHHD].Type1Bits, b.Len())

	b.Seek(0)
	hdr, payload, err := ParseMacHeader(b)
	assert.NoError(t, err)
	assert.Equal(t, MacPduBroadcast, hdr.PduType)
	assert.Equal(t, AddrNull, hdr.Form)

	if hdr.FillBits {
		payload = RemoveFillBits(NewLogger(false), payload)
	}
	payload.Seek(0)
	carrier, err := payload.ReadBits(12)
	assert.NoError(t, err)
	assert.Equal(t, uint64(cell.Carrier), carrier)
	band, err := payload.ReadBits(4)
	assert.NoError(t, err)
	assert.Equal(t, uint64(cell.Band), band)
}

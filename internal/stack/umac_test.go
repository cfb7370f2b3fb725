package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func testCell() CellConfig {
	return CellConfig{
		MCC: 244, MNC: 1, LocationArea: 7, ColourCode: 1,
		Band: 4, Carrier: 1000,
	}
}

func TestMacHeader_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		hdr := MacHeader{
			PduType:  MacPduType(rapid.IntRange(0, 3).Draw(t, "pduType")),
			FillBits: rapid.Bool().Draw(t, "fillBits"),
			Form:     AddrForm(rapid.IntRange(0, 7).Draw(t, "form")),
		}
		switch hdr.Form {
		case AddrEventLabel, AddrSmiEventLabel:
			hdr.Label = uint16(rapid.IntRange(0, EventLabelMax-1).Draw(t, "label"))
		case AddrNull:
		default:
			hdr.Addr = TetraAddress{Ssi: uint32(rapid.IntRange(0, 0xFFFFFF).Draw(t, "ssi")), SsiType: SsiTypeSsi}
			if hdr.Form == AddrSsiEventLabel {
				hdr.Label = uint16(rapid.IntRange(0, EventLabelMax-1).Draw(t, "label"))
			}
		}
		if hdr.PduType == MacPduEndOrFrag {
			hdr.Fragment = rapid.Bool().Draw(t, "fragment")
		}

		buf := NewBitBuffer()
		assert.NoError(t, ComposeMacHeader(buf, hdr))
		assert.Equal(t, macHeaderBits(hdr), buf.Len())

		trailer := randomBits(t, "trailer", rapid.IntRange(0, 20).Draw(t, "trailerLen"))
		for _, bit := range trailer {
			assert.NoError(t, buf.WriteBit(bit))
		}

		buf.Seek(0)
		got, rest, err := ParseMacHeader(buf)
		assert.NoError(t, err)
		assert.Equal(t, hdr.PduType, got.PduType)
		assert.Equal(t, hdr.FillBits, got.FillBits)
		assert.Equal(t, hdr.Form, got.Form)
		assert.Equal(t, hdr.Fragment, got.Fragment)
		if hdr.Form == AddrEventLabel || hdr.Form == AddrSmiEventLabel || hdr.Form == AddrSsiEventLabel {
			assert.Equal(t, hdr.Label, got.Label)
		}
		if hdr.Form != AddrNull && hdr.Form != AddrEventLabel && hdr.Form != AddrSmiEventLabel {
			assert.Equal(t, hdr.Addr.Ssi, got.Addr.Ssi)
		}
		assert.Equal(t, trailer, rest.Bits())
	})
}

func TestUmacEntity_UnfragmentedBlockEmitsTmaUnitdataInd(t *testing.T) {
	u := NewUmacEntity(NewLogger(false), testCell())
	q := NewQueue()

	hdr := MacHeader{PduType: MacPduResourceOrData, Form: AddrSsi, Addr: TetraAddress{Ssi: 555, SsiType: SsiTypeSsi}}
	buf := NewBitBuffer()
	assert.NoError(t, ComposeMacHeader(buf, hdr))
	sdu := []byte{1, 0, 1, 1, 0}
	for _, bit := range sdu {
		assert.NoError(t, buf.WriteBit(bit))
	}
	buf.Seek(0)

	ind := &TmvRxInd{MacBlock: buf, LogicalChannel: ChanSCHF, CrcPass: true}
	u.RxPrim(q, SapMsg{SapID: SapTMV, Src: EntityLmac, Dst: EntityUmac, DlTime: DefaultTdmaTime(), Payload: ind})

	msg, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, EntityLlc, msg.Dst)
	out, ok := msg.Payload.(*TmaUnitdataInd)
	assert.True(t, ok)
	assert.Equal(t, uint32(555), out.Addr.Ssi)
	assert.Equal(t, sdu, out.Sdu.Bits())
}

func TestUmacEntity_FillBitsStrippedOnRx(t *testing.T) {
	u := NewUmacEntity(NewLogger(false), testCell())
	q := NewQueue()

	hdr := MacHeader{PduType: MacPduResourceOrData, Form: AddrSsi, Addr: TetraAddress{Ssi: 9, SsiType: SsiTypeSsi}}
	sdu := []byte{1, 0, 1, 1, 0}
	capacity := channelParamsTable[ChanSCHF].Type1Bits
	blk, err := composeMacBlock(hdr, sdu, capacity)
	assert.NoError(t, err)
	assert.Equal(t, capacity, blk.Len())
	blk.Seek(0)

	u.RxPrim(q, SapMsg{SapID: SapTMV, Dst: EntityUmac, DlTime: DefaultTdmaTime(), Payload: &TmvRxInd{MacBlock: blk, LogicalChannel: ChanSCHF, CrcPass: true}})

	msg, ok := q.Pop()
	assert.True(t, ok)
	out := msg.Payload.(*TmaUnitdataInd)
	assert.Equal(t, sdu, out.Sdu.Bits())
}

func TestUmacEntity_CrcFailDropsBlock(t *testing.T) {
	u := NewUmacEntity(NewLogger(false), testCell())
	q := NewQueue()
	ind := &TmvRxInd{MacBlock: NewBitBuffer(), LogicalChannel: ChanSCHF, CrcPass: false}
	u.RxPrim(q, SapMsg{SapID: SapTMV, Dst: EntityUmac, DlTime: DefaultTdmaTime(), Payload: ind})
	assert.True(t, q.Empty())
}

func TestUmacEntity_AachReservedInvalidCountsUp(t *testing.T) {
	u := NewUmacEntity(NewLogger(false), testCell())
	q := NewQueue()
	buf := NewBitBuffer()
	assert.NoError(t, buf.WriteBits(2, 14))
	ind := &TmvRxInd{MacBlock: buf, LogicalChannel: ChanAACH, CrcPass: true}
	u.RxPrim(q, SapMsg{SapID: SapTMV, Dst: EntityUmac, DlTime: DefaultTdmaTime(), Payload: ind})
	assert.Equal(t, 1, u.Stats())
}

func TestUmacEntity_CallControlOpenClose(t *testing.T) {
	u := NewUmacEntity(NewLogger(false), testCell())
	q := NewQueue()
	u.RxPrim(q, SapMsg{Payload: &CallControlOpen{Circuit: Circuit{Direction: DirDl, Ts: 2, CallID: 1}}})
	_, ok := u.circuits.Get(DirDl, 2)
	assert.True(t, ok)

	owner, held := u.tsAlloc.Query(2)
	assert.True(t, held)
	assert.Equal(t, Owner(1), owner)

	u.RxPrim(q, SapMsg{Payload: &CallControlClose{Dir: DirDl, Ts: 2}})
	_, ok = u.circuits.Get(DirDl, 2)
	assert.False(t, ok)
	_, held = u.tsAlloc.Query(2)
	assert.False(t, held)
}

func TestUmacEntity_CircuitOpenRejectedWhenSlotHeldByAnotherCall(t *testing.T) {
	u := NewUmacEntity(NewLogger(false), testCell())
	q := NewQueue()
	u.RxPrim(q, SapMsg{Payload: &CallControlOpen{Circuit: Circuit{Direction: DirDl, Ts: 3, CallID: 1}}})
	u.RxPrim(q, SapMsg{Payload: &CallControlOpen{Circuit: Circuit{Direction: DirDl, Ts: 3, CallID: 2}}})

	c, ok := u.circuits.Get(DirDl, 3)
	assert.True(t, ok)
	assert.Equal(t, uint32(1), c.CallID)
}

func TestUmacEntity_DuplexOpenSharesSlot(t *testing.T) {
	u := NewUmacEntity(NewLogger(false), testCell())
	q := NewQueue()
	u.RxPrim(q, SapMsg{Payload: &CallControlOpen{Circuit: Circuit{Direction: DirDl, Ts: 4, CallID: 9}}})
	u.RxPrim(q, SapMsg{Payload: &CallControlOpen{Circuit: Circuit{Direction: DirUl, Ts: 4, CallID: 9}}})

	_, ok := u.circuits.Get(DirUl, 4)
	assert.True(t, ok)

	// Closing one direction keeps the slot held for the other.
	u.RxPrim(q, SapMsg{Payload: &CallControlClose{Dir: DirDl, Ts: 4}})
	_, held := u.tsAlloc.Query(4)
	assert.True(t, held)
	u.RxPrim(q, SapMsg{Payload: &CallControlClose{Dir: DirUl, Ts: 4}})
	_, held = u.tsAlloc.Query(4)
	assert.False(t, held)
}

// popSlot runs one UMAC tick and returns the composed slot it pushed.
func popSlot(t *testing.T, u *UmacEntity, ts TdmaTime) *TmvUnitdataReqSlot {
	t.Helper()
	q := NewQueue()
	u.TickStart(q, ts)
	msg, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, EntityLmac, msg.Dst)
	slot, ok := msg.Payload.(*TmvUnitdataReqSlot)
	assert.True(t, ok)
	return slot
}

func TestUmacEntity_IdleSlotCarriesOnlyAach(t *testing.T) {
	u := NewUmacEntity(NewLogger(false), testCell())
	ts := DefaultTdmaTime() // f=1, no mandatory broadcast

	slot := popSlot(t, u, ts)
	assert.Nil(t, slot.Blk1)
	assert.Nil(t, slot.Blk2)
	assert.NotNil(t, slot.Bbk)
	assert.Equal(t, ChanAACH, slot.Bbk.Channel)
	assert.Equal(t, 14, slot.Bbk.MacBlock.Len())
}

func TestUmacEntity_MandatoryBschSlotCarriesSync(t *testing.T) {
	u := NewUmacEntity(NewLogger(false), testCell())
	ts := TdmaTime{H: 0, M: 1, F: 18, T: uint8(4 - (1+1)%4)}
	assert.True(t, ts.IsMandatoryBsch())

	slot := popSlot(t, u, ts)
	assert.NotNil(t, slot.Blk1)
	assert.Equal(t, ChanBSCH, slot.Blk1.Channel)
	assert.Equal(t, channelParamsTable[ChanBSCH].Type1Bits, slot.Blk1.MacBlock.Len())
}

func TestUmacEntity_MandatoryBnchSlotCarriesSysinfo(t *testing.T) {
	u := NewUmacEntity(NewLogger(false), testCell())
	ts := TdmaTime{H: 0, M: 1, F: 18, T: uint8(4 - (1+3)%4)}
	assert.True(t, ts.IsMandatoryBnch())

	slot := popSlot(t, u, ts)
	assert.NotNil(t, slot.Blk1)
	assert.Equal(t, ChanSCHHD, slot.Blk1.Channel)
	assert.Equal(t, channelParamsTable[ChanSCHHD].Type1Bits, slot.Blk1.MacBlock.Len())

	slot.Blk1.MacBlock.Seek(0)
	hdr, _, err := ParseMacHeader(slot.Blk1.MacBlock)
	assert.NoError(t, err)
	assert.Equal(t, MacPduBroadcast, hdr.PduType)
}

func TestUmacEntity_QueuedSignallingFillsSchF(t *testing.T) {
	u := NewUmacEntity(NewLogger(false), testCell())
	q := NewQueue()
	addr := TetraAddress{Ssi: 1234, SsiType: SsiTypeSsi}
	sdu := NewBitBufferFromBits([]byte{1, 1, 0, 1, 0, 0, 1, 0})
	u.RxPrim(q, SapMsg{SapID: SapTMA, Dst: EntityUmac, Payload: &TmaUnitdataReq{Addr: addr, Sdu: sdu}})

	slot := popSlot(t, u, DefaultTdmaTime())
	assert.NotNil(t, slot.Blk1)
	assert.Equal(t, ChanSCHF, slot.Blk1.Channel)
	assert.Equal(t, channelParamsTable[ChanSCHF].Type1Bits, slot.Blk1.MacBlock.Len())

	slot.Blk1.MacBlock.Seek(0)
	hdr, payload, err := ParseMacHeader(slot.Blk1.MacBlock)
	assert.NoError(t, err)
	assert.Equal(t, MacPduResourceOrData, hdr.PduType)
	assert.Equal(t, addr.Ssi, hdr.Addr.Ssi)
	assert.True(t, hdr.FillBits)
	stripped := RemoveFillBits(NewLogger(false), payload)
	assert.Equal(t, sdu.Bits(), stripped.Bits())
}

// A DL SDU larger than one SCH/F slot is split into a MAC-FRAG run
// closed by a MAC-END, and the receiving defragmenter reassembles it.
func TestUmacEntity_DlFragmentationRoundTrip(t *testing.T) {
	tx := NewUmacEntity(NewLogger(false), testCell())
	rx := NewUmacEntity(NewLogger(false), testCell())
	q := NewQueue()

	addr := TetraAddress{Ssi: 42, SsiType: SsiTypeSsi}
	sdu := make([]byte, 600)
	for i := range sdu {
		sdu[i] = byte((i * 5) % 2)
	}
	tx.RxPrim(q, SapMsg{Payload: &TmaUnitdataReq{Addr: addr, Sdu: NewBitBufferFromBits(sdu)}})

	now := DefaultTdmaTime()
	var reassembled *BitBuffer
	for i := 0; i < 5 && reassembled == nil; i++ {
		slot := popSlot(t, tx, now)
		if slot.Blk1 == nil {
			break
		}
		slot.Blk1.MacBlock.Seek(0)
		rxQ := NewQueue()
		rx.RxPrim(rxQ, SapMsg{DlTime: now, Payload: &TmvRxInd{MacBlock: slot.Blk1.MacBlock, LogicalChannel: ChanSCHF, CrcPass: true}})
		if msg, ok := rxQ.Pop(); ok {
			reassembled = msg.Payload.(*TmaUnitdataInd).Sdu
		}
		now = now.AddSlots(4)
	}

	assert.NotNil(t, reassembled)
	assert.Equal(t, sdu, reassembled.Bits())
}

func TestUmacEntity_TrafficSlotTakesQueuedBlock(t *testing.T) {
	u := NewUmacEntity(NewLogger(false), testCell())
	q := NewQueue()
	u.RxPrim(q, SapMsg{Payload: &CallControlOpen{Circuit: Circuit{Direction: DirDl, Ts: 2, CallID: 7, Usage: 5}}})

	speech := make([]byte, channelParamsTable[ChanTCHS].Type1Bits)
	for i := range speech {
		speech[i] = byte(i % 2)
	}
	u.circuits.PutBlock(2, speech)

	ts := TdmaTime{H: 0, M: 1, F: 2, T: 2}
	slot := popSlot(t, u, ts)
	assert.NotNil(t, slot.Blk1)
	assert.Equal(t, ChanTCHS, slot.Blk1.Channel)

	slot.Bbk.MacBlock.Seek(0)
	field, err := slot.Bbk.MacBlock.ReadBits(14)
	assert.NoError(t, err)
	usage := DecodeAachDl(uint16(field))
	assert.Equal(t, AachTraffic, usage.Kind)
	assert.Equal(t, uint8(5), usage.Traffic)
}

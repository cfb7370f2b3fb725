package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func composeUCmce(group UCmcePduType, rest func(b *BitBuffer)) *BitBuffer {
	b := NewBitBuffer()
	_ = b.WriteBits(uint64(group), 2)
	rest(b)
	return b
}

func TestCmceEntity_CallControlSetupOpensCircuitAndReplies(t *testing.T) {
	c := NewCmceEntity(NewLogger(false))
	q := NewQueue()

	sdu := composeUCmce(UCmceCallControl, func(b *BitBuffer) {
		_ = b.WriteBits(uint64(UCcSetup), 4)
		_ = b.WriteBits(3, 3) // requested ts 3
	})

	addr := TetraAddress{Ssi: 88, SsiType: SsiTypeSsi}
	now := DefaultTdmaTime()
	c.RxPrim(q, SapMsg{Dst: EntityCmce, DlTime: now, Payload: &LcmcMleUnitdataInd{Addr: addr, Sdu: sdu}})

	open, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, EntityUmac, open.Dst)
	openPrim := open.Payload.(*CallControlOpen)
	assert.Equal(t, uint8(3), openPrim.Circuit.Ts)

	reply, ok := q.Pop()
	assert.True(t, ok)
	assert.Equal(t, EntityMle, reply.Dst)
	resp := reply.Payload.(*LcmcUnitdataReq).Sdu
	resp.Seek(0)
	typ, _ := resp.ReadBits(4)
	assert.Equal(t, uint64(DCcConnect), typ)
}

func TestCmceEntity_SupplementaryAlwaysNotSupported(t *testing.T) {
	c := NewCmceEntity(NewLogger(false))
	q := NewQueue()
	sdu := composeUCmce(UCmceSupplementary, func(b *BitBuffer) {})

	c.RxPrim(q, SapMsg{Dst: EntityCmce, DlTime: DefaultTdmaTime(), Payload: &LcmcMleUnitdataInd{Sdu: sdu}})

	msg, ok := q.Pop()
	assert.True(t, ok)
	resp := msg.Payload.(*LcmcUnitdataReq).Sdu
	resp.Seek(0)
	typ, _ := resp.ReadBits(4)
	assert.Equal(t, uint64(DCmceFunctionNotSupported), typ)
}

func TestCmceEntity_SdsHasNoResponse(t *testing.T) {
	c := NewCmceEntity(NewLogger(false))
	q := NewQueue()
	sdu := composeUCmce(UCmceSds, func(b *BitBuffer) {
		_ = b.WriteBits(0xAB, 8)
	})
	c.RxPrim(q, SapMsg{Dst: EntityCmce, DlTime: DefaultTdmaTime(), Payload: &LcmcMleUnitdataInd{Sdu: sdu}})
	assert.True(t, q.Empty())
}

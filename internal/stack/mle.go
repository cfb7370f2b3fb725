package stack

/*-------------------------------------------------------------
 *
 * Purpose:	MLE entity: allocates opaque 32-bit handles
 *		binding (addr, link_id, endpoint_id) for MM/CMCE/SNDCP,
 *		and routes every TLA-SAP indication up to MM on a freshly
 *		allocated handle; no inbound PDU is routed to CMCE or
 *		SNDCP.
 *
 *--------------------------------------------------------------*/

import charmlog "github.com/charmbracelet/log"

// MleHandle is one entry of the MLE handle table.
type MleHandle struct {
	Addr       TetraAddress
	LinkID     uint8
	EndpointID EntityKind // MM, CMCE or SNDCP
	TsCreated  TdmaTime
	TsLastUsed TdmaTime
}

// LmmMleUnitdataInd is the primitive MLE hands to MM at the LMM SAP.
type LmmMleUnitdataInd struct {
	Handle uint32
	Addr   TetraAddress
	Sdu    *BitBuffer
}

// LcmcMleUnitdataInd is the primitive MLE hands to CMCE at the LCMC SAP.
type LcmcMleUnitdataInd struct {
	Handle uint32
	Addr   TetraAddress
	Sdu    *BitBuffer
}

// MleHandleCapacity bounds the handle table; without it the table
// grows without limit in long-running operation. LRU-by-ts_last_used
// eviction avoids having to pick an arbitrary staleness TTL.
const MleHandleCapacity = 4096

// MleEntity implements the Entity interface for the Mobile Link Entity
// layer.
type MleEntity struct {
	log       *charmlog.Logger
	handles   map[uint32]*MleHandle
	nextHdl   uint32
}

// NewMleEntity constructs the MLE entity with an empty handle table.
func NewMleEntity(log *charmlog.Logger) *MleEntity {
	return &MleEntity{log: log, handles: make(map[uint32]*MleHandle), nextHdl: 1}
}

func (m *MleEntity) EntityKind() EntityKind { return EntityMle }

// Allocate issues a fresh handle binding (addr, linkID, endpointID),
// evicting the least-recently-used entry first if the table is full.
func (m *MleEntity) Allocate(now TdmaTime, addr TetraAddress, linkID uint8, endpointID EntityKind) uint32 {
	if len(m.handles) >= MleHandleCapacity {
		m.evictLru()
	}
	h := m.nextHdl
	m.nextHdl++
	m.handles[h] = &MleHandle{Addr: addr, LinkID: linkID, EndpointID: endpointID, TsCreated: now, TsLastUsed: now}
	return h
}

func (m *MleEntity) evictLru() {
	var oldest uint32
	var oldestTs int64
	first := true
	for h, e := range m.handles {
		asInt := e.TsLastUsed.ToInt()
		if first || asInt < oldestTs {
			oldest = h
			oldestTs = asInt
			first = false
		}
	}
	if !first {
		delete(m.handles, oldest)
	}
}

// Resolve looks up a handle, updating ts_last_used. Unknown handles log a
// warning and return a null resolution.
func (m *MleEntity) Resolve(now TdmaTime, handle uint32) (*MleHandle, bool) {
	e, ok := m.handles[handle]
	if !ok {
		m.log.Warn("mle: unknown handle", "handle", handle)
		return nil, false
	}
	e.TsLastUsed = now
	return e, true
}

// Delete removes a handle explicitly (handles otherwise live until
// deleted).
func (m *MleEntity) Delete(handle uint32) {
	delete(m.handles, handle)
}

func (m *MleEntity) RxPrim(q *Queue, msg SapMsg) {
	switch p := msg.Payload.(type) {
	case *TlaUnitdataInd:
		// BS-mode MLE has no MS-side link-establishment state
		// machine to drive; every inbound PDU is routed to MM bound
		// to a freshly allocated handle.
		handle := m.Allocate(msg.DlTime, p.Addr, 0, EntityMm)
		q.Push(SapMsg{SapID: SapLMM, Src: EntityMle, Dst: EntityMm, DlTime: msg.DlTime, Payload: &LmmMleUnitdataInd{Handle: handle, Addr: p.Addr, Sdu: p.Pdu}})
	case *LmmMleUnitdataInd:
		// MM response heading back down.
		m.forwardDown(q, msg.DlTime, p.Handle, p.Addr, p.Sdu)
	case *LcmcUnitdataReq:
		m.forwardDown(q, msg.DlTime, p.Handle, p.Addr, p.Sdu)
	}
}

// forwardDown resolves the handle an upper layer replied on and routes
// the SDU to LLC for basic-link framing. An unknown handle is a warn
// (Resolve logs it) but the reply still goes out on the address the
// upper layer supplied.
func (m *MleEntity) forwardDown(q *Queue, now TdmaTime, handle uint32, addr TetraAddress, sdu *BitBuffer) {
	if e, ok := m.Resolve(now, handle); ok {
		addr = e.Addr
	}
	q.Push(SapMsg{SapID: SapTLA, Src: EntityMle, Dst: EntityLlc, DlTime: now, Payload: &TlaUnitdataReq{Addr: addr, Pdu: sdu}})
}

func (m *MleEntity) TickStart(q *Queue, ts TdmaTime) {}
func (m *MleEntity) TickEnd(q *Queue, ts TdmaTime) bool { return false }

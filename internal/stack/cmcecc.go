package stack

/*-------------------------------------------------------------
 *
 * Purpose:	CMCE Call Control sub-entity: U-SETUP/ALERT/CONNECT/
 *		DISCONNECT/RELEASE/INFO/STATUS/TX-CEASED/TX-DEMAND/
 *		CALL-RESTORE, tracking live circuits via CircuitMgr and
 *		emitting CallControl::Open/Close to UMAC over Control-SAP.
 *
 *--------------------------------------------------------------*/

import charmlog "github.com/charmbracelet/log"

// UCcPduType is the 4-bit Call Control uplink PDU type field.
type UCcPduType int

const (
	UCcSetup UCcPduType = iota
	UCcAlert
	UCcConnect
	UCcDisconnect
	UCcRelease
	UCcInfo
	UCcStatus
	UCcTxCeased
	UCcTxDemand
	UCcCallRestore
)

// DCcPduType is the 4-bit Call Control downlink PDU type field.
type DCcPduType int

const (
	DCcSetup DCcPduType = iota
	DCcConnect
	DCcDisconnect
	DCcRelease
	DCcConnectAck
)

// CmceCallControl tracks live calls; the call-ID counter lives on the
// instance rather than as package state.
type CmceCallControl struct {
	log       *charmlog.Logger
	nextCall  uint32
	liveCalls map[uint32]uint8 // call ID -> ts, for DISCONNECT/RELEASE lookups
}

func newCmceCallControl(log *charmlog.Logger) *CmceCallControl {
	return &CmceCallControl{log: log, nextCall: 1, liveCalls: make(map[uint32]uint8)}
}

// Handle dispatches one Call Control U-PDU, returning a response body
// (or nil when none is required) and pushing any CallControl::Open/Close
// primitive to UMAC via the shared queue.
func (c *CmceCallControl) Handle(q *Queue, now TdmaTime, addr TetraAddress, b *BitBuffer) *BitBuffer {
	typ, err := b.ReadBits(4)
	if err != nil {
		c.log.Debug("cmce cc: header parse failed", "err", err)
		return nil
	}

	switch UCcPduType(typ) {
	case UCcSetup:
		return c.handleSetup(q, now, addr, b)
	case UCcDisconnect, UCcRelease:
		return c.handleTeardown(q, b)
	case UCcConnect, UCcAlert, UCcInfo, UCcStatus, UCcTxCeased, UCcTxDemand, UCcCallRestore:
		// Acknowledged implicitly at the basic-link level; no
		// CC-level response body.
		return nil
	default:
		return nil
	}
}

// handleSetup allocates a call ID, opens a DL circuit via the
// CircuitMgr/TimeslotAllocator owned by UMAC (reached only through the
// Control SAP, never by direct reference), and replies with D-CONNECT.
func (c *CmceCallControl) handleSetup(q *Queue, now TdmaTime, addr TetraAddress, b *BitBuffer) *BitBuffer {
	ts, err := b.ReadBits(3) // requested timeslot 2..4, or 0 for "any"
	if err != nil {
		return nil
	}
	reqTs := uint8(ts)
	if reqTs < 2 || reqTs > 4 {
		reqTs = 2
	}
	callID := c.nextCall
	c.nextCall++

	circuit := Circuit{
		Direction:   DirDl,
		CallID:      callID,
		Ts:          reqTs,
		Usage:       4,
		CircuitMode: CircuitModeSpeech,
		TsCreated:   now,
	}
	c.liveCalls[callID] = circuit.Ts

	q.Push(SapMsg{SapID: SapControl, Src: EntityCmce, Dst: EntityUmac, DlTime: now, Payload: &CallControlOpen{Circuit: circuit}})

	resp := NewBitBuffer()
	_ = resp.WriteBits(uint64(DCcConnect), 4)
	_ = resp.WriteBits(uint64(callID), 16)
	return resp
}

// handleTeardown closes the DL circuit for the named call and replies
// with D-RELEASE.
func (c *CmceCallControl) handleTeardown(q *Queue, b *BitBuffer) *BitBuffer {
	callID, err := b.ReadBits(16)
	if err != nil {
		return nil
	}
	ts, ok := c.liveCalls[uint32(callID)]
	if ok {
		q.Push(SapMsg{SapID: SapControl, Src: EntityCmce, Dst: EntityUmac, Payload: &CallControlClose{Dir: DirDl, Ts: ts}})
		delete(c.liveCalls, uint32(callID))
	}
	resp := NewBitBuffer()
	_ = resp.WriteBits(uint64(DCcRelease), 4)
	_ = resp.WriteBits(callID, 16)
	return resp
}

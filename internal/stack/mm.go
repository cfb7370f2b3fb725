package stack

/*-------------------------------------------------------------
 *
 * Purpose:	MM (BS) entity: the Mobility Management client
 *		registry and U-PDU dispatch for U-LOCATION UPDATE DEMAND,
 *		U-ITSI DETACH, and U-ATTACH/DETACH GROUP IDENTITY (ACK).
 *		Anything else — including an uplink U-MM STATUS, which
 *		this base station never expects to receive — is
 *		acknowledged with MM-PDU-FUNCTION-NOT-SUPPORTED.
 *
 *--------------------------------------------------------------*/

import charmlog "github.com/charmbracelet/log"

// UMmPduType is the 4-bit uplink MM PDU type field.
type UMmPduType int

const (
	UMmLocationUpdateDemand UMmPduType = iota
	UMmItsiDetach
	UMmAttachDetachGroupIdentity
	UMmStatus // uplink status; this BS does not expect or handle it
	UMmAttachDetachGroupIdentityAck
)

// DMmPduType is the 4-bit downlink MM PDU type field.
type DMmPduType int

const (
	DMmLocationUpdateAccept DMmPduType = iota
	DMmLocationUpdateReject
	DMmAttachDetachGroupIdentity
	DMmStatus
	DMmPduFunctionNotSupported DMmPduType = 15
)

// MmClientState names the MM Client Registry's three states.
type MmClientState int

const (
	MmUnknown MmClientState = iota
	MmAttached
	MmDetached
)

// MmClient is one ISSI's registry entry.
type MmClient struct {
	State  MmClientState
	Groups map[uint32]bool // GSSI set
}

// MmEntity implements the Entity interface for Mobility Management.
type MmEntity struct {
	log      *charmlog.Logger
	registry map[uint32]*MmClient
}

// NewMmEntity constructs the MM entity with an empty client registry.
func NewMmEntity(log *charmlog.Logger) *MmEntity {
	return &MmEntity{log: log, registry: make(map[uint32]*MmClient)}
}

func (m *MmEntity) EntityKind() EntityKind { return EntityMm }

func (m *MmEntity) client(issi uint32) *MmClient {
	c, ok := m.registry[issi]
	if !ok {
		c = &MmClient{State: MmUnknown, Groups: make(map[uint32]bool)}
		m.registry[issi] = c
	}
	return c
}

// Client returns the registry entry for issi, if any has been created.
func (m *MmEntity) Client(issi uint32) (*MmClient, bool) {
	c, ok := m.registry[issi]
	return c, ok
}

func (m *MmEntity) RxPrim(q *Queue, msg SapMsg) {
	ind, ok := msg.Payload.(*LmmMleUnitdataInd)
	if !ok {
		return
	}
	pduType, rest, err := readUMmType(ind.Sdu)
	if err != nil {
		m.log.Debug("mm: dropped pdu, header parse failed", "err", err)
		return
	}

	var resp *BitBuffer
	switch pduType {
	case UMmLocationUpdateDemand:
		resp = m.handleLocationUpdateDemand(ind.Addr, rest)
	case UMmItsiDetach:
		resp = m.handleItsiDetach(ind.Addr)
	case UMmAttachDetachGroupIdentity:
		resp = m.handleAttachDetachGroupIdentity(ind.Addr, rest)
	case UMmAttachDetachGroupIdentityAck:
		// Acknowledgement of a DL attach/detach; no response required.
		return
	default:
		resp = composeNotSupported(int(pduType), -1)
	}

	if resp == nil {
		return
	}
	q.Push(SapMsg{SapID: SapLMM, Src: EntityMm, Dst: EntityMle, DlTime: msg.DlTime, Payload: &LmmMleUnitdataInd{Handle: ind.Handle, Addr: ind.Addr, Sdu: resp}})
}

func (m *MmEntity) TickStart(q *Queue, ts TdmaTime) {}
func (m *MmEntity) TickEnd(q *Queue, ts TdmaTime) bool { return false }

// handleLocationUpdateDemand rejects demands for a non-individual ISSI
// and otherwise marks the client Attached.
func (m *MmEntity) handleLocationUpdateDemand(addr TetraAddress, rest *BitBuffer) *BitBuffer {
	if !addr.IsIndividual() {
		return composeLocationUpdateReject()
	}
	m.client(addr.Ssi).State = MmAttached
	return composeLocationUpdateAccept()
}

func (m *MmEntity) handleItsiDetach(addr TetraAddress) *BitBuffer {
	m.client(addr.Ssi).State = MmDetached
	return nil
}

// handleAttachDetachGroupIdentity rejects an attach whose GSSI is outside
// the group-call range and otherwise updates the client's group
// set. The first bit of rest selects attach(1)/detach(0); the next 24
// bits carry the GSSI.
func (m *MmEntity) handleAttachDetachGroupIdentity(addr TetraAddress, rest *BitBuffer) *BitBuffer {
	attachBit, err := rest.ReadBit()
	if err != nil {
		return composeNotSupported(int(UMmAttachDetachGroupIdentity), -1)
	}
	gssiBits, err := rest.ReadBits(24)
	if err != nil {
		return composeNotSupported(int(UMmAttachDetachGroupIdentity), -1)
	}
	gssi := TetraAddress{Ssi: uint32(gssiBits), SsiType: SsiTypeGssi}
	if !gssi.IsGroup() {
		return composeLocationUpdateReject()
	}
	c := m.client(addr.Ssi)
	if attachBit == 1 {
		c.Groups[gssi.Ssi] = true
	} else {
		delete(c.Groups, gssi.Ssi)
	}
	return composeAttachDetachGroupIdentityAck()
}

// readUMmType reads the PDU type from the start of the SDU, wherever its
// cursor was left.
func readUMmType(b *BitBuffer) (UMmPduType, *BitBuffer, error) {
	b.Seek(0)
	t, err := b.ReadBits(4)
	if err != nil {
		return 0, nil, err
	}
	rest, err := b.CopyRange(b.Position(), b.Len())
	if err != nil {
		return 0, nil, err
	}
	return UMmPduType(t), rest, nil
}

func composeLocationUpdateAccept() *BitBuffer {
	b := NewBitBuffer()
	_ = b.WriteBits(uint64(DMmLocationUpdateAccept), 4)
	return b
}

func composeLocationUpdateReject() *BitBuffer {
	b := NewBitBuffer()
	_ = b.WriteBits(uint64(DMmLocationUpdateReject), 4)
	return b
}

func composeAttachDetachGroupIdentityAck() *BitBuffer {
	b := NewBitBuffer()
	_ = b.WriteBits(uint64(DMmAttachDetachGroupIdentity), 4)
	return b
}

// composeNotSupported builds the MM-PDU-FUNCTION-NOT-SUPPORTED body: the
// DL PDU type, the echoed offending PDU type, and — where applicable — a
// sub-type (subType < 0 means none).
func composeNotSupported(pduType, subType int) *BitBuffer {
	b := NewBitBuffer()
	_ = b.WriteBits(uint64(DMmPduFunctionNotSupported), 4)
	_ = b.WriteBits(uint64(pduType), 4)
	if subType >= 0 {
		_ = b.WriteBit(1)
		_ = b.WriteBits(uint64(subType), 4)
	} else {
		_ = b.WriteBit(0)
	}
	return b
}

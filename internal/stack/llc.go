package stack

/*-------------------------------------------------------------
 *
 * Purpose:	LLC entity: basic-link framing (BL-DATA, BL-ADATA,
 *		BL-UDATA, BL-ACK) with optional FCS validation, and an AL
 *		tunnel for advanced-link PDUs this core doesn't decode.
 *
 *--------------------------------------------------------------*/

import charmlog "github.com/charmbracelet/log"

// LlcPduType names the basic-link PDU kinds LLC frames.
type LlcPduType int

const (
	LlcBlData LlcPduType = iota
	LlcBlAdata
	LlcBlUdata
	LlcBlAck
	LlcAlTunnel // advanced-link PDU this core tunnels without decoding
)

// LlcPdu is a parsed basic-link frame.
type LlcPdu struct {
	Type   LlcPduType
	HasFcs bool
	NPdu   *BitBuffer // the enclosed higher-layer PDU (MLE-bound for BL-*DATA)
}

// TlaUnitdataInd is the primitive LLC hands to MLE at the TLA SAP once a
// basic-link frame's FCS (if present) has validated.
type TlaUnitdataInd struct {
	Addr TetraAddress
	Pdu  *BitBuffer
}

// TlaUnitdataReq is the TX-direction primitive MLE hands to LLC: an
// N-PDU awaiting basic-link framing on its way to the UMAC.
type TlaUnitdataReq struct {
	Addr TetraAddress
	Pdu  *BitBuffer
}

// LlcEntity implements the Entity interface for the Logical Link Control
// layer.
type LlcEntity struct {
	log *charmlog.Logger
}

// NewLlcEntity constructs the LLC entity.
func NewLlcEntity(log *charmlog.Logger) *LlcEntity {
	return &LlcEntity{log: log}
}

func (l *LlcEntity) EntityKind() EntityKind { return EntityLlc }

func (l *LlcEntity) RxPrim(q *Queue, msg SapMsg) {
	switch p := msg.Payload.(type) {
	case *TmaUnitdataInd:
		p.Sdu.Seek(0)
		pdu, err := ParseLlcPdu(p.Sdu)
		if err != nil {
			l.log.Debug("llc: dropped pdu, parse failed", "err", err)
			return
		}
		q.Push(SapMsg{SapID: SapTLA, Src: EntityLlc, Dst: EntityMle, DlTime: msg.DlTime, Payload: &TlaUnitdataInd{Addr: p.Addr, Pdu: pdu.NPdu}})
	case *TlaUnitdataReq:
		framed, err := ComposeLlcPdu(&LlcPdu{Type: LlcBlData, HasFcs: true, NPdu: p.Pdu})
		if err != nil {
			l.log.Warn("llc: compose failed", "err", err)
			return
		}
		q.Push(SapMsg{SapID: SapTMA, Src: EntityLlc, Dst: EntityUmac, DlTime: msg.DlTime, Payload: &TmaUnitdataReq{Addr: p.Addr, Sdu: framed}})
	}
}

func (l *LlcEntity) TickStart(q *Queue, ts TdmaTime) {}
func (l *LlcEntity) TickEnd(q *Queue, ts TdmaTime) bool { return false }

// ParseLlcPdu decodes a basic-link frame starting at the cursor: a 3-bit
// PDU type, a has-FCS bit, the N-PDU payload, and (if has-FCS) a trailing
// 32-bit FCS validated over [start, len-32), start being the cursor
// position on entry. A mismatch is an InconsistencyError.
func ParseLlcPdu(b *BitBuffer) (*LlcPdu, error) {
	start := b.Position()
	typ, err := b.ReadBits(3)
	if err != nil {
		return nil, err
	}
	hasFcsBit, err := b.ReadBit()
	if err != nil {
		return nil, err
	}
	hasFcs := hasFcsBit == 1

	payloadEnd := b.Len()
	if hasFcs {
		payloadEnd -= 32
		if payloadEnd < b.Position() {
			return nil, &InconsistentLengthError{Expected: 32, Found: b.Len() - b.Position()}
		}
	}

	npdu, err := b.CopyRange(b.Position(), payloadEnd)
	if err != nil {
		return nil, err
	}

	if hasFcs {
		ok, err := CheckFcs(b, start, b.Len())
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &InconsistencyError{Field: "fcs", Reason: "mismatch"}
		}
	}

	return &LlcPdu{Type: LlcPduType(typ), HasFcs: hasFcs, NPdu: npdu}, nil
}

// ComposeLlcPdu writes a basic-link frame, appending a computed FCS when
// hasFcs is set.
func ComposeLlcPdu(pdu *LlcPdu) (*BitBuffer, error) {
	b := NewBitBuffer()
	if err := b.WriteBits(uint64(pdu.Type), 3); err != nil {
		return nil, err
	}
	v := uint64(0)
	if pdu.HasFcs {
		v = 1
	}
	if err := b.WriteBit(byte(v)); err != nil {
		return nil, err
	}
	for _, bit := range pdu.NPdu.Bits() {
		if err := b.WriteBit(bit); err != nil {
			return nil, err
		}
	}
	if pdu.HasFcs {
		fcs := Fcs32(b.Bits())
		if err := b.WriteBits(uint64(fcs), 32); err != nil {
			return nil, err
		}
	}
	return b, nil
}

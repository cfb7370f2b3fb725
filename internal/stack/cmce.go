package stack

/*-------------------------------------------------------------
 *
 * Purpose:	CMCE (BS) entity: dispatches incoming U-PDUs to one
 *		of three sub-entities — Call Control, SDS, Supplementary
 *		Services — by PDU type field.
 *
 *--------------------------------------------------------------*/

import charmlog "github.com/charmbracelet/log"

// UCmcePduType is the coarse dispatch group that leads an uplink CMCE
// PDU, carried in a 2-bit field. The real ETSI field enumerates each Call Control PDU
// individually; this core narrows it to the three sub-entity groups,
// since per-PDU call-control field codecs are out of scope.
type UCmcePduType int

const (
	UCmceCallControl UCmcePduType = iota
	UCmceSds
	UCmceSupplementary
)

// LcmcUnitdataReq is CMCE's response primitive sent back down to MLE.
type LcmcUnitdataReq struct {
	Handle uint32
	Addr   TetraAddress
	Sdu    *BitBuffer
}

// CmceEntity implements the Entity interface for Circuit Mode Control
// Entity signalling, owning the three sub-entities.
type CmceEntity struct {
	log *charmlog.Logger
	cc  *CmceCallControl
	sds *CmceSds
	ss  *CmceSupplementary
}

// NewCmceEntity constructs CMCE and its sub-entities. Circuits are
// opened and closed by pushing CallControlOpen/CallControlClose
// primitives to the UMAC, which owns the circuit manager.
func NewCmceEntity(log *charmlog.Logger) *CmceEntity {
	return &CmceEntity{
		log: log,
		cc:  newCmceCallControl(log),
		sds: newCmceSds(log),
		ss:  newCmceSupplementary(log),
	}
}

func (c *CmceEntity) EntityKind() EntityKind { return EntityCmce }

func (c *CmceEntity) RxPrim(q *Queue, msg SapMsg) {
	ind, ok := msg.Payload.(*LcmcMleUnitdataInd)
	if !ok {
		return
	}
	group, rest, err := readUCmceType(ind.Sdu)
	if err != nil {
		c.log.Debug("cmce: dropped pdu, header parse failed", "err", err)
		return
	}

	var resp *BitBuffer
	switch group {
	case UCmceCallControl:
		resp = c.cc.Handle(q, msg.DlTime, ind.Addr, rest)
	case UCmceSds:
		resp = c.sds.Handle(ind.Addr, rest)
	case UCmceSupplementary:
		resp = c.ss.Handle(rest)
	}
	if resp == nil {
		return
	}
	q.Push(SapMsg{SapID: SapLCMC, Src: EntityCmce, Dst: EntityMle, DlTime: msg.DlTime, Payload: &LcmcUnitdataReq{Handle: ind.Handle, Addr: ind.Addr, Sdu: resp}})
}

func (c *CmceEntity) TickStart(q *Queue, ts TdmaTime) {}
func (c *CmceEntity) TickEnd(q *Queue, ts TdmaTime) bool { return false }

// readUCmceType reads the dispatch group from the start of the SDU,
// wherever its cursor was left.
func readUCmceType(b *BitBuffer) (UCmcePduType, *BitBuffer, error) {
	b.Seek(0)
	t, err := b.ReadBits(2)
	if err != nil {
		return 0, nil, err
	}
	rest, err := b.CopyRange(b.Position(), b.Len())
	if err != nil {
		return 0, nil, err
	}
	return UCmcePduType(t), rest, nil
}

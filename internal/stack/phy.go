package stack

/*-------------------------------------------------------------
 *
 * Purpose:	The PHY entity: the slot-boundary bridge between the
 *		Device and LMAC. Owns the sample-rate clock; the router's
 *		tick is paced by the blocking Device.RxTxTimeslot call.
 *
 *--------------------------------------------------------------*/

import charmlog "github.com/charmbracelet/log"

// PhyEntity bridges one slot of device I/O per tick.
type PhyEntity struct {
	log     *charmlog.Logger
	device  Device
	pending []TxSlotBits
}

// NewPhyEntity constructs the PHY entity around a Device.
func NewPhyEntity(log *charmlog.Logger, device Device) *PhyEntity {
	return &PhyEntity{log: log, device: device}
}

func (p *PhyEntity) EntityKind() EntityKind { return EntityPhy }

func (p *PhyEntity) RxPrim(q *Queue, msg SapMsg) {
	if req, ok := msg.Payload.(*TpUnitdataReq); ok {
		p.pending = append(p.pending, TxSlotBits{Time: LogicalTime{Time: req.Ts}, Bits: req.Bits})
	}
}

// TickStart acquires one slot of samples (blocking on the device) and
// emits a TP.unitdata.ind for each non-empty received sub-field.
func (p *PhyEntity) TickStart(q *Queue, ts TdmaTime) {
	tx := p.pending
	p.pending = nil

	rx, err := p.device.RxTxTimeslot(tx)
	if err != nil {
		p.log.Warn("phy: device error", "err", err)
		return
	}

	for _, slot := range rx {
		if slot == nil {
			continue
		}
		p.emitSubSlot(q, ts, slot.FullSlot)
		p.emitSubSlot(q, ts, slot.Subslot1)
		p.emitSubSlot(q, ts, slot.Subslot2)
	}
}

func (p *PhyEntity) emitSubSlot(q *Queue, ts TdmaTime, s SubSlot) {
	if s.Empty || len(s.Bits) == 0 {
		return
	}
	channel, ok := classifyBurstChannel(ts, len(s.Bits))
	if !ok {
		p.log.Debug("phy: could not classify received burst", "len", len(s.Bits))
		return
	}
	q.Push(SapMsg{
		SapID:  SapTP,
		Src:    EntityPhy,
		Dst:    EntityLmac,
		DlTime: ts,
		Payload: &phyRxBurst{
			Channel: channel,
			Bits:    s.Bits,
		},
	})
}

// classifyBurstChannel maps a burst's bit length to the logical channel
// it is decoded as, since the air interface itself carries no explicit
// channel tag. Only the length is used; ts is not consulted, so a channel
// sharing its length with one listed below decodes as the listed one.
func classifyBurstChannel(ts TdmaTime, numBits int) (LogicalChannel, bool) {
	switch numBits {
	case channelParamsTable[ChanBSCH].Type5Bits:
		return ChanBSCH, true
	case channelParamsTable[ChanAACH].Type5Bits:
		return ChanAACH, true
	case channelParamsTable[ChanSCHHD].Type5Bits:
		return ChanSCHHD, true
	case channelParamsTable[ChanSCHF].Type5Bits:
		// TCH/S shares this burst length; telling them apart needs
		// the circuit state that sits above the PHY, so a full
		// slot decodes as signalling here.
		return ChanSCHF, true
	case channelParamsTable[ChanSCHHU].Type5Bits:
		return ChanSCHHU, true
	default:
		return 0, false
	}
}

func (p *PhyEntity) TickEnd(q *Queue, ts TdmaTime) bool { return false }

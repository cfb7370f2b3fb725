package stack

/*-------------------------------------------------------------
 *
 * Purpose:	The UMAC entity: composes and parses MAC headers, resolves
 *		addressing through event labels, drives the defragmenter
 *		and circuit manager, calls the timeslot allocator, and
 *		composes one downlink slot per tick (broadcast, traffic,
 *		or queued signalling plus the AACH block). Ties together
 *		umaceventlabel.go, umacdefrag.go, umaccircuit.go,
 *		umactsalloc.go, umacaach.go, umacbcast.go and
 *		umacfillbits.go into the TMV<->TMA/TMB bridge.
 *
 *--------------------------------------------------------------*/

import charmlog "github.com/charmbracelet/log"

// MacPduType is the 2-bit MAC PDU type field.
type MacPduType int

const (
	MacPduResourceOrData MacPduType = iota // MAC-RESOURCE (DL) / MAC-DATA (UL)
	MacPduEndOrFrag                        // MAC-END or MAC-FRAG; a sub-bit disambiguates
	MacPduBroadcast                        // SYSINFO, SYSINFO-Q, ACCESS-DEFINE
	MacPduSupplementary                    // Supplementary or U-SIGNAL
)

// AddrForm names the addressing form an addressed MAC block carries.
type AddrForm int

const (
	AddrNull AddrForm = iota
	AddrSsi
	AddrEventLabel
	AddrUssi
	AddrSmi
	AddrSsiEventLabel
	AddrSsiUsageMarker
	AddrSmiEventLabel
)

// MacHeader is the decoded addressing/type preamble of one MAC block.
type MacHeader struct {
	PduType  MacPduType
	Fragment bool // MAC-FRAG rather than terminating MAC-END
	FillBits bool // fill bits pad the block's tail
	Form     AddrForm
	Addr     TetraAddress
	Label    uint16
}

// TmaUnitdataInd is the reassembled-SDU primitive UMAC hands to LLC at
// the TMA SAP.
type TmaUnitdataInd struct {
	Addr TetraAddress
	Sdu  *BitBuffer
}

// TmaUnitdataReq is the TX-direction primitive LLC hands to UMAC: one
// framed SDU awaiting downlink slot composition.
type TmaUnitdataReq struct {
	Addr TetraAddress
	Sdu  *BitBuffer
}

// CallControlOpen and CallControlClose are the CMCE->UMAC Control-SAP
// primitives that open/close a circuit.
type CallControlOpen struct{ Circuit Circuit }
type CallControlClose struct {
	Dir Direction
	Ts  uint8
}

// dlFrag is an in-progress downlink fragmentation run: the remainder of
// an SDU too large for one slot, continued on this subscriber's
// subsequent slots until a MAC-END closes it.
type dlFrag struct {
	addr TetraAddress
	rest []byte
}

// UmacEntity implements the Entity interface for the Upper MAC.
type UmacEntity struct {
	log        *charmlog.Logger
	cell       CellConfig
	labels     *EventLabelStore
	defrag     *Defragmenter
	circuits   *CircuitMgr
	tsAlloc    *TimeslotAllocator
	dlQueue    []*TmaUnitdataReq
	txFrag     *dlFrag
	reservedUl int // dropped reserved-invalid UL AACH markers
}

// NewUmacEntity constructs the UMAC entity with fresh sub-component
// state. The cell configuration feeds the BSCH/BNCH broadcast blocks.
func NewUmacEntity(log *charmlog.Logger, cell CellConfig) *UmacEntity {
	return &UmacEntity{
		log:      log,
		cell:     cell,
		labels:   NewEventLabelStore(),
		defrag:   NewDefragmenter(log),
		circuits: NewCircuitMgr(log),
		tsAlloc:  NewTimeslotAllocator(),
	}
}

func (u *UmacEntity) EntityKind() EntityKind { return EntityUmac }

// SetConfig swaps the cell configuration snapshot. Only call between
// ticks; mid-tick mutation is not observable by design.
func (u *UmacEntity) SetConfig(cell CellConfig) {
	u.cell = cell
}

// Stats exposes the reserved-invalid UL AACH marker counter.
func (u *UmacEntity) Stats() (reservedInvalidUl int) {
	return u.reservedUl
}

func (u *UmacEntity) RxPrim(q *Queue, msg SapMsg) {
	switch p := msg.Payload.(type) {
	case *TmvRxInd:
		u.handleRxInd(q, msg.DlTime, p)
	case *TmaUnitdataReq:
		u.dlQueue = append(u.dlQueue, p)
	case *CallControlOpen:
		u.openCircuit(p.Circuit)
	case *CallControlClose:
		u.closeCircuit(p.Dir, p.Ts)
	}
}

// openCircuit reserves the circuit's timeslot for its call before
// installing it. A slot already held by the same call (the other
// direction of a duplex circuit) is fine; one held by another call
// rejects the open.
func (u *UmacEntity) openCircuit(c Circuit) {
	if _, ok := slotIndex(c.Ts); !ok {
		u.log.Warn("umac: circuit open outside traffic slots", "ts", c.Ts)
		return
	}
	owner := Owner(c.CallID)
	if cur, held := u.tsAlloc.Query(c.Ts); !held || cur != owner {
		if err := u.tsAlloc.Reserve(c.Ts, owner); err != nil {
			u.log.Warn("umac: circuit open rejected", "ts", c.Ts, "err", err)
			return
		}
	}
	u.circuits.Open(c)
}

// closeCircuit removes the circuit and releases its slot once neither
// direction holds it.
func (u *UmacEntity) closeCircuit(dir Direction, ts uint8) {
	if _, ok := slotIndex(ts); !ok {
		return
	}
	u.circuits.Close(dir, ts)
	if _, stillOpen := u.circuits.Get(dir.other(), ts); stillOpen {
		return
	}
	if owner, held := u.tsAlloc.Query(ts); held {
		if err := u.tsAlloc.Release(ts, owner); err != nil {
			u.log.Warn("umac: timeslot release failed", "ts", ts, "err", err)
		}
	}
}

// TickStart composes the downlink slot for this tick and hands it to the
// LMAC for encoding.
func (u *UmacEntity) TickStart(q *Queue, ts TdmaTime) {
	slot := u.composeSlot(ts)
	if slot == nil {
		return
	}
	q.Push(SapMsg{SapID: SapTMV, Src: EntityUmac, Dst: EntityLmac, DlTime: ts, Payload: slot})
}

func (u *UmacEntity) TickEnd(q *Queue, ts TdmaTime) bool { return false }

// composeSlot builds one TmvUnitdataReqSlot: the mandatory broadcasts on
// their frame-18 slots, a traffic block when a circuit owns the slot,
// queued signalling otherwise, plus the per-slot AACH block.
func (u *UmacEntity) composeSlot(ts TdmaTime) *TmvUnitdataReqSlot {
	slot := &TmvUnitdataReqSlot{Ts: ts, UlPhyChan: ChanSCHHU}
	if ts.IsMandatoryClch() {
		slot.UlPhyChan = ChanCLCH
	}

	usage := AachUsage{Kind: AachUnallocated}

	switch {
	case ts.IsMandatoryBsch():
		slot.Blk1 = &TmvTxBlock{Channel: ChanBSCH, MacBlock: ComposeSyncPdu(u.cell, ts)}
		usage = AachUsage{Kind: AachCommonControl}

	case ts.IsMandatoryBnch():
		sysinfo, err := ComposeSysinfoPdu(u.cell)
		if err != nil {
			u.log.Warn("umac: sysinfo compose failed", "err", err)
			break
		}
		slot.Blk1 = &TmvTxBlock{Channel: ChanSCHHD, MacBlock: sysinfo}
		slot.Blk2 = u.composeHalfSlotSignalling()
		usage = AachUsage{Kind: AachCommonControl}

	default:
		if c, ok := u.circuits.Get(DirDl, ts.T); ok {
			slot.Blk1 = u.composeTraffic(ts.T)
			usage = AachUsage{Kind: AachTraffic, Traffic: c.Usage}
			break
		}
		if blk := u.composeFullSlotSignalling(); blk != nil {
			slot.Blk1 = blk
			usage = AachUsage{Kind: AachCommonControl}
		}
	}

	bbk, err := composeAachBlock(usage)
	if err != nil {
		u.log.Warn("umac: aach compose failed", "err", err)
		return nil
	}
	slot.Bbk = bbk
	return slot
}

// composeAachBlock renders a usage marker as the 14-bit AACH type-1
// block.
func composeAachBlock(usage AachUsage) (*TmvTxBlock, error) {
	field, err := EncodeAachDl(usage)
	if err != nil {
		return nil, err
	}
	b := NewBitBuffer()
	if err := b.WriteBits(uint64(field), 14); err != nil {
		return nil, err
	}
	return &TmvTxBlock{Channel: ChanAACH, MacBlock: b}, nil
}

// composeTraffic dequeues the next queued traffic block for a slot. An
// empty queue is not an error: the circuit stays open, the slot just
// carries no speech this tick.
func (u *UmacEntity) composeTraffic(tsNum uint8) *TmvTxBlock {
	block, ok := u.circuits.TakeBlock(tsNum)
	if !ok {
		return nil
	}
	params := channelParamsTable[ChanTCHS]
	if len(block) != params.Type1Bits {
		u.log.Warn("umac: traffic block length mismatch", "len", len(block))
		return nil
	}
	return &TmvTxBlock{Channel: ChanTCHS, MacBlock: NewBitBufferFromBits(block)}
}

// composeFullSlotSignalling builds the next SCH/F block: the pending
// fragmentation run first, then the head of the signalling queue,
// fragmenting it if it exceeds one slot.
func (u *UmacEntity) composeFullSlotSignalling() *TmvTxBlock {
	capacity := channelParamsTable[ChanSCHF].Type1Bits

	if u.txFrag != nil {
		return u.continueFragment(capacity)
	}

	if len(u.dlQueue) == 0 {
		return nil
	}
	req := u.dlQueue[0]
	u.dlQueue = u.dlQueue[1:]

	hdr := MacHeader{PduType: MacPduResourceOrData, Form: AddrSsi, Addr: req.Addr}
	room := capacity - macHeaderBits(hdr)
	sdu := req.Sdu.Bits()

	if len(sdu) <= room {
		blk, err := composeMacBlock(hdr, sdu, capacity)
		if err != nil {
			u.log.Warn("umac: block compose failed", "err", err)
			return nil
		}
		return &TmvTxBlock{Channel: ChanSCHF, MacBlock: blk}
	}

	// Too large for one slot: open a fragmentation run with MAC-FRAG
	// and carry the remainder to the following ticks.
	hdr.PduType = MacPduEndOrFrag
	hdr.Fragment = true
	room = capacity - macHeaderBits(hdr)
	blk, err := composeMacBlock(hdr, sdu[:room], capacity)
	if err != nil {
		u.log.Warn("umac: fragment compose failed", "err", err)
		return nil
	}
	u.txFrag = &dlFrag{addr: req.Addr, rest: sdu[room:]}
	return &TmvTxBlock{Channel: ChanSCHF, MacBlock: blk}
}

// continueFragment emits the next MAC-FRAG, or the terminating MAC-END
// when the remainder fits.
func (u *UmacEntity) continueFragment(capacity int) *TmvTxBlock {
	hdr := MacHeader{PduType: MacPduEndOrFrag, Form: AddrSsi, Addr: u.txFrag.addr}
	room := capacity - macHeaderBits(hdr)

	rest := u.txFrag.rest
	if len(rest) <= room {
		hdr.Fragment = false
		blk, err := composeMacBlock(hdr, rest, capacity)
		if err != nil {
			u.log.Warn("umac: fragment compose failed", "err", err)
			u.txFrag = nil
			return nil
		}
		u.txFrag = nil
		return &TmvTxBlock{Channel: ChanSCHF, MacBlock: blk}
	}

	hdr.Fragment = true
	blk, err := composeMacBlock(hdr, rest[:room], capacity)
	if err != nil {
		u.log.Warn("umac: fragment compose failed", "err", err)
		u.txFrag = nil
		return nil
	}
	u.txFrag.rest = rest[room:]
	return &TmvTxBlock{Channel: ChanSCHF, MacBlock: blk}
}

// composeHalfSlotSignalling fills the second half slot next to a BNCH
// broadcast with queued signalling that fits SCH/HD, or nothing.
func (u *UmacEntity) composeHalfSlotSignalling() *TmvTxBlock {
	if u.txFrag != nil || len(u.dlQueue) == 0 {
		return nil
	}
	capacity := channelParamsTable[ChanSCHHD].Type1Bits
	hdr := MacHeader{PduType: MacPduResourceOrData, Form: AddrSsi, Addr: u.dlQueue[0].Addr}
	if u.dlQueue[0].Sdu.Len() > capacity-macHeaderBits(hdr) {
		return nil
	}
	req := u.dlQueue[0]
	u.dlQueue = u.dlQueue[1:]
	blk, err := composeMacBlock(hdr, req.Sdu.Bits(), capacity)
	if err != nil {
		u.log.Warn("umac: block compose failed", "err", err)
		return nil
	}
	return &TmvTxBlock{Channel: ChanSCHHD, MacBlock: blk}
}

// composeMacBlock writes header plus SDU, then pads to the channel
// capacity, writing fill bits and flagging them in the header only when
// the content isn't already byte-aligned.
func composeMacBlock(hdr MacHeader, sdu []byte, capacity int) (*BitBuffer, error) {
	hdr.FillBits = requiredFillBits(macHeaderBits(hdr)+len(sdu), capacity) > 0
	b := NewBitBuffer()
	if err := ComposeMacHeader(b, hdr); err != nil {
		return nil, err
	}
	for _, bit := range sdu {
		if err := b.WriteBit(bit); err != nil {
			return nil, err
		}
	}
	if hdr.FillBits {
		if err := AppendFillBits(b, capacity); err != nil {
			return nil, err
		}
	}
	// The fill sentinel may stop at a byte boundary; the block itself
	// must still occupy the channel's full type-1 width, and the
	// trailing zeros keep the sentinel the last 1 bit for the
	// backwards scan on removal.
	for b.Len() < capacity {
		if err := b.WriteBit(0); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// handleRxInd parses one decoded LMAC block and drives addressing,
// defragmentation and reassembly completion.
func (u *UmacEntity) handleRxInd(q *Queue, now TdmaTime, ind *TmvRxInd) {
	if !ind.CrcPass {
		return
	}
	if ind.LogicalChannel == ChanAACH {
		u.handleAach(now, ind)
		return
	}

	hdr, payload, err := ParseMacHeader(ind.MacBlock)
	if err != nil {
		u.log.Debug("umac: dropped block, header parse failed", "err", err)
		return
	}
	if hdr.FillBits {
		payload = RemoveFillBits(u.log, payload)
	}

	addr, ok := u.resolveAddr(hdr)
	if !ok {
		u.log.Warn("umac: unresolvable event label, dropping block", "label", hdr.Label)
		return
	}

	ts := now.T
	switch hdr.PduType {
	case MacPduEndOrFrag:
		if hdr.Fragment {
			u.startOrContinueFragment(ts, now, addr, payload)
			return
		}
		if sdu, ok := u.defrag.LastFragment(ts, now, addr.Ssi, payload); ok {
			q.Push(SapMsg{SapID: SapTMA, Src: EntityUmac, Dst: EntityLlc, DlTime: now, Payload: &TmaUnitdataInd{Addr: addr, Sdu: sdu}})
		}
	default:
		// MAC-RESOURCE/MAC-DATA carrying a complete, unfragmented SDU.
		q.Push(SapMsg{SapID: SapTMA, Src: EntityUmac, Dst: EntityLlc, DlTime: now, Payload: &TmaUnitdataInd{Addr: addr, Sdu: payload}})
	}
}

// startOrContinueFragment decides, from defrag state, whether this
// MAC-FRAG is the first of a run or a continuation.
func (u *UmacEntity) startOrContinueFragment(ts uint8, now TdmaTime, addr TetraAddress, payload *BitBuffer) {
	if _, active := u.defrag.Lookup(ts, addr.Ssi); active {
		u.defrag.NextFragment(ts, now, addr.Ssi, payload)
		return
	}
	u.defrag.FirstFragment(ts, now, addr, payload)
}

// resolveAddr maps a parsed header's addressing form down to a concrete
// TetraAddress, resolving event labels via the store. An event-label-only
// form whose label is unknown fails resolution.
func (u *UmacEntity) resolveAddr(hdr MacHeader) (TetraAddress, bool) {
	switch hdr.Form {
	case AddrEventLabel:
		return u.labels.Resolve(hdr.Label)
	default:
		return hdr.Addr, true
	}
}

// handleAach processes a decoded AACH block: on UL, reserved-invalid
// markers 1..3 are dropped with a counter bump; on DL they are valid
// control codepoints. The AACH usage content itself doesn't feed an
// rx_prim path further up the stack.
func (u *UmacEntity) handleAach(now TdmaTime, ind *TmvRxInd) {
	ind.MacBlock.Seek(0)
	field, err := ind.MacBlock.PeekBits(14)
	if err != nil {
		return
	}
	usage := DecodeAachUl(uint16(field))
	if usage.Kind == AachReservedInvalid {
		u.reservedUl++
		u.log.Debug("umac: dropped reserved-invalid UL AACH marker")
	}
}

// macHeaderBits returns the bit width ComposeMacHeader will produce for
// a header, the number slot-composition room accounting needs.
func macHeaderBits(hdr MacHeader) int {
	n := 2 + 1 + 3 // pdu type, fill flag, addressing form
	switch hdr.Form {
	case AddrNull:
	case AddrEventLabel, AddrSmiEventLabel:
		n += 10
	default:
		n += 24
		if hdr.Form == AddrSsiEventLabel {
			n += 10
		}
	}
	if hdr.PduType == MacPduEndOrFrag {
		n++
	}
	return n
}

// ParseMacHeader reads the MAC PDU type field, fill-bit flag and
// addressing form from the front of a type-1 block, returning the
// remaining bits as the SDU payload (fill bits still attached when the
// flag is set; handleRxInd strips them).
//
// The addressing-form bit patterns follow the closed set the design
// enumerates in declaration order, using a fixed 3-bit selector behind
// the PDU-type's own 2 bits and the fill flag.
func ParseMacHeader(b *BitBuffer) (MacHeader, *BitBuffer, error) {
	pduBits, err := b.ReadBits(2)
	if err != nil {
		return MacHeader{}, nil, err
	}
	fillBit, err := b.ReadBit()
	if err != nil {
		return MacHeader{}, nil, err
	}
	formBits, err := b.ReadBits(3)
	if err != nil {
		return MacHeader{}, nil, err
	}

	hdr := MacHeader{PduType: MacPduType(pduBits), FillBits: fillBit == 1, Form: AddrForm(formBits)}

	switch hdr.Form {
	case AddrNull:
		// no address carried
	case AddrEventLabel, AddrSmiEventLabel:
		lbl, err := b.ReadBits(10)
		if err != nil {
			return MacHeader{}, nil, err
		}
		hdr.Label = uint16(lbl)
	default:
		ssi, err := b.ReadBits(24)
		if err != nil {
			return MacHeader{}, nil, err
		}
		hdr.Addr = TetraAddress{Ssi: uint32(ssi), SsiType: SsiTypeSsi}
		if hdr.Form == AddrSsiEventLabel {
			lbl, err := b.ReadBits(10)
			if err != nil {
				return MacHeader{}, nil, err
			}
			hdr.Label = uint16(lbl)
		}
	}

	if hdr.PduType == MacPduEndOrFrag {
		fragBit, err := b.ReadBit()
		if err != nil {
			return MacHeader{}, nil, err
		}
		hdr.Fragment = fragBit == 1
	}

	rest, err := b.CopyRange(b.Position(), b.Len())
	if err != nil {
		return MacHeader{}, nil, err
	}
	return hdr, rest, nil
}

// ComposeMacHeader writes a MAC header in the same layout ParseMacHeader
// reads, the TX-side counterpart used when building a DL slot.
func ComposeMacHeader(b *BitBuffer, hdr MacHeader) error {
	if err := b.WriteBits(uint64(hdr.PduType), 2); err != nil {
		return err
	}
	fill := byte(0)
	if hdr.FillBits {
		fill = 1
	}
	if err := b.WriteBit(fill); err != nil {
		return err
	}
	if err := b.WriteBits(uint64(hdr.Form), 3); err != nil {
		return err
	}
	switch hdr.Form {
	case AddrNull:
	case AddrEventLabel, AddrSmiEventLabel:
		if err := b.WriteBits(uint64(hdr.Label), 10); err != nil {
			return err
		}
	default:
		if err := b.WriteBits(uint64(hdr.Addr.Ssi), 24); err != nil {
			return err
		}
		if hdr.Form == AddrSsiEventLabel {
			if err := b.WriteBits(uint64(hdr.Label), 10); err != nil {
				return err
			}
		}
	}
	if hdr.PduType == MacPduEndOrFrag {
		v := uint64(0)
		if hdr.Fragment {
			v = 1
		}
		if err := b.WriteBit(byte(v)); err != nil {
			return err
		}
	}
	return nil
}

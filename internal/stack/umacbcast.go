package stack

/*-------------------------------------------------------------
 *
 * Purpose:	Downlink broadcast blocks: the SYNC PDU the BSCH carries on
 *		its mandatory frame-18 slot, and the SYSINFO PDU the BNCH
 *		carries on its own. Both are rendered straight from the
 *		cell configuration snapshot.
 *
 *--------------------------------------------------------------*/

// syncSystemCode identifies the air interface generation in the SYNC
// PDU's leading field.
const syncSystemCode = 0

// ComposeSyncPdu renders the 60-bit SYNC block for one BSCH slot: cell
// identity, the current TDMA position, and the channel-sharing fields a
// mobile needs before it can descramble anything else.
func ComposeSyncPdu(cell CellConfig, ts TdmaTime) *BitBuffer {
	b := NewBitBuffer()
	_ = b.WriteBits(syncSystemCode, 4)
	_ = b.WriteBits(uint64(cell.ColourCode), 6)
	_ = b.WriteBits(uint64(ts.T-1), 2)
	_ = b.WriteBits(uint64(ts.F), 5)
	_ = b.WriteBits(uint64(ts.M), 6)
	_ = b.WriteBits(0, 2) // sharing mode: continuous transmission
	_ = b.WriteBits(0, 3) // reserved frames
	_ = b.WriteBit(0)     // U-plane DTX not supported
	_ = b.WriteBit(0)     // no frame-18 extension
	_ = b.WriteBits(uint64(cell.MCC), 10)
	_ = b.WriteBits(uint64(cell.MNC), 14)
	_ = b.WriteBits(0, 2) // neighbour cell broadcast not supported
	_ = b.WriteBits(0, 2) // cell load unknown
	_ = b.WriteBit(0)     // late entry information not supported
	_ = b.WriteBit(0)
	return b
}

// sysinfoOffsetCode maps a carrier offset in Hz to its 2-bit SYSINFO
// codepoint, treating an unrecognised offset as zero.
func sysinfoOffsetCode(offsetHz int32) uint64 {
	if id, ok := FreqOffsetHzToID(offsetHz); ok {
		return uint64(id)
	}
	return 0
}

// ComposeSysinfoPdu renders the SYSINFO broadcast as a full SCH/HD block
// (broadcast MAC header, cell carrier and identity fields, fill bits to
// half-slot capacity).
func ComposeSysinfoPdu(cell CellConfig) (*BitBuffer, error) {
	body := NewBitBuffer()
	_ = body.WriteBits(uint64(cell.Carrier), 12)
	_ = body.WriteBits(uint64(cell.Band), 4)
	_ = body.WriteBits(sysinfoOffsetCode(cell.OffsetHz), 2)
	_ = body.WriteBits(uint64(cell.DuplexSpacingID), 3)
	_ = body.WriteBit(0) // normal duplex direction
	_ = body.WriteBits(uint64(cell.ColourCode), 6)
	_ = body.WriteBits(uint64(cell.LocationArea), 14)
	_ = body.WriteBits(uint64(cell.MCC), 10)
	_ = body.WriteBits(uint64(cell.MNC), 14)
	_ = body.WriteBits(0xFFFF, 16) // all subscriber classes allowed
	_ = body.WriteBits(0, 12)      // BS service details: no optional services
	hdr := MacHeader{PduType: MacPduBroadcast, Form: AddrNull}
	return composeMacBlock(hdr, body.Bits(), channelParamsTable[ChanSCHHD].Type1Bits)
}

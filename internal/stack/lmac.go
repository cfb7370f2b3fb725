package stack

/*-------------------------------------------------------------
 *
 * Purpose:	The LMAC entity: ties CRC16, convolutional encode/decode,
 *		puncturing, interleaving, and scrambling into the TX/RX
 *		error-control pipeline, dispatching per logical channel.
 *		On TX it consumes whole composed slots from the UMAC and
 *		hands the encoded bits to the PHY; on RX it decodes one
 *		burst at a time back up to the UMAC.
 *
 *--------------------------------------------------------------*/

import charmlog "github.com/charmbracelet/log"

// convFlushBits is the number of zero bits fed to the convolutional
// encoder after the type-2 block to return the register to the all-zero
// state. The 292/432 puncturing rate indexes into this flushed tail of
// the mother stream.
const convFlushBits = 4

// TmvRxInd is the RX-direction payload crossing the TMV SAP from LMAC to
// UMAC: a decoded, CRC-checked type-1 block.
type TmvRxInd struct {
	MacBlock       *BitBuffer
	LogicalChannel LogicalChannel
	CrcPass        bool
	ScramblingCode uint32
}

// TmvTxBlock is one type-1 block of a composed TX slot.
type TmvTxBlock struct {
	Channel  LogicalChannel
	MacBlock *BitBuffer
}

// TmvUnitdataReqSlot is the TX-direction payload crossing the TMV SAP
// from UMAC to LMAC: one fully composed downlink slot. Bbk carries the
// AACH block; Blk1 is either a full-slot block or the first half slot,
// and Blk2 is the second half slot only when Blk1 is half-slot.
type TmvUnitdataReqSlot struct {
	Ts        TdmaTime
	UlPhyChan LogicalChannel
	Blk1      *TmvTxBlock
	Blk2      *TmvTxBlock
	Bbk       *TmvTxBlock
}

// TpUnitdataReq is the encoded slot LMAC hands to the PHY for the
// upcoming downlink slot: the concatenated type-5 bits of every block
// the slot carries.
type TpUnitdataReq struct {
	Ts   TdmaTime
	Bits []byte
}

// LmacEntity implements the error-control pipeline as a stack Entity. It
// holds no per-tick state of its own beyond the scrambler init, which is
// derived from cell configuration.
type LmacEntity struct {
	log           *charmlog.Logger
	scramblerInit uint32
}

// NewLmacEntity constructs the LMAC entity with a cell-derived scrambler
// initial state (see ScramblerInit).
func NewLmacEntity(log *charmlog.Logger, scramblerInit uint32) *LmacEntity {
	return &LmacEntity{log: log, scramblerInit: scramblerInit}
}

func (l *LmacEntity) EntityKind() EntityKind { return EntityLmac }

func (l *LmacEntity) RxPrim(q *Queue, msg SapMsg) {
	switch req := msg.Payload.(type) {
	case *TmvUnitdataReqSlot:
		l.encodeSlot(q, req)
	case *phyRxBurst:
		ind, ok := l.Decode(req.Channel, req.Bits)
		if !ok {
			l.log.Debug("lmac: dropped block", "channel", req.Channel)
			return
		}
		q.Push(SapMsg{SapID: SapTMV, Src: EntityLmac, Dst: EntityUmac, DlTime: msg.DlTime, Payload: ind})
	}
}

func (l *LmacEntity) TickStart(q *Queue, ts TdmaTime) {}
func (l *LmacEntity) TickEnd(q *Queue, ts TdmaTime) bool { return false }

// phyRxBurst is the internal payload the PHY entity hands to LMAC for one
// received logical-channel burst.
type phyRxBurst struct {
	Channel LogicalChannel
	Bits    []byte // type-5 bits, one-bit-per-byte
}

// encodeSlot runs every block of a composed slot through the TX pipeline
// and emits a single TP primitive carrying the concatenated type-5 bits,
// AACH first.
func (l *LmacEntity) encodeSlot(q *Queue, slot *TmvUnitdataReqSlot) {
	var bits []byte
	for _, blk := range []*TmvTxBlock{slot.Bbk, slot.Blk1, slot.Blk2} {
		if blk == nil {
			continue
		}
		out, err := l.Encode(blk.Channel, blk.MacBlock)
		if err != nil {
			l.log.Warn("lmac encode failed", "channel", blk.Channel, "err", err)
			return
		}
		bits = append(bits, out...)
	}
	if len(bits) == 0 {
		return
	}
	q.Push(SapMsg{SapID: SapTP, Src: EntityLmac, Dst: EntityPhy, DlTime: slot.Ts, Payload: &TpUnitdataReq{Ts: slot.Ts, Bits: bits}})
}

// scramblerInitFor returns the LFSR initial state for a channel. The
// BSCH is always scrambled with the fixed pre-registration state, since
// a mobile must decode it before it has learned the cell's own
// scrambling code; every other channel uses the cell-derived state.
func (l *LmacEntity) scramblerInitFor(channel LogicalChannel) uint32 {
	if channel == ChanBSCH {
		return ScrambInitBsch
	}
	return l.scramblerInit
}

// Encode runs a type-1 block through the full TX pipeline and returns
// the type-5 bits ready for the PHY.
func (l *LmacEntity) Encode(channel LogicalChannel, type1 *BitBuffer) ([]byte, error) {
	params, err := ParamsFor(channel)
	if err != nil {
		return nil, err
	}

	type1Bits := type1.Bits()
	if channel == ChanTCHS {
		type1Bits = ReorderCodecToChannel(type1Bits)
	}

	var type3 []byte
	if channel == ChanAACH {
		// AACH carries RM(30,14) parity instead of the
		// convolutional chain.
		type3 = RM3014Encode(type1Bits)
	} else {
		buf := NewBitBufferFromBits(type1Bits)
		buf.Seek(buf.Len())
		if params.HasCRC16 {
			if err := Crc16Append(buf); err != nil {
				return nil, err
			}
		}
		// Tail: pad with zero bits to type-2 length.
		for buf.Len() < params.Type2Bits {
			if err := buf.WriteBit(0); err != nil {
				return nil, err
			}
		}
		// Flush the encoder back to the all-zero state; the
		// flushed mother bits are reachable by the 292/432
		// puncturing rate.
		for i := 0; i < convFlushBits; i++ {
			if err := buf.WriteBit(0); err != nil {
				return nil, err
			}
		}

		mother := ConvEncode(buf.Bits())
		type3, err = Puncture(params.Puncture, mother, params.Type5Bits)
		if err != nil {
			return nil, err
		}
	}

	interleaved := type3
	if params.InterleaveA != 0 {
		interleaved = BlockInterleave(params.InterleaveA, type3)
	}
	if params.MatrixInterl {
		interleaved = MatrixInterleave(tchsMatrixLines, tchsMatrixColumns, interleaved)
	}

	return Scramble(interleaved, l.scramblerInitFor(channel)), nil
}

// Decode reverses the RX pipeline. It returns ok=false when the block
// should be silently dropped: a CRC failure for CRC-protected channels,
// or a mother-vs-depunctured mismatch at a known position.
func (l *LmacEntity) Decode(channel LogicalChannel, type5 []byte) (*TmvRxInd, bool) {
	params, err := ParamsFor(channel)
	if err != nil {
		l.log.Debug("lmac: unknown channel on decode", "channel", channel)
		return nil, false
	}
	if len(type5) != params.Type5Bits {
		l.log.Debug("lmac: burst length mismatch", "channel", channel, "len", len(type5))
		return nil, false
	}

	scramblingCode := l.scramblerInitFor(channel)
	unscrambled := Scramble(type5, scramblingCode)

	deinterleaved := unscrambled
	if params.MatrixInterl {
		deinterleaved = MatrixDeinterleave(tchsMatrixLines, tchsMatrixColumns, deinterleaved)
	}
	if params.InterleaveA != 0 {
		deinterleaved = BlockDeinterleave(params.InterleaveA, deinterleaved)
	}

	if channel == ChanAACH {
		msg := RM3014Decode(deinterleaved)
		return &TmvRxInd{
			MacBlock:       NewBitBufferFromBits(msg),
			LogicalChannel: channel,
			CrcPass:        true,
			ScramblingCode: scramblingCode,
		}, true
	}

	numConvBits := params.Type2Bits + convFlushBits
	depunctured, err := Depuncture(params.Puncture, deinterleaved, 4*numConvBits)
	if err != nil {
		l.log.Debug("lmac: depuncture failed", "channel", channel, "err", err)
		return nil, false
	}

	decoded := ViterbiDecode(depunctured, numConvBits)
	if _, ok := MotherCompare(ConvEncode(decoded), depunctured); !ok {
		l.log.Debug("lmac: depuncture inconsistency", "channel", channel)
		return nil, false
	}
	if params.HasCRC16 {
		if !Crc16Check(decoded[:params.Type1Bits+16]) {
			return nil, false
		}
	}
	payload := decoded[:params.Type1Bits]
	if channel == ChanTCHS {
		payload = ReorderChannelToCodec(payload)
	}

	return &TmvRxInd{
		MacBlock:       NewBitBufferFromBits(payload),
		LogicalChannel: channel,
		CrcPass:        true,
		ScramblingCode: scramblingCode,
	}, true
}

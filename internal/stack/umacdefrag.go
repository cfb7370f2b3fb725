package stack

/*-------------------------------------------------------------
 *
 * Purpose:	UMAC defragmentation: per-(timeslot, SSI) reassembly
 *		of MAC-FRAG/MAC-DATA/MAC-END sequences into a complete SDU,
 *		expressed as an Inactive/Active/Complete state machine
 *		stored flat rather than in an arena.
 *
 *--------------------------------------------------------------*/

import charmlog "github.com/charmbracelet/log"

// DefragState names the three defrag-buffer states.
type DefragState int

const (
	DefragInactive DefragState = iota
	DefragActive
	DefragComplete
)

// DefragMaxBits is the safety cap on reassembled SDU size: not
// a standards constant, just a bound against a runaway fragmentation run.
const DefragMaxBits = 4096

// DefragTimeoutSlots is the inactivity window after which an Active
// buffer is discarded.
const DefragTimeoutSlots = 40

// DefragBuffer holds per-SSI reassembly state for one timeslot.
type DefragBuffer struct {
	State    DefragState
	Addr     TetraAddress
	TFirst   TdmaTime
	TLast    TdmaTime
	NumFrags int
	Bits     *BitBuffer
}

// Defragmenter owns the 4 per-timeslot SSI->DefragBuffer maps.
type Defragmenter struct {
	log  *charmlog.Logger
	bufs [timeslotMax + 1]map[uint32]*DefragBuffer // indexed by ts (1..4); index 0 unused
}

// NewDefragmenter returns an empty defragmenter.
func NewDefragmenter(log *charmlog.Logger) *Defragmenter {
	d := &Defragmenter{log: log}
	for i := range d.bufs {
		d.bufs[i] = make(map[uint32]*DefragBuffer)
	}
	return d
}

// FirstFragment starts a fresh buffer for (ts, addr.Ssi), discarding and
// warning about any residual buffer already present.
func (d *Defragmenter) FirstFragment(ts uint8, now TdmaTime, addr TetraAddress, payload *BitBuffer) {
	m := d.bufs[ts]
	if old, ok := m[addr.Ssi]; ok && old.State == DefragActive {
		d.log.Warn("umac defrag: discarding residual fragment buffer", "ts", ts, "ssi", addr.Ssi)
	}
	m[addr.Ssi] = &DefragBuffer{
		State:    DefragActive,
		Addr:     addr,
		TFirst:   now,
		TLast:    now,
		NumFrags: 1,
		Bits:     NewBitBufferFromBits(payload.Bits()),
	}
}

// NextFragment appends payload to an already-Active buffer. Absence of a
// buffer for (ts, ssi) is a warn+drop. Exceeding DefragMaxBits or the
// DefragTimeoutSlots inactivity window discards the buffer back to
// Inactive.
func (d *Defragmenter) NextFragment(ts uint8, now TdmaTime, ssi uint32, payload *BitBuffer) {
	m := d.bufs[ts]
	buf, ok := m[ssi]
	if !ok || buf.State != DefragActive {
		d.log.Warn("umac defrag: next fragment with no active buffer", "ts", ts, "ssi", ssi)
		return
	}
	if now.Diff(buf.TLast) > DefragTimeoutSlots {
		d.log.Warn("umac defrag: buffer timed out", "ts", ts, "ssi", ssi)
		delete(m, ssi)
		return
	}
	for _, bit := range payload.Bits() {
		if buf.Bits.Len() >= DefragMaxBits {
			d.log.Warn("umac defrag: max bits exceeded", "ts", ts, "ssi", ssi)
			delete(m, ssi)
			return
		}
		_ = buf.Bits.WriteBit(bit)
	}
	buf.TLast = now
	buf.NumFrags++
}

// LastFragment appends payload, closing the buffer to Complete and
// returning the reassembled bitstream. Absence of a buffer is a
// warn+drop (returns nil, false).
func (d *Defragmenter) LastFragment(ts uint8, now TdmaTime, ssi uint32, payload *BitBuffer) (*BitBuffer, bool) {
	m := d.bufs[ts]
	buf, ok := m[ssi]
	if !ok || buf.State != DefragActive {
		d.log.Warn("umac defrag: mac-end with no active buffer", "ts", ts, "ssi", ssi)
		return nil, false
	}
	for _, bit := range payload.Bits() {
		_ = buf.Bits.WriteBit(bit)
	}
	buf.State = DefragComplete
	buf.TLast = now
	out := buf.Bits
	delete(m, ssi)
	return out, true
}

// Lookup returns the current buffer state for (ts, ssi), mainly for
// tests that assert DefragInactive after completion.
func (d *Defragmenter) Lookup(ts uint8, ssi uint32) (DefragState, bool) {
	buf, ok := d.bufs[ts][ssi]
	if !ok {
		return DefragInactive, false
	}
	return buf.State, true
}

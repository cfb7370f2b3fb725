package stack

/*-------------------------------------------------------------
 *
 * Purpose:	UMAC Circuit Manager: per-direction traffic
 *		circuit state for timeslots 2-4, plus the DL per-slot
 *		queue of blocks awaiting transmission.
 *
 *--------------------------------------------------------------*/

import charmlog "github.com/charmbracelet/log"

// Direction names the uplink/downlink half of a circuit.
type Direction int

const (
	DirDl Direction = iota
	DirUl
)

func (d Direction) String() string {
	if d == DirDl {
		return "Dl"
	}
	return "Ul"
}

// other returns the opposite direction.
func (d Direction) other() Direction {
	if d == DirDl {
		return DirUl
	}
	return DirDl
}

// CircuitMode names the traffic-carrying mode a circuit was opened with.
type CircuitMode int

const (
	CircuitModeSpeech CircuitMode = iota
	CircuitModeCircuitData
)

// Circuit is one allocated unidirectional traffic resource.
type Circuit struct {
	Direction      Direction
	CallID         uint32
	Ts             uint8 // timeslot 2..4
	Usage          uint8 // AACH usage marker, 4..63
	CircuitMode    CircuitMode
	SpeechService  *uint8
	EteeEncrypted  bool
	TsCreated      TdmaTime
}

// circuitSlots is the number of addressable traffic timeslots (2,3,4).
const circuitSlots = 3

func slotIndex(ts uint8) (int, bool) {
	if ts < 2 || ts > 4 {
		return 0, false
	}
	return int(ts) - 2, true
}

// CircuitMgr owns the DL and UL circuit arrays and the DL per-slot block
// queues.
type CircuitMgr struct {
	log     *charmlog.Logger
	dl      [circuitSlots]*Circuit
	ul      [circuitSlots]*Circuit
	dlQueue [circuitSlots][][]byte
}

// NewCircuitMgr returns an empty circuit manager.
func NewCircuitMgr(log *charmlog.Logger) *CircuitMgr {
	return &CircuitMgr{log: log}
}

// Open installs a circuit on its direction/slot, per CallControl::Open.
// The slot should be free; a still-active circuit is warned about and
// closed first, and for DL any pending tx_data is warned about and
// cleared so stale blocks never leak into the new circuit.
func (m *CircuitMgr) Open(c Circuit) bool {
	idx, ok := slotIndex(c.Ts)
	if !ok {
		return false
	}
	switch c.Direction {
	case DirDl:
		if m.dl[idx] != nil {
			m.log.Warn("umac circuit: open with still active circuit", "dir", DirDl, "ts", c.Ts)
			m.Close(DirDl, c.Ts)
		}
		if len(m.dlQueue[idx]) != 0 {
			m.log.Warn("umac circuit: open with pending tx_data", "ts", c.Ts)
			m.dlQueue[idx] = nil
		}
		m.dl[idx] = &c
	case DirUl:
		if m.ul[idx] != nil {
			m.log.Warn("umac circuit: open with still active circuit", "dir", DirUl, "ts", c.Ts)
			m.Close(DirUl, c.Ts)
		}
		m.ul[idx] = &c
	}
	return true
}

// Close removes the circuit on dir/ts and, for DL, drains its queue:
// closing a circuit always clears what it had left to send.
func (m *CircuitMgr) Close(dir Direction, ts uint8) {
	idx, ok := slotIndex(ts)
	if !ok {
		return
	}
	switch dir {
	case DirDl:
		m.dl[idx] = nil
		m.dlQueue[idx] = nil
	case DirUl:
		m.ul[idx] = nil
	}
}

// Get returns the circuit active on dir/ts, if any.
func (m *CircuitMgr) Get(dir Direction, ts uint8) (*Circuit, bool) {
	idx, ok := slotIndex(ts)
	if !ok {
		return nil, false
	}
	var c *Circuit
	switch dir {
	case DirDl:
		c = m.dl[idx]
	case DirUl:
		c = m.ul[idx]
	}
	return c, c != nil
}

// PutBlock enqueues one DL traffic block for ts. A put on a closed
// circuit warns and drops.
func (m *CircuitMgr) PutBlock(ts uint8, bytes []byte) {
	idx, ok := slotIndex(ts)
	if !ok {
		return
	}
	if m.dl[idx] == nil {
		m.log.Warn("umac circuit: put_block on closed circuit", "ts", ts)
		return
	}
	m.dlQueue[idx] = append(m.dlQueue[idx], bytes)
}

// TakeBlock dequeues the next DL block queued for ts, called by the UMAC
// when composing the next DL slot.
func (m *CircuitMgr) TakeBlock(ts uint8) ([]byte, bool) {
	idx, ok := slotIndex(ts)
	if !ok {
		return nil, false
	}
	q := m.dlQueue[idx]
	if len(q) == 0 {
		return nil, false
	}
	block := q[0]
	m.dlQueue[idx] = q[1:]
	return block, true
}

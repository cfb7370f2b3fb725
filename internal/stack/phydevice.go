package stack

/*-------------------------------------------------------------
 *
 * Purpose:	The Device contract PHY consumes: exchange one slot's worth
 *		of TX bits for one slot's worth of RX bits per call. The
 *		real SoapySDR driver is an external hardware collaborator
 *		and out of scope; LoopbackDevice is a test-only
 *		implementation with its own minimal config.
 *
 *--------------------------------------------------------------*/

// TrainType names the training-sequence variant a burst sub-field uses.
type TrainType int

const (
	TrainNormal TrainType = iota
	TrainExtended
	TrainSync
)

// TxSlotBits is one slot's worth of to-be-transmitted bits, handed to the
// device for the upcoming slot.
type TxSlotBits struct {
	Time LogicalTime
	Bits []byte
}

// LogicalTime wraps the TDMA time a TX slot was composed for; it carries
// no physical timeslot number of its own.
type LogicalTime struct {
	Time TdmaTime
}

// SubSlot carries one half-slot or full-slot burst: its training sequence
// type and bit payload, or Empty if nothing was received in this
// sub-field.
type SubSlot struct {
	Empty     bool
	TrainType TrainType
	Bits      []byte
}

// RxSlotBits is what the device hands back for one received slot: a
// full-slot field and/or two half-slot sub-fields.
type RxSlotBits struct {
	Time     TdmaTime
	FullSlot SubSlot
	Subslot1 SubSlot
	Subslot2 SubSlot
}

// Device is the hardware (or loopback) boundary PHY drives.
type Device interface {
	// RxTxTimeslot exchanges txSlots (to be transmitted) for the same
	// number of received slots, in slot order. A nil entry in the
	// returned slice means no burst was received for that slot.
	RxTxTimeslot(txSlots []TxSlotBits) ([]*RxSlotBits, error)
}

// LoopbackConfig parameterises LoopbackDevice: whether it echoes
// transmitted bits back as received bits (useful for RX-path unit tests).
// It offers no bit-error injection.
type LoopbackConfig struct {
	Echo bool
}

// LoopbackDevice is a Device that never touches real hardware: it either
// echoes TX slots back as RX slots (Echo) or reports no reception,
// letting tests drive the stack deterministically.
type LoopbackDevice struct {
	cfg LoopbackConfig
}

// NewLoopbackDevice constructs a loopback test device.
func NewLoopbackDevice(cfg LoopbackConfig) *LoopbackDevice {
	return &LoopbackDevice{cfg: cfg}
}

func (d *LoopbackDevice) RxTxTimeslot(txSlots []TxSlotBits) ([]*RxSlotBits, error) {
	out := make([]*RxSlotBits, len(txSlots))
	if !d.cfg.Echo {
		return out, nil
	}
	for i, tx := range txSlots {
		out[i] = &RxSlotBits{
			Time:     tx.Time.Time,
			FullSlot: SubSlot{Bits: tx.Bits},
		}
	}
	return out, nil
}

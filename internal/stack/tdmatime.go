package stack

/*-------------------------------------------------------------
 *
 * Purpose:	TDMA time: the (hyperframe, multiframe, frame, timeslot)
 *		tuple that clocks the whole stack, plus its linear integer
 *		encoding and arithmetic.
 *
 *--------------------------------------------------------------*/

import "fmt"

const (
	hyperframeMax = 65536
	multiframeMax = 60
	frameMax      = 18
	timeslotMax   = 4

	// TimeWrap is the modulus of the linear time encoding.
	TimeWrap = int64(timeslotMax) * frameMax * multiframeMax * hyperframeMax
)

// TdmaTime is the 4-tuple (h, m, f, t) identifying one downlink timeslot.
// h in [0,65535], m in [1,60], f in [1,18], t in [1,4].
type TdmaTime struct {
	H uint32
	M uint8
	F uint8
	T uint8
}

// DefaultTdmaTime returns the TETRA epoch (h=0, m=1, f=1, t=1).
func DefaultTdmaTime() TdmaTime {
	return TdmaTime{H: 0, M: 1, F: 1, T: 1}
}

// IsValid reports whether the tuple's fields are within their legal ranges.
func (t TdmaTime) IsValid() bool {
	return t.H < hyperframeMax &&
		t.M >= 1 && t.M <= multiframeMax &&
		t.F >= 1 && t.F <= frameMax &&
		t.T >= 1 && t.T <= timeslotMax
}

// ToInt encodes the tuple as a linear slot count.
func (t TdmaTime) ToInt() int64 {
	return int64(t.T-1) +
		int64(t.F-1)*timeslotMax +
		int64(t.M-1)*timeslotMax*frameMax +
		int64(t.H)*timeslotMax*frameMax*multiframeMax
}

// FromInt decodes a linear slot count back to a tuple, reducing modulo
// TimeWrap into the canonical non-negative range first.
func FromInt(n int64) TdmaTime {
	n = n % TimeWrap
	if n < 0 {
		n += TimeWrap
	}
	t := uint8(n%timeslotMax) + 1
	n /= timeslotMax
	f := uint8(n%frameMax) + 1
	n /= frameMax
	m := uint8(n%multiframeMax) + 1
	n /= multiframeMax
	h := uint32(n)
	return TdmaTime{H: h, M: m, F: f, T: t}
}

// AddSlots advances the time by n slots (n may be negative), wrapping
// modulo TimeWrap.
func (t TdmaTime) AddSlots(n int64) TdmaTime {
	return FromInt(t.ToInt() + n)
}

// Diff returns the signed slot difference t.diff(other), normalized into
// [-TimeWrap/2, TimeWrap/2).
func (t TdmaTime) Diff(other TdmaTime) int64 {
	d := t.ToInt() - other.ToInt()
	half := TimeWrap / 2
	d = ((d+half)%TimeWrap + TimeWrap) % TimeWrap
	return d - half
}

// IsMandatoryBsch holds on frame 18 at the slot reserved for the mandatory
// BSCH broadcast on the downlink.
func (t TdmaTime) IsMandatoryBsch() bool {
	return t.F == 18 && int(t.T) == 4-int(t.M+1)%4
}

// IsMandatoryBnch holds on frame 18 at the slot reserved for the mandatory
// BNCH broadcast on the downlink.
func (t TdmaTime) IsMandatoryBnch() bool {
	return t.F == 18 && int(t.T) == 4-int(t.M+3)%4
}

// IsMandatoryClch holds on frame 18, the uplink slot symmetric to BSCH.
func (t TdmaTime) IsMandatoryClch() bool {
	return t.IsMandatoryBsch()
}

func (t TdmaTime) String() string {
	return fmt.Sprintf("(h=%d m=%d f=%d t=%d)", t.H, t.M, t.F, t.T)
}

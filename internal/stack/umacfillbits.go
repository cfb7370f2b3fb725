package stack

/*-------------------------------------------------------------
 *
 * Purpose:	Fill-bit insertion/removal: after an SDU is written
 *		into a MAC block, fill up to the next byte boundary with a
 *		sentinel "1" followed by zeros so the receiver can locate
 *		the true end of the SDU.
 *
 *--------------------------------------------------------------*/

import charmlog "github.com/charmbracelet/log"

// requiredFillBitsBytealigned returns how many fill bits reach the next
// byte boundary from lenBits. 0-7; an already aligned length needs none.
func requiredFillBitsBytealigned(lenBits int) int {
	return (8 - lenBits%8) % 8
}

// requiredFillBits returns how many fill bits to add after lenBits of
// PDU content: up to the next byte boundary if that doesn't overflow the
// slot, to the end of the slot if the boundary would, and zero when the
// content is byte-aligned or already fills (or overflows) the slot.
func requiredFillBits(lenBits, slotCapacityBits int) int {
	if lenBits >= slotCapacityBits {
		return 0
	}
	aligned := requiredFillBitsBytealigned(lenBits)
	if lenBits+aligned <= slotCapacityBits {
		return aligned
	}
	return slotCapacityBits - lenBits
}

// AppendFillBits writes the fill bits requiredFillBits calls for at the
// buffer's current length: a 1 sentinel followed by zeros. A zero
// requirement writes nothing at all.
func AppendFillBits(buf *BitBuffer, slotCapacityBits int) error {
	n := requiredFillBits(buf.Len(), slotCapacityBits)
	if n == 0 {
		return nil
	}
	buf.Seek(buf.Len())
	if err := buf.WriteBit(1); err != nil {
		return err
	}
	for i := 1; i < n; i++ {
		if err := buf.WriteBit(0); err != nil {
			return err
		}
	}
	return nil
}

// RemoveFillBits scans backwards from the end of buf for the fill
// sentinel "1" and returns the buffer truncated to the SDU that precedes
// it. Absence of a sentinel bit is logged as a warning and buf is
// returned unchanged.
func RemoveFillBits(log *charmlog.Logger, buf *BitBuffer) *BitBuffer {
	bits := buf.Bits()
	for i := len(bits) - 1; i >= 0; i-- {
		if bits[i] == 1 {
			return NewBitBufferFromBits(bits[:i])
		}
	}
	log.Warn("umac fillbits: no fill sentinel found")
	return buf
}

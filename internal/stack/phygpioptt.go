package stack

/*-------------------------------------------------------------
 *
 * Purpose:	GPIO PTT / antenna-relay decorator around a Device: drives a
 *		configured GPIO line high immediately before composing TX
 *		slots and low after, behind an injectable line interface so
 *		tests need no real hardware.
 *
 *--------------------------------------------------------------*/

import "github.com/warthog618/go-gpiocdev"

// GPIOLine is the slice of gpiocdev's Line API this decorator needs,
// kept narrow so tests can supply a fake.
type GPIOLine interface {
	SetValue(value int) error
	Close() error
}

// GPIOPTTDevice wraps a Device, toggling a GPIO line around each TX burst
// to key an external PA or antenna relay.
type GPIOPTTDevice struct {
	inner Device
	line  GPIOLine
}

// NewGPIOPTTDevice wraps inner with PTT control on the given line.
func NewGPIOPTTDevice(inner Device, line GPIOLine) *GPIOPTTDevice {
	return &GPIOPTTDevice{inner: inner, line: line}
}

// OpenGPIOPTTDevice requests the named GPIO line as an output, initially
// low, and wraps inner with PTT control on it.
func OpenGPIOPTTDevice(inner Device, chip string, offset int) (*GPIOPTTDevice, error) {
	line, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, err
	}
	return NewGPIOPTTDevice(inner, line), nil
}

func (d *GPIOPTTDevice) RxTxTimeslot(txSlots []TxSlotBits) ([]*RxSlotBits, error) {
	hasTx := false
	for _, s := range txSlots {
		if len(s.Bits) > 0 {
			hasTx = true
			break
		}
	}

	if hasTx {
		if err := d.line.SetValue(1); err != nil {
			return nil, err
		}
	}

	rx, err := d.inner.RxTxTimeslot(txSlots)

	if hasTx {
		_ = d.line.SetValue(0)
	}

	return rx, err
}

// Close releases the underlying GPIO line.
func (d *GPIOPTTDevice) Close() error {
	return d.line.Close()
}

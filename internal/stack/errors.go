package stack

/*-------------------------------------------------------------
 *
 * Purpose:	The PDU-parse error taxonomy (kind 1 of the three error
 *		kinds). A closed set of structured error values, always
 *		recoverable: raised locally, propagated up one frame,
 *		logged at Debug level (not as a warning) at the entity
 *		boundary, and the offending PDU is dropped. Never fatal.
 *
 *--------------------------------------------------------------*/

import "fmt"

// PduParseError is satisfied by every member of the closed parse-error
// set, letting callers use errors.As to recover structured fields at the
// logging boundary without a type switch over every variant.
type PduParseError interface {
	error
	isPduParseError()
}

// InvalidPduTypeError reports a PDU type field that didn't match what the
// caller expected to parse.
type InvalidPduTypeError struct {
	Expected int
	Found    int
}

func (e *InvalidPduTypeError) Error() string {
	return fmt.Sprintf("invalid pdu type: expected %d, found %d", e.Expected, e.Found)
}
func (*InvalidPduTypeError) isPduParseError() {}

// BufferEndedError reports a read or write that ran past the buffer's
// bounds.
type BufferEndedError struct {
	Field string
}

func (e *BufferEndedError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("buffer ended while reading %q", e.Field)
	}
	return "buffer ended"
}
func (*BufferEndedError) isPduParseError() {}

// InvalidTrailingMbitValueError reports a trailing M-bit that was not 0.
type InvalidTrailingMbitValueError struct{}

func (e *InvalidTrailingMbitValueError) Error() string {
	return "invalid trailing m-bit value"
}
func (*InvalidTrailingMbitValueError) isPduParseError() {}

// InvalidElemIdError reports a Type-3/4 element ID outside the PDU's
// known set.
type InvalidElemIdError struct {
	Found int
}

func (e *InvalidElemIdError) Error() string {
	return fmt.Sprintf("invalid element id: %d", e.Found)
}
func (*InvalidElemIdError) isPduParseError() {}

// FieldNotPresentError reports an O-bit-gated or Type-3 field the caller
// asked to read that was never signalled present.
type FieldNotPresentError struct {
	Field string
}

func (e *FieldNotPresentError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("field not present: %q", e.Field)
	}
	return "field not present"
}
func (*FieldNotPresentError) isPduParseError() {}

// InvalidValueError reports a field whose decoded value is outside its
// legal range.
type InvalidValueError struct {
	Field string
	Value int64
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value for %q: %d", e.Field, e.Value)
}
func (*InvalidValueError) isPduParseError() {}

// InconsistentLengthError reports a declared length that didn't match
// what was actually present.
type InconsistentLengthError struct {
	Expected int
	Found    int
}

func (e *InconsistentLengthError) Error() string {
	return fmt.Sprintf("inconsistent length: expected %d, found %d", e.Expected, e.Found)
}
func (*InconsistentLengthError) isPduParseError() {}

// InconsistencyError reports a cross-field consistency check failure
// that doesn't fit one of the narrower variants above.
type InconsistencyError struct {
	Field  string
	Reason string
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("inconsistency in %q: %s", e.Field, e.Reason)
}
func (*InconsistencyError) isPduParseError() {}

// NotImplementedError reports a field or PDU variant this codec
// deliberately does not decode.
type NotImplementedError struct {
	Field string
}

func (e *NotImplementedError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("not implemented: %q", e.Field)
	}
	return "not implemented"
}
func (*NotImplementedError) isPduParseError() {}

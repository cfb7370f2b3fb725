package stack

/*-------------------------------------------------------------
 *
 * Purpose:	RCPC puncturing and its inverse, parameterised by the
 *		7 modes in lmacparams.go. Puncturing is driven by the
 *		desired type-3 output length; the mother buffer must be
 *		long enough for the highest index the mode's i-func
 *		reaches (4 flush bits past the type-2 block for the
 *		292/432 rate SCH/F and TCH/S use).
 *
 *--------------------------------------------------------------*/

import "fmt"

// punctureIndex maps output index j (1-based) to the 1-based mother-code
// index k the mode selects for it.
func punctureIndex(pp punctureParams, j int) int {
	i := pp.IFunc(j)
	blk := (i - 1) / pp.T
	return pp.Period*blk + pp.P[i-pp.T*blk]
}

// Puncture selects outLen bits from the mother-code stream
// (one-bit-per-byte) per the mode's (P, t, period, i-func) tuple.
func Puncture(mode PunctureMode, mother []byte, outLen int) ([]byte, error) {
	pp, ok := punctureParamsTable[mode]
	if !ok {
		return nil, fmt.Errorf("lmac: unknown puncture mode %d", mode)
	}
	out := make([]byte, outLen)
	for j := 1; j <= outLen; j++ {
		k := punctureIndex(pp, j)
		if k < 1 || k > len(mother) {
			return nil, fmt.Errorf("lmac: puncture index %d outside mother length %d", k, len(mother))
		}
		out[j-1] = mother[k-1]
	}
	return out, nil
}

// Depuncture inverts Puncture, reconstructing a motherLen-bit stream with
// 0xFF ("unknown") at every position the puncturing mode dropped.
func Depuncture(mode PunctureMode, punctured []byte, motherLen int) ([]byte, error) {
	pp, ok := punctureParamsTable[mode]
	if !ok {
		return nil, fmt.Errorf("lmac: unknown puncture mode %d", mode)
	}
	out := make([]byte, motherLen)
	for i := range out {
		out[i] = 0xFF
	}
	for j := 1; j <= len(punctured); j++ {
		k := punctureIndex(pp, j)
		if k < 1 || k > motherLen {
			return nil, fmt.Errorf("lmac: depuncture index %d outside mother length %d", k, motherLen)
		}
		out[k-1] = punctured[j-1]
	}
	return out, nil
}

// MotherCompare checks a re-encoded mother stream against a depunctured
// buffer, ignoring 0xFF sentinels, and reports the count of matched
// positions. A mismatch at a known position is the depuncture
// inconsistency that drops a block on RX.
func MotherCompare(mother, depunct []byte) (int, bool) {
	matched := 0
	for i, d := range depunct {
		if d == 0xFF {
			continue
		}
		if i >= len(mother) || d != mother[i] {
			return matched, false
		}
		matched++
	}
	return matched, true
}

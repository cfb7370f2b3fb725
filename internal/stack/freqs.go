package stack

/*-------------------------------------------------------------
 *
 * Purpose:	Carrier frequency math and the ETSI default duplex-spacing
 *		table (TS 100 392-15, clause 6), indexed by duplex spacing
 *		setting then frequency band.
 *
 *--------------------------------------------------------------*/

import "fmt"

// FreqInfo describes one carrier's frequency allocation.
type FreqInfo struct {
	Band             uint8  // 100 MHz increments, <= 8
	Carrier          uint16 // < 4000
	OffsetHz         int32  // one of 0, +-6250, 12500
	DuplexSpacingID  uint8  // index into the duplex spacing table, < 8
	DuplexSpacingVal uint32 // Hz; overrides the table default when nonzero
	Reverse          bool   // UL above DL frequency
}

// noSpacing marks (duplex setting, band) combinations the standard
// assigns no default to.
const noSpacing = -1

// defaultDuplexSpacingKhz is the ETSI default duplex spacing in kHz,
// [duplex setting][band]. Setting 2 is simplex (zero spacing) in every
// band.
var defaultDuplexSpacingKhz = [8][16]int32{
	{noSpacing, 1600, 10000, 10000, 10000, 10000, 10000, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing},
	{noSpacing, 4500, noSpacing, 36000, 7000, noSpacing, noSpacing, noSpacing, 45000, 45000, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing},
	{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	{noSpacing, noSpacing, noSpacing, 8000, 8000, noSpacing, noSpacing, noSpacing, 18000, 18000, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing},
	{noSpacing, noSpacing, noSpacing, 18000, 5000, noSpacing, 30000, 30000, noSpacing, 39000, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing},
	{noSpacing, noSpacing, noSpacing, noSpacing, 9500, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing},
	{noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing},
	{noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing, noSpacing},
}

// FreqOffsetIDToHz maps the 2-bit carrier offset codepoint to Hz.
func FreqOffsetIDToHz(id uint8) (int32, bool) {
	switch id {
	case 0:
		return 0, true
	case 1:
		return 6250, true
	case 2:
		return -6250, true
	case 3:
		return 12500, true
	default:
		return 0, false
	}
}

// FreqOffsetHzToID inverts FreqOffsetIDToHz.
func FreqOffsetHzToID(offsetHz int32) (uint8, bool) {
	switch offsetHz {
	case 0:
		return 0, true
	case 6250:
		return 1, true
	case -6250:
		return 2, true
	case 12500:
		return 3, true
	default:
		return 0, false
	}
}

// DuplexSpacing resolves the Hz spacing for a frequency info, preferring
// an explicit override over the ETSI default table.
func (f FreqInfo) DuplexSpacing() (uint32, error) {
	if f.DuplexSpacingVal != 0 {
		return f.DuplexSpacingVal, nil
	}
	if int(f.DuplexSpacingID) >= len(defaultDuplexSpacingKhz) || int(f.Band) >= len(defaultDuplexSpacingKhz[0]) {
		return 0, fmt.Errorf("freqs: duplex setting %d band %d out of table range", f.DuplexSpacingID, f.Band)
	}
	khz := defaultDuplexSpacingKhz[f.DuplexSpacingID][f.Band]
	if khz == noSpacing {
		return 0, fmt.Errorf("freqs: no default duplex spacing for setting %d band %d", f.DuplexSpacingID, f.Band)
	}
	return uint32(khz) * 1000, nil
}

// DownlinkHz returns the downlink carrier frequency in Hz.
func (f FreqInfo) DownlinkHz() int64 {
	return int64(f.Band)*100_000_000 + int64(f.Carrier)*25_000 + int64(f.OffsetHz)
}

// UplinkHz returns the uplink carrier frequency in Hz, offset from the
// downlink by the duplex spacing in the direction Reverse selects.
func (f FreqInfo) UplinkHz() (int64, error) {
	spacing, err := f.DuplexSpacing()
	if err != nil {
		return 0, err
	}
	dl := f.DownlinkHz()
	if f.Reverse {
		return dl + int64(spacing), nil
	}
	return dl - int64(spacing), nil
}

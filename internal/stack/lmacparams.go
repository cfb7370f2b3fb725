package stack

/*-------------------------------------------------------------
 *
 * Purpose:	Per-logical-channel LMAC error-control parameters: the
 *		fixed type-5/type-2/type-1 bit counts, block-interleave
 *		step, and whether the channel carries a CRC-16.
 *
 *--------------------------------------------------------------*/

import "fmt"

// LogicalChannel enumerates the closed set of TETRA logical channels.
type LogicalChannel int

const (
	ChanAACH LogicalChannel = iota
	ChanBSCH
	ChanBNCH
	ChanSCHF
	ChanSCHHD
	ChanSCHHU
	ChanSTCH
	ChanTCHS
	ChanTCH24
	ChanTCH48
	ChanTCH72
	ChanBLCH
	ChanCLCH
)

func (c LogicalChannel) String() string {
	names := [...]string{"AACH", "BSCH", "BNCH", "SCH/F", "SCH/HD", "SCH/HU", "STCH", "TCH/S", "TCH/2.4", "TCH/4.8", "TCH/7.2", "BLCH", "CLCH"}
	if int(c) < len(names) {
		return names[c]
	}
	return "Unknown"
}

// PunctureMode names one of the 7 RCPC puncturing parameter sets.
type PunctureMode int

const (
	Puncture23 PunctureMode = iota
	Puncture13
	Puncture292_432
	Puncture148_432
	Puncture112_168
	Puncture72_162
	Puncture38_80
)

// ChannelParams holds the fixed LMAC parameters for one logical channel.
type ChannelParams struct {
	Type5Bits     int
	Type2Bits     int
	Type1Bits     int
	InterleaveA   int // block-interleave step; 0 means "not interleaved" (AACH)
	HasCRC16      bool
	Puncture      PunctureMode
	MatrixInterl  bool // TCH/S only
}

// TCHS matrix-interleave dimensions: the 432-bit block is laid out to
// match the type-2 payload split, 4 sub-blocks of 108 bits.
const (
	tchsMatrixLines   = 4
	tchsMatrixColumns = 108
)

// channelParamsTable is the fixed per-channel error-control table.
var channelParamsTable = map[LogicalChannel]ChannelParams{
	ChanBSCH:  {Type5Bits: 120, Type2Bits: 80, Type1Bits: 60, InterleaveA: 11, HasCRC16: true, Puncture: Puncture23},
	ChanSCHHD: {Type5Bits: 216, Type2Bits: 144, Type1Bits: 124, InterleaveA: 101, HasCRC16: true, Puncture: Puncture23},
	ChanSTCH:  {Type5Bits: 216, Type2Bits: 144, Type1Bits: 124, InterleaveA: 101, HasCRC16: true, Puncture: Puncture23},
	ChanBNCH:  {Type5Bits: 216, Type2Bits: 144, Type1Bits: 124, InterleaveA: 101, HasCRC16: true, Puncture: Puncture23},
	ChanAACH:  {Type5Bits: 30, Type2Bits: 30, Type1Bits: 14, InterleaveA: 0, HasCRC16: false},
	ChanSCHF:  {Type5Bits: 432, Type2Bits: 288, Type1Bits: 268, InterleaveA: 103, HasCRC16: true, Puncture: Puncture292_432},
	ChanSCHHU: {Type5Bits: 168, Type2Bits: 112, Type1Bits: 92, InterleaveA: 13, HasCRC16: true, Puncture: Puncture112_168},
	ChanTCHS:  {Type5Bits: 432, Type2Bits: 288, Type1Bits: 274, InterleaveA: 103, HasCRC16: false, Puncture: Puncture292_432, MatrixInterl: true},
}

// ParamsFor returns the fixed parameters for a logical channel.
func ParamsFor(c LogicalChannel) (ChannelParams, error) {
	p, ok := channelParamsTable[c]
	if !ok {
		return ChannelParams{}, fmt.Errorf("lmac: no error-control parameters for channel %s", c)
	}
	return p, nil
}

// punctureParams is the (P array, t, period, i-func) tuple for one
// puncturing mode.
type punctureParams struct {
	P      []int
	T      int
	Period int
	IFunc  func(j int) int
}

func identityIFunc(j int) int { return j }

var punctureParamsTable = map[PunctureMode]punctureParams{
	Puncture23:      {P: []int{0, 1, 2, 5}, T: 3, Period: 8, IFunc: identityIFunc},
	Puncture13:      {P: []int{0, 1, 2, 3, 5, 6, 7}, T: 6, Period: 8, IFunc: identityIFunc},
	Puncture292_432: {P: []int{0, 1, 2, 5}, T: 3, Period: 8, IFunc: func(j int) int { return j + (j-1)/65 }},
	Puncture148_432: {P: []int{0, 1, 2, 3, 5, 6, 7}, T: 6, Period: 8, IFunc: func(j int) int { return j + (j-1)/35 }},
	Puncture112_168: {P: []int{0, 1, 2, 4}, T: 3, Period: 6, IFunc: identityIFunc},
	Puncture72_162:  {P: []int{0, 1, 2, 3, 4, 5, 7, 8, 10, 11}, T: 9, Period: 12, IFunc: identityIFunc},
	Puncture38_80: {P: []int{0, 1, 2, 3, 4, 5, 7, 8, 10, 11, 13, 14, 16, 17, 19, 20, 22, 23}, T: 17, Period: 24, IFunc: identityIFunc},
}

package stack

/*-------------------------------------------------------------
 *
 * Purpose:	ACELP codec-order <-> channel-order bit reorder for TCH/S,
 *		grouping the 274 speech bits into sensitivity classes (EN
 *		300 395-2, Table 4) before they enter the (unprotected)
 *		error-control chain. Distinct from the block/matrix
 *		interleaver in interleave.go, which operates on the encoded,
 *		not the codec-order, bit stream.
 *
 *--------------------------------------------------------------*/

// tchsNumAcelpBits is the number of ACELP bits per subframe; TCH/S carries
// two subframes (274 bits total = 2*137).
const tchsNumAcelpBits = 137

// tchsClass0Pos is EN 300 395-2 Table 4's class-0 (unprotected) bit
// positions, 1-indexed within a 137-bit subframe.
var tchsClass0Pos = [51]int{
	35, 36, 37, 38, 39, 40, 41, 42, 43, 47, 48, 56, 61, 62, 63, 64, 65, 66, 67, 68, 69, 70, 74, 75, 83, 88, 89, 90, 91, 92, 93, 94, 95, 96,
	97, 101, 102, 110, 115, 116, 117, 118, 119, 120, 121, 122, 123, 124, 128, 129, 137,
}

// tchsClass1Pos is EN 300 395-2 Table 4's class-1 (medium-sensitivity) bit
// positions, 1-indexed.
var tchsClass1Pos = [56]int{
	58, 85, 112, 54, 81, 108, 135, 50, 77, 104, 131, 45, 72, 99, 126, 55, 82, 109, 136, 5, 13, 34, 8, 16, 17, 22, 23, 24, 25, 26, 6, 14, 7,
	15, 60, 87, 114, 46, 73, 100, 127, 44, 71, 98, 125, 33, 49, 76, 103, 130, 59, 86, 113, 57, 84, 111,
}

// tchsClass2Pos is EN 300 395-2 Table 4's class-2 (most-sensitive) bit
// positions, 1-indexed.
var tchsClass2Pos = [30]int{
	18, 19, 20, 21, 31, 32, 53, 80, 107, 134, 1, 2, 3, 4, 9, 10, 11, 12, 27, 28, 29, 30, 52, 79, 106, 133, 51, 78, 105, 132,
}

// ReorderCodecToChannel reorders a 274-bit ACELP frame (two 137-bit
// subframes in codec/STE order) into channel order: class 0 first, then
// class 1, then class 2, each position taken from subframe 0 then
// subframe 1.
func ReorderCodecToChannel(codecBits []byte) []byte {
	channel := make([]byte, 2*tchsNumAcelpBits)
	outIdx := 0
	for _, classPos := range [][]int{tchsClass0Pos[:], tchsClass1Pos[:], tchsClass2Pos[:]} {
		for _, pos1 := range classPos {
			pos := pos1 - 1
			channel[outIdx] = codecBits[pos]
			channel[outIdx+1] = codecBits[tchsNumAcelpBits+pos]
			outIdx += 2
		}
	}
	return channel
}

// ReorderChannelToCodec inverts ReorderCodecToChannel.
func ReorderChannelToCodec(channelBits []byte) []byte {
	codec := make([]byte, 2*tchsNumAcelpBits)
	inIdx := 0
	for _, classPos := range [][]int{tchsClass0Pos[:], tchsClass1Pos[:], tchsClass2Pos[:]} {
		for _, pos1 := range classPos {
			pos := pos1 - 1
			codec[pos] = channelBits[inIdx]
			codec[tchsNumAcelpBits+pos] = channelBits[inIdx+1]
			inIdx += 2
		}
	}
	return codec
}

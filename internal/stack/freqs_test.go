package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFreqInfo_DownlinkHz(t *testing.T) {
	f := FreqInfo{Band: 4, Carrier: 1000, OffsetHz: 6250}
	assert.Equal(t, int64(4*100_000_000+1000*25_000+6250), f.DownlinkHz())
}

func TestFreqInfo_UplinkUsesTableDefault(t *testing.T) {
	// Duplex setting 0, band 4: 10 MHz below the downlink.
	f := FreqInfo{Band: 4, Carrier: 400, DuplexSpacingID: 0}
	ul, err := f.UplinkHz()
	assert.NoError(t, err)
	assert.Equal(t, f.DownlinkHz()-10_000_000, ul)

	// Setting 1, band 1: the 4.5 MHz entry.
	f = FreqInfo{Band: 1, Carrier: 400, DuplexSpacingID: 1}
	ul, err = f.UplinkHz()
	assert.NoError(t, err)
	assert.Equal(t, f.DownlinkHz()-4_500_000, ul)
}

func TestFreqInfo_SimplexSettingIsZeroSpacing(t *testing.T) {
	f := FreqInfo{Band: 4, Carrier: 400, DuplexSpacingID: 2}
	ul, err := f.UplinkHz()
	assert.NoError(t, err)
	assert.Equal(t, f.DownlinkHz(), ul)
}

func TestFreqInfo_UplinkExplicitOverrideWins(t *testing.T) {
	f := FreqInfo{Band: 4, Carrier: 400, DuplexSpacingID: 0, DuplexSpacingVal: 7_000_000}
	ul, err := f.UplinkHz()
	assert.NoError(t, err)
	assert.Equal(t, f.DownlinkHz()-7_000_000, ul)
}

func TestFreqInfo_ReverseFlipsDirection(t *testing.T) {
	f := FreqInfo{Band: 4, Carrier: 400, DuplexSpacingID: 0, Reverse: true}
	ul, err := f.UplinkHz()
	assert.NoError(t, err)
	assert.Equal(t, f.DownlinkHz()+10_000_000, ul)
}

func TestFreqInfo_MissingTableEntryErrors(t *testing.T) {
	// Setting 0 has no default for band 0; settings 6 and 7 have none
	// at all.
	for _, f := range []FreqInfo{
		{Band: 0, Carrier: 400, DuplexSpacingID: 0},
		{Band: 4, Carrier: 400, DuplexSpacingID: 6},
		{Band: 4, Carrier: 400, DuplexSpacingID: 7},
		{Band: 4, Carrier: 400, DuplexSpacingID: 8},
	} {
		_, err := f.UplinkHz()
		assert.Error(t, err)
	}
}

func TestFreqOffsetCodepoints_RoundTrip(t *testing.T) {
	for id := uint8(0); id < 4; id++ {
		hz, ok := FreqOffsetIDToHz(id)
		assert.True(t, ok)
		back, ok := FreqOffsetHzToID(hz)
		assert.True(t, ok)
		assert.Equal(t, id, back)
	}
	_, ok := FreqOffsetIDToHz(4)
	assert.False(t, ok)
	_, ok = FreqOffsetHzToID(1234)
	assert.False(t, ok)
}

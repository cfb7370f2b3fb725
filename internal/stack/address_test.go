package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// Two disjoint ranges, probing both boundaries of the half-open
// interval.
func TestContains_TwoRanges(t *testing.T) {
	ranges := []SsiRange{{Start: 400, End: 500}, {Start: 100, End: 200}}
	SortDisjoint(ranges)

	assert.True(t, Contains(100, ranges))
	assert.True(t, Contains(150, ranges))
	assert.False(t, Contains(200, ranges))
	assert.False(t, Contains(250, ranges))
	assert.True(t, Contains(450, ranges))
}

// For all x and sorted disjoint range list R, contains(x, R) holds iff
// some r in R has r.start <= x < r.end.
func TestContains_ArbitraryRangeLists(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 8).Draw(t, "n")
		var ranges []SsiRange
		cursor := uint32(0)
		for i := 0; i < n; i++ {
			gap := uint32(rapid.IntRange(0, 20).Draw(t, "gap"))
			width := uint32(rapid.IntRange(1, 20).Draw(t, "width"))
			start := cursor + gap
			ranges = append(ranges, SsiRange{Start: start, End: start + width})
			cursor = start + width
		}
		SortDisjoint(ranges)

		x := uint32(rapid.IntRange(0, int(cursor)+20).Draw(t, "x"))
		want := false
		for _, r := range ranges {
			if x >= r.Start && x < r.End {
				want = true
				break
			}
		}
		assert.Equal(t, want, Contains(x, ranges))
	})
}

func TestTetraAddress_IsIndividualIsGroup(t *testing.T) {
	assert.True(t, TetraAddress{Ssi: 1}.IsIndividual())
	assert.False(t, TetraAddress{Ssi: 1}.IsGroup())
	assert.True(t, TetraAddress{Ssi: 0x400000}.IsGroup())
	assert.False(t, TetraAddress{Ssi: 0x400000}.IsIndividual())
}

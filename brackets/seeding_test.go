package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextPowerOfTwo(t *testing.T) {
	cases := map[int]int{1: 1, 2: 2, 3: 4, 4: 4, 5: 8, 8: 8, 9: 16, 17: 32}
	for n, want := range cases {
		assert.Equal(t, want, NextPowerOfTwo(n), "n=%d", n)
	}
}

func TestSeedPositionsSize8(t *testing.T) {
	assert.Equal(t, []int{1, 8, 4, 5, 2, 7, 3, 6}, SeedPositions(8))
}

func TestSeedPositionsPairsSumToSizePlusOne(t *testing.T) {
	for _, size := range []int{2, 4, 8, 16, 32} {
		positions := SeedPositions(size)
		require.Len(t, positions, size)

		seen := make(map[int]bool, size)
		for _, s := range positions {
			seen[s] = true
		}
		assert.Len(t, seen, size, "size=%d: every seed appears exactly once", size)

		for p := 0; p < size; p += 2 {
			assert.Equal(t, size+1, positions[p]+positions[p+1],
				"size=%d slot pair %d", size, p/2)
		}
	}
}

func TestSeedPositionsTopSeedsInOppositeHalves(t *testing.T) {
	for _, size := range []int{4, 8, 16} {
		positions := SeedPositions(size)
		var slot1, slot2 int
		for i, s := range positions {
			if s == 1 {
				slot1 = i
			}
			if s == 2 {
				slot2 = i
			}
		}
		assert.NotEqual(t, slot1 < size/2, slot2 < size/2,
			"size=%d: seeds 1 and 2 must not share a half", size)
	}
}

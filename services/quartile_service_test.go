package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ascendingItems(values ...float64) []factorItem {
	items := make([]factorItem, len(values))
	for i, v := range values {
		items[i] = factorItem{id: uint(i + 1), value: v}
	}
	sortFactorItems(items)
	return items
}

func TestBandFactorItemsThinCohort(t *testing.T) {
	// 5 members with 3 bands is below the 2x threshold: everyone bands to 0.
	items := ascendingItems(1, 2, 3, 4, 5)
	bands := bandFactorItems(items, 3, false)
	for id, band := range bands {
		assert.Equal(t, 0, band, "member %d", id)
	}
}

func TestBandFactorItemsPartition(t *testing.T) {
	items := ascendingItems(1, 2, 3, 4, 5, 6)
	bands := bandFactorItems(items, 3, false)

	assert.Equal(t, 1, bands[1])
	assert.Equal(t, 1, bands[2])
	assert.Equal(t, 2, bands[3])
	assert.Equal(t, 2, bands[4])
	assert.Equal(t, 3, bands[5])
	assert.Equal(t, 3, bands[6])
}

func TestBandFactorItemsNearZeroBest(t *testing.T) {
	// Trace readings below 0.01 band to 1 regardless of where they rank:
	// member 4 sits in band 2 territory but its 0.004 reading pins it to 1.
	items := ascendingItems(0.001, 0.002, 0.003, 0.004, 1, 2, 3, 4)
	bands := bandFactorItems(items, 3, true)
	assert.Equal(t, 1, bands[4])

	// Without the near-zero rule the same member takes its rank band.
	bands = bandFactorItems(items, 3, false)
	assert.Equal(t, 2, bands[4])
	assert.Equal(t, 3, bands[8])
}

func TestRankFactorItems(t *testing.T) {
	// Ties share a rank: distinct values are 1, 2, 4 at positions 0, 0.5, 1.
	items := ascendingItems(1, 2, 2, 4)
	ranks := rankFactorItems(items)

	assert.InDelta(t, 0, ranks[1], 1e-12)
	assert.InDelta(t, 0.5, ranks[2], 1e-12)
	assert.InDelta(t, 0.5, ranks[3], 1e-12)
	assert.InDelta(t, 1, ranks[4], 1e-12)
}

func TestRankFactorItemsSingleDistinctValue(t *testing.T) {
	items := ascendingItems(7, 7, 7)
	ranks := rankFactorItems(items)
	for id, rank := range ranks {
		assert.InDelta(t, 0, rank, 1e-12, "member %d", id)
	}
}

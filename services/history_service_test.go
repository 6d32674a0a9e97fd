package services

import (
	"testing"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func historyClickAt(productID, categoryID uint, value float32, ts time.Time) historyClick {
	return historyClick{
		ProductID:  productID,
		CategoryID: categoryID,
		Embedding:  pgvector.NewVector([]float32{value}),
		ClickedAt:  ts,
	}
}

func TestAggregateClickHistoryGates(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// Category 1: 11 clicks over 6 distinct products, passes both gates.
	// Category 2: a single click, dropped.
	var clicks []historyClick
	for i := 0; i < 11; i++ {
		clicks = append(clicks, historyClickAt(uint(i%6+1), 1, 1, base.Add(time.Duration(i)*time.Minute)))
	}
	clicks = append(clicks, historyClickAt(100, 2, 1, base))

	profiles := aggregateClickHistory(clicks)
	require.Len(t, profiles, 1)
	assert.Equal(t, uint(1), profiles[0].CategoryID)
	assert.Equal(t, 11, profiles[0].TotalClicks)
	assert.Equal(t, base.Add(10*time.Minute), profiles[0].LastClickedAt)
}

func TestAggregateClickHistoryDistinctProductGate(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// 12 clicks but only 4 distinct products: the distinct gate drops it.
	var clicks []historyClick
	for i := 0; i < 12; i++ {
		clicks = append(clicks, historyClickAt(uint(i%4+1), 1, 1, base.Add(time.Duration(i)*time.Minute)))
	}

	assert.Empty(t, aggregateClickHistory(clicks))
}

func TestAggregateClickHistoryRecencyWeights(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// Embedding values 0..9 clicked a second apart. Weight of click i is i/9,
	// so the weighted mean is sum(i*i)/sum(i) = 285/45.
	var clicks []historyClick
	for i := 0; i < 10; i++ {
		clicks = append(clicks, historyClickAt(uint(i%5+1), 1, float32(i), base.Add(time.Duration(i)*time.Second)))
	}

	profiles := aggregateClickHistory(clicks)
	require.Len(t, profiles, 1)
	mean := profiles[0].MeanEmbedding.Slice()
	require.Len(t, mean, 1)
	assert.InDelta(t, 285.0/45.0, float64(mean[0]), 1e-4)
}

func TestAggregateClickHistoryZeroWidthWindow(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// All clicks share one timestamp: recency weighting degenerates and the
	// plain mean (0+..+9)/10 = 4.5 stands in.
	var clicks []historyClick
	for i := 0; i < 10; i++ {
		clicks = append(clicks, historyClickAt(uint(i%5+1), 1, float32(i), base))
	}

	profiles := aggregateClickHistory(clicks)
	require.Len(t, profiles, 1)
	mean := profiles[0].MeanEmbedding.Slice()
	require.Len(t, mean, 1)
	assert.InDelta(t, 4.5, float64(mean[0]), 1e-5)
}

func TestAggregateClickHistoryOrdering(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	var clicks []historyClick
	for i := 0; i < 10; i++ {
		clicks = append(clicks, historyClickAt(uint(i%5+1), 1, 1, base.Add(time.Duration(i)*time.Second)))
	}
	for i := 0; i < 10; i++ {
		clicks = append(clicks, historyClickAt(uint(i%5+20), 2, 1, base.Add(time.Hour).Add(time.Duration(i)*time.Second)))
	}

	profiles := aggregateClickHistory(clicks)
	require.Len(t, profiles, 2)
	assert.Equal(t, uint(2), profiles[0].CategoryID, "most recently clicked category first")
	assert.Equal(t, uint(1), profiles[1].CategoryID)
}

func TestWeightedScore(t *testing.T) {
	// Without a health score only the similarity half counts.
	assert.InDelta(t, 0.4, weightedScore(0.8, nil), 1e-9)

	// sigmoid(0) = 0.5: a neutral score contributes a flat 0.25.
	zero := 0.0
	assert.InDelta(t, 0.65, weightedScore(0.8, &zero), 1e-9)

	// Higher scores pull the blend up, lower scores pull it down.
	high, low := 3.0, -3.0
	assert.Greater(t, weightedScore(0.8, &high), weightedScore(0.8, &zero))
	assert.Less(t, weightedScore(0.8, &low), weightedScore(0.8, &zero))
}

package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ynshung/mynutriapps-server/models"
)

func wellSupportedScore(score float64) models.GoalScore {
	return models.GoalScore{
		Score: score,
		Total: 4,
		ScoreBreakdown: map[string]float64{
			"protein": 0.1, "sugar": -0.1, "fiber": 0.2, "sodium": -0.2,
		},
	}
}

func relatedCandidate(id uint, similarity float64, scores models.ScoreMap, facts map[string]float64, additives []string) RelatedCandidate {
	c := RelatedCandidate{
		SimilarProduct: SimilarProduct{ID: id, Similarity: similarity, Score: scores},
		Additives:      additives,
	}
	if facts != nil {
		c.Nutrition = nutritionWith(facts)
	}
	return c
}

func TestBuildRecommendedScoreGates(t *testing.T) {
	current := &models.FoodProduct{Model: gorm.Model{ID: 1}}

	thin := models.GoalScore{
		Score:          2,
		Total:          3,
		ScoreBreakdown: map[string]float64{"protein": 1, "sugar": 0.5, "fiber": 0.5},
	}
	candidates := []RelatedCandidate{
		// No score for the goal at all.
		relatedCandidate(2, 0.9, models.ScoreMap{models.GoalLoseWeight: wellSupportedScore(1)}, nil, nil),
		// Scored, but on 3 factors or fewer.
		relatedCandidate(3, 0.9, models.ScoreMap{models.GoalImproveHealth: thin}, nil, nil),
		// Well supported, survives.
		relatedCandidate(4, 0.9, models.ScoreMap{models.GoalImproveHealth: wellSupportedScore(1)}, nil, nil),
	}

	recommended := buildRecommended(current, candidates, models.GoalImproveHealth)
	require.Len(t, recommended, 1)
	assert.Equal(t, uint(4), recommended[0].ID)
	assert.Nil(t, recommended[0].ScoreDiff, "compared product has no score for the goal")
}

func TestBuildRecommendedRequiresCandidateNutrition(t *testing.T) {
	current := &models.FoodProduct{
		Model:     gorm.Model{ID: 1},
		Nutrition: nutritionWith(map[string]float64{"sugar": 10}),
	}

	candidates := []RelatedCandidate{
		relatedCandidate(2, 0.8, models.ScoreMap{models.GoalImproveHealth: wellSupportedScore(1)}, nil, nil),
		relatedCandidate(3, 0.8, models.ScoreMap{models.GoalImproveHealth: wellSupportedScore(1)}, map[string]float64{"sugar": 5}, nil),
	}

	recommended := buildRecommended(current, candidates, models.GoalImproveHealth)
	require.Len(t, recommended, 1)
	assert.Equal(t, uint(3), recommended[0].ID)
}

func TestBuildRecommendedNutritionDeltas(t *testing.T) {
	current := &models.FoodProduct{
		Model: gorm.Model{ID: 1},
		Nutrition: nutritionWith(map[string]float64{
			"sugar":   10,
			"protein": 0, // zero baseline: no relative delta possible
			"sodium":  400,
		}),
		Additives: []string{"E330"},
		Score: datatypes.NewJSONType(models.ScoreMap{
			models.GoalImproveHealth: wellSupportedScore(0.5),
		}),
	}

	candidates := []RelatedCandidate{
		relatedCandidate(2, 0.8,
			models.ScoreMap{models.GoalImproveHealth: wellSupportedScore(2.0)},
			map[string]float64{"sugar": 5, "protein": 8, "fiber": 3},
			[]string{"E330", "E471", "E202"}),
	}

	recommended := buildRecommended(current, candidates, models.GoalImproveHealth)
	require.Len(t, recommended, 1)
	rec := recommended[0]

	// (5 - 10) / |10| = -0.5, and less sugar is better under improveHealth.
	assert.InDelta(t, -0.5, rec.NutritionComparison["sugar"], 1e-9)
	assert.False(t, rec.MoreIsBetter["sugar"])

	// Zero baseline and one-sided values produce no comparison entry.
	assert.NotContains(t, rec.NutritionComparison, "protein")
	assert.NotContains(t, rec.NutritionComparison, "fiber")
	assert.NotContains(t, rec.NutritionComparison, "sodium")

	// The additive entry is a raw count difference, not a ratio.
	assert.InDelta(t, 2, rec.NutritionComparison[models.AdditivesKey], 1e-12)
	assert.False(t, rec.MoreIsBetter[models.AdditivesKey])

	require.NotNil(t, rec.ScoreDiff)
	assert.InDelta(t, 1.5, *rec.ScoreDiff, 1e-9)
}

func TestBuildRecommendedOrdering(t *testing.T) {
	current := &models.FoodProduct{Model: gorm.Model{ID: 1}}

	candidates := []RelatedCandidate{
		relatedCandidate(2, 0.6, models.ScoreMap{models.GoalImproveHealth: wellSupportedScore(0)}, nil, nil),
		relatedCandidate(3, 0.9, models.ScoreMap{models.GoalImproveHealth: wellSupportedScore(0)}, nil, nil),
		relatedCandidate(4, 0.6, models.ScoreMap{models.GoalImproveHealth: wellSupportedScore(5)}, nil, nil),
	}

	recommended := buildRecommended(current, candidates, models.GoalImproveHealth)
	require.Len(t, recommended, 3)

	// Blend of similarity and squashed score decides the order: the high
	// scorer beats the high-similarity neutral candidate.
	assert.Equal(t, uint(4), recommended[0].ID)
	assert.Equal(t, uint(3), recommended[1].ID)
	assert.Equal(t, uint(2), recommended[2].ID)
	assert.GreaterOrEqual(t, recommended[0].WeightedScore, recommended[1].WeightedScore)
	assert.GreaterOrEqual(t, recommended[1].WeightedScore, recommended[2].WeightedScore)
}

package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ynshung/mynutriapps-server/models"
)

func nutritionWith(facts map[string]float64) *models.NutritionInfo {
	n := &models.NutritionInfo{}
	for key, v := range facts {
		d := decimal.NewNullDecimal(decimal.NewFromFloat(v))
		switch key {
		case "calories":
			n.Calories = d
		case "fat":
			n.Fat = d
		case "carbs":
			n.Carbs = d
		case "protein":
			n.Protein = d
		case "sugar":
			n.Sugar = d
		case "fiber":
			n.Fiber = d
		case "sodium":
			n.Sodium = d
		case "cholesterol":
			n.Cholesterol = d
		case "monounsaturatedFat":
			n.MonounsaturatedFat = d
		case "polyunsaturatedFat":
			n.PolyunsaturatedFat = d
		case "saturatedFat":
			n.SaturatedFat = d
		case "transFat":
			n.TransFat = d
		}
	}
	return n
}

func cohortProduct(id uint, ingredients string, additives []string, facts map[string]float64) models.FoodProduct {
	return models.FoodProduct{
		Model:       gorm.Model{ID: id},
		Ingredients: ingredients,
		Additives:   additives,
		Nutrition:   nutritionWith(facts),
	}
}

func rankedIDs(entries []ProductScoreEntry) []uint {
	ids := make([]uint, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

func TestScoreCohortGatesLowCoverage(t *testing.T) {
	full := map[string]float64{
		"protein": 12, "sugar": 4, "saturatedFat": 1.5, "sodium": 300, "fiber": 6,
	}
	sparse := map[string]float64{"fiber": 2, "sugar": 20}

	cohort := []models.FoodProduct{
		cohortProduct(1, "oats, honey", []string{"E330"}, full),
		cohortProduct(2, "oats, honey", nil, map[string]float64{
			"protein": 8, "sugar": 10, "saturatedFat": 3, "sodium": 500, "fiber": 2,
		}),
		cohortProduct(3, "oats", []string{"E330", "E471"}, map[string]float64{
			"protein": 5, "sugar": 18, "saturatedFat": 4, "sodium": 700, "fiber": 1,
		}),
		cohortProduct(4, "oats, salt", nil, map[string]float64{
			"protein": 10, "sugar": 6, "saturatedFat": 2, "sodium": 400, "fiber": 4,
		}),
		// Only two weighted factors present and no ingredient text: gated out.
		cohortProduct(5, "", nil, sparse),
		cohortProduct(6, "", nil, sparse),
	}

	ranked, dropped := scoreCohort(cohort, models.GoalImproveHealth, ScoreBandCount)

	assert.ElementsMatch(t, []uint{1, 2, 3, 4}, rankedIDs(ranked))
	assert.ElementsMatch(t, []uint{5, 6}, dropped)
	for _, entry := range ranked {
		assert.GreaterOrEqual(t, entry.Total, 3, "product %d", entry.ID)
		assert.Len(t, entry.ScoreBreakdown, entry.Total)
	}
}

func TestScoreCohortZScoreContributions(t *testing.T) {
	// Sugar is the only factor with variance: values 0 and 10, mean 5,
	// population std 5, so the z-scores are -1 and +1. With the improveHealth
	// sugar weight of -0.5 the low-sugar product scores +0.5.
	cohort := []models.FoodProduct{
		cohortProduct(1, "", nil, map[string]float64{"sugar": 0, "protein": 5, "fiber": 2}),
		cohortProduct(2, "", nil, map[string]float64{"sugar": 10, "protein": 5, "fiber": 2}),
	}

	ranked, dropped := scoreCohort(cohort, models.GoalImproveHealth, 0)
	require.Len(t, ranked, 2)
	assert.Empty(t, dropped)

	assert.Equal(t, uint(1), ranked[0].ID)
	assert.InDelta(t, 0.5, ranked[0].Score, 1e-9)
	assert.InDelta(t, -0.5, ranked[1].Score, 1e-9)

	// Zero-variance factors contribute exactly 0 but still count as present.
	assert.InDelta(t, 0, ranked[0].ScoreBreakdown["protein"], 1e-12)
	assert.InDelta(t, 0, ranked[0].ScoreBreakdown["fiber"], 1e-12)
	assert.Equal(t, 3, ranked[0].Total)
}

func TestScoreCohortZeroSugarStillContributes(t *testing.T) {
	// A recorded zero is a real value, not a missing one: the zero-sugar
	// product must carry a sugar entry in its breakdown.
	cohort := []models.FoodProduct{
		cohortProduct(1, "", nil, map[string]float64{"sugar": 0, "protein": 1, "fiber": 1}),
		cohortProduct(2, "", nil, map[string]float64{"sugar": 8, "protein": 2, "fiber": 2}),
		cohortProduct(3, "", nil, map[string]float64{"sugar": 4, "protein": 3, "fiber": 3}),
	}

	ranked, _ := scoreCohort(cohort, models.GoalImproveHealth, 0)
	require.Len(t, ranked, 3)
	for _, entry := range ranked {
		assert.Contains(t, entry.ScoreBreakdown, "sugar")
	}
}

func TestScoreCohortIdempotent(t *testing.T) {
	cohort := []models.FoodProduct{
		cohortProduct(1, "a", []string{"E330"}, map[string]float64{"protein": 3, "sugar": 9, "fiber": 1}),
		cohortProduct(2, "b", nil, map[string]float64{"protein": 7, "sugar": 2, "fiber": 4}),
		cohortProduct(3, "c", []string{"E471", "E202"}, map[string]float64{"protein": 5, "sugar": 5, "fiber": 2}),
	}
	reversed := []models.FoodProduct{cohort[2], cohort[1], cohort[0]}

	ranked1, dropped1 := scoreCohort(cohort, models.GoalLoseWeight, ScoreBandCount)
	ranked2, dropped2 := scoreCohort(reversed, models.GoalLoseWeight, ScoreBandCount)

	assert.Equal(t, ranked1, ranked2)
	assert.ElementsMatch(t, dropped1, dropped2)
}

func TestScoreCohortBandPartition(t *testing.T) {
	var cohort []models.FoodProduct
	for i := 1; i <= 12; i++ {
		cohort = append(cohort, cohortProduct(uint(i), "", nil, map[string]float64{
			"protein": float64(i), "sugar": 1, "fiber": 1,
		}))
	}

	ranked, _ := scoreCohort(cohort, models.GoalImproveHealth, ScoreBandCount)
	require.Len(t, ranked, 12)

	counts := make(map[int]int)
	prev := 0
	for _, entry := range ranked {
		assert.GreaterOrEqual(t, entry.Quartile, prev, "bands must not decrease down the ranking")
		prev = entry.Quartile
		counts[entry.Quartile]++
	}
	for band := 1; band <= ScoreBandCount; band++ {
		assert.Equal(t, 2, counts[band], "band %d", band)
	}

	// Highest protein ranks first under a positive protein weight.
	assert.Equal(t, uint(12), ranked[0].ID)
	assert.Equal(t, 1, ranked[0].Quartile)
	assert.Equal(t, uint(1), ranked[11].ID)
	assert.Equal(t, ScoreBandCount, ranked[11].Quartile)
}

func TestScoreCohortAdditiveNormalization(t *testing.T) {
	// Additive counts min-max normalize over products with ingredient text;
	// the blank-ingredient product gets no additive factor at all.
	cohort := []models.FoodProduct{
		cohortProduct(1, "water, salt", nil, map[string]float64{"protein": 1, "sugar": 1, "fiber": 1}),
		cohortProduct(2, "water, salt, E330, E471", []string{"E330", "E471"}, map[string]float64{"protein": 1, "sugar": 1, "fiber": 1}),
		cohortProduct(3, "", nil, map[string]float64{"protein": 1, "sugar": 1, "fiber": 1, "sodium": 2}),
	}

	ranked, _ := scoreCohort(cohort, models.GoalImproveHealth, 0)
	require.Len(t, ranked, 3)

	byID := make(map[uint]ProductScoreEntry)
	for _, entry := range ranked {
		byID[entry.ID] = entry
	}

	assert.InDelta(t, 0, byID[1].ScoreBreakdown[models.AdditivesKey], 1e-12)
	assert.InDelta(t, -1.0, byID[2].ScoreBreakdown[models.AdditivesKey], 1e-9)
	assert.NotContains(t, byID[3].ScoreBreakdown, models.AdditivesKey)
}

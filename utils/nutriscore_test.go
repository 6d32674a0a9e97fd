package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectNutriScoreProductType(t *testing.T) {
	testCases := []struct {
		category string
		expected NutriScoreProductType
	}{
		{"Drinking Water", NutriScoreWater},
		{"Cheddar Cheese", NutriScoreCheese},
		{"Cooking Oils", NutriScoreFONS},
		{"Nuts & Trail Mixes", NutriScoreFONS},
		{"Soft Drinks", NutriScoreBeverage},
		{"Juice & Cordials", NutriScoreBeverage},
		{"Instant Coffee", NutriScoreBeverage},
		{"Breakfast Cereals", NutriScoreGeneral},
		{"Canned Fish", NutriScoreGeneral},
	}

	for _, tc := range testCases {
		t.Run(tc.category, func(t *testing.T) {
			assert.Equal(t, tc.expected, DetectNutriScoreProductType(tc.category))
		})
	}
}

func TestCalculateNutriScoreUndetermined(t *testing.T) {
	// Missing energy or saturated fat means no grade at all.
	_, ok := CalculateNutriScore(NutriScoreInput{
		Type:         NutriScoreGeneral,
		Energy:       math.NaN(),
		SaturatedFat: 3,
	})
	assert.False(t, ok)

	_, ok = CalculateNutriScore(NutriScoreInput{
		Type:         NutriScoreGeneral,
		Energy:       1000,
		SaturatedFat: math.NaN(),
	})
	assert.False(t, ok)
}

func TestCalculateNutriScoreWater(t *testing.T) {
	// Water short-circuits to A even with nonsense nutrient values.
	grade, ok := CalculateNutriScore(NutriScoreInput{
		Type:         NutriScoreWater,
		Energy:       math.NaN(),
		SaturatedFat: math.NaN(),
		Sugar:        99,
	})
	assert.True(t, ok)
	assert.Equal(t, "A", grade)
}

func TestCalculateNutriScoreGeneral(t *testing.T) {
	// energy 1000 -> 2, satFat 3 -> 2, sugar 15 -> 4, salt 0.5 -> 2:
	// N = 10 < 11, so only fiber (4g -> 1) offsets: 10 - 1 = 9 -> C.
	grade, ok := CalculateNutriScore(NutriScoreInput{
		Type:         NutriScoreGeneral,
		Energy:       1000,
		SaturatedFat: 3,
		Sugar:        15,
		Salt:         0.5,
		Protein:      5,
		Fiber:        4,
	})
	assert.True(t, ok)
	assert.Equal(t, "C", grade)
}

func TestCalculateNutriScoreCheeseKeepsProteinPenalty(t *testing.T) {
	// N = 5+6+11+4 = 26. General offsets protein too (26-9=17 -> D);
	// cheese only subtracts fiber (26-2=24 -> E).
	input := NutriScoreInput{
		Energy:       2000,
		SaturatedFat: 6,
		Sugar:        40,
		Salt:         1.0,
		Protein:      20,
		Fiber:        5,
	}

	input.Type = NutriScoreGeneral
	grade, ok := CalculateNutriScore(input)
	assert.True(t, ok)
	assert.Equal(t, "D", grade)

	input.Type = NutriScoreCheese
	grade, ok = CalculateNutriScore(input)
	assert.True(t, ok)
	assert.Equal(t, "E", grade)
}

func TestCalculateNutriScoreBeverage(t *testing.T) {
	input := NutriScoreInput{
		Type:         NutriScoreBeverage,
		Energy:       500,
		SaturatedFat: 0,
		Sugar:        10,
		Salt:         0.1,
		Ingredients:  "water, sugar, flavouring",
	}

	// 1+0+2+1 = 4 -> C
	grade, ok := CalculateNutriScore(input)
	assert.True(t, ok)
	assert.Equal(t, "C", grade)

	// Sweetener in the ingredient list adds a flat 4 points: 8 -> D.
	input.Ingredients = "water, maltitol (E965), flavouring"
	grade, ok = CalculateNutriScore(input)
	assert.True(t, ok)
	assert.Equal(t, "D", grade)
}

func TestCalculateNutriScoreBeverageNeverA(t *testing.T) {
	grade, ok := CalculateNutriScore(NutriScoreInput{
		Type:         NutriScoreBeverage,
		Energy:       0,
		SaturatedFat: 0,
		Fiber:        5,
		Protein:      9,
	})
	assert.True(t, ok)
	assert.Equal(t, "B", grade)
}

func TestCalculateNutriScoreFONS(t *testing.T) {
	// satFatEnergy 188.3 -> 1 point, everything else 0; N = 1 < 7 so the
	// full favourable side applies: 1 - (7+5) = -11 -> A.
	grade, ok := CalculateNutriScore(NutriScoreInput{
		Type:         NutriScoreFONS,
		Energy:       2500,
		SaturatedFat: 5,
		Sugar:        2,
		Salt:         0.1,
		Protein:      20,
		Fiber:        8,
	})
	assert.True(t, ok)
	assert.Equal(t, "A", grade)
}

func TestCalculatePoints(t *testing.T) {
	thresholds := []float64{1, 2, 3}
	assert.Equal(t, 0, calculatePoints(0.5, thresholds))
	assert.Equal(t, 0, calculatePoints(1, thresholds)) // boundary is strict
	assert.Equal(t, 1, calculatePoints(1.5, thresholds))
	assert.Equal(t, 3, calculatePoints(99, thresholds))
}

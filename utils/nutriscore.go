package utils

import (
	"math"
	"strings"
)

// NutriScoreProductType is the archetype a product is graded under. The
// archetype decides which threshold tables and final banding apply.
type NutriScoreProductType string

const (
	NutriScoreGeneral  NutriScoreProductType = "general"
	NutriScoreFONS     NutriScoreProductType = "fons" // fats, oils, nuts and seeds
	NutriScoreBeverage NutriScoreProductType = "beverage"
	NutriScoreCheese   NutriScoreProductType = "cheese"
	NutriScoreWater    NutriScoreProductType = "water"
)

// sweetenersList triggers the beverage sweetener penalty when any entry
// appears in the ingredient text.
var sweetenersList = []string{
	"E420", "sorbitol",
	"E421", "mannitol",
	"E953", "isomalt",
	"E956", "alitame",
	"E964", "polyglycitol syrup",
	"E965", "maltitol",
	"E966", "lactitol",
	"E967", "xylitol",
	"E968", "erythritol",
}

// DetectNutriScoreProductType maps a category name to an archetype by keyword
// matching. First match wins, most specific first.
func DetectNutriScoreProductType(categoryName string) NutriScoreProductType {
	name := strings.ToLower(categoryName)

	switch {
	case strings.Contains(name, "drinking water"):
		return NutriScoreWater
	case strings.Contains(name, "cheese"):
		return NutriScoreCheese
	case strings.Contains(name, "fats"),
		strings.Contains(name, "oil"),
		strings.Contains(name, "nuts"),
		strings.Contains(name, "seeds"):
		return NutriScoreFONS
	case strings.Contains(name, "beverage"),
		strings.Contains(name, "powder"),
		strings.Contains(name, "cordial"),
		strings.Contains(name, "drink"),
		strings.Contains(name, "syrup"),
		strings.Contains(name, "juice"),
		strings.Contains(name, "soda"),
		strings.Contains(name, "tea"),
		strings.Contains(name, "coffee"),
		strings.Contains(name, "milk"),
		strings.Contains(name, "cola"),
		strings.Contains(name, "yogurt"):
		return NutriScoreBeverage
	default:
		return NutriScoreGeneral
	}
}

// NutriScoreInput carries the nutrient vector for one product. Missing values
// are NaN; energy is kJ per 100g, salt in g per 100g.
type NutriScoreInput struct {
	Type         NutriScoreProductType
	Energy       float64
	SaturatedFat float64
	Sugar        float64
	Salt         float64
	Protein      float64
	Fiber        float64
	// FVPS is the fruit/vegetable/legume percentage. No data source provides
	// it yet, so callers pass 0.
	FVPS        float64
	Ingredients string
}

// calculatePoints returns the index (1-based) of the highest threshold the
// value exceeds, 0 when none is exceeded. Thresholds must be ascending.
func calculatePoints(value float64, thresholds []float64) int {
	for i := len(thresholds) - 1; i >= 0; i-- {
		if value > thresholds[i] {
			return i + 1
		}
	}
	return 0
}

// CalculateNutriScore grades a nutrient vector A-E. The second return is
// false when the grade is undetermined (missing energy or saturated fat, or
// an unknown archetype). Pure function, no side effects.
func CalculateNutriScore(in NutriScoreInput) (string, bool) {
	if in.Type == NutriScoreWater {
		return "A", true
	}

	if math.IsNaN(in.Energy) || math.IsNaN(in.SaturatedFat) {
		return "", false
	}

	switch in.Type {
	case NutriScoreGeneral, NutriScoreCheese:
		return generalNutriScore(in), true
	case NutriScoreFONS:
		return fonsNutriScore(in), true
	case NutriScoreBeverage:
		return beverageNutriScore(in), true
	default:
		return "", false
	}
}

func fvpsPoints(fvps float64) int {
	switch {
	case fvps > 80:
		return 5
	case fvps > 60:
		return 2
	case fvps > 40:
		return 1
	default:
		return 0
	}
}

func generalNutriScore(in NutriScoreInput) string {
	energyThresholds := []float64{335, 670, 1005, 1340, 1675, 2010, 2345, 2680, 3015, 3350}
	satFatThresholds := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	sugarThresholds := []float64{3.4, 6.8, 10, 14, 17, 20, 24, 27, 31, 34, 37, 41, 44, 48, 51}
	saltThresholds := []float64{0.2, 0.4, 0.6, 0.8, 1, 1.2, 1.4, 1.6, 1.8, 2, 2.2, 2.4, 2.6, 2.8, 3}

	proteinThresholds := []float64{2.4, 4.8, 7.2, 9.6, 12, 14, 17}
	fiberThresholds := []float64{3.0, 4.1, 5.2, 6.3, 7.4}

	// Unfavourable components
	nPoints := calculatePoints(in.Energy, energyThresholds) +
		calculatePoints(in.SaturatedFat, satFatThresholds) +
		calculatePoints(in.Sugar, sugarThresholds) +
		calculatePoints(in.Salt, saltThresholds)

	// Favourable components
	proteinPoints := calculatePoints(in.Protein, proteinThresholds)
	fiberPoints := calculatePoints(in.Fiber, fiberThresholds)
	fvps := fvpsPoints(in.FVPS)
	pPoints := proteinPoints + fiberPoints + fvps

	// High unfavourable totals (and cheese, always) lose the protein offset.
	var totalScore int
	if nPoints < 11 || in.Type == NutriScoreCheese {
		totalScore = nPoints - fiberPoints - fvps
	} else {
		totalScore = nPoints - pPoints
	}

	switch {
	case totalScore <= 0:
		return "A"
	case totalScore <= 2:
		return "B"
	case totalScore <= 10:
		return "C"
	case totalScore <= 18:
		return "D"
	default:
		return "E"
	}
}

func fonsNutriScore(in NutriScoreInput) string {
	// Saturated-fat energy stands in for plain energy in this archetype.
	satFatEnergy := in.SaturatedFat * 37.66
	satFatEnergyThresholds := []float64{120, 240, 360, 480, 600, 720, 840, 960, 1080, 1200}
	sugarThresholds := []float64{3.4, 6.8, 10, 14, 17, 20, 24, 27, 31, 34, 37, 41, 44, 48, 51}
	satFatThresholds := []float64{10, 16, 22, 28, 34, 40, 46, 52, 58, 64}
	saltThresholds := []float64{0.2, 0.4, 0.6, 0.8, 1, 1.2, 1.4, 1.6, 1.8, 2, 2.2, 2.4, 2.6, 2.8, 3}

	proteinThresholds := []float64{2.4, 4.8, 7.2, 9.6, 12, 14, 17}
	fiberThresholds := []float64{3.0, 4.1, 5.2, 6.3, 7.4}

	nPoints := calculatePoints(satFatEnergy, satFatEnergyThresholds) +
		calculatePoints(in.Sugar, sugarThresholds) +
		calculatePoints(in.SaturatedFat, satFatThresholds) +
		calculatePoints(in.Salt, saltThresholds)

	proteinPoints := calculatePoints(in.Protein, proteinThresholds)
	fiberPoints := calculatePoints(in.Fiber, fiberThresholds)
	fvps := fvpsPoints(in.FVPS)
	pPoints := proteinPoints + fiberPoints + fvps

	var totalScore int
	if nPoints >= 7 {
		totalScore = nPoints - fiberPoints - fvps
	} else {
		totalScore = nPoints - pPoints
	}

	switch {
	case totalScore <= -6:
		return "A"
	case totalScore <= 2:
		return "B"
	case totalScore <= 10:
		return "C"
	case totalScore <= 18:
		return "D"
	default:
		return "E"
	}
}

func beverageNutriScore(in NutriScoreInput) string {
	energyThresholds := []float64{335, 670, 1005, 1340, 1675, 2010, 2345, 2680, 3015, 3350}
	satFatThresholds := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	sugarThresholds := []float64{4.5, 9, 13.5, 18, 22.5, 27, 31, 36, 40, 45}
	saltThresholds := []float64{0.09, 0.18, 0.27, 0.36, 0.45, 0.54, 0.63, 0.72, 0.81, 0.9}

	fiberThresholds := []float64{0.7, 1.4, 2.1, 2.8, 3.5}
	proteinThresholds := []float64{1.6, 3.2, 4.8, 6.4, 8.0}

	sweetenerPoints := 0
	ingredients := strings.ToLower(in.Ingredients)
	for _, sweetener := range sweetenersList {
		if strings.Contains(ingredients, strings.ToLower(sweetener)) {
			sweetenerPoints = 4
			break
		}
	}

	nPoints := calculatePoints(in.Energy, energyThresholds) +
		calculatePoints(in.SaturatedFat, satFatThresholds) +
		calculatePoints(in.Sugar, sugarThresholds) +
		calculatePoints(in.Salt, saltThresholds) +
		sweetenerPoints

	var fvps int
	switch {
	case in.FVPS >= 80:
		fvps = 5
	case in.FVPS >= 60:
		fvps = 2
	case in.FVPS >= 40:
		fvps = 1
	}
	pPoints := calculatePoints(in.Fiber, fiberThresholds) +
		calculatePoints(in.Protein, proteinThresholds) +
		fvps

	totalScore := nPoints - pPoints

	// Beverages never band to A; only water is graded A.
	switch {
	case totalScore <= 2:
		return "B"
	case totalScore <= 6:
		return "C"
	case totalScore <= 9:
		return "D"
	default:
		return "E"
	}
}

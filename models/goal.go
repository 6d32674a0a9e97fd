package models

// Goal is a user-selected health objective. Each goal carries a fixed weight
// vector over the nutrition fact keys plus the additive count: positive means
// more is better, negative means more is worse, zero means ignored.
type Goal string

const (
	GoalImproveHealth      Goal = "improveHealth"
	GoalLoseWeight         Goal = "loseWeight"
	GoalImprovePerformance Goal = "improvePerformance"
	GoalChronicDisease     Goal = "chronicDisease"
)

// AllGoals lists every goal the score engine computes for.
var AllGoals = []Goal{
	GoalImproveHealth,
	GoalLoseWeight,
	GoalImprovePerformance,
	GoalChronicDisease,
}

func (g Goal) Valid() bool {
	for _, goal := range AllGoals {
		if g == goal {
			return true
		}
	}
	return false
}

// NutritionFactKeys enumerates the numeric columns of nutrition_info that
// participate in scoring and quartile evaluation. Order matters: scoring walks
// the keys in this order so repeated runs sum contributions identically.
var NutritionFactKeys = []string{
	"calories",
	"fat",
	"protein",
	"carbs",
	"sugar",
	"fiber",
	"sodium",
	"cholesterol",
	"monounsaturatedFat",
	"polyunsaturatedFat",
	"saturatedFat",
	"transFat",
}

// AdditivesKey is the pseudo-factor for the additive count.
const AdditivesKey = "additives"

// GoalWeightage holds the per-goal factor weights.
var GoalWeightage = map[Goal]map[string]float64{
	GoalImproveHealth: {
		"calories":           0.0,
		"fat":                0.0,
		"carbs":              0.0,
		"protein":            0.5,
		"sugar":              -0.5,
		"monounsaturatedFat": 0.5,
		"polyunsaturatedFat": 0.5,
		"saturatedFat":       -1.0,
		"transFat":           -1.5,
		"cholesterol":        0.0,
		"sodium":             -1.0,
		"fiber":              0.8,
		AdditivesKey:         -1.0,
	},
	GoalLoseWeight: {
		"calories":           -1.0,
		"fat":                -0.5,
		"carbs":              -1.0,
		"protein":            1.0,
		"sugar":              -1.0,
		"monounsaturatedFat": 0.8,
		"polyunsaturatedFat": 0.8,
		"saturatedFat":       -1.5,
		"transFat":           -1.5,
		"cholesterol":        -0.2,
		"sodium":             -1.2,
		"fiber":              1.5,
		AdditivesKey:         -1.0,
	},
	GoalImprovePerformance: {
		"calories":           1.0,
		"fat":                0.5,
		"carbs":              1.0,
		"protein":            1.5,
		"sugar":              -0.8,
		"monounsaturatedFat": 1.0,
		"polyunsaturatedFat": 1.0,
		"saturatedFat":       -1.0,
		"transFat":           -1.5,
		"cholesterol":        0.0,
		"sodium":             -1.0,
		"fiber":              0.8,
		AdditivesKey:         -1.0,
	},
	GoalChronicDisease: {
		"calories":           0.0,
		"fat":                0.0,
		"carbs":              0.0,
		"protein":            0.5,
		"sugar":              -1.2,
		"monounsaturatedFat": 0.8,
		"polyunsaturatedFat": 0.8,
		"saturatedFat":       -1.5,
		"transFat":           -1.5,
		"cholesterol":        -0.5,
		"sodium":             -1.5,
		"fiber":              1.2,
		AdditivesKey:         -1.5,
	},
}

// WeightedFactorKeys returns the factor keys with a non-zero weight for the
// goal, in the deterministic scoring order (nutrition facts first, additives
// last).
func WeightedFactorKeys(goal Goal) []string {
	weights := GoalWeightage[goal]
	keys := make([]string, 0, len(weights))
	for _, key := range NutritionFactKeys {
		if weights[key] != 0 {
			keys = append(keys, key)
		}
	}
	if weights[AdditivesKey] != 0 {
		keys = append(keys, AdditivesKey)
	}
	return keys
}

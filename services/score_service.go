package services

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/ynshung/mynutriapps-server/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Band counts: the persisted score table uses finer bands than the quartile
// display variant.
const (
	ScoreBandCount    = 6
	QuartileBandCount = 3
)

// ScoreService ranks the products of one category against a goal's weight
// vector. All normalization happens within the category cohort.
type ScoreService struct {
	db *gorm.DB
}

func NewScoreService(db *gorm.DB) *ScoreService { return &ScoreService{db: db} }

// ProductScoreEntry is one ranked product of a category score run.
type ProductScoreEntry struct {
	ID             uint               `json:"id"`
	Score          float64            `json:"score"`
	Total          int                `json:"total"`
	Quartile       int                `json:"quartile"`
	ScoreBreakdown map[string]float64 `json:"scoreBreakdown"`
}

// loadCohort fetches the scoreable members of a category: products with a
// nutrition record and a front image. Products without a front image are not
// visible in the catalog and are never scored.
func (s *ScoreService) loadCohort(ctx context.Context, categoryID uint) ([]models.FoodProduct, error) {
	var products []models.FoodProduct
	err := s.db.WithContext(ctx).
		Distinct("food_products.*").
		Joins("JOIN nutrition_info ON nutrition_info.food_product_id = food_products.id").
		Joins("JOIN image_food_products ON image_food_products.food_product_id = food_products.id AND image_food_products.type = ?", models.ImageTypeFront).
		Where("food_products.food_category_id = ?", categoryID).
		Preload("Nutrition").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// factorStats holds the cohort mean and population standard deviation of one
// nutrition factor.
type factorStats struct {
	mean   float64
	stdDev float64
}

func cohortFactorStats(cohort []models.FoodProduct, key string) (factorStats, bool) {
	var values []float64
	for i := range cohort {
		if v := cohort[i].Nutrition.Fact(key); v != nil {
			values = append(values, *v)
		}
	}
	if len(values) == 0 {
		return factorStats{}, false
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sqSum float64
	for _, v := range values {
		sqSum += (v - mean) * (v - mean)
	}
	stdDev := math.Sqrt(sqSum / float64(len(values)))

	return factorStats{mean: mean, stdDev: stdDev}, true
}

// additiveRange min-max bounds the additive counts of the cohort. Products
// with blank ingredient text are excluded from the population: an empty
// additive list means nothing when we never saw the label.
func additiveRange(cohort []models.FoodProduct) (minCount, maxCount int, ok bool) {
	first := true
	for i := range cohort {
		if strings.TrimSpace(cohort[i].Ingredients) == "" {
			continue
		}
		n := len(cohort[i].Additives)
		if first {
			minCount, maxCount = n, n
			first = false
			continue
		}
		if n < minCount {
			minCount = n
		}
		if n > maxCount {
			maxCount = n
		}
	}
	return minCount, maxCount, !first
}

// scoreCohort is the pure scoring pass: z-score normalization per weighted
// nutrition factor, min-max normalization of the additive count, weighted sum
// with contribution tracking, the total >= 3 gate, descending sort and band
// assignment. Returns the ranked entries plus the ids that were gated out.
func scoreCohort(cohort []models.FoodProduct, goal models.Goal, bands int) (ranked []ProductScoreEntry, dropped []uint) {
	weights := models.GoalWeightage[goal]
	factorKeys := models.WeightedFactorKeys(goal)

	stats := make(map[string]factorStats)
	for _, key := range factorKeys {
		if key == models.AdditivesKey {
			continue
		}
		if st, ok := cohortFactorStats(cohort, key); ok {
			stats[key] = st
		}
	}
	minAdd, maxAdd, addOK := additiveRange(cohort)

	for i := range cohort {
		product := &cohort[i]
		entry := ProductScoreEntry{
			ID:             product.ID,
			ScoreBreakdown: make(map[string]float64),
		}

		for _, key := range factorKeys {
			weight := weights[key]

			var normalized float64
			if key == models.AdditivesKey {
				if !addOK || strings.TrimSpace(product.Ingredients) == "" {
					continue
				}
				if maxAdd == minAdd {
					normalized = 0
				} else {
					normalized = float64(len(product.Additives)-minAdd) / float64(maxAdd-minAdd)
				}
			} else {
				value := product.Nutrition.Fact(key)
				if value == nil {
					continue
				}
				st, ok := stats[key]
				if !ok {
					continue
				}
				if st.stdDev == 0 {
					normalized = 0
				} else {
					normalized = (*value - st.mean) / st.stdDev
				}
			}

			contribution := weight * normalized
			entry.ScoreBreakdown[key] = contribution
			entry.Score += contribution
			entry.Total++
		}

		if entry.Total >= 3 {
			ranked = append(ranked, entry)
		} else {
			dropped = append(dropped, product.ID)
		}
	}

	// Secondary key keeps the ranking stable regardless of the order the
	// cohort came back from the database, so re-runs are idempotent.
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ID < ranked[j].ID
	})

	if bands > 0 && len(ranked) > 0 {
		bandSize := (len(ranked) + bands - 1) / bands
		for i := range ranked {
			band := i/bandSize + 1
			if band > bands {
				band = bands
			}
			ranked[i].Quartile = band
		}
	}

	return ranked, dropped
}

// GetCategoryProductScore ranks the category's products for one goal.
func (s *ScoreService) GetCategoryProductScore(ctx context.Context, categoryID uint, goal models.Goal, bands int) ([]ProductScoreEntry, error) {
	cohort, err := s.loadCohort(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	ranked, _ := scoreCohort(cohort, goal, bands)
	return ranked, nil
}

// SetCategoryProductScore recomputes and persists the score map of every
// scoreable product in the category. With no goals given, all goals are
// recomputed. Per recomputed goal the map key is set for qualifying products
// and removed for cohort members gated out by total < 3; goals not recomputed
// keep their prior value.
//
// Two concurrent recomputes of the same category race on the final write and
// the last writer wins; the next edit recomputes anyway.
func (s *ScoreService) SetCategoryProductScore(ctx context.Context, categoryID uint, goals ...models.Goal) (map[uint]models.ScoreMap, error) {
	if categoryID == 0 {
		return nil, nil
	}
	if len(goals) == 0 {
		goals = models.AllGoals
	}

	cohort, err := s.loadCohort(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	updated := make(map[uint]models.ScoreMap)
	removed := make(map[uint][]models.Goal)
	for _, goal := range goals {
		ranked, dropped := scoreCohort(cohort, goal, ScoreBandCount)
		for _, entry := range ranked {
			scores := updated[entry.ID]
			if scores == nil {
				scores = models.ScoreMap{}
			}
			scores[goal] = models.GoalScore{
				Score:          entry.Score,
				Total:          entry.Total,
				Quartile:       entry.Quartile,
				ScoreBreakdown: entry.ScoreBreakdown,
			}
			updated[entry.ID] = scores
		}
		for _, id := range dropped {
			removed[id] = append(removed[id], goal)
		}
	}

	touched := make(map[uint]bool, len(updated)+len(removed))
	for id := range updated {
		touched[id] = true
	}
	for id := range removed {
		touched[id] = true
	}

	for id := range touched {
		var product models.FoodProduct
		if err := s.db.WithContext(ctx).Select("id", "score").First(&product, id).Error; err != nil {
			return nil, err
		}
		scores := product.Score.Data()
		if scores == nil {
			scores = models.ScoreMap{}
		}
		for goal, goalScore := range updated[id] {
			scores[goal] = goalScore
		}
		for _, goal := range removed[id] {
			delete(scores, goal)
		}
		if err := s.db.WithContext(ctx).
			Model(&models.FoodProduct{}).
			Where("id = ?", id).
			Update("score", datatypes.NewJSONType(scores)).Error; err != nil {
			return nil, err
		}
	}

	return updated, nil
}

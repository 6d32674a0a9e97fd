package services

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/ynshung/mynutriapps-server/models"

	"gorm.io/gorm"
)

const (
	relatedQueryLimit = 128
	relatedCardLimit  = 8
)

// RelatedService produces, for one product, the "looks similar" list and the
// "similar but healthier" list with per-nutrient deltas.
type RelatedService struct {
	db         *gorm.DB
	similarity *SimilarityService
	products   *ProductService
}

func NewRelatedService(db *gorm.DB, similarity *SimilarityService, products *ProductService) *RelatedService {
	return &RelatedService{db: db, similarity: similarity, products: products}
}

// SimilarEntry is one pure-similarity hit.
type SimilarEntry struct {
	ID         uint    `json:"id"`
	Similarity float64 `json:"similarity"`
}

// RecommendedProduct is a similar candidate that also carries a goal score
// backed by more than 3 contributing factors, annotated with relative
// nutrient deltas against the compared product.
type RecommendedProduct struct {
	ID            uint     `json:"id"`
	Similarity    float64  `json:"similarity"`
	Score         float64  `json:"score"`
	WeightedScore float64  `json:"weightedScore"`
	ScoreDiff     *float64 `json:"scoreDiff,omitempty"`

	// NutritionComparison holds (candidate - current) / |current| per factor
	// with a non-zero goal weight, plus the raw additive-count difference.
	// MoreIsBetter tags each entry with the sign of the goal weight.
	NutritionComparison map[string]float64 `json:"nutritionComparison"`
	MoreIsBetter        map[string]bool    `json:"nutritionMoreIsBetterUserGoal"`
}

type RelatedComparison struct {
	Similar     []SimilarEntry       `json:"similarProducts"`
	Recommended []RecommendedProduct `json:"recommendedProducts"`
}

// CompareRelated builds both lists for the product under the goal. A missing
// product or a product without an embedded front image is not an error: the
// result is nil and the caller decides what that means.
func (s *RelatedService) CompareRelated(ctx context.Context, productID uint, goal models.Goal) (*RelatedComparison, error) {
	var product models.FoodProduct
	err := s.db.WithContext(ctx).
		Preload("Nutrition").
		First(&product, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var image models.Image
	err = s.db.WithContext(ctx).
		Joins("JOIN image_food_products ifp ON ifp.image_id = images.id").
		Where("ifp.food_product_id = ? AND ifp.type = ?", productID, models.ImageTypeFront).
		First(&image).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if image.Embedding == nil {
		return nil, nil
	}

	candidates, err := s.similarity.FindRelated(ctx, *image.Embedding, product.FoodCategoryID, SimilarityOptions{
		Limit:            relatedQueryLimit,
		ExcludeProductID: productID,
	})
	if err != nil {
		return nil, err
	}

	comparison := &RelatedComparison{
		Similar:     make([]SimilarEntry, 0, len(candidates)),
		Recommended: buildRecommended(&product, candidates, goal),
	}
	for _, candidate := range candidates {
		comparison.Similar = append(comparison.Similar, SimilarEntry{
			ID:         candidate.ID,
			Similarity: candidate.Similarity,
		})
	}
	return comparison, nil
}

// buildRecommended filters candidates down to those with a well-supported
// goal score (breakdown of more than 3 factors), blends similarity with the
// squashed score and computes the nutrient deltas. Pure function over already
// fetched data.
func buildRecommended(current *models.FoodProduct, candidates []RelatedCandidate, goal models.Goal) []RecommendedProduct {
	weights := models.GoalWeightage[goal]
	currentScores := current.Score.Data()

	var recommended []RecommendedProduct
	for _, candidate := range candidates {
		entry, ok := candidate.Score[goal]
		if !ok {
			continue
		}
		if len(entry.ScoreBreakdown) <= 3 {
			continue
		}

		score := entry.Score
		rec := RecommendedProduct{
			ID:                  candidate.ID,
			Similarity:          candidate.Similarity,
			Score:               score,
			WeightedScore:       weightedScore(candidate.Similarity, &score),
			NutritionComparison: make(map[string]float64),
			MoreIsBetter:        make(map[string]bool),
		}

		if currentEntry, ok := currentScores[goal]; ok {
			diff := score - currentEntry.Score
			rec.ScoreDiff = &diff
		}

		if current.Nutrition != nil {
			// The compared product has a nutrition table, so a candidate
			// without one cannot be lined up against it.
			if candidate.Nutrition == nil {
				continue
			}
			for _, key := range models.NutritionFactKeys {
				weight := weights[key]
				if weight == 0 {
					continue
				}
				currentValue := current.Nutrition.Fact(key)
				candidateValue := candidate.Nutrition.Fact(key)
				if currentValue == nil || candidateValue == nil || *currentValue == 0 {
					continue
				}
				rec.NutritionComparison[key] = (*candidateValue - *currentValue) / math.Abs(*currentValue)
				rec.MoreIsBetter[key] = weight > 0
			}

			rec.NutritionComparison[models.AdditivesKey] = float64(len(candidate.Additives) - len(current.Additives))
			rec.MoreIsBetter[models.AdditivesKey] = weights[models.AdditivesKey] > 0
		}

		recommended = append(recommended, rec)
	}

	sort.Slice(recommended, func(i, j int) bool {
		if recommended[i].WeightedScore != recommended[j].WeightedScore {
			return recommended[i].WeightedScore > recommended[j].WeightedScore
		}
		return recommended[i].ID < recommended[j].ID
	})
	return recommended
}

// RelatedCardList carries display-ready cards for both lists.
type RelatedCardList struct {
	Similar     []ProductCard `json:"similarProducts"`
	Recommended []ProductCard `json:"recommendedProducts"`
}

// RelatedCards resolves both lists to product cards, drops recommended
// candidates that conflict with the user's allergens and trims each list.
func (s *RelatedService) RelatedCards(ctx context.Context, productID, userID uint, goal models.Goal, limit int) (*RelatedCardList, error) {
	if limit <= 0 {
		limit = relatedCardLimit
	}

	comparison, err := s.CompareRelated(ctx, productID, goal)
	if err != nil {
		return nil, err
	}
	if comparison == nil {
		return nil, nil
	}

	ids := make([]uint, 0, len(comparison.Similar)+len(comparison.Recommended))
	seen := make(map[uint]bool)
	for _, item := range comparison.Similar {
		if !seen[item.ID] {
			seen[item.ID] = true
			ids = append(ids, item.ID)
		}
	}
	for _, item := range comparison.Recommended {
		if !seen[item.ID] {
			seen[item.ID] = true
			ids = append(ids, item.ID)
		}
	}

	cards, err := s.products.GetProductCards(ctx, ids, userID)
	if err != nil {
		return nil, err
	}
	cardByID := make(map[uint]ProductCard, len(cards))
	for _, card := range cards {
		cardByID[card.ID] = card
	}

	out := &RelatedCardList{}
	for _, item := range comparison.Recommended {
		card, ok := cardByID[item.ID]
		if !ok || card.AllergenConflict {
			continue
		}
		item := item
		card.Recommended = &item
		out.Recommended = append(out.Recommended, card)
		if len(out.Recommended) >= limit {
			break
		}
	}
	for _, item := range comparison.Similar {
		card, ok := cardByID[item.ID]
		if !ok {
			continue
		}
		card.Similarity = &item.Similarity
		out.Similar = append(out.Similar, card)
		if len(out.Similar) >= limit {
			break
		}
	}
	return out, nil
}

package services

import (
	"context"
	"sort"
	"strings"

	"github.com/ynshung/mynutriapps-server/models"
)

// ProductQuartiles reports, for one product, the band and normalized rank of
// every nutrition factor within its category cohort.
type ProductQuartiles struct {
	ID        uint               `json:"id"`
	Quartiles map[string]int     `json:"quartiles"`
	Ranking   map[string]float64 `json:"ranking"`
}

type factorItem struct {
	id    uint
	value float64
}

// bandFactorItems assigns ascending bands over the sorted items. A cohort
// with fewer than 2x bands members is too thin to band meaningfully and gets
// band 0 for every member. Near-zero trans-fat/cholesterol readings band to 1
// regardless of rank, so trace amounts don't produce noisy worst-band spikes.
func bandFactorItems(items []factorItem, bands int, nearZeroBest bool) map[uint]int {
	out := make(map[uint]int, len(items))
	if len(items) == 0 {
		return out
	}
	if len(items) < bands*2 {
		for _, item := range items {
			out[item.id] = 0
		}
		return out
	}

	bandSize := (len(items) + bands - 1) / bands
	for i, item := range items {
		if nearZeroBest && item.value < 0.01 {
			out[item.id] = 1
			continue
		}
		band := i/bandSize + 1
		if band > bands {
			band = bands
		}
		out[item.id] = band
	}
	return out
}

// rankFactorItems maps each member to its position among the cohort's
// distinct values, scaled to [0,1]. One distinct value yields 0 for all.
func rankFactorItems(items []factorItem) map[uint]float64 {
	out := make(map[uint]float64, len(items))
	var distinct []float64
	for _, item := range items {
		if len(distinct) == 0 || distinct[len(distinct)-1] != item.value {
			distinct = append(distinct, item.value)
		}
	}
	for _, item := range items {
		if len(distinct) < 2 {
			out[item.id] = 0
			continue
		}
		idx := sort.SearchFloat64s(distinct, item.value)
		out[item.id] = float64(idx) / float64(len(distinct)-1)
	}
	return out
}

func sortFactorItems(items []factorItem) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].value != items[j].value {
			return items[i].value < items[j].value
		}
		return items[i].id < items[j].id
	})
}

// EvaluateNutritionQuartiles computes per-factor bands and rankings for every
// product in the category that carries a nutrition record. Unlike the goal
// scoring pass this does not require a front image: the quartile report also
// serves products still awaiting photos.
func (s *ScoreService) EvaluateNutritionQuartiles(ctx context.Context, categoryID uint, bands int) ([]ProductQuartiles, error) {
	if bands <= 0 {
		bands = QuartileBandCount
	}

	var products []models.FoodProduct
	err := s.db.WithContext(ctx).
		Joins("JOIN nutrition_info ON nutrition_info.food_product_id = food_products.id").
		Where("food_products.food_category_id = ?", categoryID).
		Preload("Nutrition").
		Find(&products).Error
	if err != nil {
		return nil, err
	}

	results := make([]ProductQuartiles, len(products))
	for i := range products {
		results[i] = ProductQuartiles{
			ID:        products[i].ID,
			Quartiles: make(map[string]int),
			Ranking:   make(map[string]float64),
		}
	}
	index := make(map[uint]*ProductQuartiles, len(results))
	for i := range results {
		index[results[i].ID] = &results[i]
	}

	for _, key := range models.NutritionFactKeys {
		var items []factorItem
		for i := range products {
			if v := products[i].Nutrition.Fact(key); v != nil {
				items = append(items, factorItem{id: products[i].ID, value: *v})
			}
		}
		sortFactorItems(items)

		nearZeroBest := key == "transFat" || key == "cholesterol"
		for id, band := range bandFactorItems(items, bands, nearZeroBest) {
			index[id].Quartiles[key] = band
		}
		for id, rank := range rankFactorItems(items) {
			index[id].Ranking[key] = rank
		}
	}

	// Additive counts band over the members whose label was actually read.
	var additiveItems []factorItem
	for i := range products {
		if strings.TrimSpace(products[i].Ingredients) == "" {
			continue
		}
		additiveItems = append(additiveItems, factorItem{
			id:    products[i].ID,
			value: float64(len(products[i].Additives)),
		})
	}
	sortFactorItems(additiveItems)
	for id, band := range bandFactorItems(additiveItems, bands, false) {
		index[id].Quartiles[models.AdditivesKey] = band
	}
	for id, rank := range rankFactorItems(additiveItems) {
		index[id].Ranking[models.AdditivesKey] = rank
	}

	return results, nil
}

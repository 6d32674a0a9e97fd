package services

import (
	"context"

	"github.com/ynshung/mynutriapps-server/models"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultMinSimilarity is the cosine similarity cutoff: candidates at or
// below it are never returned.
const DefaultMinSimilarity = 0.5

// SimilarityService answers nearest-neighbour queries over the front-image
// embeddings, always scoped to a single category. Queries are pure reads and
// safe to run concurrently.
type SimilarityService struct {
	db *gorm.DB
}

func NewSimilarityService(db *gorm.DB) *SimilarityService {
	return &SimilarityService{db: db}
}

// SimilarProduct is one similarity hit with the product's persisted score map.
type SimilarProduct struct {
	ID         uint            `json:"id"`
	Similarity float64         `json:"similarity"`
	Score      models.ScoreMap `json:"score,omitempty"`
}

// RelatedCandidate extends a similarity hit with the nutrition record and
// additive list needed for side-by-side comparison.
type RelatedCandidate struct {
	SimilarProduct
	Nutrition *models.NutritionInfo `json:"nutrition,omitempty"`
	Additives []string              `json:"additives,omitempty"`
}

// SimilarityOptions tunes a similarity query. Zero values mean: limit 10,
// offset 0, cutoff DefaultMinSimilarity, no self-exclusion.
type SimilarityOptions struct {
	Limit            int
	Offset           int
	MinSimilarity    float64
	ExcludeProductID uint
}

type similarityRow struct {
	ID         uint
	Similarity float64
	Score      datatypes.JSONType[models.ScoreMap]
}

// FindSimilar returns same-category products ordered by descending cosine
// similarity to the query embedding, restricted to products with an embedded
// front image and similarity strictly above the cutoff. Ties between equal
// similarities are broken by product id so pagination stays consistent.
func (s *SimilarityService) FindSimilar(ctx context.Context, embedding pgvector.Vector, categoryID uint, opts SimilarityOptions) ([]SimilarProduct, error) {
	rows, err := s.query(ctx, embedding, categoryID, opts)
	if err != nil {
		return nil, err
	}

	results := make([]SimilarProduct, 0, len(rows))
	for _, row := range rows {
		results = append(results, SimilarProduct{
			ID:         row.ID,
			Similarity: row.Similarity,
			Score:      row.Score.Data(),
		})
	}
	return results, nil
}

// FindRelated is FindSimilar plus the nutrition record and additive list of
// each hit, for delta computation.
func (s *SimilarityService) FindRelated(ctx context.Context, embedding pgvector.Vector, categoryID uint, opts SimilarityOptions) ([]RelatedCandidate, error) {
	rows, err := s.query(ctx, embedding, categoryID, opts)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	var nutritions []models.NutritionInfo
	if err := s.db.WithContext(ctx).
		Where("food_product_id IN ?", ids).
		Find(&nutritions).Error; err != nil {
		return nil, err
	}
	nutritionByProduct := make(map[uint]*models.NutritionInfo, len(nutritions))
	for i := range nutritions {
		nutritionByProduct[nutritions[i].FoodProductID] = &nutritions[i]
	}

	var products []models.FoodProduct
	if err := s.db.WithContext(ctx).
		Select("id", "additives").
		Where("id IN ?", ids).
		Find(&products).Error; err != nil {
		return nil, err
	}
	additivesByProduct := make(map[uint][]string, len(products))
	for i := range products {
		additivesByProduct[products[i].ID] = products[i].Additives
	}

	candidates := make([]RelatedCandidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, RelatedCandidate{
			SimilarProduct: SimilarProduct{
				ID:         row.ID,
				Similarity: row.Similarity,
				Score:      row.Score.Data(),
			},
			Nutrition: nutritionByProduct[row.ID],
			Additives: additivesByProduct[row.ID],
		})
	}
	return candidates, nil
}

func (s *SimilarityService) query(ctx context.Context, embedding pgvector.Vector, categoryID uint, opts SimilarityOptions) ([]similarityRow, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	minSimilarity := opts.MinSimilarity
	if minSimilarity == 0 {
		minSimilarity = DefaultMinSimilarity
	}

	sql := `
		SELECT ifp.food_product_id AS id,
		       1 - (i.embedding <=> ?) AS similarity,
		       fp.score AS score
		  FROM image_food_products ifp
		  JOIN images i ON i.id = ifp.image_id
		  JOIN food_products fp ON fp.id = ifp.food_product_id
		 WHERE fp.food_category_id = ?
		   AND fp.deleted_at IS NULL
		   AND ifp.type = ?
		   AND i.embedding IS NOT NULL
		   AND 1 - (i.embedding <=> ?) > ?`
	args := []any{embedding, categoryID, models.ImageTypeFront, embedding, minSimilarity}

	if opts.ExcludeProductID != 0 {
		sql += ` AND ifp.food_product_id <> ?`
		args = append(args, opts.ExcludeProductID)
	}

	sql += ` ORDER BY similarity DESC, id ASC LIMIT ? OFFSET ?`
	args = append(args, limit, opts.Offset)

	var rows []similarityRow
	if err := s.db.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

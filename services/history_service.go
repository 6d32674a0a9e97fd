package services

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/ynshung/mynutriapps-server/models"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// Minimum activity a category needs before its click history is trusted as a
// recommendation signal: fewer distinct products or clicks and the category
// is dropped entirely.
const (
	historyMinDistinctProducts = 5
	historyMinTotalClicks      = 10
	historySimilarityLimit     = 100
)

// HistoryService builds personalized query embeddings from a user's click
// history and turns them into blended recommendations.
type HistoryService struct {
	db         *gorm.DB
	similarity *SimilarityService
}

func NewHistoryService(db *gorm.DB, similarity *SimilarityService) *HistoryService {
	return &HistoryService{db: db, similarity: similarity}
}

type historyClick struct {
	ProductID  uint
	CategoryID uint
	Embedding  pgvector.Vector
	ClickedAt  time.Time
}

// categoryProfile is the synthetic query for one category of interest: a
// recency-weighted mean of the embeddings the user clicked.
type categoryProfile struct {
	CategoryID    uint
	MeanEmbedding pgvector.Vector
	LastClickedAt time.Time
	TotalClicks   int
}

// HistoryRecommendation is one candidate from the history feed. Score is nil
// when the product has no persisted score for the goal; such candidates rank
// on similarity alone.
type HistoryRecommendation struct {
	ID            uint     `json:"id"`
	Similarity    float64  `json:"similarity"`
	Score         *float64 `json:"score,omitempty"`
	WeightedScore float64  `json:"weightedScore"`
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// weightedScore blends embedding similarity with the squashed health score,
// half and half. Without a health score only the similarity half counts.
func weightedScore(similarity float64, score *float64) float64 {
	if score == nil {
		return similarity * 0.5
	}
	return similarity*0.5 + sigmoid(*score)*0.5
}

// aggregateClickHistory groups clicks by category, applies the minimum
// activity gates and computes each surviving category's recency-weighted mean
// embedding. Weight of a click is its position in the category's click window
// scaled to [0,1]; a zero-width window degenerates to all-zero weights, in
// which case the plain mean stands in. Profiles come back ordered by most
// recent click.
func aggregateClickHistory(clicks []historyClick) []categoryProfile {
	type group struct {
		embeddings []pgvector.Vector
		timestamps []time.Time
		products   map[uint]bool
	}
	groups := make(map[uint]*group)
	for _, click := range clicks {
		g := groups[click.CategoryID]
		if g == nil {
			g = &group{products: make(map[uint]bool)}
			groups[click.CategoryID] = g
		}
		g.embeddings = append(g.embeddings, click.Embedding)
		g.timestamps = append(g.timestamps, click.ClickedAt)
		g.products[click.ProductID] = true
	}

	var profiles []categoryProfile
	for categoryID, g := range groups {
		if len(g.products) < historyMinDistinctProducts || len(g.timestamps) < historyMinTotalClicks {
			continue
		}

		minTS, maxTS := g.timestamps[0], g.timestamps[0]
		for _, ts := range g.timestamps[1:] {
			if ts.Before(minTS) {
				minTS = ts
			}
			if ts.After(maxTS) {
				maxTS = ts
			}
		}
		window := maxTS.Sub(minTS)

		dims := len(g.embeddings[0].Slice())
		weightedSums := make([]float64, dims)
		plainSums := make([]float64, dims)
		var totalWeight float64
		for i, embedding := range g.embeddings {
			var weight float64
			if window > 0 {
				weight = float64(g.timestamps[i].Sub(minTS)) / float64(window)
			}
			totalWeight += weight
			for d, v := range embedding.Slice() {
				weightedSums[d] += weight * float64(v)
				plainSums[d] += float64(v)
			}
		}

		mean := make([]float32, dims)
		for d := range mean {
			if totalWeight > 0 {
				mean[d] = float32(weightedSums[d] / totalWeight)
			} else {
				// Every click shares one timestamp, so recency says
				// nothing; fall back to the unweighted mean.
				mean[d] = float32(plainSums[d] / float64(len(g.embeddings)))
			}
		}

		profiles = append(profiles, categoryProfile{
			CategoryID:    categoryID,
			MeanEmbedding: pgvector.NewVector(mean),
			LastClickedAt: maxTS,
			TotalClicks:   len(g.timestamps),
		})
	}

	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].LastClickedAt.After(profiles[j].LastClickedAt)
	})
	return profiles
}

func (s *HistoryService) loadClicks(ctx context.Context, userID uint) ([]historyClick, error) {
	var clicks []historyClick
	err := s.db.WithContext(ctx).Raw(`
		SELECT upc.food_product_id AS product_id,
		       fp.food_category_id AS category_id,
		       i.embedding AS embedding,
		       upc.clicked_at AS clicked_at
		  FROM user_product_clicks upc
		  JOIN food_products fp ON fp.id = upc.food_product_id
		  JOIN image_food_products ifp ON ifp.food_product_id = upc.food_product_id AND ifp.type = ?
		  JOIN images i ON i.id = ifp.image_id
		 WHERE upc.user_id = ?
		   AND fp.deleted_at IS NULL
		   AND i.embedding IS NOT NULL
		 ORDER BY upc.clicked_at DESC, i.uploaded_at DESC`,
		models.ImageTypeFront, userID,
	).Scan(&clicks).Error
	if err != nil {
		return nil, err
	}
	return clicks, nil
}

// BuildRecommendations turns the user's click history into a ranked candidate
// list for the goal. One similarity query runs per qualifying category; the
// queries are independent reads and run concurrently. Deduplication across
// categories and final slicing are the caller's concern.
func (s *HistoryService) BuildRecommendations(ctx context.Context, userID uint, goal models.Goal) ([]HistoryRecommendation, error) {
	clicks, err := s.loadClicks(ctx, userID)
	if err != nil {
		return nil, err
	}

	profiles := aggregateClickHistory(clicks)
	if len(profiles) == 0 {
		return nil, nil
	}

	var (
		mu         sync.Mutex
		wg         sync.WaitGroup
		candidates []HistoryRecommendation
		queryErr   error
	)
	for _, profile := range profiles {
		wg.Add(1)
		go func(profile categoryProfile) {
			defer wg.Done()
			similar, err := s.similarity.FindSimilar(ctx, profile.MeanEmbedding, profile.CategoryID, SimilarityOptions{
				Limit: historySimilarityLimit,
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if queryErr == nil {
					queryErr = err
				}
				return
			}
			for _, product := range similar {
				rec := HistoryRecommendation{
					ID:         product.ID,
					Similarity: product.Similarity,
				}
				if entry, ok := product.Score[goal]; ok {
					score := entry.Score
					rec.Score = &score
				}
				rec.WeightedScore = weightedScore(rec.Similarity, rec.Score)
				candidates = append(candidates, rec)
			}
		}(profile)
	}
	wg.Wait()
	if queryErr != nil {
		return nil, queryErr
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].WeightedScore != candidates[j].WeightedScore {
			return candidates[i].WeightedScore > candidates[j].WeightedScore
		}
		return candidates[i].ID < candidates[j].ID
	})
	return candidates, nil
}

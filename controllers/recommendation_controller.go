package controllers

import (
	"net/http"
	"strconv"

	"github.com/ynshung/mynutriapps-server/config"
	"github.com/ynshung/mynutriapps-server/models"
	"github.com/ynshung/mynutriapps-server/services"

	"github.com/gin-gonic/gin"
)

type RecommendationController struct {
	History  *services.HistoryService
	Products *services.ProductService
}

func NewRecommendationController(history *services.HistoryService, products *services.ProductService) *RecommendationController {
	return &RecommendationController{History: history, Products: products}
}

// GetHistoryRecommendations builds the personalized feed from the viewer's
// click history. Candidates are deduplicated (best blended score wins, which
// comes first in the sorted list) and sliced here, at the caller boundary.
func (h *RecommendationController) GetHistoryRecommendations(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	goal := models.Goal(c.Query("goal"))
	if goal == "" {
		var user models.User
		if err := config.DB.First(&user, userID).Error; err == nil && user.Goal.Valid() {
			goal = user.Goal
		}
	}
	if !goal.Valid() {
		goal = models.GoalImproveHealth
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 {
		limit = 20
	}

	recommendations, err := h.History.BuildRecommendations(c.Request.Context(), userID, goal)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	seen := make(map[uint]bool, len(recommendations))
	deduped := recommendations[:0]
	for _, rec := range recommendations {
		if seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true
		deduped = append(deduped, rec)
		if len(deduped) >= limit {
			break
		}
	}

	ids := make([]uint, 0, len(deduped))
	for _, rec := range deduped {
		ids = append(ids, rec.ID)
	}
	cards, err := h.Products.GetProductCards(c.Request.Context(), ids, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recommendations": deduped,
		"products":        cards,
	})
}

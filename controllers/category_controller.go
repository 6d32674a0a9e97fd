package controllers

import (
	"net/http"
	"strconv"

	"github.com/ynshung/mynutriapps-server/config"
	"github.com/ynshung/mynutriapps-server/models"
	"github.com/ynshung/mynutriapps-server/services"

	"github.com/gin-gonic/gin"
)

type CategoryController struct {
	Scores *services.ScoreService
}

func NewCategoryController(scores *services.ScoreService) *CategoryController {
	return &CategoryController{Scores: scores}
}

func (h *CategoryController) ListCategories(c *gin.Context) {
	var categories []models.FoodCategory
	if err := config.DB.Order("name ASC").Find(&categories).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, categories)
}

func categoryIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category id"})
		return 0, false
	}
	return uint(id), true
}

// RecomputeScores reruns the category score engine. `?goal=` restricts the
// recompute to one goal; otherwise all goals are recomputed.
func (h *CategoryController) RecomputeScores(c *gin.Context) {
	categoryID, ok := categoryIDParam(c)
	if !ok {
		return
	}

	var goals []models.Goal
	if g := models.Goal(c.Query("goal")); g != "" {
		if !g.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown goal"})
			return
		}
		goals = append(goals, g)
	}

	scores, err := h.Scores.SetCategoryProductScore(c.Request.Context(), categoryID, goals...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": len(scores), "scores": scores})
}

// GetScores returns the ranked list for one goal without persisting anything.
func (h *CategoryController) GetScores(c *gin.Context) {
	categoryID, ok := categoryIDParam(c)
	if !ok {
		return
	}

	goal := models.Goal(c.DefaultQuery("goal", string(models.GoalImproveHealth)))
	if !goal.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown goal"})
		return
	}
	bands, _ := strconv.Atoi(c.DefaultQuery("bands", strconv.Itoa(services.ScoreBandCount)))

	entries, err := h.Scores.GetCategoryProductScore(c.Request.Context(), categoryID, goal, bands)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entries)
}

// GetQuartiles reports per-factor quartile bands and rankings for the
// category cohort.
func (h *CategoryController) GetQuartiles(c *gin.Context) {
	categoryID, ok := categoryIDParam(c)
	if !ok {
		return
	}
	bands, _ := strconv.Atoi(c.DefaultQuery("bands", strconv.Itoa(services.QuartileBandCount)))

	quartiles, err := h.Scores.EvaluateNutritionQuartiles(c.Request.Context(), categoryID, bands)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, quartiles)
}

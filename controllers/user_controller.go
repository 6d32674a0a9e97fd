package controllers

import (
	"net/http"

	"github.com/ynshung/mynutriapps-server/config"
	"github.com/ynshung/mynutriapps-server/models"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
)

func GetProfile(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var user models.User
	if err := config.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

type UpdateProfileInput struct {
	FullName  *string      `json:"full_name"`
	Goal      *models.Goal `json:"goal"`
	Allergies *[]string    `json:"allergies"`
}

func UpdateProfile(c *gin.Context) {
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Goal != nil && !input.Goal.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown goal"})
		return
	}

	var user models.User
	if err := config.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	if input.FullName != nil {
		user.FullName = *input.FullName
	}
	if input.Goal != nil {
		user.Goal = *input.Goal
	}
	if input.Allergies != nil {
		user.Allergies = pq.StringArray(*input.Allergies)
	}

	if err := config.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, user)
}

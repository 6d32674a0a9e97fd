package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ynshung/mynutriapps-server/config"
	"github.com/ynshung/mynutriapps-server/models"
	"github.com/ynshung/mynutriapps-server/services"
	"github.com/ynshung/mynutriapps-server/utils"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type ProductController struct {
	Svc        *services.ProductService
	Related    *services.RelatedService
	Embeddings *services.EmbeddingService
}

func NewProductController(svc *services.ProductService, related *services.RelatedService, embeddings *services.EmbeddingService) *ProductController {
	return &ProductController{Svc: svc, Related: related, Embeddings: embeddings}
}

func productIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return 0, false
	}
	return uint(id), true
}

// GetProduct returns the detail view and appends a click to the interaction
// log. `?scan=true` marks the click as a barcode scan.
func (h *ProductController) GetProduct(c *gin.Context) {
	productID, ok := productIDParam(c)
	if !ok {
		return
	}
	userID, _ := userIDFromCtx(c)

	details, err := h.Svc.GetProductDetails(c.Request.Context(), productID, userID)
	if errors.Is(err, services.ErrProductNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if userID != 0 {
		userScan := c.Query("scan") == "true"
		if err := h.Svc.LogClick(c.Request.Context(), userID, productID, userScan); err != nil {
			// Click logging never blocks the detail view.
			c.Header("X-Click-Logged", "false")
		}
	}

	c.JSON(http.StatusOK, details)
}

type NutritionInput struct {
	ServingSize        *float64 `json:"serving_size"`
	ServingSizeUnit    string   `json:"serving_size_unit"`
	ServingSizePerUnit *float64 `json:"serving_size_per_unit"`
	Calories           *float64 `json:"calories"`
	Fat                *float64 `json:"fat"`
	Carbs              *float64 `json:"carbs"`
	Protein            *float64 `json:"protein"`
	Sugar              *float64 `json:"sugar"`
	MonounsaturatedFat *float64 `json:"monounsaturatedFat"`
	PolyunsaturatedFat *float64 `json:"polyunsaturatedFat"`
	SaturatedFat       *float64 `json:"saturatedFat"`
	TransFat           *float64 `json:"transFat"`
	Cholesterol        *float64 `json:"cholesterol"`
	Sodium             *float64 `json:"sodium"`
	Fiber              *float64 `json:"fiber"`
	Vitamins           []string `json:"vitamins"`
	Minerals           []string `json:"minerals"`
	Uncategorized      []string `json:"uncategorized"`
}

func toNullDecimal(v *float64) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*v))
}

func (in *NutritionInput) toModel() *models.NutritionInfo {
	return &models.NutritionInfo{
		ServingSize:        toNullDecimal(in.ServingSize),
		ServingSizeUnit:    in.ServingSizeUnit,
		ServingSizePerUnit: toNullDecimal(in.ServingSizePerUnit),
		Calories:           toNullDecimal(in.Calories),
		Fat:                toNullDecimal(in.Fat),
		Carbs:              toNullDecimal(in.Carbs),
		Protein:            toNullDecimal(in.Protein),
		Sugar:              toNullDecimal(in.Sugar),
		MonounsaturatedFat: toNullDecimal(in.MonounsaturatedFat),
		PolyunsaturatedFat: toNullDecimal(in.PolyunsaturatedFat),
		SaturatedFat:       toNullDecimal(in.SaturatedFat),
		TransFat:           toNullDecimal(in.TransFat),
		Cholesterol:        toNullDecimal(in.Cholesterol),
		Sodium:             toNullDecimal(in.Sodium),
		Fiber:              toNullDecimal(in.Fiber),
		Vitamins:           pq.StringArray(in.Vitamins),
		Minerals:           pq.StringArray(in.Minerals),
		Uncategorized:      pq.StringArray(in.Uncategorized),
	}
}

type CreateProductInput struct {
	Name           string          `json:"name" binding:"required"`
	Brand          string          `json:"brand"`
	Barcode        []string        `json:"barcode"`
	Ingredients    string          `json:"ingredients"`
	Additives      []string        `json:"additives"`
	Allergens      []string        `json:"allergens"`
	FoodCategoryID uint            `json:"food_category_id" binding:"required"`
	Nutrition      *NutritionInput `json:"nutrition"`
}

func (h *ProductController) CreateProduct(c *gin.Context) {
	var input CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product := models.FoodProduct{
		Name:           input.Name,
		Brand:          input.Brand,
		Barcode:        pq.StringArray(input.Barcode),
		Ingredients:    input.Ingredients,
		Additives:      pq.StringArray(input.Additives),
		Allergens:      pq.StringArray(input.Allergens),
		FoodCategoryID: input.FoodCategoryID,
	}
	if input.Nutrition != nil {
		product.Nutrition = input.Nutrition.toModel()
	}

	if err := h.Svc.CreateProduct(c.Request.Context(), &product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *ProductController) UpsertNutrition(c *gin.Context) {
	productID, ok := productIDParam(c)
	if !ok {
		return
	}

	var input NutritionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.Svc.UpsertNutrition(c.Request.Context(), productID, input.toModel())
	if errors.Is(err, services.ErrProductNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "nutrition updated"})
}

// GetRelatedProducts returns the similar and recommended card lists for a
// product. Goal defaults to the viewer's profile goal.
func (h *ProductController) GetRelatedProducts(c *gin.Context) {
	productID, ok := productIDParam(c)
	if !ok {
		return
	}
	userID, _ := userIDFromCtx(c)

	goal := models.Goal(c.Query("goal"))
	if goal == "" && userID != 0 {
		var user models.User
		if err := config.DB.First(&user, userID).Error; err == nil && user.Goal.Valid() {
			goal = user.Goal
		}
	}
	if !goal.Valid() {
		goal = models.GoalImproveHealth
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "8"))

	cards, err := h.Related.RelatedCards(c.Request.Context(), productID, userID, goal, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if cards == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no related products available"})
		return
	}
	c.JSON(http.StatusOK, cards)
}

func (h *ProductController) ToggleFavorite(c *gin.Context) {
	productID, ok := productIDParam(c)
	if !ok {
		return
	}
	userID, ok := userIDFromCtx(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	favorited, err := h.Svc.ToggleFavorite(c.Request.Context(), userID, productID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorited": favorited})
}

type UploadImageInput struct {
	Image string           `json:"image" binding:"required"` // data-URL base64
	Type  models.ImageType `json:"type" binding:"required"`
}

func (h *ProductController) UploadProductImage(c *gin.Context) {
	productID, ok := productIDParam(c)
	if !ok {
		return
	}
	userID, _ := userIDFromCtx(c)

	var input UploadImageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key, contentType, err := utils.UploadBase64ImageToS3(input.Image, strconv.FormatUint(uint64(productID), 10))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	image := models.Image{
		ImageKey: key,
		FileName: key,
		MimeType: contentType,
	}
	if userID != 0 {
		image.UserID = &userID
	}
	if err := config.DB.Create(&image).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	link := models.ImageFoodProduct{
		ImageID:       image.ID,
		FoodProductID: productID,
		Type:          input.Type,
	}
	if err := config.DB.Create(&link).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"image_id": image.ID, "image_key": key})
}

// ProcessEmbeddings runs the front-image embedding backfill.
func (h *ProductController) ProcessEmbeddings(c *gin.Context) {
	processed, err := h.Embeddings.ProcessUnvectorizedImages(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"processed": processed})
}

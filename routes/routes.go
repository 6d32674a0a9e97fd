package routes

import (
	"github.com/ynshung/mynutriapps-server/config"
	"github.com/ynshung/mynutriapps-server/controllers"
	"github.com/ynshung/mynutriapps-server/middlewares"
	"github.com/ynshung/mynutriapps-server/services"

	"github.com/gin-gonic/gin"
)

func SetupRouter() *gin.Engine {
	r := gin.Default()

	scoreSvc := services.NewScoreService(config.DB)
	similaritySvc := services.NewSimilarityService(config.DB)
	productSvc := services.NewProductService(config.DB, scoreSvc)
	relatedSvc := services.NewRelatedService(config.DB, similaritySvc, productSvc)
	historySvc := services.NewHistoryService(config.DB, similaritySvc)
	embeddingSvc := services.NewEmbeddingService(config.DB)

	productCtl := controllers.NewProductController(productSvc, relatedSvc, embeddingSvc)
	categoryCtl := controllers.NewCategoryController(scoreSvc)
	recommendationCtl := controllers.NewRecommendationController(historySvc, productSvc)

	// Public auth routes
	auth := r.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)
	}

	// Protected user routes
	user := r.Group("/user")
	user.Use(middlewares.AuthMiddleware())
	{
		user.GET("/profile", controllers.GetProfile)
		user.PUT("/profile", controllers.UpdateProfile)
	}

	product := r.Group("/products")
	product.Use(middlewares.AuthMiddleware())
	{
		product.POST("", productCtl.CreateProduct)
		product.GET("/:id", productCtl.GetProduct)
		product.PUT("/:id/nutrition", productCtl.UpsertNutrition)
		product.GET("/:id/related", productCtl.GetRelatedProducts)
		product.POST("/:id/favorite", productCtl.ToggleFavorite)
		product.POST("/:id/images", productCtl.UploadProductImage)
		product.POST("/process-embeddings", productCtl.ProcessEmbeddings)
	}

	category := r.Group("/categories")
	category.Use(middlewares.AuthMiddleware())
	{
		category.GET("", categoryCtl.ListCategories)
		category.GET("/:id/scores", categoryCtl.GetScores)
		category.POST("/:id/scores", categoryCtl.RecomputeScores)
		category.GET("/:id/quartiles", categoryCtl.GetQuartiles)
	}

	recommendation := r.Group("/recommendations")
	recommendation.Use(middlewares.AuthMiddleware())
	{
		recommendation.GET("/history", recommendationCtl.GetHistoryRecommendations)
	}

	return r
}

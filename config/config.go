package config

import (
	"fmt"
	"log"
	"os"

	"github.com/ynshung/mynutriapps-server/models"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("No .env file found, relying on environment")
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// The vector extension must exist before AutoMigrate sees the
	// vector(512) column type.
	if err := DB.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		log.Fatalf("Failed to enable pgvector extension: %v", err)
	}

	err = DB.AutoMigrate(
		&models.User{},
		&models.FoodCategory{},
		&models.FoodProduct{},
		&models.NutritionInfo{},
		&models.Image{},
		&models.ImageFoodProduct{},
		&models.ProductClick{},
		&models.UserProductFavorite{},
	)
	if err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	// Approximate-NN index over front-image embeddings. Categories can reach
	// thousands of products, so similarity queries must not seq-scan.
	if err := DB.Exec(
		"CREATE INDEX IF NOT EXISTS images_embedding_idx ON images USING hnsw (embedding vector_cosine_ops)",
	).Error; err != nil {
		log.Fatalf("Failed to create embedding index: %v", err)
	}
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// ImageType tags what part of the packaging a picture shows. Only front
// images get an embedding and participate in similarity search.
type ImageType string

const (
	ImageTypeFront            ImageType = "front"
	ImageTypeNutritionalTable ImageType = "nutritional_table"
	ImageTypeIngredients      ImageType = "ingredients"
	ImageTypeOther            ImageType = "other"
)

type Image struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ImageKey   string    `gorm:"not null" json:"image_key"`
	FileName   string    `gorm:"not null" json:"file_name"`
	MimeType   string    `gorm:"not null" json:"mime_type"`
	Size       int       `gorm:"not null" json:"size"`
	UploadedAt time.Time `gorm:"not null;autoCreateTime" json:"uploaded_at"`
	UserID     *uint     `json:"user_id,omitempty"`

	// Embedding is the 512-d vector of the front image, NULL until the
	// vision model has processed it. Immutable afterwards except by
	// re-processing.
	Embedding *pgvector.Vector `gorm:"type:vector(512)" json:"-"`
}

func (Image) TableName() string {
	return "images"
}

// ImageFoodProduct links an image to a product with its packaging role.
type ImageFoodProduct struct {
	ImageID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"image_id"`
	FoodProductID uint      `gorm:"primaryKey" json:"food_product_id"`
	Type          ImageType `gorm:"type:text;not null" json:"type"`
}

func (ImageFoodProduct) TableName() string {
	return "image_food_products"
}

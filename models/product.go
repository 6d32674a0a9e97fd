package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lib/pq"
)

// GoalScore is the persisted result of one category score run for one goal.
// An entry exists only when at least 3 weighted factors contributed (Total).
type GoalScore struct {
	Score          float64            `json:"score"`
	Total          int                `json:"total"`
	Quartile       int                `json:"quartile"`
	ScoreBreakdown map[string]float64 `json:"scoreBreakdown"`
}

// ScoreMap is the per-goal score map stored on the product row as JSONB.
// The score engine merges one goal key at a time: goals not recomputed in a
// pass keep their prior value.
type ScoreMap map[Goal]GoalScore

type FoodProduct struct {
	gorm.Model
	Name    string         `json:"name"`
	Brand   string         `json:"brand"`
	Barcode pq.StringArray `gorm:"type:text[]" json:"barcode"`

	Ingredients string         `json:"ingredients"`
	Additives   pq.StringArray `gorm:"type:text[]" json:"additives"`
	Allergens   pq.StringArray `gorm:"type:text[]" json:"allergens"`

	Verified bool `gorm:"default:false" json:"verified"`

	FoodCategoryID uint          `gorm:"index" json:"food_category_id"`
	FoodCategory   *FoodCategory `gorm:"foreignKey:FoodCategoryID" json:"category,omitempty"`

	Score datatypes.JSONType[ScoreMap] `gorm:"type:jsonb" json:"score"`

	Nutrition *NutritionInfo `gorm:"foreignKey:FoodProductID" json:"nutrition,omitempty"`
}

func (FoodProduct) TableName() string {
	return "food_products"
}

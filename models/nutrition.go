package models

import (
	"math"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// NutritionInfo is the one-to-one nutrition facts record of a product. Every
// numeric field is independently nullable: a scanned label rarely carries the
// full table, and the scoring engine treats absent values as "does not
// contribute", never as zero.
type NutritionInfo struct {
	ID            uint `gorm:"primaryKey" json:"id"`
	FoodProductID uint `gorm:"uniqueIndex;not null" json:"food_product_id"`

	ServingSize        decimal.NullDecimal `gorm:"type:numeric" json:"serving_size"`
	ServingSizeUnit    string              `json:"serving_size_unit"`
	ServingSizePerUnit decimal.NullDecimal `gorm:"type:numeric" json:"serving_size_per_unit"`

	Calories           decimal.NullDecimal `gorm:"type:numeric" json:"calories"`
	Fat                decimal.NullDecimal `gorm:"type:numeric" json:"fat"`
	Carbs              decimal.NullDecimal `gorm:"type:numeric" json:"carbs"`
	Protein            decimal.NullDecimal `gorm:"type:numeric" json:"protein"`
	Sugar              decimal.NullDecimal `gorm:"type:numeric" json:"sugar"`
	MonounsaturatedFat decimal.NullDecimal `gorm:"type:numeric" json:"monounsaturatedFat"`
	PolyunsaturatedFat decimal.NullDecimal `gorm:"type:numeric" json:"polyunsaturatedFat"`
	SaturatedFat       decimal.NullDecimal `gorm:"type:numeric" json:"saturatedFat"`
	TransFat           decimal.NullDecimal `gorm:"type:numeric" json:"transFat"`
	Cholesterol        decimal.NullDecimal `gorm:"type:numeric" json:"cholesterol"`
	Sodium             decimal.NullDecimal `gorm:"type:numeric" json:"sodium"`
	Fiber              decimal.NullDecimal `gorm:"type:numeric" json:"fiber"`

	Vitamins      pq.StringArray `gorm:"type:text[]" json:"vitamins"`
	Minerals      pq.StringArray `gorm:"type:text[]" json:"minerals"`
	Uncategorized pq.StringArray `gorm:"type:text[]" json:"uncategorized"`

	// NutriScore is the derived single-letter grade (A-E), nil when the
	// classifier could not determine one.
	NutriScore *string `gorm:"type:varchar(1)" json:"nutriscore"`
}

func (NutritionInfo) TableName() string {
	return "nutrition_info"
}

// Fact returns the named nutrition fact as a float pointer, nil when the
// column is NULL. Keys follow NutritionFactKeys.
func (n *NutritionInfo) Fact(key string) *float64 {
	if n == nil {
		return nil
	}
	var d decimal.NullDecimal
	switch key {
	case "calories":
		d = n.Calories
	case "fat":
		d = n.Fat
	case "carbs":
		d = n.Carbs
	case "protein":
		d = n.Protein
	case "sugar":
		d = n.Sugar
	case "fiber":
		d = n.Fiber
	case "sodium":
		d = n.Sodium
	case "cholesterol":
		d = n.Cholesterol
	case "monounsaturatedFat":
		d = n.MonounsaturatedFat
	case "polyunsaturatedFat":
		d = n.PolyunsaturatedFat
	case "saturatedFat":
		d = n.SaturatedFat
	case "transFat":
		d = n.TransFat
	default:
		return nil
	}
	if !d.Valid {
		return nil
	}
	v, _ := d.Decimal.Float64()
	return &v
}

// FactOrNaN is Fact with NaN standing in for NULL, which is what the
// NutriScore classifier expects for missing inputs.
func (n *NutritionInfo) FactOrNaN(key string) float64 {
	v := n.Fact(key)
	if v == nil {
		return math.NaN()
	}
	return *v
}

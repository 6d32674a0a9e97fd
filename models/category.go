package models

import "github.com/lib/pq"

// FoodCategory is the scoring cohort boundary: normalization is always done
// within one category, never across. Tree depth is at most two (a category may
// have a parent, but never a grandparent).
type FoodCategory struct {
	ID       uint           `gorm:"primaryKey" json:"id"`
	Name     string         `gorm:"not null" json:"name"`
	Alias    pq.StringArray `gorm:"type:text[]" json:"alias,omitempty"`
	ParentID *uint          `gorm:"index" json:"parent_id,omitempty"`
	Parent   *FoodCategory  `gorm:"foreignKey:ParentID" json:"-"`
}

func (FoodCategory) TableName() string {
	return "food_category"
}

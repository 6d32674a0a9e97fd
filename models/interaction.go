package models

import "time"

// ProductClick is the append-only interaction log: one row per product view
// or scan. Rows are only ever inserted and read, never updated; the history
// recommender derives its time-decay weights from ClickedAt.
type ProductClick struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"index;not null" json:"user_id"`
	FoodProductID uint      `gorm:"index;not null" json:"food_product_id"`
	ClickedAt     time.Time `gorm:"not null;autoCreateTime" json:"clicked_at"`
	UserScan      bool      `gorm:"default:false" json:"user_scan"`
}

func (ProductClick) TableName() string {
	return "user_product_clicks"
}

type UserProductFavorite struct {
	UserID        uint      `gorm:"primaryKey" json:"user_id"`
	FoodProductID uint      `gorm:"primaryKey" json:"food_product_id"`
	FavoritedAt   time.Time `gorm:"not null;autoCreateTime" json:"favorited_at"`
}

func (UserProductFavorite) TableName() string {
	return "user_product_favorites"
}

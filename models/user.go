package models

import (
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"not null" json:"-"`
	FullName string `json:"full_name"`

	// Goal drives which weight vector ranks products for this user.
	Goal      Goal           `gorm:"type:text" json:"goal"`
	Allergies pq.StringArray `gorm:"type:text[]" json:"allergies"`
}

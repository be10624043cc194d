package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents the user record stored in the database.
// Email is unique among users that are not soft deleted.
type User struct {
	ID              string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	FirstName       string    `json:"firstName" gorm:"type:varchar(100);index"`
	LastName        string    `json:"lastName" gorm:"type:varchar(100);index"`
	Email           string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex:idx_users_email_active,where:is_deleted = false"`
	Phone           string    `json:"phone" gorm:"type:varchar(50)"`
	BirthDate       time.Time `json:"birthDate" gorm:"type:date"`
	Status          string    `json:"status" gorm:"type:varchar(50);index"`
	MarketingSource string    `json:"marketingSource" gorm:"type:varchar(100)"`
	IsDeleted       bool      `json:"isDeleted" gorm:"not null;default:false;index"`
	CreatedAt       time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// TableName pins the table name so both drivers agree on it
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns an ID when the caller did not provide one
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

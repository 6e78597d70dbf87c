package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Seller is a salesperson who earns commission on recorded sales.
type Seller struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	FirstName string         `gorm:"type:varchar(255);not null" json:"first_name"`
	LastName  string         `gorm:"type:varchar(255);not null" json:"last_name"`
	Email     string         `gorm:"type:varchar(255);not null;uniqueIndex:sellers_email_key" json:"email"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Seller) TableName() string { return "sellers" }

// FullName joins first and last name.
func (s Seller) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

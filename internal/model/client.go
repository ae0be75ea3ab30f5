package model

import (
	"time"
)

// Client represents a customer record owned by exactly one advisor.
// Rows are hard-deleted so the ON DELETE CASCADE on notes actually
// removes them.
type Client struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null"`
	Email     string    `json:"email" gorm:"type:varchar(100)"`
	Phone     string    `json:"phone" gorm:"type:varchar(30);uniqueIndex;not null"`
	AdvisorID uint      `json:"-" gorm:"index;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Notes []Note `json:"-" gorm:"constraint:OnDelete:CASCADE"`
}

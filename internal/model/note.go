package model

import (
	"time"
)

// MeetingDateFormat is the wire format for note meeting dates.
const MeetingDateFormat = "2006-01-02"

// Note represents a meeting note attached to exactly one client.
// Advisor ownership is transitive through the client.
type Note struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	ClientID    uint      `json:"client_id" gorm:"index;not null"`
	MeetingDate time.Time `json:"meeting_date" gorm:"type:date;not null"`
	Summary     string    `json:"summary" gorm:"type:text"`
	NextSteps   string    `json:"next_steps" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

package models

import "time"

// Bounds for event text fields, in characters.
const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 250
)

// Event is a dated neighborhood happening.
type Event struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"index;not null" json:"user_id"`
	NeighborhoodID uint      `gorm:"index;not null" json:"neighborhood_id"`
	Title          string    `gorm:"size:255;not null" json:"title"`
	Description    string    `gorm:"type:text;not null" json:"description"`
	EventDate      time.Time `gorm:"not null" json:"event_date"`
	Location       string    `gorm:"size:255;not null" json:"location"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

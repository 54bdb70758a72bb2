package models

import "time"

// Neighborhood is the community unit a user belongs to, keyed by postal code.
type Neighborhood struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PostalCode string    `gorm:"size:16;uniqueIndex;not null" json:"postal_code"`
	Name       string    `gorm:"size:128;not null" json:"name"`
	City       string    `gorm:"size:128;not null" json:"city"`
	CreatedAt  time.Time `json:"-"`
}

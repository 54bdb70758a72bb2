package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User is a resident registered into one neighborhood. Passwords are stored as bcrypt hashes only.
type User struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	FullName       string       `gorm:"size:100;not null" json:"full_name"`
	Email          string       `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash   string       `gorm:"column:password;size:255;not null" json:"-"`
	Phone          *string      `gorm:"size:32" json:"phone"`
	NeighborhoodID uint         `gorm:"index;not null" json:"neighborhood_id"`
	ProfilePic     *string      `gorm:"size:1024" json:"profile_pic"`
	ProfilePicKey  *string      `gorm:"size:512" json:"-"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
	Neighborhood   Neighborhood `gorm:"foreignKey:NeighborhoodID" json:"-"`
}

// BeforeSave normalizes the email so uniqueness is case-insensitive.
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return nil
}

// Author is the public slice of a user embedded in posts, events, comments and neighbor lists.
type Author struct {
	ID         uint    `json:"id"`
	FullName   string  `json:"full_name"`
	ProfilePic *string `json:"profile_pic"`
}

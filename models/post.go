package models

import "time"

// Post categories accepted on every write.
const (
	CategoryNews         = "news"
	CategoryLostAndFound = "lost_and_found"
	CategoryHelpRequest  = "help_request"
)

// Categories lists the closed set of post categories.
var Categories = []string{CategoryNews, CategoryLostAndFound, CategoryHelpRequest}

// MaxPostImages bounds the images attached to one post.
const MaxPostImages = 3

// Post is a neighborhood bulletin entry.
type Post struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	UserID         uint        `gorm:"index;not null" json:"user_id"`
	NeighborhoodID uint        `gorm:"index;not null" json:"neighborhood_id"`
	Title          string      `gorm:"size:255;not null" json:"title"`
	Content        string      `gorm:"type:text;not null" json:"content"`
	Category       string      `gorm:"size:32;not null" json:"category"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	Images         []PostImage `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
}

// PostImage records one stored image of a post.
type PostImage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PostID     uint      `gorm:"index;not null" json:"post_id"`
	ImagePath  string    `gorm:"size:1024;not null" json:"image_path"`
	StorageKey string    `gorm:"size:512;not null" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsValidCategory reports whether c belongs to Categories.
func IsValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

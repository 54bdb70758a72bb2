package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hoodlink/server/middleware"
	"github.com/hoodlink/server/models"
	"github.com/hoodlink/server/utils"
)

// HomeController serves the dashboard summary of the caller's neighborhood.
type HomeController struct {
	db *gorm.DB
}

// NewHomeController creates a new HomeController instance.
func NewHomeController(db *gorm.DB) *HomeController {
	return &HomeController{db: db}
}

// GetHome returns counts and the latest activity of the caller's neighborhood.
func (h *HomeController) GetHome(ctx *gin.Context) {
	p := middleware.CurrentPrincipal(ctx)
	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var neighborhood models.Neighborhood
	if err := h.db.First(&neighborhood, p.NeighborhoodID).Error; err != nil {
		if isNotFound(err) {
			utils.Error(ctx, http.StatusNotFound, 40461, "Neighborhood not found")
			return
		}
		serverError(ctx, 50061, "Failed to load dashboard", err)
		return
	}

	// Counters degrade to 0 instead of failing the whole dashboard
	count := func(counter string, q *gorm.DB) int64 {
		var n int64
		if err := q.Count(&n).Error; err != nil {
			utils.Sugar.Warnw("dashboard counter failed", "counter", counter, "user_id", p.UserID, "err", err)
			return 0
		}
		return n
	}
	neighborsCount := count("neighbors", h.db.Model(&models.User{}).Where("neighborhood_id = ? AND id <> ?", p.NeighborhoodID, p.UserID))
	postsThisMonth := count("posts_this_month", h.db.Model(&models.Post{}).Where("neighborhood_id = ? AND created_at >= ?", p.NeighborhoodID, monthStart))
	upcomingEvents := count("upcoming_events", h.db.Model(&models.Event{}).Where("neighborhood_id = ? AND event_date BETWEEN ? AND ?", p.NeighborhoodID, now, now.AddDate(0, 0, 7)))
	conversations := count("conversations", h.db.Model(&models.Conversation{}).Where("user1_id = ? OR user2_id = ?", p.UserID, p.UserID))
	unread := count("unread_messages", h.db.Model(&models.Message{}).Where("receiver_id = ? AND read_at IS NULL", p.UserID))

	var recentPosts []models.Post
	if err := h.db.Where("neighborhood_id = ?", p.NeighborhoodID).Order("created_at DESC, id DESC").Limit(3).Find(&recentPosts).Error; err != nil {
		serverError(ctx, 50061, "Failed to load dashboard", err)
		return
	}
	posts, err := hydratePosts(h.db, recentPosts)
	if err != nil {
		serverError(ctx, 50061, "Failed to load dashboard", err)
		return
	}

	var nextEvents []models.Event
	if err := h.db.Where("neighborhood_id = ? AND event_date >= ?", p.NeighborhoodID, now).Order("event_date ASC, id ASC").Limit(3).Find(&nextEvents).Error; err != nil {
		serverError(ctx, 50061, "Failed to load dashboard", err)
		return
	}
	events, err := hydrateEvents(h.db, nextEvents)
	if err != nil {
		serverError(ctx, 50061, "Failed to load dashboard", err)
		return
	}

	utils.Success(ctx, gin.H{
		"neighborhood": gin.H{
			"id":          neighborhood.ID,
			"name":        neighborhood.Name,
			"city":        neighborhood.City,
			"postal_code": neighborhood.PostalCode,
		},
		"neighbors_count":       neighborsCount,
		"posts_this_month":      postsThisMonth,
		"upcoming_events_count": upcomingEvents,
		"conversations_count":   conversations,
		"unread_messages_count": unread,
		"recent_posts":          posts,
		"upcoming_events":       events,
	})
}

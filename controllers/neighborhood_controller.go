package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hoodlink/server/models"
	"github.com/hoodlink/server/utils"
)

const (
	neighborhoodsCacheKey = "cache:neighborhoods:all"
	neighborhoodsCacheTTL = time.Hour
)

// NeighborhoodController exposes the neighborhood directory used by the signup form.
type NeighborhoodController struct {
	db *gorm.DB
}

// NewNeighborhoodController creates a new NeighborhoodController instance.
func NewNeighborhoodController(db *gorm.DB) *NeighborhoodController {
	return &NeighborhoodController{db: db}
}

// ListNeighborhoods returns every neighborhood ordered by name.
func (n *NeighborhoodController) ListNeighborhoods(ctx *gin.Context) {
	neighborhoods := []models.Neighborhood{}
	if utils.CacheGetJSON(neighborhoodsCacheKey, &neighborhoods) {
		utils.Success(ctx, neighborhoods)
		return
	}

	if err := n.db.Order("name ASC, id ASC").Find(&neighborhoods).Error; err != nil {
		serverError(ctx, 50071, "Failed to load neighborhoods", err)
		return
	}
	utils.CacheSetJSON(neighborhoodsCacheKey, neighborhoods, neighborhoodsCacheTTL)
	utils.Success(ctx, neighborhoods)
}

package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hoodlink/server/models"
	"github.com/hoodlink/server/utils"
)

// ActiveUser rejects tokens whose account was deleted or moved to another
// neighborhood after the token was issued. It must run after AuthRequired.
func ActiveUser(db *gorm.DB) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userID := ctx.GetUint(ContextUserIDKey)

		var user models.User
		err := db.WithContext(ctx.Request.Context()).
			Select("id", "neighborhood_id").
			First(&user, userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Abort(ctx, http.StatusUnauthorized, 40105, "Account no longer exists")
			return
		}
		if err != nil {
			utils.Sugar.Errorw("failed to verify session", "user_id", userID, "route", ctx.FullPath(), "err", err)
			utils.Abort(ctx, http.StatusInternalServerError, 50101, "Failed to verify session")
			return
		}

		if user.NeighborhoodID != ctx.GetUint(ContextNeighborhoodIDKey) {
			utils.Abort(ctx, http.StatusUnauthorized, 40106, "Session is out of date, please log in again")
			return
		}
		ctx.Next()
	}
}

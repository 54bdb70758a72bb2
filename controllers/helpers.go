package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/hoodlink/server/middleware"
	"github.com/hoodlink/server/models"
	"github.com/hoodlink/server/policy"
	"github.com/hoodlink/server/storage"
	"github.com/hoodlink/server/utils"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// parseID reads a positive numeric path parameter.
func parseID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// listPaging reads limit/offset for list endpoints.
func listPaging(ctx *gin.Context) (int, int) {
	return utils.Paging(ctx.Query("limit"), ctx.Query("offset"), defaultListLimit, maxListLimit)
}

// serverError logs the cause with the request it belongs to and answers a static 500 message.
func serverError(ctx *gin.Context, code int, message string, err error, keysAndValues ...interface{}) {
	fields := []interface{}{
		"code", code,
		"method", ctx.Request.Method,
		"route", ctx.FullPath(),
		"client_ip", ctx.ClientIP(),
		"user_id", ctx.GetUint(middleware.ContextUserIDKey),
		"err", err,
	}
	utils.Sugar.Errorw(message, append(fields, keysAndValues...)...)
	utils.Error(ctx, http.StatusInternalServerError, code, message)
}

// authorize writes a 403 envelope when the decision denies access.
func authorize(ctx *gin.Context, d policy.Decision, code int) bool {
	if d.Allowed {
		return true
	}
	utils.Error(ctx, http.StatusForbidden, code, d.Reason)
	return false
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint failure.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// loadAuthors fetches the public author slice for the given user ids.
func loadAuthors(db *gorm.DB, ids []uint) (map[uint]models.Author, error) {
	out := map[uint]models.Author{}
	ids = utils.UniqueUint(ids)
	if len(ids) == 0 {
		return out, nil
	}
	var authors []models.Author
	if err := db.Model(&models.User{}).Select("id, full_name, profile_pic").Where("id IN ?", ids).Find(&authors).Error; err != nil {
		return nil, err
	}
	for _, a := range authors {
		out[a.ID] = a
	}
	return out, nil
}

// removeBlobs deletes stored files best effort. Failures are left to the reconciler.
func removeBlobs(store storage.Storage, keys ...string) {
	for _, k := range keys {
		if k == "" {
			continue
		}
		if err := store.Delete(k); err != nil {
			utils.Sugar.Warnw("delete blob failed", "key", k, "err", err)
		}
	}
}

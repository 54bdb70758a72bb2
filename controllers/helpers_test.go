package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hoodlink/server/middleware"
	"github.com/hoodlink/server/utils"
)

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prevLogger, prevSugar := utils.Logger, utils.Sugar
	utils.Logger = zap.New(core)
	utils.Sugar = utils.Logger.Sugar()
	t.Cleanup(func() { utils.Logger, utils.Sugar = prevLogger, prevSugar })
	return logs
}

func TestServerErrorLogsCause(t *testing.T) {
	logs := observeLogs(t)

	r := gin.New()
	r.DELETE("/api/post/:postId", func(ctx *gin.Context) {
		ctx.Set(middleware.ContextUserIDKey, uint(7))
		serverError(ctx, 50026, "Failed to delete post", errors.New("connection reset"), "post_id", uint(3))
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/post/3", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 50026, body.Code)
	assert.Equal(t, "Failed to delete post", body.Message, "the cause stays out of the response")

	entries := logs.FilterMessage("Failed to delete post").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "connection reset", fields["err"])
	assert.Equal(t, "DELETE", fields["method"])
	assert.Equal(t, "/api/post/:postId", fields["route"])
	assert.EqualValues(t, 7, fields["user_id"])
	assert.EqualValues(t, 3, fields["post_id"])
}

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoodlink/server/config"
	"github.com/hoodlink/server/utils"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	config.Override(config.AppConfig{
		JWTSecret:      "middleware-test-secret",
		AccessTokenTTL: time.Hour,
		RedisDisabled:  true,
	})
	os.Exit(m.Run())
}

func protectedRouter() *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthRequired(), func(c *gin.Context) {
		p := CurrentPrincipal(c)
		token, claims := CurrentToken(c)
		c.JSON(http.StatusOK, gin.H{
			"user":         p.UserID,
			"neighborhood": p.NeighborhoodID,
			"email":        c.GetString(ContextEmailKey),
			"has_token":    token != "" && claims != nil,
		})
	})
	return r
}

func call(r *gin.Engine, header string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestAuthRequired(t *testing.T) {
	r := protectedRouter()

	w, body := call(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "No token provided", body["message"])

	w, _ = call(r, "Token abc")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = call(r, "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := utils.GenerateToken(11, "ann@example.com", 4, 0)
	require.NoError(t, err)

	w, body = call(r, "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 11, body["user"])
	assert.EqualValues(t, 4, body["neighborhood"])
	assert.Equal(t, "ann@example.com", body["email"])
	assert.Equal(t, true, body["has_token"])

	utils.BlacklistToken(token, time.Now().Add(time.Hour))
	w, body = call(r, "bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token has been revoked", body["message"])
}

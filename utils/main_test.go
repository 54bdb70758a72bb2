package utils

import (
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hoodlink/server/config"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	config.Override(config.AppConfig{
		JWTSecret:      "utils-test-secret",
		AccessTokenTTL: time.Hour,
		RedisDisabled:  true,
	})
	os.Exit(m.Run())
}

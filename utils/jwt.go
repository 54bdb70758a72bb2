package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hoodlink/server/config"
)

// Claims defines JWT claims used in the application.
type Claims struct {
	UserID         uint   `json:"id"`
	Email          string `json:"email"`
	NeighborhoodID uint   `json:"neighborhood_id"`
	jwt.RegisteredClaims
}

// GenerateToken issues a JWT for the user identity. A non-positive duration
// falls back to the configured access token TTL.
func GenerateToken(userID uint, email string, neighborhoodID uint, duration time.Duration) (string, error) {
	cfg := config.Get()
	if duration <= 0 {
		duration = cfg.AccessTokenTTL
	}

	now := time.Now()
	claims := Claims{
		UserID:         userID,
		Email:          email,
		NeighborhoodID: neighborhoodID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ParseToken validates a JWT and returns its claims.
func ParseToken(tokenStr string) (*Claims, error) {
	cfg := config.Get()
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.JWTSecret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == 0 {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

// RevokeToken blacklists a parsed token until it would have expired anyway.
func RevokeToken(token string, claims *Claims) {
	if token == "" || claims == nil || claims.ExpiresAt == nil {
		return
	}
	BlacklistToken(token, claims.ExpiresAt.Time)
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hoodlink/server/policy"
	"github.com/hoodlink/server/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextEmailKey stores the email inside Gin context.
	ContextEmailKey = "email"
	// ContextNeighborhoodIDKey stores the neighborhood the token was issued for.
	ContextNeighborhoodIDKey = "neighborhood_id"
	// ContextTokenKey keeps the raw bearer token for revocation on logout.
	ContextTokenKey = "token"
	// ContextClaimsKey keeps the parsed claims.
	ContextClaimsKey = "claims"
)

// AuthRequired ensures the request carries a valid, unrevoked bearer token.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := strings.TrimSpace(ctx.GetHeader("Authorization"))
		if authHeader == "" {
			utils.Abort(ctx, http.StatusUnauthorized, 40101, "No token provided")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			utils.Abort(ctx, http.StatusUnauthorized, 40102, "Invalid authorization header format")
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			utils.Abort(ctx, http.StatusUnauthorized, 40101, "No token provided")
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			utils.Abort(ctx, http.StatusUnauthorized, 40103, "Invalid or expired token")
			return
		}

		if utils.IsTokenBlacklisted(tokenString) {
			utils.Abort(ctx, http.StatusUnauthorized, 40104, "Token has been revoked")
			return
		}

		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextEmailKey, claims.Email)
		ctx.Set(ContextNeighborhoodIDKey, claims.NeighborhoodID)
		ctx.Set(ContextTokenKey, tokenString)
		ctx.Set(ContextClaimsKey, claims)
		ctx.Next()
	}
}

// CurrentPrincipal returns the caller identity stored by AuthRequired.
func CurrentPrincipal(ctx *gin.Context) policy.Principal {
	return policy.Principal{
		UserID:         ctx.GetUint(ContextUserIDKey),
		NeighborhoodID: ctx.GetUint(ContextNeighborhoodIDKey),
	}
}

// CurrentToken returns the raw bearer token and its claims.
func CurrentToken(ctx *gin.Context) (string, *utils.Claims) {
	claims, _ := ctx.Get(ContextClaimsKey)
	c, _ := claims.(*utils.Claims)
	return ctx.GetString(ContextTokenKey), c
}

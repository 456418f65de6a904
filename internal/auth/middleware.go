package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextUserID is the gin context key holding the authenticated user id.
const ContextUserID = "userId"

// AuthMiddleware requires a valid bearer token when secret is set and is a
// no-op otherwise.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Missing or invalid Authorization header"}})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := ParseJWT(secret, tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Invalid or expired token"}})
			return
		}
		c.Set(ContextUserID, claims.UserID)
		c.Next()
	}
}

// CanAct reports whether the caller may act for userID: always when auth
// is disabled, otherwise only for the token's own user.
func CanAct(c *gin.Context, userID string) bool {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return true
	}
	id, _ := v.(string)
	return id == userID
}

package middlewares

import (
	"net/http"
	"strings"

	"pantrytrack/utils"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware requires a valid Bearer token and stores the user id under
// "userID".
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}
		authenticate(c, strings.TrimPrefix(authHeader, "Bearer "), secret)
	}
}

// WSAuthMiddleware accepts the token from the "token" query parameter too,
// since browsers cannot set headers on websocket handshakes.
func WSAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.Query("token")
		if tokenStr == "" {
			if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
				tokenStr = strings.TrimPrefix(h, "Bearer ")
			}
		}
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		authenticate(c, tokenStr, secret)
	}
}

func authenticate(c *gin.Context, tokenStr, secret string) {
	userID, email, err := utils.ParseJWT(tokenStr, secret)
	if err != nil || userID == 0 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.Set("userID", userID)
	c.Set("email", email)
	c.Next()
}

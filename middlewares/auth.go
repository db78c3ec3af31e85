package middlewares

import (
	"net/http"
	"strings"

	"brainquest/utils"

	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

// AuthMiddleware verifies the bearer JWT and sets the caller's user id in
// context. Websocket clients cannot set headers, so a token query parameter
// is accepted as well.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid Authorization token format"})
				return
			}
			token = parts[1]
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Missing Authorization token"})
			return
		}

		claims, err := utils.ParseJWTToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid or expired token"})
			return
		}

		c.Set(userIDKey, claims.Identity())
		c.Set("userName", claims.Name)
		c.Next()
	}
}

// UserID returns the authenticated caller set by AuthMiddleware
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

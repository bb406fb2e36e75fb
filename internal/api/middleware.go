package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/moogmodular/asksats-sub000/internal/models"
)

// AuthMiddleware validates the bearer token and stores the caller's user ID
// in the request context under "userId".
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c, "Authentication required")
			return
		}

		jwtSecret := c.MustGet("jwtSecret").([]byte)
		parsed, err := jwt.Parse(token,
			func(t *jwt.Token) (interface{}, error) { return jwtSecret, nil },
			jwt.WithValidMethods([]string{"HS256"}),
		)
		if err != nil || !parsed.Valid {
			abortUnauthorized(c, "Invalid token")
			return
		}

		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			abortUnauthorized(c, "Invalid token claims")
			return
		}
		sub, ok := claims["sub"].(string)
		if !ok || sub == "" {
			abortUnauthorized(c, "Invalid user ID in token")
			return
		}

		c.Set("userId", sub)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func abortUnauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Status:  "error",
		Code:    "UNAUTHORIZED",
		Message: message,
	})
	c.Abort()
}

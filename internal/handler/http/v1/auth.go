package v1

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shenikar/securewatch_sims/internal/config"
	"github.com/sirupsen/logrus"
)

const roleContextKey = "role"

// JWTAuthMiddleware - middleware для аутентификации по JWT-токену
func JWTAuthMiddleware(cfg *config.Config, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			log.Warn("Authorization token missing from request")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization token required"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			log.WithError(err).Warn("Invalid authorization token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		role := ""
		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if r, ok := claims["role"].(string); ok {
				role = r
			}
		}
		c.Set(roleContextKey, role)

		c.Next()
	}
}

// RequireRole пропускает запрос только для перечисленных ролей
func RequireRole(log *logrus.Logger, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(roleContextKey)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		log.WithField("role", role).Warn("Insufficient role for request")
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
	}
}

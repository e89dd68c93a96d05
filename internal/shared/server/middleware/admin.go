package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"interview-backend/internal/shared/server/respond"
)

// AdminKey guards operator-only routes behind a shared API key. With no key
// configured, the routes are disabled outright.
func AdminKey(key string) gin.HandlerFunc {
	key = strings.TrimSpace(key)
	return func(c *gin.Context) {
		if key == "" {
			respond.Error(c, http.StatusNotFound, "not_found", "not found", nil)
			return
		}
		provided := strings.TrimSpace(c.GetHeader("X-Admin-Key"))
		if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid admin key", nil)
			return
		}
		c.Next()
	}
}

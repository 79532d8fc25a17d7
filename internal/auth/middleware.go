package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type contextKey string

const userContextKey contextKey = "docboxUser"

// SessionMiddleware resolves the session cookie and injects the current user.
// Every miss cause responds 401 the same way: callers only learn they must
// sign in again.
func SessionMiddleware(service *Service, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		secret, err := c.Cookie(cookieName)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "sign in required"})
			return
		}

		user, ok, err := service.CurrentUser(c.Request.Context(), secret)
		if err != nil || !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "sign in required"})
			return
		}

		c.Set(string(userContextKey), user)
		c.Next()
	}
}

// CurrentUser extracts the authenticated user from the request context.
func CurrentUser(c *gin.Context) (User, bool) {
	value, exists := c.Get(string(userContextKey))
	if !exists {
		return User{}, false
	}
	user, ok := value.(User)
	return user, ok
}

// RequireUser fetches the authenticated user, guarding against a zero id.
func RequireUser(c *gin.Context) (User, bool) {
	user, ok := CurrentUser(c)
	if !ok || user.ID == uuid.Nil {
		return User{}, false
	}
	return user, true
}

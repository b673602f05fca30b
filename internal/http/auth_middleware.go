package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"drive-auth/internal/domain"
	"drive-auth/internal/service"
)

const authUserKey = "auth_user"

// BearerAuthMiddleware resuelve el bearer token opaco contra el record store
// y guarda el usuario en el contexto.
func BearerAuthMiddleware(session *service.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		if session == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "session not configured"})
			c.Abort()
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		token := strings.TrimSpace(header[len("Bearer "):])
		user, err := session.UserByToken(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not resolve token"})
			c.Abort()
			return
		}
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(authUserKey, *user)
		c.Next()
	}
}

// GetAuthUser obtiene el usuario autenticado desde el contexto.
func GetAuthUser(c *gin.Context) (domain.User, bool) {
	val, ok := c.Get(authUserKey)
	if !ok {
		return domain.User{}, false
	}
	user, ok := val.(domain.User)
	return user, ok
}

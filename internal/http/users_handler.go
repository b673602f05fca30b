package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"drive-auth/internal/service"
)

// UsersHandler expone operaciones administrativas sobre los registros.
type UsersHandler struct {
	logger       *zap.Logger
	registration *service.RegistrationService
}

func NewUsersHandler(logger *zap.Logger, registration *service.RegistrationService) *UsersHandler {
	return &UsersHandler{
		logger:       logger,
		registration: registration,
	}
}

// List maneja GET /users.
func (h *UsersHandler) List(c *gin.Context) {
	users, err := h.registration.GetAllUsers(c.Request.Context())
	if err != nil {
		h.logger.Error("list users failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}

// Count maneja GET /users/count.
func (h *UsersHandler) Count(c *gin.Context) {
	n, err := h.registration.UsersCount(c.Request.Context())
	if err != nil {
		h.logger.Error("count users failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not count users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

// Incomplete maneja GET /users/incomplete.
func (h *UsersHandler) Incomplete(c *gin.Context) {
	users, err := h.registration.IncompleteRegistrations(c.Request.Context())
	if err != nil {
		h.logger.Error("list incomplete failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list incomplete registrations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}

// Delete maneja DELETE /users/:email.
func (h *UsersHandler) Delete(c *gin.Context) {
	email := c.Param("email")
	err := h.registration.DeleteUser(c.Request.Context(), email)
	if errors.Is(err, service.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		h.logger.Error("delete user failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// Cleanup maneja POST /users/cleanup.
func (h *UsersHandler) Cleanup(c *gin.Context) {
	count, err := h.registration.CleanupIncompleteRegistrations(c.Request.Context())
	if err != nil {
		h.logger.Error("cleanup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not clean up registrations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": count})
}

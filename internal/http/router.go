package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"drive-auth/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	session *service.Session,
	authH *AuthHandler,
	usersH *UsersHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	auth := r.Group("/auth")
	auth.POST("/login", authH.Login)
	auth.POST("/logout", authH.Logout)
	auth.POST("/google", authH.GoogleLogin)
	auth.GET("/me", BearerAuthMiddleware(session), authH.Me)

	register := r.Group("/register")
	register.POST("/step1", authH.RegisterStep1)
	register.POST("/step2", authH.RegisterStep2)
	register.POST("/step3", authH.RegisterStep3)
	register.GET("/status", authH.RegistrationStatus)

	users := r.Group("/users")
	users.GET("", usersH.List)
	users.GET("/count", usersH.Count)
	users.GET("/incomplete", usersH.Incomplete)
	users.DELETE("/:email", usersH.Delete)
	users.POST("/cleanup", usersH.Cleanup)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}

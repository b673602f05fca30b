package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"drive-auth/internal/domain"
	"drive-auth/internal/service"
)

// AuthHandler mantiene dependencias para endpoints de autenticación y registro.
type AuthHandler struct {
	logger       *zap.Logger
	registration *service.RegistrationService
	session      *service.Session
	google       *service.GoogleAuthService
}

// NewAuthHandler crea una instancia de AuthHandler con dependencias necesarias.
func NewAuthHandler(logger *zap.Logger, registration *service.RegistrationService, session *service.Session, google *service.GoogleAuthService) *AuthHandler {
	return &AuthHandler{
		logger:       logger,
		registration: registration,
		session:      session,
		google:       google,
	}
}

// Login maneja POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	token, err := h.session.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err, "could not log in")
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Logout maneja POST /auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.session.Logout(c.Request.Context()); err != nil {
		h.writeError(c, err, "could not log out")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

// GoogleLogin maneja POST /auth/google.
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req struct {
		IDToken string `json:"id_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid google login request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	token, err := h.google.LoginWithGoogle(c.Request.Context(), req.IDToken)
	if err != nil {
		h.writeError(c, err, "could not log in with google")
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Me maneja GET /auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := GetAuthUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no active session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// RegisterStep1 maneja POST /register/step1.
func (h *AuthHandler) RegisterStep1(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid step1 request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	token, err := h.registration.RegisterStep1(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err, "could not register")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"token": token, "registration_step": domain.StepCredentials})
}

// RegisterStep2 maneja POST /register/step2.
func (h *AuthHandler) RegisterStep2(c *gin.Context) {
	var req struct {
		Email      string `json:"email" binding:"required"`
		FirstName  string `json:"first_name"`
		LastName   string `json:"last_name"`
		MiddleName string `json:"middle_name"`
		BirthDate  string `json:"birth_date"`
		Gender     string `json:"gender"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid step2 request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	token, err := h.registration.RegisterStep2(c.Request.Context(), service.Step2Input{
		Email:      req.Email,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		MiddleName: req.MiddleName,
		BirthDate:  req.BirthDate,
		Gender:     domain.Gender(req.Gender),
	})
	if err != nil {
		h.writeError(c, err, "could not save personal details")
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "registration_step": domain.StepProfile})
}

// RegisterStep3 maneja POST /register/step3.
func (h *AuthHandler) RegisterStep3(c *gin.Context) {
	var req struct {
		Email                  string `json:"email" binding:"required"`
		ProfilePhotoURI        string `json:"profile_photo_uri"`
		DriverLicenseNumber    string `json:"driver_license_number"`
		DriverLicenseIssueDate string `json:"driver_license_issue_date"`
		DriverLicensePhotoURI  string `json:"driver_license_photo_uri"`
		PassportPhotoURI       string `json:"passport_photo_uri"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid step3 request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	token, err := h.registration.RegisterStep3(c.Request.Context(), service.Step3Input{
		Email:                  req.Email,
		ProfilePhotoURI:        req.ProfilePhotoURI,
		DriverLicenseNumber:    req.DriverLicenseNumber,
		DriverLicenseIssueDate: req.DriverLicenseIssueDate,
		DriverLicensePhotoURI:  req.DriverLicensePhotoURI,
		PassportPhotoURI:       req.PassportPhotoURI,
	})
	if err != nil {
		h.writeError(c, err, "could not save documents")
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "registration_step": domain.StepDocuments})
}

// RegistrationStatus maneja GET /register/status.
func (h *AuthHandler) RegistrationStatus(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email query param required"})
		return
	}

	registered, err := h.registration.IsEmailRegistered(c.Request.Context(), email)
	if err != nil {
		h.writeError(c, err, "could not check registration")
		return
	}
	if !registered {
		c.JSON(http.StatusOK, gin.H{"registered": false})
		return
	}

	user, err := h.registration.GetUserByEmail(c.Request.Context(), email)
	if err != nil {
		h.writeError(c, err, "could not check registration")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"registered":        true,
		"registration_step": user.RegistrationStep,
		"completed":         user.RegistrationCompleted,
	})
}

// writeError mapea la taxonomía de errores del dominio a códigos HTTP.
func (h *AuthHandler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrExternalIdentity):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		h.logger.Error(fallback, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

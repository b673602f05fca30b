package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"drive-auth/internal/domain"
	"drive-auth/internal/repository"
)

// Ventana de retención para registros abandonados.
const defaultCleanupRetention = 24 * time.Hour

// RegistrationService coordina el registro en tres etapas.
type RegistrationService struct {
	logger    *zap.Logger
	users     repository.UserRepository
	session   *Session
	retention time.Duration
}

func NewRegistrationService(logger *zap.Logger, users repository.UserRepository, session *Session, retention time.Duration) *RegistrationService {
	if retention <= 0 {
		retention = defaultCleanupRetention
	}
	return &RegistrationService{
		logger:    logger,
		users:     users,
		session:   session,
		retention: retention,
	}
}

// Step2Input agrupa los datos personales de la segunda etapa.
type Step2Input struct {
	Email      string
	FirstName  string
	LastName   string
	MiddleName string
	BirthDate  string // DDMMYYYY
	Gender     domain.Gender
}

// Step3Input agrupa los documentos de la tercera etapa.
type Step3Input struct {
	Email                  string
	ProfilePhotoURI        string
	DriverLicenseNumber    string
	DriverLicenseIssueDate string // DDMMYYYY
	DriverLicensePhotoURI  string
	PassportPhotoURI       string
}

// RegisterStep1 crea el registro con credenciales y abre la sesión.
func (s *RegistrationService) RegisterStep1(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if !isValidEmail(email) {
		return "", newValidationError("email", "malformed email address")
	}
	if len(password) < minPasswordLength {
		return "", newValidationError("password", "password too short")
	}

	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return "", ErrDuplicateEmail
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", wrapRepoErr("get user by email", err)
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	user := domain.User{
		Email:            email,
		PasswordHash:     passwordHash,
		Token:            generateToken(),
		Gender:           domain.GenderUnspecified,
		AuthProvider:     domain.ProviderLocal,
		CreatedAt:        now,
		LastLogin:        now,
		RegistrationStep: domain.StepCredentials,
	}

	if err := s.users.Insert(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return "", ErrDuplicateEmail
		}
		return "", wrapRepoErr("insert user", err)
	}

	if err := s.session.Activate(ctx, user); err != nil {
		return "", err
	}

	s.logger.Info("registration step 1 complete", zap.String("email", email))
	return user.Token, nil
}

// RegisterStep2 completa los datos personales y rota el token.
func (s *RegistrationService) RegisterStep2(ctx context.Context, in Step2Input) (string, error) {
	if isBlank(in.FirstName) {
		return "", newValidationError("first_name", "required")
	}
	if isBlank(in.LastName) {
		return "", newValidationError("last_name", "required")
	}
	if !isValidDate(in.BirthDate) {
		return "", newValidationError("birth_date", "expected 8 digits DDMMYYYY in range")
	}

	user, err := s.getForUpdate(ctx, in.Email)
	if err != nil {
		return "", err
	}

	user.FirstName = in.FirstName
	user.LastName = in.LastName
	user.MiddleName = in.MiddleName
	user.BirthDate = in.BirthDate
	user.Gender = in.Gender
	if user.Gender == "" {
		user.Gender = domain.GenderUnspecified
	}
	user.Token = generateToken()
	user.RegistrationStep = maxStep(user.RegistrationStep, domain.StepProfile)

	if err := s.saveAndActivate(ctx, user); err != nil {
		return "", err
	}

	s.logger.Info("registration step 2 complete", zap.String("email", user.Email))
	return user.Token, nil
}

// RegisterStep3 adjunta los documentos, marca el registro completo y rota el token.
func (s *RegistrationService) RegisterStep3(ctx context.Context, in Step3Input) (string, error) {
	if isBlank(in.DriverLicenseNumber) {
		return "", newValidationError("driver_license_number", "required")
	}
	if !isValidDate(in.DriverLicenseIssueDate) {
		return "", newValidationError("driver_license_issue_date", "expected 8 digits DDMMYYYY in range")
	}
	if isBlank(in.DriverLicensePhotoURI) {
		return "", newValidationError("driver_license_photo_uri", "required")
	}
	if isBlank(in.PassportPhotoURI) {
		return "", newValidationError("passport_photo_uri", "required")
	}

	user, err := s.getForUpdate(ctx, in.Email)
	if err != nil {
		return "", err
	}

	user.ProfilePhotoURI = in.ProfilePhotoURI
	user.DriverLicenseNumber = in.DriverLicenseNumber
	user.DriverLicenseIssueDate = in.DriverLicenseIssueDate
	user.DriverLicensePhotoURI = in.DriverLicensePhotoURI
	user.PassportPhotoURI = in.PassportPhotoURI
	user.Token = generateToken()
	user.RegistrationStep = maxStep(user.RegistrationStep, domain.StepDocuments)
	user.RegistrationCompleted = true
	user.DocumentsUploaded = true

	if err := s.saveAndActivate(ctx, user); err != nil {
		return "", err
	}

	s.logger.Info("registration step 3 complete", zap.String("email", user.Email))
	return user.Token, nil
}

// IsEmailRegistered indica si existe un registro para el email (match exacto).
func (s *RegistrationService) IsEmailRegistered(ctx context.Context, email string) (bool, error) {
	_, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, wrapRepoErr("get user by email", err)
	}
	return true, nil
}

// IncompleteRegistrations lista registros con etapa < 3.
func (s *RegistrationService) IncompleteRegistrations(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.ListIncomplete(ctx)
	if err != nil {
		return nil, wrapRepoErr("list incomplete", err)
	}
	return users, nil
}

// CleanupIncompleteRegistrations purga registros abandonados más viejos que
// la ventana de retención. Devuelve la cantidad eliminada.
func (s *RegistrationService) CleanupIncompleteRegistrations(ctx context.Context) (int64, error) {
	threshold := time.Now().UTC().Add(-s.retention)
	count, err := s.users.DeleteIncompleteBefore(ctx, threshold)
	if err != nil {
		return 0, wrapRepoErr("cleanup incomplete", err)
	}
	if count > 0 {
		s.logger.Info("cleaned up incomplete registrations", zap.Int64("count", count))
	}
	return count, nil
}

// GetAllUsers devuelve todos los registros.
func (s *RegistrationService) GetAllUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, wrapRepoErr("list users", err)
	}
	return users, nil
}

// UsersCount devuelve la cantidad total de registros.
func (s *RegistrationService) UsersCount(ctx context.Context) (int, error) {
	n, err := s.users.Count(ctx)
	if err != nil {
		return 0, wrapRepoErr("count users", err)
	}
	return n, nil
}

// LastRegisteredUser devuelve el registro más reciente.
func (s *RegistrationService) LastRegisteredUser(ctx context.Context) (domain.User, error) {
	user, err := s.users.LastRegistered(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, wrapRepoErr("last registered", err)
	}
	return user, nil
}

// GetUserByEmail devuelve un registro por su clave de identidad.
func (s *RegistrationService) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, wrapRepoErr("get user by email", err)
	}
	return user, nil
}

// DeleteUser elimina el registro; si era la sesión actual, la cierra.
func (s *RegistrationService) DeleteUser(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	current, err := s.session.CurrentUser(ctx)
	if err != nil {
		return err
	}

	if err := s.users.DeleteByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return wrapRepoErr("delete user", err)
	}

	if current != nil && current.Email == email {
		if err := s.session.Logout(ctx); err != nil {
			return err
		}
	}

	s.logger.Info("user deleted", zap.String("email", email))
	return nil
}

func (s *RegistrationService) getForUpdate(ctx context.Context, email string) (domain.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, wrapRepoErr("get user by email", err)
	}
	return user, nil
}

func (s *RegistrationService) saveAndActivate(ctx context.Context, user domain.User) error {
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return wrapRepoErr("update user", err)
	}
	return s.session.Activate(ctx, user)
}

func maxStep(a, b int) int {
	if a > b {
		return a
	}
	return b
}

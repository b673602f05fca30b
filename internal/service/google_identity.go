package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"drive-auth/internal/domain"
	"drive-auth/internal/repository"
)

// GoogleAccount es el descriptor de cuenta que entrega el proveedor externo.
type GoogleAccount struct {
	Subject    string
	Email      string
	GivenName  string
	FamilyName string
	PictureURL string
}

// GoogleAuthService ingiere identidades federadas de Google.
type GoogleAuthService struct {
	logger   *zap.Logger
	users    repository.UserRepository
	session  *Session
	clientID string
}

func NewGoogleAuthService(logger *zap.Logger, users repository.UserRepository, session *Session, clientID string) *GoogleAuthService {
	return &GoogleAuthService{
		logger:   logger,
		users:    users,
		session:  session,
		clientID: clientID,
	}
}

// LoginWithGoogle extrae el descriptor del ID token y abre sesión.
// La firma del token ya fue verificada por el SDK del proveedor aguas arriba;
// acá solo se leen los claims de perfil y se chequea la audiencia.
func (s *GoogleAuthService) LoginWithGoogle(ctx context.Context, idToken string) (string, error) {
	account, err := s.parseIDToken(idToken)
	if err != nil {
		return "", err
	}

	user, err := s.upsertAccount(ctx, account)
	if err != nil {
		return "", err
	}

	if err := s.session.Activate(ctx, user); err != nil {
		return "", err
	}

	s.logger.Info("google login", zap.String("email", user.Email))
	return user.Token, nil
}

func (s *GoogleAuthService) parseIDToken(idToken string) (GoogleAccount, error) {
	if idToken == "" {
		return GoogleAccount{}, fmt.Errorf("%w: empty id token", ErrExternalIdentity)
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(idToken, claims); err != nil {
		return GoogleAccount{}, fmt.Errorf("%w: %v", ErrExternalIdentity, err)
	}

	if s.clientID != "" {
		audience, err := claims.GetAudience()
		if err != nil || !containsString(audience, s.clientID) {
			return GoogleAccount{}, fmt.Errorf("%w: audience mismatch", ErrExternalIdentity)
		}
	}

	account := GoogleAccount{
		Subject:    stringClaim(claims, "sub"),
		Email:      stringClaim(claims, "email"),
		GivenName:  stringClaim(claims, "given_name"),
		FamilyName: stringClaim(claims, "family_name"),
		PictureURL: stringClaim(claims, "picture"),
	}
	if account.Email == "" {
		return GoogleAccount{}, fmt.Errorf("%w: email claim missing", ErrExternalIdentity)
	}
	return account, nil
}

// upsertAccount pliega el descriptor externo en un registro de usuario:
// crea si no existe, si no actualiza nombre/proveedor y rota el token.
func (s *GoogleAuthService) upsertAccount(ctx context.Context, account GoogleAccount) (domain.User, error) {
	now := time.Now().UTC()

	existing, err := s.users.GetByEmail(ctx, account.Email)
	if err == nil {
		existing.Token = generateToken()
		existing.LastLogin = now
		existing.AuthProvider = domain.ProviderGoogle
		existing.GoogleID = account.Subject
		if account.GivenName != "" {
			existing.FirstName = account.GivenName
		}
		if account.FamilyName != "" {
			existing.LastName = account.FamilyName
		}
		if err := s.users.Update(ctx, existing); err != nil {
			return domain.User{}, wrapRepoErr("update user", err)
		}
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return domain.User{}, wrapRepoErr("get user by email", err)
	}

	// Cuenta federada nueva: el asistente de registro se omite por completo.
	user := domain.User{
		Email:                 account.Email,
		Token:                 generateToken(),
		FirstName:             account.GivenName,
		LastName:              account.FamilyName,
		Gender:                domain.GenderUnspecified,
		AuthProvider:          domain.ProviderGoogle,
		GoogleID:              account.Subject,
		ProfilePhotoURI:       account.PictureURL,
		CreatedAt:             now,
		LastLogin:             now,
		RegistrationStep:      domain.StepDocuments,
		RegistrationCompleted: true,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		return domain.User{}, wrapRepoErr("insert user", err)
	}
	return user, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	value, _ := claims[key].(string)
	return value
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

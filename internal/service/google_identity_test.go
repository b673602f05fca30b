package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"drive-auth/internal/domain"
)

func signedIDToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign id token: %v", err)
	}
	return token
}

func newGoogleService(repo *mockUserRepo, clientID string) (*GoogleAuthService, *Session) {
	session := NewSession(zap.NewNop(), repo, NewMemoryPrefsStore(), nil)
	return NewGoogleAuthService(zap.NewNop(), repo, session, clientID), session
}

func TestLoginWithGoogle_CreatesCompletedAccount(t *testing.T) {
	repo := newMockUserRepo()
	svc, session := newGoogleService(repo, "")

	idToken := signedIDToken(t, jwt.MapClaims{
		"sub":         "google-sub-1",
		"email":       "New@Gmail.com",
		"given_name":  "Ana",
		"family_name": "García",
		"picture":     "https://lh3.example/ana.jpg",
	})

	token, err := svc.LoginWithGoogle(context.Background(), idToken)
	if err != nil {
		t.Fatalf("expected google login success, got %v", err)
	}

	stored, ok := repo.usersByEmail["New@Gmail.com"]
	if !ok {
		t.Fatalf("expected record keyed by the email claim as-is")
	}
	if stored.Token != token {
		t.Fatalf("expected returned token persisted")
	}
	if stored.AuthProvider != domain.ProviderGoogle || stored.GoogleID != "google-sub-1" {
		t.Fatalf("expected google provider metadata, got %+v", stored)
	}
	if stored.RegistrationStep != domain.StepDocuments || !stored.RegistrationCompleted {
		t.Fatalf("federated accounts skip the wizard, got step %d", stored.RegistrationStep)
	}
	if stored.DocumentsUploaded {
		t.Fatalf("federated accounts have no uploaded documents")
	}
	if stored.ProfilePhotoURI != "https://lh3.example/ana.jpg" {
		t.Fatalf("expected picture claim as profile photo")
	}

	current, err := session.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if current == nil || current.Email != "New@Gmail.com" {
		t.Fatalf("expected active session after google login")
	}
}

func TestLoginWithGoogle_ExistingAccountRotatesToken(t *testing.T) {
	repo := newMockUserRepo()
	seeded := seedUser(t, repo, "a@b.com", "secret1")
	svc, _ := newGoogleService(repo, "")

	idToken := signedIDToken(t, jwt.MapClaims{
		"sub":         "google-sub-2",
		"email":       "a@b.com",
		"given_name":  "Ana",
		"family_name": "García",
	})

	token, err := svc.LoginWithGoogle(context.Background(), idToken)
	if err != nil {
		t.Fatalf("expected google login success, got %v", err)
	}
	if token == seeded.Token {
		t.Fatalf("expected token rotation for existing account")
	}

	stored := repo.usersByEmail["a@b.com"]
	if stored.AuthProvider != domain.ProviderGoogle || stored.GoogleID != "google-sub-2" {
		t.Fatalf("expected provider switched to google")
	}
	if stored.FirstName != "Ana" || stored.LastName != "García" {
		t.Fatalf("expected names folded in from claims")
	}
	if stored.PasswordHash != seeded.PasswordHash {
		t.Fatalf("google login must not touch the password hash")
	}
	if stored.RegistrationStep != domain.StepCredentials {
		t.Fatalf("google login must not advance the wizard for existing accounts")
	}
	if stored.LastLogin.Before(time.Now().UTC().Add(-time.Minute)) {
		t.Fatalf("expected last login refreshed")
	}
}

func TestLoginWithGoogle_AudienceMismatch(t *testing.T) {
	repo := newMockUserRepo()
	svc, _ := newGoogleService(repo, "expected-client-id")

	idToken := signedIDToken(t, jwt.MapClaims{
		"sub":   "google-sub-3",
		"email": "a@b.com",
		"aud":   "some-other-client",
	})

	_, err := svc.LoginWithGoogle(context.Background(), idToken)
	if !errors.Is(err, ErrExternalIdentity) {
		t.Fatalf("expected ErrExternalIdentity, got %v", err)
	}
	if len(repo.usersByEmail) != 0 {
		t.Fatalf("expected no writes on rejected token")
	}
}

func TestLoginWithGoogle_AudienceMatch(t *testing.T) {
	repo := newMockUserRepo()
	svc, _ := newGoogleService(repo, "expected-client-id")

	idToken := signedIDToken(t, jwt.MapClaims{
		"sub":   "google-sub-4",
		"email": "a@b.com",
		"aud":   "expected-client-id",
	})

	if _, err := svc.LoginWithGoogle(context.Background(), idToken); err != nil {
		t.Fatalf("expected matching audience to pass, got %v", err)
	}
}

func TestLoginWithGoogle_BadTokens(t *testing.T) {
	repo := newMockUserRepo()
	svc, _ := newGoogleService(repo, "")

	if _, err := svc.LoginWithGoogle(context.Background(), ""); !errors.Is(err, ErrExternalIdentity) {
		t.Fatalf("expected ErrExternalIdentity for empty token, got %v", err)
	}
	if _, err := svc.LoginWithGoogle(context.Background(), "not.a.jwt"); !errors.Is(err, ErrExternalIdentity) {
		t.Fatalf("expected ErrExternalIdentity for garbage token, got %v", err)
	}

	noEmail := signedIDToken(t, jwt.MapClaims{"sub": "google-sub-5"})
	if _, err := svc.LoginWithGoogle(context.Background(), noEmail); !errors.Is(err, ErrExternalIdentity) {
		t.Fatalf("expected ErrExternalIdentity for missing email claim, got %v", err)
	}
}

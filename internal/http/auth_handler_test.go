package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"drive-auth/internal/domain"
	"drive-auth/internal/repository"
	"drive-auth/internal/service"
)

type mockUserRepo struct {
	usersByEmail map[string]domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{usersByEmail: make(map[string]domain.User)}
}

func (m *mockUserRepo) Insert(_ context.Context, user domain.User) error {
	if _, ok := m.usersByEmail[user.Email]; ok {
		return repository.ErrDuplicate
	}
	m.usersByEmail[user.Email] = user
	return nil
}

func (m *mockUserRepo) Update(_ context.Context, user domain.User) error {
	if _, ok := m.usersByEmail[user.Email]; !ok {
		return repository.ErrNotFound
	}
	m.usersByEmail[user.Email] = user
	return nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	user, ok := m.usersByEmail[email]
	if !ok {
		return domain.User{}, repository.ErrNotFound
	}
	return user, nil
}

func (m *mockUserRepo) GetByToken(_ context.Context, token string) (domain.User, error) {
	for _, user := range m.usersByEmail {
		if user.Token == token {
			return user, nil
		}
	}
	return domain.User{}, repository.ErrNotFound
}

func (m *mockUserRepo) UpdateToken(_ context.Context, email, token string) error {
	user, ok := m.usersByEmail[email]
	if !ok {
		return repository.ErrNotFound
	}
	user.Token = token
	m.usersByEmail[email] = user
	return nil
}

func (m *mockUserRepo) UpdateLastLogin(_ context.Context, email string, at time.Time) error {
	user, ok := m.usersByEmail[email]
	if !ok {
		return repository.ErrNotFound
	}
	user.LastLogin = at
	m.usersByEmail[email] = user
	return nil
}

func (m *mockUserRepo) DeleteByEmail(_ context.Context, email string) error {
	if _, ok := m.usersByEmail[email]; !ok {
		return repository.ErrNotFound
	}
	delete(m.usersByEmail, email)
	return nil
}

func (m *mockUserRepo) Count(_ context.Context) (int, error) {
	return len(m.usersByEmail), nil
}

func (m *mockUserRepo) ListAll(_ context.Context) ([]domain.User, error) {
	var users []domain.User
	for _, user := range m.usersByEmail {
		users = append(users, user)
	}
	return users, nil
}

func (m *mockUserRepo) LastRegistered(_ context.Context) (domain.User, error) {
	var latest domain.User
	found := false
	for _, user := range m.usersByEmail {
		if !found || user.CreatedAt.After(latest.CreatedAt) {
			latest = user
			found = true
		}
	}
	if !found {
		return domain.User{}, repository.ErrNotFound
	}
	return latest, nil
}

func (m *mockUserRepo) ListIncomplete(_ context.Context) ([]domain.User, error) {
	var users []domain.User
	for _, user := range m.usersByEmail {
		if user.RegistrationStep < domain.StepDocuments {
			users = append(users, user)
		}
	}
	return users, nil
}

func (m *mockUserRepo) DeleteIncompleteBefore(_ context.Context, threshold time.Time) (int64, error) {
	var count int64
	for email, user := range m.usersByEmail {
		if user.RegistrationStep < domain.StepDocuments && user.CreatedAt.Before(threshold) {
			delete(m.usersByEmail, email)
			count++
		}
	}
	return count, nil
}

func newTestRouter(repo *mockUserRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	session := service.NewSession(logger, repo, nil, nil)
	registration := service.NewRegistrationService(logger, repo, session, 0)
	google := service.NewGoogleAuthService(logger, repo, session, "")
	authH := NewAuthHandler(logger, registration, session, google)
	usersH := NewUsersHandler(logger, registration)
	return NewRouter(logger, session, authH, usersH)
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestRegisterStep1Endpoint(t *testing.T) {
	router := newTestRouter(newMockUserRepo())

	rec := doJSON(t, router, http.MethodPost, "/register/step1", gin.H{
		"email": "a@b.com", "password": "secret1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if token, _ := body["token"].(string); token == "" {
		t.Fatalf("expected token in response, got %v", body)
	}

	rec = doJSON(t, router, http.MethodPost, "/register/step1", gin.H{
		"email": "a@b.com", "password": "secret1",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", rec.Code)
	}
}

func TestRegisterStep1Endpoint_MissingFields(t *testing.T) {
	router := newTestRouter(newMockUserRepo())

	rec := doJSON(t, router, http.MethodPost, "/register/step1", gin.H{"email": "a@b.com"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing password, got %d", rec.Code)
	}
}

func TestRegisterStep2Endpoint_Validation(t *testing.T) {
	router := newTestRouter(newMockUserRepo())

	rec := doJSON(t, router, http.MethodPost, "/register/step1", gin.H{
		"email": "a@b.com", "password": "secret1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("step1: %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/register/step2", gin.H{
		"email": "a@b.com", "first_name": "Ana", "last_name": "García", "birth_date": "99999999",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-range date, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/register/step2", gin.H{
		"email": "ghost@b.com", "first_name": "Ana", "last_name": "García", "birth_date": "01011990",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown email, got %d", rec.Code)
	}
}

func TestLoginEndpoint(t *testing.T) {
	repo := newMockUserRepo()
	router := newTestRouter(repo)

	rec := doJSON(t, router, http.MethodPost, "/register/step1", gin.H{
		"email": "a@b.com", "password": "secret1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("step1: %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/auth/login", gin.H{
		"email": "a@b.com", "password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/auth/login", gin.H{
		"email": "a@b.com", "password": "secret1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if token, _ := body["token"].(string); token == "" {
		t.Fatalf("expected token in login response")
	}
}

func TestMeEndpoint(t *testing.T) {
	repo := newMockUserRepo()
	router := newTestRouter(repo)

	rec := doJSON(t, router, http.MethodPost, "/register/step1", gin.H{
		"email": "a@b.com", "password": "secret1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("step1: %d", rec.Code)
	}
	token, _ := decodeBody(t, rec)["token"].(string)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", recorder.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", recorder.Code, recorder.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer auth_token_0_bogus")
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown token, got %d", recorder.Code)
	}
}

func TestRegistrationStatusEndpoint(t *testing.T) {
	router := newTestRouter(newMockUserRepo())

	rec := doJSON(t, router, http.MethodGet, "/register/status?email=a@b.com", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if registered, _ := decodeBody(t, rec)["registered"].(bool); registered {
		t.Fatalf("expected registered=false before step1")
	}

	if rec := doJSON(t, router, http.MethodPost, "/register/step1", gin.H{
		"email": "a@b.com", "password": "secret1",
	}); rec.Code != http.StatusCreated {
		t.Fatalf("step1: %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/register/status?email=a@b.com", nil)
	body := decodeBody(t, rec)
	if registered, _ := body["registered"].(bool); !registered {
		t.Fatalf("expected registered=true after step1")
	}
	if step, _ := body["registration_step"].(float64); int(step) != domain.StepCredentials {
		t.Fatalf("expected step 1, got %v", body["registration_step"])
	}

	rec = doJSON(t, router, http.MethodGet, "/register/status", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without email param, got %d", rec.Code)
	}
}

func TestGoogleLoginEndpoint_BadToken(t *testing.T) {
	router := newTestRouter(newMockUserRepo())

	rec := doJSON(t, router, http.MethodPost, "/auth/google", gin.H{"id_token": "garbage"})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for unparseable id token, got %d", rec.Code)
	}
}

func TestUsersEndpoints(t *testing.T) {
	repo := newMockUserRepo()
	router := newTestRouter(repo)

	for _, email := range []string{"a@b.com", "b@b.com"} {
		if rec := doJSON(t, router, http.MethodPost, "/register/step1", gin.H{
			"email": email, "password": "secret1",
		}); rec.Code != http.StatusCreated {
			t.Fatalf("step1 %s: %d", email, rec.Code)
		}
	}

	rec := doJSON(t, router, http.MethodGet, "/users/count", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("count: %d", rec.Code)
	}
	if n, _ := decodeBody(t, rec)["count"].(float64); int(n) != 2 {
		t.Fatalf("expected count 2, got %v", n)
	}

	rec = doJSON(t, router, http.MethodGet, "/users/incomplete", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("incomplete: %d", rec.Code)
	}
	if n, _ := decodeBody(t, rec)["count"].(float64); int(n) != 2 {
		t.Fatalf("expected 2 incomplete, got %v", n)
	}

	rec = doJSON(t, router, http.MethodDelete, "/users/b@b.com", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodDelete, "/users/ghost@b.com", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/users/cleanup", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("cleanup: %d", rec.Code)
	}
	if deleted, _ := decodeBody(t, rec)["deleted"].(float64); int(deleted) != 0 {
		t.Fatalf("fresh records must not be purged, got %v", deleted)
	}
}

func TestLogoutEndpoint(t *testing.T) {
	router := newTestRouter(newMockUserRepo())

	if rec := doJSON(t, router, http.MethodPost, "/register/step1", gin.H{
		"email": "a@b.com", "password": "secret1",
	}); rec.Code != http.StatusCreated {
		t.Fatalf("step1: %d", rec.Code)
	}

	rec := doJSON(t, router, http.MethodPost, "/auth/logout", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: %d", rec.Code)
	}
	// Logout de nuevo sigue siendo 200.
	rec = doJSON(t, router, http.MethodPost, "/auth/logout", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("second logout: %d", rec.Code)
	}
}

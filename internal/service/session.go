package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"drive-auth/internal/domain"
	"drive-auth/internal/repository"
)

// Session mantiene el estado "quién está autenticado": cache en memoria,
// token en memoria y namespace durable, en ese orden de precedencia.
type Session struct {
	logger  *zap.Logger
	users   repository.UserRepository
	prefs   PrefsStore
	limiter LoginRateLimiter

	mu     sync.Mutex
	token  string
	cached *domain.User

	chain []sessionResolver
}

type sessionResolver func(ctx context.Context) (*domain.User, error)

// NewSession crea el contexto de sesión inyectable. prefs nil usa memoria;
// limiter nil deshabilita el throttle de login.
func NewSession(logger *zap.Logger, users repository.UserRepository, prefs PrefsStore, limiter LoginRateLimiter) *Session {
	if prefs == nil {
		prefs = NewMemoryPrefsStore()
	}
	s := &Session{
		logger:  logger,
		users:   users,
		prefs:   prefs,
		limiter: limiter,
	}
	// Cadena de resolución explícita: el orden es el contrato.
	s.chain = []sessionResolver{
		s.resolveFromCache,
		s.resolveFromMemoryToken,
		s.resolveFromDurableToken,
	}
	return s
}

// Login valida credenciales, rota el token y actualiza memoria y durable.
func (s *Session) Login(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", ErrInvalidCredentials
	}
	if s.limiter != nil && !s.limiter.Allow(email) {
		return "", ErrRateLimited
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", wrapRepoErr("get user by email", err)
	}
	if !checkPassword(user.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}

	newToken := generateToken()
	if err := s.users.UpdateToken(ctx, email, newToken); err != nil {
		return "", wrapRepoErr("update token", err)
	}
	now := time.Now().UTC()
	if err := s.users.UpdateLastLogin(ctx, email, now); err != nil {
		return "", wrapRepoErr("update last login", err)
	}

	user.Token = newToken
	user.LastLogin = now
	if err := s.Activate(ctx, user); err != nil {
		return "", err
	}

	s.logger.Info("login", zap.String("email", email))
	return newToken, nil
}

// Activate fija al usuario como sesión actual en memoria y durable.
func (s *Session) Activate(ctx context.Context, user domain.User) error {
	s.mu.Lock()
	userCopy := user
	s.token = user.Token
	s.cached = &userCopy
	s.mu.Unlock()

	if err := s.prefs.Put(ctx, prefKeyUserToken, user.Token); err != nil {
		return wrapRepoErr("persist session token", err)
	}
	if err := s.prefs.Put(ctx, prefKeyUserEmail, user.Email); err != nil {
		return wrapRepoErr("persist session email", err)
	}
	if err := s.prefs.Put(ctx, prefKeyIsLoggedIn, "true"); err != nil {
		return wrapRepoErr("persist session flag", err)
	}
	return nil
}

// CurrentUser recorre la cadena de resolución; nil sin error significa
// que no hay sesión activa.
func (s *Session) CurrentUser(ctx context.Context) (*domain.User, error) {
	for _, resolve := range s.chain {
		user, err := resolve(ctx)
		if err != nil {
			return nil, err
		}
		if user != nil {
			return user, nil
		}
	}
	return nil, nil
}

func (s *Session) resolveFromCache(_ context.Context) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached == nil {
		return nil, nil
	}
	userCopy := *s.cached
	return &userCopy, nil
}

func (s *Session) resolveFromMemoryToken(ctx context.Context) (*domain.User, error) {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()
	if token == "" {
		return nil, nil
	}

	user, err := s.users.GetByToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapRepoErr("get user by token", err)
	}

	s.mu.Lock()
	userCopy := user
	s.cached = &userCopy
	s.mu.Unlock()
	return &user, nil
}

func (s *Session) resolveFromDurableToken(ctx context.Context) (*domain.User, error) {
	token, err := s.prefs.Get(ctx, prefKeyUserToken)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapRepoErr("read durable token", err)
	}

	user, err := s.users.GetByToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		// Token durable huérfano: se purga para sanear el estado.
		s.purgeDurable(ctx)
		return nil, nil
	}
	if err != nil {
		return nil, wrapRepoErr("get user by token", err)
	}

	s.mu.Lock()
	userCopy := user
	s.token = user.Token
	s.cached = &userCopy
	s.mu.Unlock()
	return &user, nil
}

// UserByToken resuelve un bearer token arbitrario contra el record store.
func (s *Session) UserByToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, nil
	}
	user, err := s.users.GetByToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapRepoErr("get user by token", err)
	}
	return &user, nil
}

// Logout limpia memoria y durable. Es idempotente.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.cached = nil
	s.mu.Unlock()

	s.purgeDurable(ctx)
	s.logger.Info("logout")
	return nil
}

// UpdateUserToken rota el token de un usuario manteniendo coherente la sesión.
func (s *Session) UpdateUserToken(ctx context.Context, email, newToken string) error {
	email = normalizeEmail(email)
	err := s.users.UpdateToken(ctx, email, newToken)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return wrapRepoErr("update token", err)
	}

	s.mu.Lock()
	isCurrent := s.cached != nil && s.cached.Email == email
	if isCurrent {
		s.token = newToken
		s.cached.Token = newToken
	}
	s.mu.Unlock()

	if isCurrent {
		if err := s.prefs.Put(ctx, prefKeyUserToken, newToken); err != nil {
			return wrapRepoErr("persist session token", err)
		}
	}
	return nil
}

func (s *Session) purgeDurable(ctx context.Context) {
	for _, key := range []string{prefKeyUserToken, prefKeyUserEmail, prefKeyIsLoggedIn} {
		if err := s.prefs.Remove(ctx, key); err != nil {
			s.logger.Warn("durable session cleanup failed", zap.String("key", key), zap.Error(err))
		}
	}
}

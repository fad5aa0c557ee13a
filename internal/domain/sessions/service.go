package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"pet-care-api/internal/domain/access"
	"pet-care-api/internal/domain/users"
	"pet-care-api/internal/platform/apperr"
	"pet-care-api/internal/platform/logger"
	"pet-care-api/internal/platform/metrics"
	"pet-care-api/internal/ports/auth"

	"github.com/google/uuid"
)

const MinPasswordLength = 6

var (
	// ErrInvalidCredentials es el único error de Login hacia afuera: email desconocido,
	// cuenta inactiva y contraseña incorrecta se ven idénticos.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthorized)
	ErrInvalidToken       = fmt.Errorf("%w: invalid or expired token", apperr.ErrUnauthorized)
)

type Options struct {
	TokenTTL time.Duration
	Metrics  *metrics.Metrics
	Logger   logger.Logger

	// AllowPrivilegedSignup habilita role VET/ADMIN en Register. Por defecto solo USER.
	AllowPrivilegedSignup bool
}

type Service struct {
	users       users.Repository
	hasher      auth.PasswordHasher
	codec       auth.TokenCodec
	revocations auth.RevocationStore

	ttl             time.Duration
	allowPrivileged bool
	metrics         *metrics.Metrics
	log             logger.Logger
	now             func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

var _ auth.AuthVerifier = (*Service)(nil)

func NewService(repo users.Repository, hasher auth.PasswordHasher, codec auth.TokenCodec, revocations auth.RevocationStore, opts Options) *Service {
	ttl := opts.TokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		users:           repo,
		hasher:          hasher,
		codec:           codec,
		revocations:     revocations,
		ttl:             ttl,
		allowPrivileged: opts.AllowPrivilegedSignup,
		metrics:         opts.Metrics,
		log:             log.With(map[string]any{"component": "sessions"}),
		now:             time.Now,
	}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Role     string // vacío = USER
}

// Result es lo que devuelven Register y Login.
type Result struct {
	User      users.User
	Token     string
	ExpiresAt time.Time
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (Result, error) {
	res, err := s.register(ctx, in)
	s.metrics.AuthAttempt("register", outcome(err))
	return res, err
}

func (s *Service) register(ctx context.Context, in RegisterInput) (Result, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Result{}, fmt.Errorf("%w: name is required", apperr.ErrInvalidInput)
	}
	email := users.NormalizeEmail(in.Email)
	if err := users.ValidateEmail(email); err != nil {
		return Result{}, err
	}
	if utf8.RuneCountInString(in.Password) < MinPasswordLength {
		return Result{}, fmt.Errorf("%w: password must have at least %d characters", apperr.ErrInvalidInput, MinPasswordLength)
	}
	role := access.RoleUser
	if strings.TrimSpace(in.Role) != "" {
		r, ok := access.ParseRole(in.Role)
		if !ok {
			return Result{}, fmt.Errorf("%w: role must be USER, VET or ADMIN", apperr.ErrInvalidInput)
		}
		if r != access.RoleUser && !s.allowPrivileged {
			return Result{}, fmt.Errorf("%w: role %s cannot be self-assigned", apperr.ErrForbidden, r)
		}
		role = r
	}

	// Chequeo previo para el caso común; el índice único cubre la carrera.
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return Result{}, users.ErrEmailTaken
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return Result{}, err
	}

	hash, err := s.hasher.HashPassword(ctx, in.Password)
	if err != nil {
		return Result{}, err
	}

	now := s.now()
	u := users.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: hash,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return Result{}, users.ErrEmailTaken
		}
		return Result{}, err
	}

	s.log.Info("user registered", map[string]any{"user_id": u.ID, "role": string(u.Role)})
	return s.issue(u)
}

func (s *Service) Login(ctx context.Context, email, password string) (Result, error) {
	res, err := s.login(ctx, email, password)
	s.metrics.AuthAttempt("login", outcome(err))
	return res, err
}

func (s *Service) login(ctx context.Context, email, password string) (Result, error) {
	u, err := s.users.GetByEmail(ctx, users.NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			return Result{}, err
		}
		// Mismo costo que un usuario real para no filtrar qué emails existen.
		_, _ = s.hasher.VerifyPassword(ctx, password, s.dummy(ctx))
		s.log.Debug("login rejected", map[string]any{"reason": "unknown_email"})
		return Result{}, ErrInvalidCredentials
	}

	ok, err := s.hasher.VerifyPassword(ctx, password, u.PasswordHash)
	if err != nil {
		return Result{}, fmt.Errorf("verify password for %s: %w", u.ID, err)
	}
	if !ok {
		s.log.Debug("login rejected", map[string]any{"reason": "bad_password", "user_id": u.ID})
		return Result{}, ErrInvalidCredentials
	}
	if !u.Active {
		s.log.Debug("login rejected", map[string]any{"reason": "inactive", "user_id": u.ID})
		return Result{}, ErrInvalidCredentials
	}

	return s.issue(u)
}

// Verify implementa auth.AuthVerifier: firma + expiración (codec) y revocaciones.
func (s *Service) Verify(ctx context.Context, token string) (auth.Claims, error) {
	claims, err := s.codec.Parse(token)
	if err != nil {
		return auth.Claims{}, ErrInvalidToken
	}

	revoked, err := s.revocations.IsTokenRevoked(ctx, claims.TokenID)
	if err != nil {
		return auth.Claims{}, err
	}
	if revoked {
		return auth.Claims{}, ErrInvalidToken
	}

	since, ok, err := s.revocations.SubjectRevokedSince(ctx, claims.UserID)
	if err != nil {
		return auth.Claims{}, err
	}
	// Empate cuenta como revocado.
	if ok && !claims.IssuedAt.After(since) {
		return auth.Claims{}, ErrInvalidToken
	}

	return claims, nil
}

// Logout revoca solo el token presentado, hasta su expiración.
func (s *Service) Logout(ctx context.Context, claims auth.Claims) error {
	if strings.TrimSpace(claims.TokenID) == "" {
		// sesión de debug headers: no hay token que revocar
		return nil
	}
	until := claims.ExpiresAt
	if until.IsZero() {
		until = s.now().Add(s.ttl)
	}
	err := s.revocations.RevokeToken(ctx, claims.TokenID, until)
	s.metrics.AuthAttempt("logout", outcome(err))
	if err != nil {
		return err
	}
	s.log.Info("session revoked", map[string]any{"user_id": claims.UserID})
	return nil
}

// RevokeSubject invalida todo token emitido hasta ahora para userID.
// La marca vive lo mismo que un token: después ya no queda ninguno vigente.
func (s *Service) RevokeSubject(ctx context.Context, userID string) error {
	if err := s.revocations.RevokeSubject(ctx, userID, s.now(), s.ttl); err != nil {
		return err
	}
	s.log.Info("all sessions revoked", map[string]any{"user_id": userID})
	return nil
}

func (s *Service) issue(u users.User) (Result, error) {
	now := s.now()
	exp := now.Add(s.ttl)

	token, err := s.codec.Sign(auth.Claims{
		UserID:    u.ID,
		Email:     u.Email,
		Role:      string(u.Role),
		TokenID:   uuid.NewString(),
		IssuedAt:  now,
		ExpiresAt: exp,
	})
	if err != nil {
		return Result{}, err
	}
	return Result{User: u, Token: token, ExpiresAt: exp}, nil
}

// dummy se calcula una sola vez y con los mismos parámetros que los hashes reales.
func (s *Service) dummy(ctx context.Context) string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.HashPassword(ctx, uuid.NewString())
		if err != nil {
			s.log.Warn("dummy hash unavailable", map[string]any{"error": err.Error()})
			return
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, apperr.ErrConflict):
		return "conflict"
	case errors.Is(err, apperr.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, apperr.ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}

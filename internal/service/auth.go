package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/authstack/backend/internal/config"
	"github.com/authstack/backend/internal/db"
	"github.com/authstack/backend/internal/model"
)

const refreshCookieName = "refreshToken"

var (
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials is shared by "no such user" and "wrong password"
	// so login failures leak nothing about which one happened.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrConflict           = errors.New("conflict")
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
)

type UserRepository interface {
	CreateUser(ctx context.Context, id, email, passwordHash string, role model.Role) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, userID string) (*model.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// SessionStore owns the per-user refresh slot. Rotate must be conditional on
// the old hash still being in place; Replace is the unconditional overwrite
// login performs.
type SessionStore interface {
	ReplaceSession(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	RotateSession(ctx context.Context, userID, oldHash, newHash string, expiresAt time.Time) error
	ClearSession(ctx context.Context, userID string) error
}

// ResetTokenLedger makes reset tokens single-use. MarkUsed returns false when
// the token id was already consumed.
type ResetTokenLedger interface {
	MarkUsed(ctx context.Context, jti string, ttl time.Duration) (bool, error)
}

type CookieConfig struct {
	Name     string
	Path     string
	Secure   bool
	SameSite http.SameSite
	MaxAge   int
}

// AuthService orchestrates the credential lifecycle: signup, login, logout,
// refresh, and the two password-reset steps. All session-slot mutation goes
// through the SessionStore; nothing else touches it.
type AuthService struct {
	users     UserRepository
	sessions  SessionStore
	tokens    *TokenService
	hasher    PasswordHasher
	ledger    ResetTokenLedger
	notifier  ResetNotifier
	cookieCfg CookieConfig
}

func NewAuthService(
	users UserRepository,
	sessions SessionStore,
	tokens *TokenService,
	hasher PasswordHasher,
	ledger ResetTokenLedger,
	notifier ResetNotifier,
	cfg config.ServerConfig,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		hasher:   hasher,
		ledger:   ledger,
		notifier: notifier,
		cookieCfg: CookieConfig{
			Name:     refreshCookieName,
			Path:     "/",
			Secure:   cfg.Env == "production",
			SameSite: http.SameSiteLaxMode,
			MaxAge:   int(tokens.RefreshTTL().Seconds()),
		},
	}
}

func (s *AuthService) CookieConfig() CookieConfig {
	return s.cookieCfg
}

func (s *AuthService) Signup(ctx context.Context, email, password, roleInput string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	role, err := model.ParseRole(roleInput)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.CreateUser(ctx, uuid.NewString(), email, hash, role)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: email already exists", ErrConflict)
		}
		return nil, err
	}

	return user, nil
}

// Login issues a fresh access+refresh pair and overwrites the session slot.
// Any refresh token from an earlier login is dead from this point on.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, string, *model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", "", nil, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if db.IsNoRows(err) {
			return "", "", nil, ErrInvalidCredentials
		}
		return "", "", nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return "", "", nil, ErrInvalidCredentials
	}

	accessToken, err := s.tokens.IssueAccess(user.ID, user.Role)
	if err != nil {
		return "", "", nil, err
	}

	refreshToken, expiresAt, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return "", "", nil, err
	}

	if err := s.sessions.ReplaceSession(ctx, user.ID, hashRefreshToken(refreshToken), expiresAt); err != nil {
		return "", "", nil, err
	}

	return accessToken, refreshToken, user, nil
}

// Refresh rotates the session slot to a new refresh token. The rotation is a
// compare-and-swap on the submitted token's hash: of two concurrent calls
// presenting the same token, exactly one wins and the other sees
// ErrInvalidToken.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return "", "", fmt.Errorf("%w: refresh token is required", ErrInvalidInput)
	}

	payload, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return "", "", err
	}

	user, err := s.users.GetUserByID(ctx, payload.UserID)
	if err != nil {
		if db.IsNoRows(err) {
			return "", "", ErrInvalidToken
		}
		return "", "", err
	}

	accessToken, err := s.tokens.IssueAccess(user.ID, user.Role)
	if err != nil {
		return "", "", err
	}

	newRefreshToken, expiresAt, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return "", "", err
	}

	err = s.sessions.RotateSession(ctx, user.ID, hashRefreshToken(refreshToken), hashRefreshToken(newRefreshToken), expiresAt)
	if err != nil {
		if errors.Is(err, db.ErrSessionMismatch) {
			return "", "", ErrInvalidToken
		}
		return "", "", err
	}

	return accessToken, newRefreshToken, nil
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return fmt.Errorf("%w: refresh token is required", ErrInvalidInput)
	}

	payload, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return err
	}

	return s.sessions.ClearSession(ctx, payload.UserID)
}

// RequestPasswordReset issues a reset token and hands it to the notifier.
// Delivery is out of scope here.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if db.IsNoRows(err) {
			return fmt.Errorf("%w: user not found", ErrNotFound)
		}
		return err
	}

	token, err := s.tokens.IssueReset(user.ID)
	if err != nil {
		return err
	}

	return s.notifier.SendPasswordReset(ctx, user.Email, token)
}

// ConfirmPasswordReset consumes a reset token and installs the new password.
// The token is single-use: its id is claimed in the ledger before anything is
// written. The session slot is cleared as well, so a reset forces re-login.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, resetToken, password string) error {
	if strings.TrimSpace(resetToken) == "" || password == "" {
		return fmt.Errorf("%w: token and new password are required", ErrInvalidInput)
	}

	payload, err := s.tokens.VerifyReset(resetToken)
	if err != nil {
		return err
	}

	claimed, err := s.ledger.MarkUsed(ctx, payload.TokenID, time.Until(payload.ExpiresAt))
	if err != nil {
		return err
	}
	if !claimed {
		return ErrInvalidToken
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, payload.UserID, hash); err != nil {
		if db.IsNoRows(err) {
			return ErrInvalidToken
		}
		return err
	}

	return s.sessions.ClearSession(ctx, payload.UserID)
}

// Authenticate verifies a bearer access token and re-reads the user so a
// deleted account loses access immediately, signed token or not. Role comes
// from the stored record, not the token.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*model.AuthUser, error) {
	payload, err := s.tokens.VerifyAccess(accessToken)
	if err != nil {
		return nil, ErrUnauthorized
	}

	user, err := s.users.GetUserByID(ctx, payload.UserID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	return &model.AuthUser{ID: user.ID, Email: user.Email, Role: user.Role}, nil
}

// EnsureAdmin seeds an admin account from ADMIN_EMAIL/ADMIN_PASSWORD when
// one does not exist yet. A no-op when either is unset.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	_, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !db.IsNoRows(err) {
		return err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}

	_, err = s.users.CreateUser(ctx, uuid.NewString(), email, hash, model.RoleAdmin)
	return err
}

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

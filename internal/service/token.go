package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/authstack/backend/internal/config"
	"github.com/authstack/backend/internal/model"
)

const resetPurpose = "reset"

var (
	// ErrInvalidToken covers signature mismatch, malformed input, wrong token
	// kind, and wrong-secret failures. Callers cannot tell these apart.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned only when the signature was otherwise good.
	ErrExpiredToken = errors.New("token expired")

	ErrMisconfigured = errors.New("auth config invalid")
)

type AccessPayload struct {
	UserID    string
	Role      model.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type RefreshPayload struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type ResetPayload struct {
	UserID    string
	TokenID   string
	ExpiresAt time.Time
}

type accessClaims struct {
	Role string `json:"role,omitempty"`
	// Purpose is only ever set on reset tokens, which share the access
	// signing secret. Its presence here is what keeps a reset token from
	// doubling as an access token.
	Purpose string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

type refreshClaims struct {
	jwt.RegisteredClaims
}

// TokenService signs and verifies the three token kinds. Access and refresh
// tokens use distinct secrets so a leaked key cannot forge the other kind;
// reset tokens ride on the access secret with a purpose claim.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	resetTTL      time.Duration
}

func NewTokenService(cfg config.AuthConfig) (*TokenService, error) {
	if cfg.AccessSecret == "" {
		return nil, fmt.Errorf("%w: JWT_ACCESS_SECRET is required", ErrMisconfigured)
	}
	if cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("%w: JWT_REFRESH_SECRET is required", ErrMisconfigured)
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, fmt.Errorf("%w: access and refresh secrets must differ", ErrMisconfigured)
	}

	accessTTL, err := time.ParseDuration(cfg.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ACCESS_TOKEN_TTL", ErrMisconfigured)
	}
	refreshTTL, err := time.ParseDuration(cfg.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid REFRESH_TOKEN_TTL", ErrMisconfigured)
	}
	resetTTL, err := time.ParseDuration(cfg.ResetTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid RESET_TOKEN_TTL", ErrMisconfigured)
	}

	return &TokenService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		resetTTL:      resetTTL,
	}, nil
}

func (s *TokenService) RefreshTTL() time.Duration {
	return s.refreshTTL
}

func (s *TokenService) IssueAccess(userID string, role model.Role) (string, error) {
	now := time.Now()
	claims := accessClaims{
		Role: role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessSecret)
}

func (s *TokenService) IssueRefresh(userID string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.refreshTTL)
	// The jti keeps two tokens minted within the same second distinct;
	// without it, rotation could swap a token for a byte-identical one.
	claims := refreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.refreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (s *TokenService) IssueReset(userID string) (string, error) {
	now := time.Now()
	claims := accessClaims{
		Purpose: resetPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.resetTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessSecret)
}

func (s *TokenService) VerifyAccess(tokenStr string) (*AccessPayload, error) {
	claims := &accessClaims{}
	if err := s.parse(tokenStr, claims, s.accessSecret); err != nil {
		return nil, err
	}
	if claims.Purpose != "" {
		return nil, ErrInvalidToken
	}
	role, err := model.ParseRole(claims.Role)
	if err != nil || claims.Role == "" {
		return nil, ErrInvalidToken
	}
	return &AccessPayload{
		UserID:    claims.Subject,
		Role:      role,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *TokenService) VerifyRefresh(tokenStr string) (*RefreshPayload, error) {
	claims := &refreshClaims{}
	if err := s.parse(tokenStr, claims, s.refreshSecret); err != nil {
		return nil, err
	}
	return &RefreshPayload{
		UserID:    claims.Subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *TokenService) VerifyReset(tokenStr string) (*ResetPayload, error) {
	claims := &accessClaims{}
	if err := s.parse(tokenStr, claims, s.accessSecret); err != nil {
		return nil, err
	}
	if claims.Purpose != resetPurpose {
		return nil, ErrInvalidToken
	}
	return &ResetPayload{
		UserID:    claims.Subject,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *TokenService) parse(tokenStr string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpiredToken
		}
		return ErrInvalidToken
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

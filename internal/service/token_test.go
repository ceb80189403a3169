package service

import (
	"errors"
	"testing"
	"time"

	"github.com/authstack/backend/internal/config"
	"github.com/authstack/backend/internal/model"
)

func testTokenConfig() config.AuthConfig {
	return config.AuthConfig{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessTTL:     "15m",
		RefreshTTL:    "168h",
		ResetTTL:      "1h",
	}
}

func newTestTokenService(t *testing.T, cfg config.AuthConfig) *TokenService {
	t.Helper()
	svc, err := NewTokenService(cfg)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return svc
}

func TestNewTokenServiceValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.AuthConfig)
	}{
		{"missing access secret", func(c *config.AuthConfig) { c.AccessSecret = "" }},
		{"missing refresh secret", func(c *config.AuthConfig) { c.RefreshSecret = "" }},
		{"identical secrets", func(c *config.AuthConfig) { c.RefreshSecret = c.AccessSecret }},
		{"bad access ttl", func(c *config.AuthConfig) { c.AccessTTL = "soon" }},
		{"bad refresh ttl", func(c *config.AuthConfig) { c.RefreshTTL = "" }},
		{"bad reset ttl", func(c *config.AuthConfig) { c.ResetTTL = "1 hour" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testTokenConfig()
			tc.mutate(&cfg)
			if _, err := NewTokenService(cfg); !errors.Is(err, ErrMisconfigured) {
				t.Fatalf("expected ErrMisconfigured, got %v", err)
			}
		})
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := newTestTokenService(t, testTokenConfig())

	token, err := svc.IssueAccess("user-1", model.RoleAdmin)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	payload, err := svc.VerifyAccess(token)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if payload.UserID != "user-1" || payload.Role != model.RoleAdmin {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if !payload.ExpiresAt.After(payload.IssuedAt) {
		t.Fatalf("expiry %v not after issue %v", payload.ExpiresAt, payload.IssuedAt)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	svc := newTestTokenService(t, testTokenConfig())

	token, expiresAt, err := svc.IssueRefresh("user-1")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}

	payload, err := svc.VerifyRefresh(token)
	if err != nil {
		t.Fatalf("VerifyRefresh: %v", err)
	}
	if payload.UserID != "user-1" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	// jwt claims carry second precision.
	if !payload.ExpiresAt.Equal(expiresAt.Truncate(time.Second)) {
		t.Fatalf("expiry mismatch: %v vs %v", payload.ExpiresAt, expiresAt)
	}
}

func TestResetTokenRoundTrip(t *testing.T) {
	svc := newTestTokenService(t, testTokenConfig())

	token, err := svc.IssueReset("user-1")
	if err != nil {
		t.Fatalf("IssueReset: %v", err)
	}

	payload, err := svc.VerifyReset(token)
	if err != nil {
		t.Fatalf("VerifyReset: %v", err)
	}
	if payload.UserID != "user-1" || payload.TokenID == "" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestVerifyRejectsWrongKind(t *testing.T) {
	svc := newTestTokenService(t, testTokenConfig())

	access, err := svc.IssueAccess("user-1", model.RoleUser)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	refresh, _, err := svc.IssueRefresh("user-1")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	reset, err := svc.IssueReset("user-1")
	if err != nil {
		t.Fatalf("IssueReset: %v", err)
	}

	// A refresh token is signed with the other secret; a reset token shares
	// the access secret but carries the purpose claim.
	if _, err := svc.VerifyAccess(refresh); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access verify of refresh token: got %v", err)
	}
	if _, err := svc.VerifyAccess(reset); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access verify of reset token: got %v", err)
	}
	if _, err := svc.VerifyRefresh(access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh verify of access token: got %v", err)
	}
	if _, err := svc.VerifyReset(access); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("reset verify of access token: got %v", err)
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	svc := newTestTokenService(t, testTokenConfig())

	otherCfg := testTokenConfig()
	otherCfg.AccessSecret = "some-other-access-secret"
	otherCfg.RefreshSecret = "some-other-refresh-secret"
	other := newTestTokenService(t, otherCfg)

	token, err := other.IssueAccess("user-1", model.RoleUser)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	if _, err := svc.VerifyAccess(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := svc.VerifyAccess("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	cfg := testTokenConfig()
	cfg.AccessTTL = "-1m"
	cfg.RefreshTTL = "-1m"
	cfg.ResetTTL = "-1m"
	svc := newTestTokenService(t, cfg)

	access, err := svc.IssueAccess("user-1", model.RoleUser)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	refresh, _, err := svc.IssueRefresh("user-1")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	reset, err := svc.IssueReset("user-1")
	if err != nil {
		t.Fatalf("IssueReset: %v", err)
	}

	if _, err := svc.VerifyAccess(access); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
	if _, err := svc.VerifyRefresh(refresh); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
	if _, err := svc.VerifyReset(reset); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

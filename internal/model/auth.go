package model

import (
	"errors"
	"strings"
	"time"
)

// Role is the closed set of account roles. Inputs are normalized once, at
// ParseRole; everything past that point compares Role values directly.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

var ErrUnknownRole = errors.New("unknown role")

// ParseRole maps free-form input ("USER", "Admin", "") onto the enum.
// An empty value defaults to RoleUser.
func ParseRole(value string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "user":
		return RoleUser, nil
	case "admin":
		return RoleAdmin, nil
	default:
		return "", ErrUnknownRole
	}
}

func (r Role) String() string {
	return string(r)
}

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is the single server-stored refresh slot, owned 1:1 by a User.
// TokenHash is a sha256 of the current refresh token; the raw token is never
// persisted.
type Session struct {
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	UpdatedAt time.Time
}

// AuthUser is the request identity attached by the authenticate middleware.
type AuthUser struct {
	ID    string
	Email string
	Role  Role
}

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ResetRequest struct {
	Email string `json:"email"`
}

type ResetConfirmRequest struct {
	Password string `json:"password"`
}

type UserInfo struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type SignupResponse struct {
	Message string   `json:"message"`
	User    UserInfo `json:"user"`
}

type LoginResponse struct {
	Message      string   `json:"message"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	User         UserInfo `json:"user"`
}

type RefreshResponse struct {
	Message      string `json:"message"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type MeResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

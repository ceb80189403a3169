package db

import (
	"context"
	"errors"
	"time"

	"github.com/authstack/backend/internal/model"
)

// ErrSessionMismatch is returned when a conditional rotation finds the slot
// holding a different token than the caller presented. Exactly one of two
// racing refresh calls observes it.
var ErrSessionMismatch = errors.New("session token mismatch")

// ReplaceSession unconditionally installs a new refresh slot for the user.
// Login does this: any prior session dies with the overwrite.
func (db *Postgres) ReplaceSession(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	query := `
		INSERT INTO sessions (user_id, refresh_token_hash, expires_at, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET refresh_token_hash = EXCLUDED.refresh_token_hash,
		    expires_at = EXCLUDED.expires_at,
		    updated_at = NOW()
	`
	_, err := db.Pool.Exec(ctx, query, userID, tokenHash, expiresAt)
	return err
}

// RotateSession swaps the slot to newHash only if it still holds oldHash.
// The single UPDATE is the serialization point for concurrent refreshes on
// the same user.
func (db *Postgres) RotateSession(ctx context.Context, userID, oldHash, newHash string, expiresAt time.Time) error {
	query := `
		UPDATE sessions
		SET refresh_token_hash = $3, expires_at = $4, updated_at = NOW()
		WHERE user_id = $1 AND refresh_token_hash = $2
	`
	tag, err := db.Pool.Exec(ctx, query, userID, oldHash, newHash, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionMismatch
	}
	return nil
}

func (db *Postgres) ClearSession(ctx context.Context, userID string) error {
	query := `DELETE FROM sessions WHERE user_id = $1`
	_, err := db.Pool.Exec(ctx, query, userID)
	return err
}

func (db *Postgres) GetSession(ctx context.Context, userID string) (*model.Session, error) {
	query := `
		SELECT user_id, refresh_token_hash, expires_at, updated_at
		FROM sessions
		WHERE user_id = $1
	`
	var session model.Session
	err := db.Pool.QueryRow(ctx, query, userID).Scan(
		&session.UserID,
		&session.TokenHash,
		&session.ExpiresAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

package db

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const resetLedgerPrefix = "reset:used:"

// ResetLedger records consumed password-reset tokens by jti so a token cannot
// be replayed within its validity window. Entries expire with the token, so
// the ledger never needs sweeping.
type ResetLedger struct {
	client *redis.Client
}

func NewResetLedger(client *redis.Client) *ResetLedger {
	return &ResetLedger{client: client}
}

// MarkUsed claims the jti. It returns false when the token was already
// consumed. A TTL at or below zero means the token has no remaining life and
// the claim is refused outright.
func (l *ResetLedger) MarkUsed(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, nil
	}
	return l.client.SetNX(ctx, resetLedgerPrefix+jti, time.Now().Unix(), ttl).Result()
}

package db

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLedger(t *testing.T) (*ResetLedger, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewResetLedger(client), mr
}

func TestResetLedgerConsumeOnce(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger(t)

	claimed, err := ledger.MarkUsed(ctx, "jti-1", time.Hour)
	if err != nil {
		t.Fatalf("MarkUsed: %v", err)
	}
	if !claimed {
		t.Fatalf("first claim refused")
	}

	claimed, err = ledger.MarkUsed(ctx, "jti-1", time.Hour)
	if err != nil {
		t.Fatalf("MarkUsed replay: %v", err)
	}
	if claimed {
		t.Fatalf("replay claim accepted")
	}

	// A different jti is unaffected.
	claimed, err = ledger.MarkUsed(ctx, "jti-2", time.Hour)
	if err != nil || !claimed {
		t.Fatalf("independent claim: claimed=%v err=%v", claimed, err)
	}
}

func TestResetLedgerRefusesSpentTTL(t *testing.T) {
	ctx := context.Background()
	ledger, _ := newTestLedger(t)

	claimed, err := ledger.MarkUsed(ctx, "jti-1", 0)
	if err != nil {
		t.Fatalf("MarkUsed: %v", err)
	}
	if claimed {
		t.Fatalf("claim with no remaining life accepted")
	}

	claimed, err = ledger.MarkUsed(ctx, "jti-1", -time.Minute)
	if err != nil || claimed {
		t.Fatalf("negative ttl: claimed=%v err=%v", claimed, err)
	}
}

func TestResetLedgerEntriesExpireWithToken(t *testing.T) {
	ctx := context.Background()
	ledger, mr := newTestLedger(t)

	if claimed, err := ledger.MarkUsed(ctx, "jti-1", time.Minute); err != nil || !claimed {
		t.Fatalf("claim: claimed=%v err=%v", claimed, err)
	}

	mr.FastForward(2 * time.Minute)

	// Once the token itself has expired, the ledger entry is gone. Expiry
	// checking is the verifier's job at that point.
	if claimed, err := ledger.MarkUsed(ctx, "jti-1", time.Minute); err != nil || !claimed {
		t.Fatalf("post-expiry claim: claimed=%v err=%v", claimed, err)
	}
}

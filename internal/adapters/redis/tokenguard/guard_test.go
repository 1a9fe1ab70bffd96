package tokenguard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestGuard(t *testing.T) (*Guard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewGuard(client), mr
}

func TestGuard_FirstConsumerWins(t *testing.T) {
	t.Parallel()

	g, _ := newTestGuard(t)
	ctx := context.Background()

	fresh, err := g.Consume(ctx, "tok-1", time.Hour)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if !fresh {
		t.Fatalf("first Consume=false, want true")
	}

	fresh, err = g.Consume(ctx, "tok-1", time.Hour)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if fresh {
		t.Fatalf("second Consume=true, want false")
	}
}

func TestGuard_DistinctTokensAreIndependent(t *testing.T) {
	t.Parallel()

	g, _ := newTestGuard(t)
	ctx := context.Background()

	if fresh, _ := g.Consume(ctx, "tok-1", time.Hour); !fresh {
		t.Fatalf("tok-1 not fresh")
	}
	if fresh, _ := g.Consume(ctx, "tok-2", time.Hour); !fresh {
		t.Fatalf("tok-2 blocked by tok-1")
	}
}

func TestGuard_MarkerExpires(t *testing.T) {
	t.Parallel()

	g, mr := newTestGuard(t)
	ctx := context.Background()

	if fresh, _ := g.Consume(ctx, "tok-1", time.Minute); !fresh {
		t.Fatalf("first Consume=false")
	}

	mr.FastForward(2 * time.Minute)

	// Expired marker means the token counts as fresh again. The provider's
	// own one-shot enforcement covers tokens outliving the guard TTL.
	if fresh, _ := g.Consume(ctx, "tok-1", time.Minute); !fresh {
		t.Fatalf("Consume after expiry=false, want true")
	}
}

func TestGuard_RedisDownReturnsError(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	g := NewGuard(client)
	mr.Close()

	if _, err := g.Consume(context.Background(), "tok-1", time.Hour); err == nil {
		t.Fatalf("expected error with redis down")
	}
}

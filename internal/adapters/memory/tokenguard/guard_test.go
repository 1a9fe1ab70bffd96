package tokenguard

import (
	"context"
	"testing"
	"time"
)

func TestConsume_FirstCallerWins(t *testing.T) {
	t.Parallel()

	g := NewGuard()
	ctx := context.Background()

	fresh, err := g.Consume(ctx, "tok-1", time.Hour)
	if err != nil || !fresh {
		t.Fatalf("first Consume = (%v, %v), want (true, nil)", fresh, err)
	}
	fresh, err = g.Consume(ctx, "tok-1", time.Hour)
	if err != nil || fresh {
		t.Fatalf("second Consume = (%v, %v), want (false, nil)", fresh, err)
	}

	// Different tokens are independent.
	fresh, err = g.Consume(ctx, "tok-2", time.Hour)
	if err != nil || !fresh {
		t.Fatalf("Consume(tok-2) = (%v, %v), want (true, nil)", fresh, err)
	}
}

func TestConsume_ExpiredEntryIsReusable(t *testing.T) {
	t.Parallel()

	now := time.Unix(1000, 0)
	g := NewGuardWithNow(func() time.Time { return now })
	ctx := context.Background()

	if fresh, _ := g.Consume(ctx, "tok-1", time.Minute); !fresh {
		t.Fatal("first Consume should be fresh")
	}

	now = now.Add(2 * time.Minute)
	if fresh, _ := g.Consume(ctx, "tok-1", time.Minute); !fresh {
		t.Fatal("Consume after expiry should be fresh again")
	}
}

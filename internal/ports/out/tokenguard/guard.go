package tokenguard

import (
	"context"
	"time"
)

// Guard marks one-shot recovery tokens as consumed so a replayed fragment is
// rejected before it ever reaches the identity provider. Fragment clearing
// already prevents replay from a well-behaved client; the guard covers
// copied links and back-navigation races.
type Guard interface {
	// Consume marks the token consumed for ttl. It returns true exactly once
	// per token: the first caller wins, every later call gets false.
	Consume(ctx context.Context, token string, ttl time.Duration) (bool, error)
}

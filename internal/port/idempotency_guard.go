package port

import "context"

type IdempotencyGuard interface {
	// Claim sets a key for idempotency check, returns false if already claimed
	Claim(ctx context.Context, key string) (bool, error)
}

// Package revocation keeps the ids of session tokens that were logged out
// before their natural expiry.
package revocation

import (
	"context"
	"time"
)

// Store is a denylist of token ids. Entries vanish once ttl elapses, so the
// list never outgrows the set of still-valid tokens.
type Store interface {
	Revoke(ctx context.Context, tokenId string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenId string) (bool, error)
}

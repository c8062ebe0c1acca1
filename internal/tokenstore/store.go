// Package tokenstore keeps the ids of access tokens revoked before their
// natural expiry.
package tokenstore

import (
	"context"
	"errors"
	"time"
)

var ErrUnavailable = errors.New("revocation store unavailable")

type RevocationStore interface {
	// Revoke records id as revoked for ttl. A non-positive ttl is a no-op:
	// the token has already expired.
	Revoke(ctx context.Context, id string, ttl time.Duration) error
	IsRevoked(ctx context.Context, id string) (bool, error)
	Health(ctx context.Context) error
	Close() error
}

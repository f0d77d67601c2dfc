// Package store is the persisted-session store: durable key/value state scoped
// to one browser session.
package store

import (
	"context"
	"errors"
)

type Key string

const (
	KeyCheckoutStaging Key = "checkout-staging"
	KeyReceipt         Key = "receipt"
	KeyAuthToken       Key = "auth-token"
	KeyCurrentUser     Key = "current-user"
)

var ErrNotFound = errors.New("session key not found")

// Store values are JSON encoded. Writers overwrite; there is one value per key.
type Store interface {
	Get(ctx context.Context, sessionID string, key Key, out interface{}) error
	Put(ctx context.Context, sessionID string, key Key, value interface{}) error
	Delete(ctx context.Context, sessionID string, keys ...Key) error
}

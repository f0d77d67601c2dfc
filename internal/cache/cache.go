package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// CartCache holds the last authoritative cart per account so every surface
// (navbar badge, cart screen, restaurant page) reads the same projection.
// The owner key comes from session.Session.Owner, never the browser cookie.
type CartCache interface {
	Get(ctx context.Context, owner string) (*domain.Cart, error)
	Set(ctx context.Context, owner string, cart *domain.Cart) error
	Delete(ctx context.Context, owner string) error
}

var ErrCacheMiss = errors.New("cache miss")

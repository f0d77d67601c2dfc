// Package cart reconciles the server-owned cart with quantity changes the
// user has asked for but the backend has not confirmed yet.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/metrics"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Remote is the backend cart service. Every mutation returns the updated cart.
type Remote interface {
	GetCart(ctx context.Context) (*domain.Cart, error)
	AddItem(ctx context.Context, restaurantID, menuID int64, quantity int) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, lineID int64, quantity int) (*domain.Cart, error)
	DeleteItem(ctx context.Context, lineID int64) (*domain.Cart, error)
	ClearCart(ctx context.Context) (*domain.Cart, error)
}

type Coordinator struct {
	sess   session.Session
	remote Remote
	cache  cache.CartCache
	log    *logrus.Entry
	sfg    singleflight.Group // Prevents cache stampede

	cacheMu sync.Mutex

	mu            sync.RWMutex
	authoritative *domain.Cart
	appliedGen    uint64
	nextGen       uint64
	pending       map[lineKey]Pending
}

func NewCoordinator(sess session.Session, remote Remote, c cache.CartCache, log *logrus.Entry) *Coordinator {
	return &Coordinator{
		sess:    sess,
		remote:  remote,
		cache:   c,
		log:     log.WithField("session_id", sess.ID),
		pending: make(map[lineKey]Pending),
	}
}

func (c *Coordinator) Session() session.Session {
	return c.sess
}

// StateOf reports the line's display state.
func (c *Coordinator) StateOf(restaurantID, menuID int64) LineState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stateLocked(lineKey{restaurantID, menuID})
}

// QuantityOf is the quantity the interface must show. Unknown items are 0.
func (c *Coordinator) QuantityOf(restaurantID, menuID int64) int {
	return c.StateOf(restaurantID, menuID).Displayed()
}

func (c *Coordinator) stateLocked(k lineKey) LineState {
	if p, ok := c.pending[k]; ok {
		return p
	}
	if line, ok := c.lineLocked(k); ok {
		return Confirmed{Quantity: line.Quantity}
	}
	return Confirmed{}
}

func (c *Coordinator) lineLocked(k lineKey) (domain.CartItem, bool) {
	p, ok := c.authoritative.Partition(k.restaurantID)
	if !ok {
		return domain.CartItem{}, false
	}
	return p.Item(k.menuID)
}

// PendingCount is the number of lines showing an unconfirmed quantity.
func (c *Coordinator) PendingCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pending)
}

// Increment shows quantity+1 immediately and asks the backend to add one unit.
// Repeated increments overwrite the pending value rather than stacking.
func (c *Coordinator) Increment(ctx context.Context, restaurantID, menuID int64) error {
	if !c.sess.Authenticated() {
		return session.ErrAnonymous
	}
	k := lineKey{restaurantID, menuID}

	c.mu.Lock()
	shown := c.stateLocked(k).Displayed() + 1
	c.setPendingLocked(k, Pending{DisplayedQuantity: shown, IntendedDelta: 1})
	c.mu.Unlock()

	_, err := c.remote.AddItem(ctx, restaurantID, menuID, 1)
	return c.settle(ctx, "add", k, err)
}

// Decrement shows quantity-1 immediately. Reaching zero deletes the line;
// otherwise the new quantity is written. At zero it does nothing.
func (c *Coordinator) Decrement(ctx context.Context, restaurantID, menuID int64) error {
	if !c.sess.Authenticated() {
		return session.ErrAnonymous
	}
	k := lineKey{restaurantID, menuID}

	c.mu.Lock()
	current := c.stateLocked(k).Displayed()
	if current <= 0 {
		c.mu.Unlock()
		return nil
	}
	line, ok := c.lineLocked(k)
	if !ok || line.ID == 0 {
		c.mu.Unlock()
		return fmt.Errorf("menu %d: %w", menuID, ErrLineNotResolvable)
	}
	next := current - 1
	c.setPendingLocked(k, Pending{DisplayedQuantity: next, IntendedDelta: -1})
	c.mu.Unlock()

	if next == 0 {
		_, err := c.remote.DeleteItem(ctx, line.ID)
		return c.settle(ctx, "delete", k, err)
	}
	_, err := c.remote.UpdateQuantity(ctx, line.ID, next)
	return c.settle(ctx, "update", k, err)
}

func (c *Coordinator) setPendingLocked(k lineKey, p Pending) {
	if _, exists := c.pending[k]; !exists {
		metrics.PendingOverlayAdded()
	}
	c.pending[k] = p
}

func (c *Coordinator) clearPending(k lineKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.pending[k]; exists {
		delete(c.pending, k)
		metrics.PendingOverlayCleared()
	}
}

// settle runs when a mutation resolves. The pending entry is dropped whatever
// the outcome so a failure falls back to the unchanged authoritative value.
func (c *Coordinator) settle(ctx context.Context, op string, k lineKey, err error) error {
	c.clearPending(k)
	metrics.RecordCartMutation(op, err)

	log := logger.WithContext(ctx, c.log).WithFields(logrus.Fields{
		"op":            op,
		"restaurant_id": k.restaurantID,
		"menu_id":       k.menuID,
	})
	if err != nil {
		log.WithError(err).Warn("cart mutation failed")
		return &MutationError{Op: op, MenuID: k.menuID, Err: err}
	}

	if err := c.reload(ctx); err != nil {
		log.WithError(err).Warn("cart refetch after mutation failed")
	}
	return nil
}

// Clear empties the whole cart, every restaurant included.
func (c *Coordinator) Clear(ctx context.Context) error {
	if !c.sess.Authenticated() {
		return session.ErrAnonymous
	}
	_, err := c.remote.ClearCart(ctx)
	metrics.RecordCartMutation("clear", err)
	if err != nil {
		return &MutationError{Op: "clear", Err: err}
	}

	c.mu.Lock()
	for k := range c.pending {
		delete(c.pending, k)
		metrics.PendingOverlayCleared()
	}
	c.mu.Unlock()

	if err := c.reload(ctx); err != nil {
		logger.WithContext(ctx, c.log).WithError(err).Warn("cart refetch after clear failed")
	}
	return nil
}

// Refresh loads the authoritative cart, preferring the shared cache.
// Concurrent callers share one load.
func (c *Coordinator) Refresh(ctx context.Context) error {
	if !c.sess.Authenticated() {
		return nil
	}
	_, err, _ := c.sfg.Do(c.sess.Owner(), func() (interface{}, error) {
		gen := c.beginLoad()

		cart, err := c.cache.Get(ctx, c.sess.Owner())
		if err == nil {
			c.apply(gen, cart)
			return nil, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.WithContext(ctx, c.log).WithError(err).Warn("cart cache get error") // log cache error but continue
		}
		return nil, c.fetch(ctx, gen)
	})
	return err
}

// Invalidate drops the cached projection and refetches from the backend.
func (c *Coordinator) Invalidate(ctx context.Context) error {
	if !c.sess.Authenticated() {
		return nil
	}
	return c.reload(ctx)
}

// reload bypasses the cache. Loads are numbered when they start and a load
// older than the last applied one is discarded, so the newest answer wins
// regardless of the order responses arrive in.
func (c *Coordinator) reload(ctx context.Context) error {
	c.invalidateCache(ctx)
	return c.fetch(ctx, c.beginLoad())
}

func (c *Coordinator) fetch(ctx context.Context, gen uint64) error {
	cart, err := c.remote.GetCart(ctx)
	if err != nil {
		return fmt.Errorf("fetch cart: %w", err)
	}
	if c.apply(gen, cart) {
		c.store(ctx, gen, cart)
	}
	return nil
}

// store writes the cart to the shared cache unless a newer load has already
// been applied in the meantime.
func (c *Coordinator) store(ctx context.Context, gen uint64, cart *domain.Cart) {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	c.mu.RLock()
	current := c.appliedGen == gen
	c.mu.RUnlock()
	if !current {
		return
	}
	if err := c.cache.Set(ctx, c.sess.Owner(), cart); err != nil {
		logger.WithContext(ctx, c.log).WithError(err).Warn("cart cache set error")
	}
}

func (c *Coordinator) invalidateCache(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := c.cache.Delete(ctx, c.sess.Owner()); err != nil {
		logger.WithContext(ctx, c.log).WithError(err).Warn("cart cache invalidate error")
	}
}

func (c *Coordinator) beginLoad() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextGen++
	return c.nextGen
}

func (c *Coordinator) apply(gen uint64, cart *domain.Cart) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen < c.appliedGen {
		return false
	}
	c.appliedGen = gen
	c.authoritative = cart
	return true
}

// Package storefront keeps one cart coordinator and one checkout stager per
// browser session so every screen of that session reads the same state.
package storefront

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/internal/store"
	"github.com/sirupsen/logrus"
)

// Remotes builds backend clients bound to one bearer token.
type Remotes interface {
	Cart(token string) cart.Remote
	Orders(token string) checkout.OrderRemote
}

type clientRemotes struct {
	client *api.Client
}

// FromClient exposes the REST client as Remotes.
func FromClient(c *api.Client) Remotes {
	return clientRemotes{client: c}
}

func (r clientRemotes) Cart(token string) cart.Remote { return r.client.Cart(token) }
func (r clientRemotes) Orders(token string) checkout.OrderRemote { return r.client.Orders(token) }

type SessionLoader interface {
	Load(ctx context.Context, id string) (session.Session, error)
}

// Workspace is everything one session works with.
type Workspace struct {
	Session  session.Session
	Cart     *cart.Coordinator
	Checkout *checkout.Stager

	lastUsed time.Time
}

type Registry struct {
	sessions SessionLoader
	remotes  Remotes
	store    store.Store
	cache    cache.CartCache
	log      *logrus.Entry
	now      func() time.Time

	mu     sync.Mutex
	spaces map[string]*Workspace
}

func NewRegistry(sessions SessionLoader, remotes Remotes, s store.Store, c cache.CartCache, log *logrus.Entry) *Registry {
	return &Registry{
		sessions: sessions,
		remotes:  remotes,
		store:    s,
		cache:    c,
		log:      log,
		now:      time.Now,
		spaces:   make(map[string]*Workspace),
	}
}

// Workspace returns the session's workspace, rebuilding it whenever the
// session's credentials or account changed since it was built. Callers get
// their own copy carrying the freshly loaded session; the stored entry is
// only touched under r.mu.
func (r *Registry) Workspace(ctx context.Context, sessionID string) (*Workspace, error) {
	sess, err := r.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	ws, ok := r.spaces[sessionID]
	if !ok || ws.Session.Token != sess.Token || ws.Session.Owner() != sess.Owner() {
		ws = r.build(sess)
		r.spaces[sessionID] = ws
	}
	ws.lastUsed = r.now()

	view := *ws
	view.Session = sess
	return &view, nil
}

func (r *Registry) build(sess session.Session) *Workspace {
	remote := r.remotes.Cart(sess.Token)
	coord := cart.NewCoordinator(sess, remote, r.cache, r.log)
	return &Workspace{
		Session:  sess,
		Cart:     coord,
		Checkout: checkout.NewStager(sess, r.store, remote, r.remotes.Orders(sess.Token), coord, r.log),
	}
}

// Forget drops the session's workspace; the next request rebuilds it.
func (r *Registry) Forget(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.spaces, sessionID)
}

// Sweep drops workspaces idle for longer than maxIdle and reports how many went.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, ws := range r.spaces {
		if ws.lastUsed.Before(cutoff) {
			delete(r.spaces, id)
			n++
		}
	}
	return n
}

// RunSweeper sweeps every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(maxIdle); n > 0 {
				r.log.WithField("dropped", n).Debug("idle workspaces swept")
			}
		}
	}
}

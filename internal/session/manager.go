package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/store"
	"github.com/sirupsen/logrus"
)

// Authenticator is the remote auth/profile service.
type Authenticator interface {
	Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResult, error)
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResult, error)
	Profile(ctx context.Context, token string) (*domain.User, error)
	UpdateProfile(ctx context.Context, token string, update domain.ProfileUpdate) (*domain.User, error)
}

type Manager struct {
	store store.Store
	auth  Authenticator
	log   *logrus.Entry
	now   func() time.Time
}

func NewManager(s store.Store, auth Authenticator, log *logrus.Entry) *Manager {
	return &Manager{store: s, auth: auth, log: log, now: time.Now}
}

// Load rebuilds the session from the store. Missing or expired credentials
// yield an anonymous session, never an error.
func (m *Manager) Load(ctx context.Context, id string) (Session, error) {
	sess := Session{ID: id}

	var token string
	err := m.store.Get(ctx, id, store.KeyAuthToken, &token)
	if errors.Is(err, store.ErrNotFound) {
		return sess, nil
	}
	if err != nil {
		return sess, fmt.Errorf("load auth token: %w", err)
	}

	if exp, ok := tokenExpiry(token); ok {
		if !exp.After(m.now()) {
			logger.WithContext(ctx, m.log).Info("auth token expired, dropping credentials")
			return sess, m.Expire(ctx, id)
		}
		sess.ExpiresAt = exp
	}
	sess.Token = token

	var user domain.User
	err = m.store.Get(ctx, id, store.KeyCurrentUser, &user)
	switch {
	case err == nil:
		sess.User = &user
	case !errors.Is(err, store.ErrNotFound):
		return sess, fmt.Errorf("load current user: %w", err)
	}
	return sess, nil
}

func (m *Manager) Login(ctx context.Context, id string, req domain.LoginRequest) (Session, error) {
	res, err := m.auth.Login(ctx, req)
	if err != nil {
		return Session{ID: id}, err
	}
	return m.persist(ctx, id, res)
}

func (m *Manager) Register(ctx context.Context, id string, req domain.RegisterRequest) (Session, error) {
	res, err := m.auth.Register(ctx, req)
	if err != nil {
		return Session{ID: id}, err
	}
	return m.persist(ctx, id, res)
}

func (m *Manager) persist(ctx context.Context, id string, res *domain.AuthResult) (Session, error) {
	if res.Token == "" {
		return Session{ID: id}, errors.New("backend returned an empty token")
	}
	if err := m.store.Put(ctx, id, store.KeyAuthToken, res.Token); err != nil {
		return Session{ID: id}, err
	}
	user := res.User
	if err := m.store.Put(ctx, id, store.KeyCurrentUser, user); err != nil {
		return Session{ID: id}, err
	}

	sess := Session{ID: id, Token: res.Token, User: &user}
	if exp, ok := tokenExpiry(res.Token); ok {
		sess.ExpiresAt = exp
	}
	logger.WithContext(ctx, m.log).WithField("user_id", user.ID).Info("session authenticated")
	return sess, nil
}

// Logout forgets the credentials. Checkout staging and receipt stay with the session.
func (m *Manager) Logout(ctx context.Context, id string) error {
	return m.store.Delete(ctx, id, store.KeyAuthToken, store.KeyCurrentUser)
}

// Expire is Logout triggered by the backend rejecting the token.
func (m *Manager) Expire(ctx context.Context, id string) error {
	if err := m.Logout(ctx, id); err != nil {
		return fmt.Errorf("expire session: %w", err)
	}
	return nil
}

func (m *Manager) Profile(ctx context.Context, sess Session) (*domain.User, error) {
	if !sess.Authenticated() {
		return nil, ErrAnonymous
	}
	user, err := m.auth.Profile(ctx, sess.Token)
	if err != nil {
		return nil, m.DropIfRejected(ctx, sess.ID, err)
	}
	return user, nil
}

func (m *Manager) UpdateProfile(ctx context.Context, sess Session, update domain.ProfileUpdate) (*domain.User, error) {
	if !sess.Authenticated() {
		return nil, ErrAnonymous
	}
	user, err := m.auth.UpdateProfile(ctx, sess.Token, update)
	if err != nil {
		return nil, m.DropIfRejected(ctx, sess.ID, err)
	}
	if err := m.store.Put(ctx, sess.ID, store.KeyCurrentUser, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DropIfRejected drops credentials the backend no longer accepts and returns err.
func (m *Manager) DropIfRejected(ctx context.Context, id string, err error) error {
	if errors.Is(err, api.ErrUnauthenticated) {
		if expErr := m.Expire(ctx, id); expErr != nil {
			logger.WithContext(ctx, m.log).WithError(expErr).Warn("failed to drop rejected credentials")
		}
	}
	return err
}

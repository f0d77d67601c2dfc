// Package session models who is using the storefront. A Session is passed
// explicitly to the cart and checkout components when they are built.
package session

import (
	"errors"
	"strconv"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Kind int

const (
	Anonymous Kind = iota
	Authenticated
)

func (k Kind) String() string {
	if k == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

var ErrAnonymous = errors.New("session is not authenticated")

type Session struct {
	ID        string
	Token     string
	User      *domain.User
	ExpiresAt time.Time
}

func (s Session) Kind() Kind {
	if s.Token == "" {
		return Anonymous
	}
	return Authenticated
}

func (s Session) Authenticated() bool {
	return s.Kind() == Authenticated
}

// Owner keys state that belongs to the signed-in account rather than to the
// browser. Without a known user it falls back to the session id.
func (s Session) Owner() string {
	if s.Authenticated() && s.User != nil {
		return "user:" + strconv.FormatInt(s.User.ID, 10)
	}
	return "session:" + s.ID
}

// UserID is 0 when no user is known.
func (s Session) UserID() int64 {
	if s.User == nil {
		return 0
	}
	return s.User.ID
}

// NewID returns a fresh session identifier.
func NewID() string {
	return uuid.NewString()
}

// tokenExpiry reads the exp claim without verifying the signature; only the
// backend can verify it. Opaque tokens report ok=false.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

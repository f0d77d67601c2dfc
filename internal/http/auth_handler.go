package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/sirupsen/logrus"
)

// SessionService signs sessions in and out and manages the profile.
type SessionService interface {
	Rejecter
	Login(ctx context.Context, id string, req domain.LoginRequest) (session.Session, error)
	Register(ctx context.Context, id string, req domain.RegisterRequest) (session.Session, error)
	Logout(ctx context.Context, id string) error
	Profile(ctx context.Context, sess session.Session) (*domain.User, error)
	UpdateProfile(ctx context.Context, sess session.Session, update domain.ProfileUpdate) (*domain.User, error)
}

type AuthHandler struct {
	handler
	auth SessionService
}

func NewAuthHandler(spaces Workspaces, auth SessionService, timeout time.Duration, log *logrus.Entry) *AuthHandler {
	return &AuthHandler{
		handler: handler{spaces: spaces, sessions: auth, timeout: timeout, log: log},
		auth:    auth,
	}
}

// SessionResponseDTO never includes the bearer token; it stays server side.
type SessionResponseDTO struct {
	Authenticated bool         `json:"authenticated"`
	User          *domain.User `json:"user,omitempty"`
}

func sessionResponse(s session.Session) SessionResponseDTO {
	return SessionResponseDTO{Authenticated: s.Authenticated(), User: s.User}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	var req domain.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "invalid_credentials", "email and password are required")
		return
	}

	sid := logger.SessionID(r.Context())
	sess, err := h.auth.Login(ctx, sid, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.spaces.Forget(sid)
	respondJSON(w, http.StatusOK, sessionResponse(sess))
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	var req domain.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || len(req.Password) < 6 {
		respondError(w, http.StatusBadRequest, "invalid_registration", "name, email and a password of at least 6 characters are required")
		return
	}

	sid := logger.SessionID(r.Context())
	sess, err := h.auth.Register(ctx, sid, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.spaces.Forget(sid)
	respondJSON(w, http.StatusCreated, sessionResponse(sess))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	sid := logger.SessionID(r.Context())
	if err := h.auth.Logout(ctx, sid); err != nil {
		h.fail(w, r, err)
		return
	}
	h.spaces.Forget(sid)
	respondJSON(w, http.StatusOK, SessionResponseDTO{})
}

// GetSession tells the client whether it is signed in without calling the backend.
func (h *AuthHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse(ws.Session))
}

func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	ws, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	user, err := h.auth.Profile(ctx, ws.Session)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	var req domain.ProfileUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	ws, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	user, err := h.auth.UpdateProfile(ctx, ws.Session, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

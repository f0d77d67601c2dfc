package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/storefront"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// Workspaces hands out the per-session cart and checkout state.
type Workspaces interface {
	Workspace(ctx context.Context, sessionID string) (*storefront.Workspace, error)
	Forget(sessionID string)
}

// Rejecter drops credentials the backend refused.
type Rejecter interface {
	DropIfRejected(ctx context.Context, id string, err error) error
}

// handler carries what every screen handler needs.
type handler struct {
	spaces   Workspaces
	sessions Rejecter
	timeout  time.Duration
	log      *logrus.Entry
}

func (h *handler) context(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), h.timeout)
}

func (h *handler) workspace(w http.ResponseWriter, r *http.Request) (*storefront.Workspace, bool) {
	ws, err := h.spaces.Workspace(r.Context(), logger.SessionID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	return ws, true
}

// authenticated is workspace for screens that need a signed-in user.
func (h *handler) authenticated(w http.ResponseWriter, r *http.Request) (*storefront.Workspace, bool) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return nil, false
	}
	if !ws.Session.Authenticated() {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "sign in to continue")
		return nil, false
	}
	return ws, true
}

// fail writes err to the client. A backend 401 also signs the session out.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	if errors.Is(err, api.ErrUnauthenticated) {
		sid := logger.SessionID(ctx)
		_ = h.sessions.DropIfRejected(context.WithoutCancel(ctx), sid, err)
		h.spaces.Forget(sid)
	}
	logger.WithContext(ctx, h.log).WithError(err).Warn("request failed")
	handleError(w, err)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// pathID reads a positive integer URL parameter.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_"+name, fmt.Sprintf("%s must be a positive integer", name))
		return 0, false
	}
	return id, true
}

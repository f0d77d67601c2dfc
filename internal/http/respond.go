package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/api"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error    string            `json:"error"`
	Code     string            `json:"code,omitempty"`
	Details  string            `json:"details,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
	Redirect string            `json:"redirect,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logrus.WithError(err).Warn("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// respondNotFound tells the client where to go instead of rendering an empty screen.
func respondNotFound(w http.ResponseWriter, message, redirect string) {
	respondJSON(w, http.StatusNotFound, ErrorResponse{
		Error:    message,
		Code:     "not_found",
		Redirect: redirect,
	})
}

// handleError converts storefront and backend errors to HTTP status codes.
func handleError(w http.ResponseWriter, err error) {
	var detailsErr *checkout.DetailsError
	var apiErr *api.Error

	switch {
	case errors.As(err, &detailsErr):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  detailsErr.Error(),
			Code:   "invalid_argument",
			Fields: detailsErr.Fields,
		})
	case errors.Is(err, session.ErrAnonymous), errors.Is(err, api.ErrUnauthenticated):
		respondError(w, http.StatusUnauthorized, "unauthenticated", "sign in to continue")
	case errors.Is(err, cart.ErrLineNotResolvable):
		respondError(w, http.StatusConflict, "line_not_resolvable", err.Error())
	case errors.Is(err, checkout.ErrIllegalTransition):
		respondError(w, http.StatusConflict, "checkout_in_progress", err.Error())
	case errors.Is(err, checkout.ErrEmptyCheckout):
		respondError(w, http.StatusUnprocessableEntity, "empty_checkout", err.Error())
	case errors.Is(err, checkout.ErrLineNotStaged), errors.Is(err, checkout.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, api.ErrUnavailable):
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "restaurant service is unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "restaurant service timed out")
	case errors.As(err, &apiErr):
		handleAPIError(w, apiErr)
	case errors.Is(err, cart.ErrMutationFailed):
		respondError(w, http.StatusBadGateway, "cart_update_failed", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// handleAPIError passes a 4xx backend answer through with its message and field errors.
func handleAPIError(w http.ResponseWriter, e *api.Error) {
	var httpStatus int
	var code string

	switch e.StatusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		httpStatus = http.StatusBadRequest
		code = "invalid_argument"
	case http.StatusNotFound:
		httpStatus = http.StatusNotFound
		code = "not_found"
	case http.StatusConflict:
		httpStatus = http.StatusConflict
		code = "already_exists"
	case http.StatusForbidden:
		httpStatus = http.StatusForbidden
		code = "permission_denied"
	case http.StatusTooManyRequests:
		httpStatus = http.StatusTooManyRequests
		code = "rate_limit_exceeded"
	default:
		httpStatus = http.StatusBadGateway
		code = "upstream_error"
	}

	resp := ErrorResponse{Error: e.Message, Code: code}
	if resp.Error == "" {
		resp.Error = http.StatusText(httpStatus)
	}
	if len(e.Fields) > 0 {
		resp.Fields = make(map[string]string, len(e.Fields))
		for field, msgs := range e.Fields {
			resp.Fields[field] = strings.Join(msgs, "; ")
		}
	}
	respondJSON(w, httpStatus, resp)
}

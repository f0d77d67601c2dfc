package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/sirupsen/logrus"
)

// OrderService is the order history and review backend for one token.
type OrderService interface {
	ListOrders(ctx context.Context, status domain.OrderStatus, page int) (*domain.OrderPage, error)
	CreateReview(ctx context.Context, req domain.ReviewRequest) (*domain.Review, error)
}

type OrdersHandler struct {
	handler
	orders func(token string) OrderService
}

func NewOrdersHandler(spaces Workspaces, sessions Rejecter, orders func(token string) OrderService, timeout time.Duration, log *logrus.Entry) *OrdersHandler {
	return &OrdersHandler{
		handler: handler{spaces: spaces, sessions: sessions, timeout: timeout, log: log},
		orders:  orders,
	}
}

// ListOrders serves order history, optionally filtered by status.
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	status, ok := domain.ParseOrderStatus(r.URL.Query().Get("status"))
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_status", "status must be one of all, preparing, on_the_way, delivered, done, cancelled")
		return
	}
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 1 {
			respondError(w, http.StatusBadRequest, "invalid_page", "page must be a positive integer")
			return
		}
		page = p
	}

	ws, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	out, err := h.orders(ws.Session.Token).ListOrders(ctx, status, page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	var req domain.ReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.TransactionID = strings.TrimSpace(req.TransactionID)
	if req.TransactionID == "" {
		respondError(w, http.StatusBadRequest, "invalid_transaction_id", "transactionId is required")
		return
	}
	if req.Star < 1 || req.Star > 5 {
		respondError(w, http.StatusBadRequest, "invalid_star", "star must be between 1 and 5")
		return
	}

	ws, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	review, err := h.orders(ws.Session.Token).CreateReview(ctx, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, review)
}

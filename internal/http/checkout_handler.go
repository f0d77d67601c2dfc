package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/sirupsen/logrus"
)

type CheckoutHandler struct {
	handler
}

func NewCheckoutHandler(spaces Workspaces, sessions Rejecter, timeout time.Duration, log *logrus.Entry) *CheckoutHandler {
	return &CheckoutHandler{handler{spaces: spaces, sessions: sessions, timeout: timeout, log: log}}
}

type CheckoutResponseDTO struct {
	Checkout *checkout.StagingRecord `json:"checkout"`
	Estimate checkout.Estimate       `json:"estimate"`
	Status   checkout.Status         `json:"status"`
}

type AdjustLineRequestDTO struct {
	Quantity *int `json:"quantity"`
}

type FinalizeResponseDTO struct {
	Receipt  *checkout.ReceiptRecord `json:"receipt"`
	Redirect string                  `json:"redirect"`
}

func checkoutResponse(s *checkout.Stager, rec *checkout.StagingRecord) CheckoutResponseDTO {
	return CheckoutResponseDTO{Checkout: rec, Estimate: rec.Estimate(), Status: s.Status()}
}

// GetCheckout renders the checkout screen. Without a staged restaurant the
// client is sent back to the cart.
func (h *CheckoutHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	ws, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	rec, err := ws.Checkout.LoadStaged(ctx)
	if errors.Is(err, checkout.ErrNotFound) {
		respondNotFound(w, "nothing to checkout", "/cart")
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, checkoutResponse(ws.Checkout, rec))
}

func (h *CheckoutHandler) AdjustLine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	lineID, ok := pathID(w, r, "line_id")
	if !ok {
		return
	}
	var req AdjustLineRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity == nil || *req.Quantity < 0 || *req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 0 and 99")
		return
	}
	ws, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	rec, err := ws.Checkout.AdjustStagedQuantity(ctx, lineID, *req.Quantity)
	if errors.Is(err, checkout.ErrNotFound) {
		respondNotFound(w, "nothing to checkout", "/cart")
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, checkoutResponse(ws.Checkout, rec))
}

// PlaceOrder submits the staged restaurant. On failure the staged checkout
// is kept and the same request can be retried.
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	var req checkout.Details
	if !decodeJSON(w, r, &req) {
		return
	}
	ws, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	receipt, err := ws.Checkout.Finalize(ctx, req)
	if errors.Is(err, checkout.ErrNotFound) {
		respondNotFound(w, "nothing to checkout", "/cart")
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, FinalizeResponseDTO{Receipt: receipt, Redirect: "/receipt"})
}

// GetReceipt shows the order just placed; without one the client goes to
// order history.
func (h *CheckoutHandler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	ws, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	receipt, err := ws.Checkout.LoadReceipt(ctx)
	if errors.Is(err, checkout.ErrNotFound) {
		respondNotFound(w, "no recent order", "/orders")
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, receipt)
}

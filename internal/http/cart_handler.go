package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/sirupsen/logrus"
)

type CartHandler struct {
	handler
}

func NewCartHandler(spaces Workspaces, sessions Rejecter, timeout time.Duration, log *logrus.Entry) *CartHandler {
	return &CartHandler{handler{spaces: spaces, sessions: sessions, timeout: timeout, log: log}}
}

type CartResponseDTO struct {
	Restaurants []domain.RestaurantCart `json:"cart"`
	Summary     domain.CartSummary      `json:"summary"`
}

type QuantityResponseDTO struct {
	RestaurantID int64 `json:"restaurantId"`
	MenuID       int64 `json:"menuId"`
	Quantity     int   `json:"quantity"`
	Pending      bool  `json:"pending"`
}

type StageResponseDTO struct {
	Checkout *checkout.StagingRecord `json:"checkout"`
	Redirect string                  `json:"redirect"`
}

func cartResponse(c *cart.Coordinator) CartResponseDTO {
	return CartResponseDTO{Restaurants: c.ListPartitions(), Summary: c.Summary()}
}

func quantityResponse(c *cart.Coordinator, restaurantID, menuID int64) QuantityResponseDTO {
	state := c.StateOf(restaurantID, menuID)
	_, pending := state.(cart.Pending)
	return QuantityResponseDTO{
		RestaurantID: restaurantID,
		MenuID:       menuID,
		Quantity:     state.Displayed(),
		Pending:      pending,
	}
}

// GetCart renders the cart screen. Anonymous sessions see an empty cart.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	if err := ws.Cart.Refresh(ctx); err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(ws.Cart))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	ws, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	if err := ws.Cart.Clear(ctx); err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(ws.Cart))
}

// GetQuantity reports what the quantity control of one menu shows right now,
// including a value whose change is still in flight.
func (h *CartHandler) GetQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	restaurantID, ok := pathID(w, r, "restaurant_id")
	if !ok {
		return
	}
	menuID, ok := pathID(w, r, "menu_id")
	if !ok {
		return
	}
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	if err := ws.Cart.Refresh(ctx); err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, quantityResponse(ws.Cart, restaurantID, menuID))
}

func (h *CartHandler) Increment(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, (*cart.Coordinator).Increment)
}

func (h *CartHandler) Decrement(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, (*cart.Coordinator).Decrement)
}

func (h *CartHandler) mutate(w http.ResponseWriter, r *http.Request,
	op func(*cart.Coordinator, context.Context, int64, int64) error) {
	ctx, cancel := h.context(r)
	defer cancel()

	restaurantID, ok := pathID(w, r, "restaurant_id")
	if !ok {
		return
	}
	menuID, ok := pathID(w, r, "menu_id")
	if !ok {
		return
	}
	ws, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	// The decrement needs the server line id.
	if err := ws.Cart.Refresh(ctx); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := op(ws.Cart, ctx, restaurantID, menuID); err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, quantityResponse(ws.Cart, restaurantID, menuID))
}

// StageCheckout snapshots one restaurant's partition for the checkout screen.
func (h *CartHandler) StageCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	restaurantID, ok := pathID(w, r, "restaurant_id")
	if !ok {
		return
	}
	ws, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	if err := ws.Cart.Refresh(ctx); err != nil {
		h.fail(w, r, err)
		return
	}
	partition, found := ws.Cart.Partition(restaurantID)
	if !found {
		respondNotFound(w, "restaurant has no items in the cart", "/cart")
		return
	}
	rec, err := ws.Checkout.Stage(ctx, partition)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, StageResponseDTO{Checkout: rec, Redirect: "/checkout"})
}

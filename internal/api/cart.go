package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// CartAPI is the remote cart service bound to one session token.
type CartAPI struct {
	client *Client
	token  string
}

func (c *Client) Cart(token string) *CartAPI {
	return &CartAPI{client: c, token: token}
}

type addItemBody struct {
	RestaurantID int64 `json:"restaurantId"`
	MenuID       int64 `json:"menuId"`
	Quantity     int   `json:"quantity"`
}

type quantityBody struct {
	Quantity int `json:"quantity"`
}

func (a *CartAPI) GetCart(ctx context.Context) (*domain.Cart, error) {
	var cart domain.Cart
	err := a.client.do(ctx, call{name: "cart.get", method: http.MethodGet, path: "/api/cart", token: a.token}, &cart)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (a *CartAPI) AddItem(ctx context.Context, restaurantID, menuID int64, quantity int) (*domain.Cart, error) {
	var cart domain.Cart
	err := a.client.do(ctx, call{
		name:   "cart.add",
		method: http.MethodPost,
		path:   "/api/cart",
		token:  a.token,
		body:   addItemBody{RestaurantID: restaurantID, MenuID: menuID, Quantity: quantity},
	}, &cart)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (a *CartAPI) UpdateQuantity(ctx context.Context, lineID int64, quantity int) (*domain.Cart, error) {
	var cart domain.Cart
	err := a.client.do(ctx, call{
		name:   "cart.update",
		method: http.MethodPut,
		path:   fmt.Sprintf("/api/cart/%d", lineID),
		token:  a.token,
		body:   quantityBody{Quantity: quantity},
	}, &cart)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (a *CartAPI) DeleteItem(ctx context.Context, lineID int64) (*domain.Cart, error) {
	var cart domain.Cart
	err := a.client.do(ctx, call{
		name:   "cart.delete",
		method: http.MethodDelete,
		path:   fmt.Sprintf("/api/cart/%d", lineID),
		token:  a.token,
	}, &cart)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (a *CartAPI) ClearCart(ctx context.Context) (*domain.Cart, error) {
	var cart domain.Cart
	err := a.client.do(ctx, call{name: "cart.clear", method: http.MethodDelete, path: "/api/cart", token: a.token}, &cart)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

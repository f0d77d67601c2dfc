package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// OrdersAPI is the remote order and review service bound to one session token.
type OrdersAPI struct {
	client *Client
	token  string
}

func (c *Client) Orders(token string) *OrdersAPI {
	return &OrdersAPI{client: c, token: token}
}

func (a *OrdersAPI) Checkout(ctx context.Context, req domain.CheckoutRequest) (*domain.Transaction, error) {
	var tx domain.Transaction
	err := a.client.do(ctx, call{
		name:   "order.checkout",
		method: http.MethodPost,
		path:   "/api/order/checkout",
		token:  a.token,
		body:   req,
	}, &tx)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// ListOrders fetches one page of order history. An empty status means every status.
func (a *OrdersAPI) ListOrders(ctx context.Context, status domain.OrderStatus, page int) (*domain.OrderPage, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", string(status))
	}
	if page < 1 {
		page = 1
	}
	q.Set("page", strconv.Itoa(page))

	var out domain.OrderPage
	err := a.client.do(ctx, call{
		name:   "order.list",
		method: http.MethodGet,
		path:   "/api/order/my-order",
		token:  a.token,
		query:  q,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *OrdersAPI) CreateReview(ctx context.Context, req domain.ReviewRequest) (*domain.Review, error) {
	var review domain.Review
	err := a.client.do(ctx, call{
		name:   "review.create",
		method: http.MethodPost,
		path:   "/api/review",
		token:  a.token,
		body:   req,
	}, &review)
	if err != nil {
		return nil, err
	}
	return &review, nil
}

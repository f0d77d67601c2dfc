package api

import (
	"context"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

func (c *Client) Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResult, error) {
	var out domain.AuthResult
	if err := c.do(ctx, call{name: "auth.login", method: http.MethodPost, path: "/api/auth/login", body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResult, error) {
	var out domain.AuthResult
	if err := c.do(ctx, call{name: "auth.register", method: http.MethodPost, path: "/api/auth/register", body: req}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Profile(ctx context.Context, token string) (*domain.User, error) {
	var out domain.User
	if err := c.do(ctx, call{name: "auth.profile", method: http.MethodGet, path: "/api/auth/profile", token: token}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, token string, update domain.ProfileUpdate) (*domain.User, error) {
	var out domain.User
	err := c.do(ctx, call{
		name:   "auth.profile.update",
		method: http.MethodPut,
		path:   "/api/auth/profile",
		token:  token,
		body:   update,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

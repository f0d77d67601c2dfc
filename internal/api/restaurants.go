package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// RestaurantsAPI is the restaurant catalogue. The token is optional; the
// backend personalises recommendations when it is present.
type RestaurantsAPI struct {
	client *Client
	token  string
}

func (c *Client) Restaurants(token string) *RestaurantsAPI {
	return &RestaurantsAPI{client: c, token: token}
}

// restaurantList accepts the three shapes the backend uses for listings:
// a bare array, {"restaurants": [...]} and {"recommendations": [...]}.
type restaurantList []domain.Restaurant

func (l *restaurantList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, (*[]domain.Restaurant)(l))
	}
	var wrapped struct {
		Restaurants     []domain.Restaurant `json:"restaurants"`
		Recommendations []domain.Restaurant `json:"recommendations"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	if wrapped.Restaurants != nil {
		*l = wrapped.Restaurants
	} else {
		*l = wrapped.Recommendations
	}
	return nil
}

func (a *RestaurantsAPI) list(ctx context.Context, name, path string, q url.Values) ([]domain.Restaurant, error) {
	var out restaurantList
	err := a.client.do(ctx, call{name: name, method: http.MethodGet, path: path, token: a.token, query: q}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *RestaurantsAPI) List(ctx context.Context, f domain.RestaurantFilter) ([]domain.Restaurant, error) {
	return a.list(ctx, "resto.list", "/api/resto", filterQuery(f))
}

func (a *RestaurantsAPI) Recommended(ctx context.Context) ([]domain.Restaurant, error) {
	return a.list(ctx, "resto.recommended", "/api/resto/recommended", nil)
}

func (a *RestaurantsAPI) Nearby(ctx context.Context) ([]domain.Restaurant, error) {
	return a.list(ctx, "resto.nearby", "/api/resto/nearby", nil)
}

func (a *RestaurantsAPI) BestSeller(ctx context.Context, limit int) ([]domain.Restaurant, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return a.list(ctx, "resto.best_seller", "/api/resto/best-seller", q)
}

func (a *RestaurantsAPI) Search(ctx context.Context, f domain.RestaurantFilter) ([]domain.Restaurant, error) {
	if f.Search == "" {
		return nil, nil
	}
	return a.list(ctx, "resto.search", "/api/resto/search", filterQuery(f))
}

func (a *RestaurantsAPI) Detail(ctx context.Context, id int64) (*domain.RestaurantDetail, error) {
	var out domain.RestaurantDetail
	err := a.client.do(ctx, call{
		name:   "resto.detail",
		method: http.MethodGet,
		path:   fmt.Sprintf("/api/resto/%d", id),
		token:  a.token,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func filterQuery(f domain.RestaurantFilter) url.Values {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.MinPrice > 0 {
		q.Set("minPrice", strconv.FormatInt(f.MinPrice, 10))
	}
	if f.MaxPrice > 0 {
		q.Set("maxPrice", strconv.FormatInt(f.MaxPrice, 10))
	}
	if f.MinRating > 0 {
		q.Set("minRating", strconv.FormatFloat(f.MinRating, 'f', -1, 64))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

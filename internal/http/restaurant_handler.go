package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type RestaurantService interface {
	List(ctx context.Context, f domain.RestaurantFilter) ([]domain.Restaurant, error)
	Recommended(ctx context.Context) ([]domain.Restaurant, error)
	Nearby(ctx context.Context) ([]domain.Restaurant, error)
	BestSeller(ctx context.Context, limit int) ([]domain.Restaurant, error)
	Search(ctx context.Context, f domain.RestaurantFilter) ([]domain.Restaurant, error)
	Detail(ctx context.Context, id int64) (*domain.RestaurantDetail, error)
}

type RestaurantHandler struct {
	handler
	restaurants func(token string) RestaurantService
}

func NewRestaurantHandler(spaces Workspaces, sessions Rejecter, restaurants func(token string) RestaurantService, timeout time.Duration, log *logrus.Entry) *RestaurantHandler {
	return &RestaurantHandler{
		handler:     handler{spaces: spaces, sessions: sessions, timeout: timeout, log: log},
		restaurants: restaurants,
	}
}

type RestaurantsResponseDTO struct {
	Restaurants []domain.Restaurant `json:"restaurants"`
}

// MenuResponseDTO is a menu entry with the quantity its control shows.
type MenuResponseDTO struct {
	domain.Menu
	Quantity int  `json:"quantity"`
	Pending  bool `json:"pending"`
}

type RestaurantDetailResponseDTO struct {
	domain.Restaurant
	Menus []MenuResponseDTO      `json:"menus"`
	Cart  *domain.RestaurantCart `json:"cart,omitempty"`
}

func parseFilter(r *http.Request) (domain.RestaurantFilter, string, bool) {
	q := r.URL.Query()
	f := domain.RestaurantFilter{Search: q.Get("search")}
	if f.Search == "" {
		f.Search = q.Get("q")
	}
	var err error
	if v := q.Get("minPrice"); v != "" {
		if f.MinPrice, err = strconv.ParseInt(v, 10, 64); err != nil || f.MinPrice < 0 {
			return f, "minPrice", false
		}
	}
	if v := q.Get("maxPrice"); v != "" {
		if f.MaxPrice, err = strconv.ParseInt(v, 10, 64); err != nil || f.MaxPrice < 0 {
			return f, "maxPrice", false
		}
	}
	if v := q.Get("minRating"); v != "" {
		if f.MinRating, err = strconv.ParseFloat(v, 64); err != nil || f.MinRating < 0 || f.MinRating > 5 {
			return f, "minRating", false
		}
	}
	if v := q.Get("limit"); v != "" {
		if f.Limit, err = strconv.Atoi(v); err != nil || f.Limit < 1 {
			return f, "limit", false
		}
	}
	return f, "", true
}

func (h *RestaurantHandler) listWith(w http.ResponseWriter, r *http.Request,
	fetch func(context.Context, RestaurantService, domain.RestaurantFilter) ([]domain.Restaurant, error)) {
	ctx, cancel := h.context(r)
	defer cancel()

	f, field, ok := parseFilter(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_filter", field+" is invalid")
		return
	}
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	list, err := fetch(ctx, h.restaurants(ws.Session.Token), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if list == nil {
		list = []domain.Restaurant{}
	}
	respondJSON(w, http.StatusOK, RestaurantsResponseDTO{Restaurants: list})
}

func (h *RestaurantHandler) List(w http.ResponseWriter, r *http.Request) {
	h.listWith(w, r, func(ctx context.Context, s RestaurantService, f domain.RestaurantFilter) ([]domain.Restaurant, error) {
		return s.List(ctx, f)
	})
}

func (h *RestaurantHandler) Recommended(w http.ResponseWriter, r *http.Request) {
	h.listWith(w, r, func(ctx context.Context, s RestaurantService, _ domain.RestaurantFilter) ([]domain.Restaurant, error) {
		return s.Recommended(ctx)
	})
}

func (h *RestaurantHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	h.listWith(w, r, func(ctx context.Context, s RestaurantService, _ domain.RestaurantFilter) ([]domain.Restaurant, error) {
		return s.Nearby(ctx)
	})
}

func (h *RestaurantHandler) BestSeller(w http.ResponseWriter, r *http.Request) {
	h.listWith(w, r, func(ctx context.Context, s RestaurantService, f domain.RestaurantFilter) ([]domain.Restaurant, error) {
		return s.BestSeller(ctx, f.Limit)
	})
}

func (h *RestaurantHandler) Search(w http.ResponseWriter, r *http.Request) {
	h.listWith(w, r, func(ctx context.Context, s RestaurantService, f domain.RestaurantFilter) ([]domain.Restaurant, error) {
		return s.Search(ctx, f)
	})
}

// Detail loads the restaurant and the session's cart side by side, then
// annotates every menu with the quantity its control must show.
func (h *RestaurantHandler) Detail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	restaurantID, ok := pathID(w, r, "restaurant_id")
	if !ok {
		return
	}
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}

	var detail *domain.RestaurantDetail
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		detail, err = h.restaurants(ws.Session.Token).Detail(gctx, restaurantID)
		return err
	})
	g.Go(func() error {
		// A cart that fails to load leaves the controls at zero.
		if err := ws.Cart.Refresh(gctx); err != nil {
			logger.WithContext(ctx, h.log).WithError(err).Warn("cart unavailable for restaurant page")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		h.fail(w, r, err)
		return
	}

	resp := RestaurantDetailResponseDTO{
		Restaurant: detail.Restaurant,
		Menus:      make([]MenuResponseDTO, 0, len(detail.Menus)),
	}
	for _, m := range detail.Menus {
		q := quantityResponse(ws.Cart, restaurantID, m.ID)
		resp.Menus = append(resp.Menus, MenuResponseDTO{Menu: m, Quantity: q.Quantity, Pending: q.Pending})
	}
	if p, found := ws.Cart.Partition(restaurantID); found {
		resp.Cart = &p
	}
	respondJSON(w, http.StatusOK, resp)
}

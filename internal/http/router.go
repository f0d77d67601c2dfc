package http

import (
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type RouterConfig struct {
	Workspaces         Workspaces
	Sessions           SessionService
	Restaurants        func(token string) RestaurantService
	Orders             func(token string) OrderService
	RateLimiter        *RateLimiter
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	SessionTTL         time.Duration
	SecureCookies      bool
	Log                *logrus.Entry
}

// NewRouter wires every storefront screen under /api/v1.
func NewRouter(cfg RouterConfig) http.Handler {
	cartHandler := NewCartHandler(cfg.Workspaces, cfg.Sessions, cfg.RequestTimeout, cfg.Log)
	checkoutHandler := NewCheckoutHandler(cfg.Workspaces, cfg.Sessions, cfg.RequestTimeout, cfg.Log)
	ordersHandler := NewOrdersHandler(cfg.Workspaces, cfg.Sessions, cfg.Orders, cfg.RequestTimeout, cfg.Log)
	restaurantHandler := NewRestaurantHandler(cfg.Workspaces, cfg.Sessions, cfg.Restaurants, cfg.RequestTimeout, cfg.Log)
	authHandler := NewAuthHandler(cfg.Workspaces, cfg.Sessions, cfg.RequestTimeout, cfg.Log)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(MetricsMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.MaxRequestBodySize > 0 {
			r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))
		}
		r.Use(SessionMiddleware(cfg.SecureCookies, cfg.SessionTTL))
		r.Use(LoggingMiddleware(cfg.Log))
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Handler)
		}

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/register", authHandler.Register)
			r.Post("/logout", authHandler.Logout)
			r.Get("/session", authHandler.GetSession)
			r.Get("/profile", authHandler.GetProfile)
			r.Put("/profile", authHandler.UpdateProfile)
		})

		r.Route("/restaurants", func(r chi.Router) {
			r.Get("/", restaurantHandler.List)
			r.Get("/recommended", restaurantHandler.Recommended)
			r.Get("/nearby", restaurantHandler.Nearby)
			r.Get("/best-seller", restaurantHandler.BestSeller)
			r.Get("/search", restaurantHandler.Search)
			r.Get("/{restaurant_id}", restaurantHandler.Detail)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Route("/restaurants/{restaurant_id}", func(r chi.Router) {
				r.Post("/checkout", cartHandler.StageCheckout)
				r.Get("/menus/{menu_id}/quantity", cartHandler.GetQuantity)
				r.Post("/menus/{menu_id}/increment", cartHandler.Increment)
				r.Post("/menus/{menu_id}/decrement", cartHandler.Decrement)
			})
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", checkoutHandler.GetCheckout)
			r.Post("/", checkoutHandler.PlaceOrder)
			r.Put("/lines/{line_id}", checkoutHandler.AdjustLine)
		})
		r.Get("/receipt", checkoutHandler.GetReceipt)

		r.Get("/orders", ordersHandler.ListOrders)
		r.Post("/reviews", ordersHandler.CreateReview)
	})

	return r
}

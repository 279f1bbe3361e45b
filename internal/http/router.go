package http

import (
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	Sessions       Sessions
	Products       Products
	Settings       Settings
	Metrics        http.Handler
	Logger         *logger.Logger
	RequestTimeout time.Duration
	Location       *time.Location
}

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	sessionHandler := NewSessionHandler(cfg.Sessions, cfg.RequestTimeout, cfg.Logger)
	cartHandler := NewCartHandler(cfg.Sessions, cfg.Products, cfg.RequestTimeout, cfg.Logger)
	ordersHandler := NewOrdersHandler(cfg.Sessions, cfg.RequestTimeout, cfg.Location, cfg.Logger)
	settingsHandler := NewSettingsHandler(cfg.Settings, cfg.RequestTimeout, cfg.Logger)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware(cfg.Logger))
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(IdentityMiddleware)

		r.Post("/session", sessionHandler.Establish)
		r.Delete("/session", sessionHandler.End)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Get("/reconcile", cartHandler.Reconcile)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
		})

		r.Route("/orders/{order_id}", func(r chi.Router) {
			r.Get("/", ordersHandler.GetOrder)
			r.Post("/cancel", ordersHandler.CancelOrder)
			r.Post("/returns", ordersHandler.RequestReturn)
			r.Put("/returns/{item_id}/pickup", ordersHandler.SchedulePickup)
			r.Post("/complaints", ordersHandler.FileComplaint)
		})

		r.Get("/settings/{key}", settingsHandler.GetSetting)
	})

	return r
}

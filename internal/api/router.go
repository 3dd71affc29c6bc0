package api

import (
	"net/http"

	"github.com/TeggTTV/resellz/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter mounts the JSON API under /api/v1. metrics may be nil.
func NewRouter(handlers *Handlers, logger *zap.Logger, metrics http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", handlers.Health)
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Items
		r.Get("/items", handlers.ListItems)
		r.Post("/items", handlers.AddItem)
		r.Get("/items/{id}", handlers.GetItem)
		r.Patch("/items/{id}", handlers.UpdateItem)
		r.Delete("/items/{id}", handlers.DeleteItem)
		r.Post("/items/{id}/sell", handlers.SellItem)

		// Sales
		r.Get("/sales", handlers.ListSales)
		r.Get("/sales/recent", handlers.RecentSales) // ?limit=

		// History
		r.Get("/history", handlers.ListHistory)
		r.Post("/history/{id}/undo", handlers.Undo)

		// Stats
		r.Route("/stats", func(r chi.Router) {
			r.Get("/dashboard", handlers.Dashboard)
			r.Get("/inventory", handlers.InventoryStats)
			r.Get("/expenses", handlers.Expenses)
			r.Get("/brands", handlers.Brands)
			r.Get("/revenue", handlers.MonthlyRevenue)    // ?year=
			r.Get("/profit/daily", handlers.DailyProfit) // ?days=
			r.Get("/top-items", handlers.TopItems)       // ?limit=
		})
	})

	return r
}

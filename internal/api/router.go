package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"bonus-promotion-service/internal/observability"
)

func Router(h *BonusHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(observability.Measure)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Route("/v1/baskets/{basketID}", func(r chi.Router) {
		r.Get("/promotions/{promotionID}/bonus-products", h.BonusProducts)
		r.Get("/promotions/{promotionID}/capacity", h.Capacity)
		r.Post("/bonus-items", h.AddBonusItems)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", observability.MetricsHandler())
	return r
}

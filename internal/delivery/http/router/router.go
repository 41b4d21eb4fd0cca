package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/user/signal-service/internal/delivery/http/handler"
	"github.com/user/signal-service/internal/delivery/http/middleware"
	"go.uber.org/zap"
)

func New(h *handler.Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics)

	r.Get("/api/health", h.HandleHealthCheck)
	r.Route("/api", func(r chi.Router) {
		r.Post("/profiles/{profileID}/crawl", h.HandleTriggerCrawl)
		r.Get("/signals", h.HandleListSignals)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

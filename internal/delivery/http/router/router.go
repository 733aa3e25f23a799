package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/user/trackscope/internal/delivery/http/handler"
	"github.com/user/trackscope/internal/delivery/http/middleware"
	"github.com/user/trackscope/pkg/metrics"
)

// New builds the API router. gatherer backs /metrics and should be the
// registry m was registered on.
func New(h *handler.Handler, m *metrics.Metrics, gatherer prometheus.Gatherer, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger.Named("http")))
	r.Use(middleware.Metrics(m))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/api/health", h.HandleHealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Post("/crawl", h.HandleSubmitCrawl)
		r.Get("/status", h.HandleGetCrawlStatus)
		r.Get("/results/{profile}/{domain}", h.HandleGetResult)
		r.Post("/results/{profile}/{domain}/annotate", h.HandleAnnotate)
		r.Get("/trackers/{host}", h.HandleClassifyHost)
	})

	return r
}

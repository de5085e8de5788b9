package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"books-gateway/internal/config"
	"books-gateway/internal/metrics"
)

var (
	collectionMethods = []string{http.MethodGet, http.MethodHead, http.MethodPost}
	itemMethods       = []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodDelete}
)

// RegisterRoutes wires all route handlers onto the Echo instance. The metrics
// parameter is optional.
func RegisterRoutes(
	e *echo.Echo,
	cfg *config.Config,
	books *BooksHandler,
	health *HealthHandler,
	debug *DebugHandler,
	purchases *PurchaseHandler,
	m *metrics.Metrics,
) {
	e.GET("/healthz", health.Healthz)
	e.GET("/proxy/status", health.Status)

	e.Match(collectionMethods, "/api/books", books.Collection)
	e.Match(itemMethods, "/api/books/:id", books.Item)
	e.GET("/api/client-config", health.ClientConfig)

	e.POST("/queue/purchases", purchases.Handle)

	if cfg.Debug.Enabled {
		e.GET("/debug/backend", debug.Backend)
	}
	if cfg.Metrics.Enabled && m != nil {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}
}

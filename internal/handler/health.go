package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"books-gateway/internal/config"
	"books-gateway/internal/service"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves health and status endpoints.
type HealthHandler struct {
	cfg       *config.Config
	forwarder *service.Forwarder
	version   Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(cfg *config.Config, f *service.Forwarder, v Version) *HealthHandler {
	return &HealthHandler{cfg: cfg, forwarder: f, version: v}
}

// Healthz returns a simple OK response for liveness probes.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

type statusResponse struct {
	Status             string `json:"status"`
	Version            string `json:"version"`
	UpstreamConfigured bool   `json:"upstream_configured"`
	UpstreamSource     string `json:"upstream_source"`
}

// Status reports the build version and whether an upstream is configured.
// The upstream URL itself is only exposed by the debug endpoint.
func (h *HealthHandler) Status(c echo.Context) error {
	resp := statusResponse{
		Status:             "ok",
		Version:            string(h.version),
		UpstreamConfigured: h.forwarder.Configured(),
		UpstreamSource:     h.cfg.UpstreamSource(),
	}
	if !resp.UpstreamConfigured {
		resp.Status = "degraded"
	}
	return c.JSON(http.StatusOK, resp)
}

// ClientConfig tells browsers which base URL to use for book API calls.
func (h *HealthHandler) ClientConfig(c echo.Context) error {
	base, _ := config.ResolveBaseURL(config.RuntimeBrowser, h.cfg.Upstream.PublicBaseURL)
	return c.JSON(http.StatusOK, map[string]string{
		"api_base_url": base,
	})
}

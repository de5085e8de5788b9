package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"books-gateway/internal/client"
	"books-gateway/internal/config"
	"books-gateway/internal/model"
	"books-gateway/internal/service"
)

// maxProbeBody caps how much of the backend's probe response is echoed back.
const maxProbeBody = 4096

// DebugHandler reports whether the gateway can reach its backend.
type DebugHandler struct {
	cfg       *config.Config
	forwarder *service.Forwarder
	client    *client.UpstreamClient
	logger    *slog.Logger
	now       func() time.Time
}

// NewDebugHandler creates a DebugHandler.
func NewDebugHandler(cfg *config.Config, f *service.Forwarder, c *client.UpstreamClient, logger *slog.Logger) *DebugHandler {
	return &DebugHandler{
		cfg:       cfg,
		forwarder: f,
		client:    c,
		logger:    logger.With("component", "debug_handler"),
		now:       time.Now,
	}
}

type backendDiagnostics struct {
	URL       string    `json:"url"`
	EnvVar    string    `json:"env_var"`
	Status    int       `json:"status"`
	OK        bool      `json:"ok"`
	FetchedAt time.Time `json:"fetched_at"`
	Body      string    `json:"body"`
	Truncated bool      `json:"truncated,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Backend probes the configured backend from the server side.
func (h *DebugHandler) Backend(c echo.Context) error {
	d := backendDiagnostics{
		EnvVar:    h.cfg.UpstreamSource(),
		FetchedAt: h.now().UTC(),
	}

	if !h.forwarder.Configured() {
		d.Error = config.ErrConfigurationMissing.Error()
		return c.JSON(http.StatusOK, d)
	}

	target := h.forwarder.BaseURL() + h.cfg.Debug.ProbePath
	d.URL = redacted(target)

	resp, err := h.client.Send(c.Request().Context(), &model.ForwardedRequest{
		Method: http.MethodGet,
		URL:    target,
		Header: http.Header{"Accept": {"application/json"}},
	})
	if err != nil {
		h.logger.Warn("backend probe failed", "url", d.URL, "err", err)
		d.Error = unreachableMessage(err)
		return c.JSON(http.StatusOK, d)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProbeBody+1))
	if err != nil {
		d.Error = "reading backend response: " + err.Error()
	}
	if len(body) > maxProbeBody {
		body = body[:maxProbeBody]
		d.Truncated = true
	}

	d.Status = resp.StatusCode
	d.OK = resp.StatusCode >= 200 && resp.StatusCode < 300
	d.Body = string(body)
	return c.JSON(http.StatusOK, d)
}

func redacted(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Redacted()
}

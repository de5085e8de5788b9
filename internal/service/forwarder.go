// Package service implements the request forwarding logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"books-gateway/internal/client"
	"books-gateway/internal/config"
	"books-gateway/internal/metrics"
	"books-gateway/internal/model"
)

var (
	// ErrUpstreamUnreachable wraps transport failures reaching the backend.
	ErrUpstreamUnreachable = errors.New("upstream unreachable")
	// ErrUnsupportedMethod is returned for methods outside the forwarded set.
	ErrUnsupportedMethod = errors.New("unsupported method")
	// ErrInvalidTargetPath is returned when a target path does not start with '/'.
	ErrInvalidTargetPath = errors.New("target path must start with '/'")
)

// forwardedMethods lists the methods the forwarder accepts; the value says
// whether the method carries a request body.
var forwardedMethods = map[string]bool{
	http.MethodGet:    false,
	http.MethodHead:   false,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// Forwarder relays requests to the books backend. It holds no per-request
// state and is safe for concurrent use.
type Forwarder struct {
	client  *client.UpstreamClient
	logger  *slog.Logger
	metrics *metrics.Metrics
	baseURL string // empty when no upstream is configured
}

// NewForwarder resolves the upstream base URL once. A missing base URL is not
// an error here: every Forward then returns config.ErrConfigurationMissing.
// The metrics parameter is optional.
func NewForwarder(c *client.UpstreamClient, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *Forwarder {
	logger = logger.With("component", "forwarder")

	base, err := config.ResolveBaseURL(config.RuntimeServer, cfg.Upstream.BaseURL)
	if err != nil {
		logger.Warn("book routes will fail until the upstream is configured", "err", err)
	}

	return &Forwarder{
		client:  c,
		logger:  logger,
		metrics: m,
		baseURL: base,
	}
}

// Configured reports whether an upstream base URL was resolved.
func (f *Forwarder) Configured() bool {
	return f.baseURL != ""
}

// BaseURL returns the resolved upstream base URL, or an empty string.
func (f *Forwarder) BaseURL() string {
	return f.baseURL
}

// Forward sends in to targetPath on the upstream and returns its response,
// whatever the status. targetPath must already be percent-encoded. The caller
// is responsible for closing the response body.
func (f *Forwarder) Forward(ctx context.Context, in *model.InboundRequest, targetPath string) (*model.ForwardedResponse, error) {
	fr, err := f.BuildRequest(in, targetPath)
	if err != nil {
		if errors.Is(err, config.ErrConfigurationMissing) {
			f.recordFailure(metrics.ReasonConfigurationMissing)
		}
		return nil, err
	}

	f.logger.Debug("forwarding request",
		"method", fr.Method,
		"path", in.Path,
		"target_path", targetPath,
	)

	resp, err := f.client.Send(ctx, fr)
	if err != nil {
		f.recordFailure(metrics.ReasonUnreachable)
		f.logger.Error("upstream unreachable",
			"err", sanitizeError(err),
			"method", fr.Method,
			"target_url", redactURL(fr.URL),
			"path", in.Path,
		)
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnreachable, err)
	}

	resp.Header = filterResponseHeaders(resp.Header)
	return resp, nil
}

// BuildRequest turns an inbound request into the request sent upstream.
// It performs no network I/O; the only blocking call is reading the body.
func (f *Forwarder) BuildRequest(in *model.InboundRequest, targetPath string) (*model.ForwardedRequest, error) {
	hasBody, ok := forwardedMethods[in.Method]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, in.Method)
	}
	if !strings.HasPrefix(targetPath, "/") {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidTargetPath, targetPath)
	}
	if f.baseURL == "" {
		return nil, config.ErrConfigurationMissing
	}

	fr := &model.ForwardedRequest{
		Method: in.Method,
		URL:    buildTargetURL(f.baseURL, targetPath, in.RawQuery),
		Header: filterRequestHeaders(in.Header),
	}

	if hasBody && in.Body != nil {
		body, err := io.ReadAll(in.Body)
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		fr.Body = body
	}

	return fr, nil
}

func (f *Forwarder) recordFailure(reason string) {
	if f.metrics != nil {
		f.metrics.ForwardFailures.WithLabelValues(reason).Inc()
	}
}

// buildTargetURL joins base, path and the raw query without re-encoding any of them.
func buildTargetURL(base, targetPath, rawQuery string) string {
	if rawQuery == "" {
		return base + targetPath
	}
	return base + targetPath + "?" + rawQuery
}

// redactURL hides userinfo in a URL before it is logged.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "[unparseable url]"
	}
	return u.Redacted()
}

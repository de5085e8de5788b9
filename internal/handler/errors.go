package handler

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/labstack/echo/v4"

	"books-gateway/internal/config"
	"books-gateway/internal/service"
)

// msgUnreachable is the default body for transport failures.
const msgUnreachable = "Failed to reach the upstream service."

// mapError converts a forwarding error into a JSON response. Bodies never
// carry upstream URLs; the forwarder has already logged those.
func mapError(c echo.Context, logger *slog.Logger, err error) error {
	path := c.Request().URL.Path

	var he *echo.HTTPError
	if errors.As(err, &he) {
		// e.g. BodyLimit tripping while the forwarder reads the body.
		return he
	}

	switch {
	case errors.Is(err, config.ErrConfigurationMissing):
		logger.Error("forward skipped", "err", err, "path", path)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": err.Error(),
		})

	case errors.Is(err, service.ErrUnsupportedMethod):
		return c.JSON(http.StatusMethodNotAllowed, map[string]string{
			"error": "method not allowed",
		})

	case errors.Is(err, service.ErrUpstreamUnreachable):
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": unreachableMessage(err),
		})
	}

	logger.Error("forward failed", "err", err, "path", path)
	return c.JSON(http.StatusInternalServerError, map[string]string{
		"error": "internal gateway error",
	})
}

// unreachableMessage picks a human-readable cause for a transport failure.
func unreachableMessage(err error) string {
	var dnsErr *net.DNSError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "upstream request timed out"
	case errors.Is(err, context.Canceled):
		return "client disconnected"
	case errors.As(err, &dnsErr):
		return "upstream host unreachable"
	default:
		return msgUnreachable
	}
}

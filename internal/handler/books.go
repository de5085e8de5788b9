package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"books-gateway/internal/model"
	"books-gateway/internal/service"
)

// BooksHandler forwards book API requests to the backend.
type BooksHandler struct {
	forwarder *service.Forwarder
	logger    *slog.Logger
}

// NewBooksHandler creates a BooksHandler.
func NewBooksHandler(f *service.Forwarder, logger *slog.Logger) *BooksHandler {
	return &BooksHandler{
		forwarder: f,
		logger:    logger.With("component", "books_handler"),
	}
}

// Collection forwards /api/books to /books.
func (h *BooksHandler) Collection(c echo.Context) error {
	return h.forward(c, "/books")
}

// Item forwards /api/books/:id to /books/{id}. The id is decoded once from
// the escaped inbound path and escaped again as a single path segment.
func (h *BooksHandler) Item(c echo.Context) error {
	// Echo's param may already be decoded, so read the segment as sent.
	escaped := c.Request().URL.EscapedPath()
	id, err := url.PathUnescape(escaped[strings.LastIndexByte(escaped, '/')+1:])
	if err != nil || id == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid book id",
		})
	}
	return h.forward(c, "/books/"+url.PathEscape(id))
}

func (h *BooksHandler) forward(c echo.Context, targetPath string) error {
	req := c.Request()

	in := &model.InboundRequest{
		Method:   req.Method,
		Path:     req.URL.Path,
		RawQuery: req.URL.RawQuery,
		Header:   req.Header,
		Body:     req.Body,
	}

	resp, err := h.forwarder.Forward(req.Context(), in, targetPath)
	if err != nil {
		return mapError(c, h.logger, err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Upstream values replace anything middleware set for the same key.
	dst := c.Response().Header()
	for key, vals := range resp.Header {
		dst[key] = vals
	}

	c.Response().WriteHeader(resp.StatusCode)

	// Once the status is written a copy failure can only truncate the body.
	if _, err := io.Copy(c.Response(), resp.Body); err != nil {
		h.logger.Error("streaming response body",
			"err", err,
			"path", req.URL.Path,
		)
	}

	return nil
}

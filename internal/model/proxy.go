// Package model defines shared types for the gateway.
package model

import (
	"io"
	"net/http"
)

// InboundRequest is the part of a client request the forwarder needs.
type InboundRequest struct {
	Method   string
	Path     string // original gateway path, used for logging only
	RawQuery string
	Header   http.Header
	Body     io.Reader
}

// ForwardedRequest is the request sent to the upstream.
type ForwardedRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte // nil for GET and HEAD
}

// ForwardedResponse is the upstream response to be streamed back.
type ForwardedResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

package config

import (
	"errors"
	"strings"
)

// ErrConfigurationMissing is returned when no upstream base URL can be resolved
// for the server context.
var ErrConfigurationMissing = errors.New("upstream base URL is not configured (set " + EnvUpstreamURL + " or " + FileUpstreamURL + ")")

// SameOriginPrefix is the gateway path browsers use when no public base URL is set.
const SameOriginPrefix = "/api"

// Runtime identifies who will use a resolved base URL.
type Runtime int

const (
	// RuntimeServer talks to the backend directly.
	RuntimeServer Runtime = iota
	// RuntimeBrowser talks to whatever the browser can reach, usually the
	// gateway itself.
	RuntimeBrowser
)

func (r Runtime) String() string {
	switch r {
	case RuntimeServer:
		return "server"
	case RuntimeBrowser:
		return "browser"
	default:
		return "unknown"
	}
}

// ResolveBaseURL returns the base URL for the given runtime from a raw setting
// value. Trailing slashes are stripped. An empty value is an error for the
// server and the same-origin prefix for the browser.
func ResolveBaseURL(rt Runtime, value string) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(value), "/")
	if base != "" {
		return base, nil
	}
	if rt == RuntimeBrowser {
		return SameOriginPrefix, nil
	}
	return "", ErrConfigurationMissing
}

package service

import (
	"net/http"
)

// hopByHopHeaders describe a single connection and are never forwarded in
// either direction. Keys are canonical.
var hopByHopHeaders = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
}

// filterRequestHeaders copies every inbound header except Host and the
// hop-by-hop set. Values keep their order and multiplicity.
func filterRequestHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for key, vals := range src {
		ck := http.CanonicalHeaderKey(key)
		if ck == "Host" || hopByHopHeaders[ck] {
			continue
		}
		dst[ck] = append(dst[ck], vals...)
	}
	return dst
}

// filterResponseHeaders copies every upstream header except the hop-by-hop
// set. Each Set-Cookie value stays a separate entry.
func filterResponseHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(src))
	for key, vals := range src {
		ck := http.CanonicalHeaderKey(key)
		if hopByHopHeaders[ck] {
			continue
		}
		dst[ck] = append(dst[ck], vals...)
	}
	return dst
}

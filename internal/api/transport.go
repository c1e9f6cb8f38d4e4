package api

import (
	"net"
	"net/http"
	"time"
)

// NewTransport returns an HTTP transport tuned for the short-lived polling
// requests this client makes: a small idle pool so the TLS session to the API
// gateway is reused between refreshes, and handshake time-outs well under the
// request timeout.
func NewTransport() *http.Transport {
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: 1 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   1 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
	}
}

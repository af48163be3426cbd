// Package http builds the *http.Client used to reach the WayForPay API.
package http

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// DefaultUserAgent identifies SDK requests in gateway logs
const DefaultUserAgent = "wayforpay-go/1"

// HTTPClientConfig tunes the connection pool for a single upstream host
type HTTPClientConfig struct {
	MaxIdleConns    int
	MaxConnsPerHost int // 0 means unlimited
	IdleConnTimeout time.Duration
	KeepAlive       time.Duration

	DialTimeout           time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration

	UserAgent string
}

// GatewayClientConfig returns config for the WayForPay API.
// All requests go to one host, so the idle pool is sized for it alone.
func GatewayClientConfig() *HTTPClientConfig {
	return &HTTPClientConfig{
		MaxIdleConns:          20,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		KeepAlive:             60 * time.Second,
		DialTimeout:           10 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		UserAgent:             DefaultUserAgent,
	}
}

// NewHTTPClient creates a client with the given configuration.
// timeout bounds the whole exchange; zero leaves it to the request context.
func NewHTTPClient(cfg *HTTPClientConfig, timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: cfg.KeepAlive,
	}

	transport := &http.Transport{
		Proxy:       http.ProxyFromEnvironment,
		DialContext: dialer.DialContext,

		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConns,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,

		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
		ForceAttemptHTTP2:     true,
	}

	var rt http.RoundTripper = transport
	if cfg.UserAgent != "" {
		rt = &userAgentTransport{next: transport, userAgent: cfg.UserAgent}
	}

	return &http.Client{
		Transport: rt,
		Timeout:   timeout,
	}
}

// userAgentTransport sets User-Agent on requests that do not carry one
type userAgentTransport struct {
	next      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.next.RoundTrip(req)
	}
	// RoundTrip must not modify the caller's request
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return t.next.RoundTrip(clone)
}

package httpclient

import (
	"errors"
	"net"
	"net/http"
	"time"
)

// ClientOption customizes the client built by NewClient.
type ClientOption func(*http.Client)

// WithTransport replaces the base transport. The decoding layer still wraps it.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *http.Client) {
		c.Transport = newDecodingTransport(rt)
	}
}

// NewClient builds the shared client. timeout bounds each request from dispatch
// until its body has been read; zero disables the limit.
func NewClient(timeout time.Duration, opts ...ClientOption) (*http.Client, error) {
	if timeout < 0 {
		return nil, errors.New("client timeout must be >= 0")
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	client := &http.Client{
		Timeout:   timeout,
		Transport: newDecodingTransport(transport),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// BaseTransport returns the transport beneath the decoding layer, or nil.
func BaseTransport(c *http.Client) http.RoundTripper {
	if c == nil {
		return nil
	}
	if dt, ok := c.Transport.(*decodingTransport); ok {
		return dt.wrapped
	}
	return c.Transport
}

package httpclient

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
)

const acceptEncoding = "gzip, br"

// DecodeError reports a response body that could not be decoded.
type DecodeError struct {
	Encoding string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode %s response: %v", e.Encoding, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// decodingTransport advertises gzip and brotli and decodes those bodies as they
// are read. A corrupt stream fails the body read, not the round trip, so the
// status line of a received response is always reported.
type decodingTransport struct {
	wrapped http.RoundTripper
}

func newDecodingTransport(rt http.RoundTripper) *decodingTransport {
	if rt == nil {
		rt = http.DefaultTransport
	}
	return &decodingTransport{wrapped: rt}
}

func (t *decodingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("Accept-Encoding") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}

	resp, err := t.wrapped.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	if encoding != "gzip" && encoding != "br" {
		return resp, nil
	}
	if !hasBody(resp) {
		return resp, nil
	}

	resp.Body = &decodingBody{raw: resp.Body, encoding: encoding}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return resp, nil
}

func hasBody(resp *http.Response) bool {
	switch {
	case resp.Body == nil, resp.Body == http.NoBody, resp.ContentLength == 0:
		return false
	case resp.StatusCode == http.StatusNoContent, resp.StatusCode == http.StatusNotModified:
		return false
	case resp.Request != nil && resp.Request.Method == http.MethodHead:
		return false
	}
	return true
}

// decodingBody opens the decompressor on first read. A stream that carries no
// bytes at all reads as an empty body; anything else that fails to decode
// surfaces as a DecodeError.
type decodingBody struct {
	raw      io.ReadCloser
	encoding string
	src      countingReader
	reader   io.Reader
	closer   io.Closer
	err      error
}

func (b *decodingBody) Read(p []byte) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	if b.reader == nil {
		if err := b.open(); err != nil {
			return 0, b.fail(err)
		}
	}
	n, err := b.reader.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, b.fail(err)
	}
	return n, err
}

func (b *decodingBody) open() error {
	b.src.r = b.raw
	src := &b.src
	switch b.encoding {
	case "gzip":
		zr, err := gzip.NewReader(src)
		if err != nil {
			return err
		}
		b.reader, b.closer = zr, zr
	case "br":
		b.reader = brotli.NewReader(src)
	default:
		b.reader = src
	}
	return nil
}

func (b *decodingBody) fail(err error) error {
	if b.src.n == 0 && b.src.eof {
		b.err = io.EOF
	} else {
		b.err = &DecodeError{Encoding: b.encoding, Err: err}
	}
	return b.err
}

func (b *decodingBody) Close() error {
	if b.closer != nil {
		_ = b.closer.Close()
	}
	return b.raw.Close()
}

// countingReader remembers how much of the raw stream was consumed and whether it ended.
type countingReader struct {
	r   io.Reader
	n   int64
	eof bool
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	if errors.Is(err, io.EOF) {
		c.eof = true
	}
	return n, err
}

package httpclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/torosent/httpbatch/internal/metrics"
)

// ErrorKind is the category of a transport failure. Checks run in declaration
// order and the first match wins.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindTimeout
	KindConnect
	KindRequest
	KindBody
	KindDecode
)

// RequestError reports an outgoing request that could not be constructed.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("build request: %v", e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// BodyError reports a payload that could not be encoded or sent.
type BodyError struct {
	Err error
}

func (e *BodyError) Error() string {
	return fmt.Sprintf("request body: %v", e.Err)
}

func (e *BodyError) Unwrap() error {
	return e.Err
}

// Messages the standard transport returns as plain errors.
var (
	invalidRequestMarkers = []string{
		"unsupported protocol scheme",
		"no Host in request URL",
		"missing protocol scheme",
		"invalid method",
		"invalid header field",
		"invalid URL",
	}
	decodeMarkers = []string{
		"malformed HTTP",
		"malformed chunked encoding",
		"invalid Trailer key",
	}
)

// Classify maps err onto an ErrorKind.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case isTimeout(err):
		return KindTimeout
	case isConnect(err):
		return KindConnect
	case isInvalidRequest(err):
		return KindRequest
	case isBody(err):
		return KindBody
	case isDecode(err):
		return KindDecode
	default:
		return KindUnknown
	}
}

// Describe renders the category text. timeout is only used by KindTimeout.
func (k ErrorKind) Describe(timeout time.Duration) string {
	switch k {
	case KindTimeout:
		return fmt.Sprintf("Request timeout (%ss)", metrics.FormatSeconds(timeout))
	case KindConnect:
		return "Unable to connect to server"
	case KindRequest:
		return "Invalid request"
	case KindBody:
		return "Body processing failed"
	case KindDecode:
		return "Response decoding failed"
	default:
		return "Unknown error"
	}
}

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindConnect:
		return "connect"
	case KindRequest:
		return "request"
	case KindBody:
		return "body"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// DescribeError renders "<category>: <underlying message>".
func DescribeError(err error, timeout time.Duration) string {
	if err == nil {
		return ""
	}
	return Classify(err).Describe(timeout) + ": " + err.Error()
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isConnect(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && (opErr.Op == "dial" || opErr.Op == "proxyconnect") {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		return true
	}
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return true
	}
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return true
	}
	var authorityErr x509.UnknownAuthorityError
	if errors.As(err, &authorityErr) {
		return true
	}
	var hostErr x509.HostnameError
	return errors.As(err, &hostErr)
}

func isInvalidRequest(err error) bool {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return true
	}
	return containsAny(err.Error(), invalidRequestMarkers)
}

func isBody(err error) bool {
	var bodyErr *BodyError
	return errors.As(err, &bodyErr)
}

func isDecode(err error) bool {
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return true
	}
	return containsAny(err.Error(), decodeMarkers)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

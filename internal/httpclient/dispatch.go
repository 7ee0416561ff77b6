package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/http/httpguts"

	"github.com/torosent/httpbatch/internal/metrics"
	"github.com/torosent/httpbatch/internal/spec"
	"github.com/torosent/httpbatch/internal/tracing"
)

const (
	maxBodyReadSize = 32 << 20

	conflictMessage = "Cannot use 'body' and 'form' fields simultaneously."
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

var supportedMethods = map[string]string{
	"GET":    http.MethodGet,
	"POST":   http.MethodPost,
	"PUT":    http.MethodPut,
	"DELETE": http.MethodDelete,
	"PATCH":  http.MethodPatch,
}

// Dispatcher turns one RequestSpec into one RequestResult. It is safe for concurrent use.
type Dispatcher struct {
	client    *http.Client
	timeout   time.Duration
	tracer    trace.Tracer
	propagate bool
}

// DispatcherOption customizes a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithTracer records a client span per request and, when propagate is set,
// injects W3C trace headers into the outgoing request.
func WithTracer(tracer trace.Tracer, propagate bool) DispatcherOption {
	return func(d *Dispatcher) {
		d.tracer = tracer
		d.propagate = propagate
	}
}

// NewDispatcher wires a shared client. timeout is only used to label timeout errors;
// the client itself enforces it.
func NewDispatcher(client *http.Client, timeout time.Duration, opts ...DispatcherOption) *Dispatcher {
	if client == nil {
		client = &http.Client{Timeout: timeout, Transport: newDecodingTransport(nil)}
	}
	d := &Dispatcher{client: client, timeout: timeout}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// ResolveMethod maps a case-insensitive verb onto a supported method.
// Surrounding whitespace is not stripped.
func ResolveMethod(method string) (string, bool) {
	m, ok := supportedMethods[strings.ToUpper(method)]
	return m, ok
}

// Dispatch sends the request described by s. Every failure is reported in the
// returned result's Error field.
func (d *Dispatcher) Dispatch(ctx context.Context, s spec.RequestSpec) (result metrics.RequestResult) {
	result = metrics.RequestResult{
		Name:   s.DisplayName(),
		URL:    s.URL,
		Method: s.Method,
	}

	method, ok := ResolveMethod(s.Method)
	if !ok {
		return failWith(result, "Unsupported method: "+s.Method)
	}
	if s.HasBody() && s.HasForm() {
		return failWith(result, conflictMessage)
	}

	if d.tracer != nil {
		var span trace.Span
		ctx, span = tracing.StartRequestSpan(ctx, d.tracer, method, s.URL)
		defer func() {
			var spanErr error
			if result.Error != nil {
				spanErr = errString(*result.Error)
			}
			attrs := []attribute.KeyValue{attribute.Float64("http.response_time_ms", result.ResponseTimeMs)}
			if result.HasStatus() {
				attrs = append(attrs, attribute.Int("http.response.status_code", result.Status()))
			}
			tracing.EndSpan(span, spanErr, attrs...)
		}()
	}

	start := time.Now()
	req, err := d.buildRequest(ctx, method, s)
	if err != nil {
		result.ResponseTimeMs = elapsedMs(start)
		return failWith(result, DescribeError(err, d.timeout))
	}
	if d.tracer != nil && d.propagate {
		tracing.InjectHTTPHeaders(ctx, req.Header)
	}

	resp, err := d.client.Do(req)
	result.ResponseTimeMs = elapsedMs(start)
	if err != nil {
		return failWith(result, DescribeError(err, d.timeout))
	}
	defer resp.Body.Close()

	code := resp.StatusCode
	text := http.StatusText(code)
	result.StatusCode = &code
	result.StatusText = &text
	result.Success = code >= 200 && code < 300

	// A body that cannot be read or is not JSON leaves response_body empty.
	if body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyReadSize)); readErr == nil && gjson.ValidBytes(body) {
		result.ResponseBody = json.RawMessage(pretty.Ugly(body))
	}
	return result
}

func (d *Dispatcher) buildRequest(ctx context.Context, method string, s spec.RequestSpec) (*http.Request, error) {
	target, err := url.Parse(s.URL)
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	if len(s.Params) > 0 {
		query := target.Query()
		for k, v := range s.Params {
			query.Add(k, v)
		}
		target.RawQuery = query.Encode()
	}

	var (
		payload     io.Reader
		contentType string
	)
	switch {
	case s.HasBody():
		var buf bytes.Buffer
		if err := json.Compact(&buf, s.Body); err != nil {
			return nil, &BodyError{Err: err}
		}
		payload = &buf
		contentType = contentTypeJSON
	case s.HasForm():
		form := url.Values{}
		for k, v := range s.Form {
			form.Set(k, v)
		}
		payload = strings.NewReader(form.Encode())
		contentType = contentTypeForm
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), payload)
	if err != nil {
		return nil, &RequestError{Err: err}
	}

	for name, value := range s.Headers {
		if !httpguts.ValidHeaderFieldName(name) || !httpguts.ValidHeaderFieldValue(value) {
			continue
		}
		// net/http ignores a Host entry in Header.
		if strings.EqualFold(name, "Host") {
			req.Host = value
			continue
		}
		req.Header.Set(name, value)
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

func failWith(result metrics.RequestResult, msg string) metrics.RequestResult {
	result.Success = false
	result.Error = &msg
	return result
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}

type errString string

func (e errString) Error() string { return string(e) }

package httpclient_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/torosent/httpbatch/internal/httpclient"
	"github.com/torosent/httpbatch/internal/spec"
)

func strPtr(s string) *string {
	return &s
}

func newDispatcher(t *testing.T, timeout time.Duration, opts ...httpclient.ClientOption) *httpclient.Dispatcher {
	t.Helper()
	client, err := httpclient.NewClient(timeout, opts...)
	require.NoError(t, err)
	return httpclient.NewDispatcher(client, timeout)
}

func mockedDispatcher(t *testing.T) (*httpclient.Dispatcher, *httpmock.MockTransport) {
	t.Helper()
	transport := httpmock.NewMockTransport()
	for _, method := range []string{"GET", "POST", "PUT", "DELETE", "PATCH"} {
		transport.RegisterResponder(method, "https://example.com/", httpmock.NewStringResponder(http.StatusOK, `{}`))
	}
	return newDispatcher(t, 5*time.Second, httpclient.WithTransport(transport)), transport
}

func TestDispatchJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{ "ok" : true }`)
	}))
	defer server.Close()

	d := newDispatcher(t, 5*time.Second)
	result := d.Dispatch(context.Background(), spec.RequestSpec{Name: strPtr("health"), URL: server.URL, Method: "get"})

	assert.True(t, result.Success)
	require.NotNil(t, result.StatusCode)
	assert.Equal(t, 200, *result.StatusCode)
	require.NotNil(t, result.StatusText)
	assert.Equal(t, "OK", *result.StatusText)
	assert.JSONEq(t, `{"ok":true}`, string(result.ResponseBody))
	assert.Nil(t, result.Error)
	assert.Greater(t, result.ResponseTimeMs, 0.0)
	assert.Equal(t, "health", result.Name)
	assert.Equal(t, "get", result.Method)
	assert.Equal(t, server.URL, result.URL)
}

func TestDispatchErrorStatusIsNotTransportError(t *testing.T) {
	tests := []struct {
		code     int
		wantText string
	}{
		{http.StatusNotFound, "Not Found"},
		{http.StatusInternalServerError, "Internal Server Error"},
		{599, ""},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = io.WriteString(w, "nope")
			}))
			defer server.Close()

			result := newDispatcher(t, 5*time.Second).Dispatch(context.Background(), spec.RequestSpec{URL: server.URL, Method: "GET"})

			assert.False(t, result.Success)
			require.NotNil(t, result.StatusCode)
			assert.Equal(t, tt.code, *result.StatusCode)
			require.NotNil(t, result.StatusText)
			assert.Equal(t, tt.wantText, *result.StatusText)
			assert.Nil(t, result.Error)
			assert.Nil(t, result.ResponseBody, "non-JSON body must be left empty")
			assert.Equal(t, "Unnamed", result.Name)
		})
	}
}

func TestDispatchUnsupportedMethodMakesNoCall(t *testing.T) {
	d, transport := mockedDispatcher(t)

	for _, method := range []string{"TRACE", "head", "", "OPTIONS", " get ", "POST\t"} {
		result := d.Dispatch(context.Background(), spec.RequestSpec{URL: "https://example.com/", Method: method})

		assert.False(t, result.Success)
		assert.Nil(t, result.StatusCode)
		require.NotNil(t, result.Error)
		assert.Equal(t, "Unsupported method: "+method, *result.Error)
		assert.Equal(t, 0.0, result.ResponseTimeMs)
	}
	assert.Equal(t, 0, transport.GetTotalCallCount())
}

func TestDispatchBodyAndFormConflictMakesNoCall(t *testing.T) {
	d, transport := mockedDispatcher(t)

	result := d.Dispatch(context.Background(), spec.RequestSpec{
		Name:   strPtr("conflict"),
		URL:    "https://example.com/",
		Method: "POST",
		Body:   json.RawMessage(`{"a":1}`),
		Form:   map[string]string{"b": "2"},
	})

	assert.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, "Cannot use 'body' and 'form' fields simultaneously.", *result.Error)
	assert.Equal(t, 0.0, result.ResponseTimeMs)
	assert.Equal(t, 0, transport.GetTotalCallCount())
}

func TestDispatchMethodsAreCaseInsensitive(t *testing.T) {
	d, transport := mockedDispatcher(t)
	for _, method := range []string{"get", "Post", "pUT", "delete", "patch"} {
		result := d.Dispatch(context.Background(), spec.RequestSpec{URL: "https://example.com/", Method: method})
		assert.True(t, result.Success, method)
	}
	info := transport.GetCallCountInfo()
	assert.Equal(t, 5, transport.GetTotalCallCount())
	assert.Equal(t, 1, info["PATCH https://example.com/"])
}

func TestDispatchSendsHeadersParamsAndJSONBody(t *testing.T) {
	var (
		gotQuery   string
		gotHost    string
		gotHeaders http.Header
		gotBody    []byte
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotHost = r.Host
		gotHeaders = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	result := newDispatcher(t, 5*time.Second).Dispatch(context.Background(), spec.RequestSpec{
		URL:    server.URL + "/items?page=1",
		Method: "POST",
		Headers: map[string]string{
			"X-Api-Key":  "secret",
			"Bad Header": "dropped",
			"X-Newline":  "a\nb",
			"host":       "api.internal.test",
		},
		Params: map[string]string{"q": "a b", "limit": "10"},
		Body:   json.RawMessage("{\n  \"name\": \"widget\",\n  \"tags\": [1, 2]\n}"),
	})

	require.Nil(t, result.Error)
	assert.True(t, result.Success)
	assert.Equal(t, "limit=10&page=1&q=a+b", gotQuery)
	assert.Equal(t, "secret", gotHeaders.Get("X-Api-Key"))
	assert.Equal(t, "api.internal.test", gotHost)
	assert.Empty(t, gotHeaders.Get("Bad Header"))
	assert.Empty(t, gotHeaders.Values("X-Newline"))
	assert.Equal(t, "application/json", gotHeaders.Get("Content-Type"))
	assert.Equal(t, `{"name":"widget","tags":[1,2]}`, string(gotBody))
}

func TestDispatchForm(t *testing.T) {
	var (
		contentType string
		form        map[string][]string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		_ = r.ParseForm()
		form = r.PostForm
	}))
	defer server.Close()

	result := newDispatcher(t, 5*time.Second).Dispatch(context.Background(), spec.RequestSpec{
		URL:    server.URL,
		Method: "PUT",
		Form:   map[string]string{"user": "jo", "note": "a&b"},
	})

	require.Nil(t, result.Error)
	assert.Equal(t, "application/x-www-form-urlencoded", contentType)
	assert.Equal(t, []string{"jo"}, form["user"])
	assert.Equal(t, []string{"a&b"}, form["note"])
}

func TestDispatchKeepsExplicitContentType(t *testing.T) {
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
	}))
	defer server.Close()

	newDispatcher(t, 5*time.Second).Dispatch(context.Background(), spec.RequestSpec{
		URL:     server.URL,
		Method:  "PATCH",
		Headers: map[string]string{"content-type": "application/merge-patch+json"},
		Body:    json.RawMessage(`{"a":null}`),
	})

	assert.Equal(t, "application/merge-patch+json", contentType)
}

func TestDispatchTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	result := newDispatcher(t, 50*time.Millisecond).Dispatch(context.Background(), spec.RequestSpec{URL: server.URL, Method: "GET"})

	assert.False(t, result.Success)
	assert.Nil(t, result.StatusCode)
	require.NotNil(t, result.Error)
	assert.True(t, strings.HasPrefix(*result.Error, "Request timeout (0.05s): "), *result.Error)
	assert.GreaterOrEqual(t, result.ResponseTimeMs, 50.0)
}

func TestDispatchConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	result := newDispatcher(t, 5*time.Second).Dispatch(context.Background(), spec.RequestSpec{URL: url, Method: "GET"})

	assert.False(t, result.Success)
	assert.Nil(t, result.StatusCode)
	require.NotNil(t, result.Error)
	assert.True(t, strings.HasPrefix(*result.Error, "Unable to connect to server: "), *result.Error)
}

func TestDispatchInvalidRequest(t *testing.T) {
	d, transport := mockedDispatcher(t)

	for _, raw := range []string{"http://[::1", "://missing-scheme"} {
		result := d.Dispatch(context.Background(), spec.RequestSpec{URL: raw, Method: "GET"})
		require.NotNil(t, result.Error, raw)
		assert.True(t, strings.HasPrefix(*result.Error, "Invalid request: "), *result.Error)
	}
	assert.Equal(t, 0, transport.GetTotalCallCount())

	for _, raw := range []string{"ftp://example.com/file", ""} {
		result := newDispatcher(t, time.Second).Dispatch(context.Background(), spec.RequestSpec{URL: raw, Method: "GET"})
		require.NotNil(t, result.Error, raw)
		assert.False(t, result.Success)
		assert.True(t, strings.HasPrefix(*result.Error, "Invalid request: "), *result.Error)
	}
}

func TestDispatchDecodesCompressedResponses(t *testing.T) {
	payload := []byte(`{"compressed":true}`)

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, _ = gw.Write(payload)
	require.NoError(t, gw.Close())

	var br bytes.Buffer
	bw := brotli.NewWriter(&br)
	_, _ = bw.Write(payload)
	require.NoError(t, bw.Close())

	tests := []struct {
		encoding string
		body     []byte
	}{
		{"gzip", gz.Bytes()},
		{"br", br.Bytes()},
	}
	for _, tt := range tests {
		t.Run(tt.encoding, func(t *testing.T) {
			var acceptEncoding string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				acceptEncoding = r.Header.Get("Accept-Encoding")
				w.Header().Set("Content-Encoding", tt.encoding)
				_, _ = w.Write(tt.body)
			}))
			defer server.Close()

			result := newDispatcher(t, 5*time.Second).Dispatch(context.Background(), spec.RequestSpec{URL: server.URL, Method: "GET"})

			require.Nil(t, result.Error)
			assert.Equal(t, "gzip, br", acceptEncoding)
			assert.JSONEq(t, string(payload), string(result.ResponseBody))
		})
	}
}

func TestDispatchCorruptEncodingKeepsStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = io.WriteString(w, "definitely not gzip")
	}))
	defer server.Close()

	result := newDispatcher(t, 5*time.Second).Dispatch(context.Background(), spec.RequestSpec{URL: server.URL, Method: "GET"})

	assert.True(t, result.Success)
	require.NotNil(t, result.StatusCode)
	assert.Equal(t, http.StatusOK, *result.StatusCode)
	assert.Nil(t, result.Error)
	assert.Nil(t, result.ResponseBody)
}

func TestDispatchEmptyEncodedBody(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		status   int
		encoding string
	}{
		{"gzip no content", "DELETE", http.StatusNoContent, "gzip"},
		{"br no content", "DELETE", http.StatusNoContent, "br"},
		{"gzip empty ok", "GET", http.StatusOK, "gzip"},
		{"br empty accepted", "POST", http.StatusAccepted, "br"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Encoding", tt.encoding)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			result := newDispatcher(t, 5*time.Second).Dispatch(context.Background(), spec.RequestSpec{URL: server.URL, Method: tt.method})

			assert.True(t, result.Success)
			require.NotNil(t, result.StatusCode)
			assert.Equal(t, tt.status, *result.StatusCode)
			assert.Nil(t, result.Error)
			assert.Nil(t, result.ResponseBody)
		})
	}
}

func TestDispatchTracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	var traceparent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent = r.Header.Get("Traceparent")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client, err := httpclient.NewClient(5 * time.Second)
	require.NoError(t, err)
	d := httpclient.NewDispatcher(client, 5*time.Second, httpclient.WithTracer(tp.Tracer("test"), false))

	result := d.Dispatch(context.Background(), spec.RequestSpec{URL: server.URL, Method: "DELETE"})
	require.Nil(t, result.Error)
	assert.Empty(t, traceparent, "propagation disabled")

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.True(t, strings.HasPrefix(spans[0].Name, "DELETE "))
}

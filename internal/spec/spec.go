// Package spec defines request specifications and parses them from JSON or YAML.
package spec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/torosent/httpbatch/internal/placeholders"
)

// codec replaces encoding/json; RawMessage bodies pass through untouched.
var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultName is reported for specs whose name is absent or null.
const DefaultName = "Unnamed"

// RequestSpec is one declarative HTTP request.
type RequestSpec struct {
	Name    *string           `json:"name,omitempty"`
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers,omitempty"`
	Params  map[string]string `json:"params,omitempty"`
	Body    json.RawMessage   `json:"body,omitempty"`
	Form    map[string]string `json:"form,omitempty"`
}

// DisplayName returns the spec name, which may be empty, or DefaultName when none was given.
func (s RequestSpec) DisplayName() string {
	if s.Name == nil {
		return DefaultName
	}
	return *s.Name
}

// HasBody reports whether a JSON body is present. A JSON null counts as absent.
func (s RequestSpec) HasBody() bool {
	trimmed := bytes.TrimSpace(s.Body)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// HasForm reports whether a form payload is present, even an empty one.
func (s RequestSpec) HasForm() bool {
	return s.Form != nil
}

// ParseError reports input that could not be turned into request specs.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("parse request specs: %v", e.Err)
	}
	return fmt.Sprintf("parse request specs from %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Format identifies the input encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Load reads path, resolves placeholders and parses the result.
func Load(path string, resolver *placeholders.Resolver) ([]RequestSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read request file: %w", err)
	}
	resolved := resolver.Apply(string(data))
	specs, err := Parse([]byte(resolved), FormatFromPath(path))
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			parseErr.Source = path
		}
		return nil, err
	}
	return specs, nil
}

// Parse decodes data as an array of request specs.
func Parse(data []byte, format Format) ([]RequestSpec, error) {
	if format == FormatYAML {
		converted, err := yamlToJSON(data)
		if err != nil {
			return nil, &ParseError{Err: err}
		}
		data = converted
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &ParseError{Err: errors.New("expected a JSON array of request objects")}
	}

	var specs []RequestSpec
	if err := codec.Unmarshal(trimmed, &specs); err != nil {
		return nil, &ParseError{Err: err}
	}

	// Empty strings are valid values; only absent or null fields are rejected.
	var required []struct {
		URL    *string `json:"url"`
		Method *string `json:"method"`
	}
	if err := codec.Unmarshal(trimmed, &required); err != nil {
		return nil, &ParseError{Err: err}
	}

	var issues []string
	for i, r := range required {
		if r.URL == nil {
			issues = append(issues, fmt.Sprintf("requests[%d]: url is required", i))
		}
		if r.Method == nil {
			issues = append(issues, fmt.Sprintf("requests[%d]: method is required", i))
		}
	}
	if len(issues) > 0 {
		return nil, &ParseError{Err: errors.New(strings.Join(issues, "; "))}
	}

	if specs == nil {
		specs = []RequestSpec{}
	}
	return specs, nil
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	if doc == nil {
		return nil, errors.New("yaml: empty document")
	}
	out, err := codec.Marshal(normalizeYAML(doc))
	if err != nil {
		return nil, fmt.Errorf("yaml to json: %w", err)
	}
	return out, nil
}

// normalizeYAML converts map[interface{}]interface{} nodes, which JSON cannot encode.
func normalizeYAML(v interface{}) interface{} {
	switch node := v.(type) {
	case map[string]interface{}:
		for k, child := range node {
			node[k] = normalizeYAML(child)
		}
		return node
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(node))
		for k, child := range node {
			out[fmt.Sprint(k)] = normalizeYAML(child)
		}
		return out
	case []interface{}:
		for i, child := range node {
			node[i] = normalizeYAML(child)
		}
		return node
	default:
		return v
	}
}

package har

import (
	"fmt"
	"strings"
)

// ConvertOptions select which entries are imported.
type ConvertOptions struct {
	IncludeHosts   []string // empty means every host
	ExcludeHosts   []string
	IncludeMethods []string // empty means every method
	ExcludeStatic  bool     // skip scripts, stylesheets, images and fonts
	IncludeHeaders bool
}

// DefaultOptions skips static assets and keeps request headers.
func DefaultOptions() ConvertOptions {
	return ConvertOptions{
		ExcludeStatic:  true,
		IncludeHeaders: true,
	}
}

// ParseFilter builds options from DefaultOptions and a filter expression of
// semicolon-separated key:values parts, for example
// "host:api.example.com,cdn.example.com;method:GET,POST;exclude-host:ads.example.com".
func ParseFilter(filter string) (ConvertOptions, error) {
	opts := DefaultOptions()
	if strings.TrimSpace(filter) == "" {
		return opts, nil
	}

	for _, part := range strings.Split(filter, ";") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		key, value, ok := strings.Cut(part, ":")
		if !ok {
			return ConvertOptions{}, fmt.Errorf("har filter %q: expected key:value", part)
		}
		values := splitList(value)
		if len(values) == 0 {
			return ConvertOptions{}, fmt.Errorf("har filter %q: no values", part)
		}

		switch strings.ToLower(strings.TrimSpace(key)) {
		case "host":
			opts.IncludeHosts = values
		case "exclude-host":
			opts.ExcludeHosts = values
		case "method":
			for i := range values {
				values[i] = strings.ToUpper(values[i])
			}
			opts.IncludeMethods = values
		default:
			return ConvertOptions{}, fmt.Errorf("har filter %q: unknown key (use host, exclude-host or method)", part)
		}
	}
	return opts, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

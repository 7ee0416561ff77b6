// Package placeholders rewrites {{NAME}} placeholders in the raw text of a
// request file before it is parsed.
package placeholders

import (
	"os"
	"regexp"
	"strings"
)

var placeholderRegex = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Lookup resolves a placeholder name to a value.
type Lookup func(name string) (string, bool)

// Resolver substitutes placeholders using a fixed Lookup.
type Resolver struct {
	lookup Lookup
}

// NewResolver creates a Resolver backed by lookup. A nil lookup resolves nothing.
func NewResolver(lookup Lookup) *Resolver {
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}
	return &Resolver{lookup: lookup}
}

// Apply replaces every {{NAME}} with the bound value. Unbound names are left as-is.
func (r *Resolver) Apply(text string) string {
	if r == nil || !strings.Contains(text, "{{") {
		return text
	}
	return placeholderRegex.ReplaceAllStringFunc(text, func(match string) string {
		parts := placeholderRegex.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if val, ok := r.lookup(parts[1]); ok {
			return val
		}
		return match
	})
}

// Names returns the distinct placeholder names referenced by text, in order of first use.
func Names(text string) []string {
	matches := placeholderRegex.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		names = append(names, m[1])
	}
	return names
}

// MapLookup returns a Lookup over a fixed map.
func MapLookup(values map[string]string) Lookup {
	return func(name string) (string, bool) {
		val, ok := values[name]
		return val, ok
	}
}

// EnvironmentSnapshot captures the process environment once. Later changes to
// the environment are not observed by the returned Lookup.
func EnvironmentSnapshot() Lookup {
	env := os.Environ()
	values := make(map[string]string, len(env))
	for _, kv := range env {
		key, val, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		values[key] = val
	}
	return MapLookup(values)
}

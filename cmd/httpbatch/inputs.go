package main

import (
	"fmt"
	"sort"

	"github.com/torosent/httpbatch/internal/config"
	"github.com/torosent/httpbatch/internal/har"
	"github.com/torosent/httpbatch/internal/placeholders"
	"github.com/torosent/httpbatch/internal/spec"
)

// loadSpecs reads the request list named by cfg and returns it with a label
// for its source.
func loadSpecs(cfg *config.Config) ([]spec.RequestSpec, string, error) {
	if cfg.HARFile != "" {
		doc, err := har.ParseFile(cfg.HARFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to parse HAR file: %w", err)
		}
		opts, err := har.ParseFilter(cfg.HARFilter)
		if err != nil {
			return nil, "", err
		}
		specs, err := har.Convert(doc, opts)
		if err != nil {
			return nil, "", fmt.Errorf("failed to convert HAR: %w", err)
		}
		return specs, cfg.HARFile, nil
	}

	resolver := placeholders.NewResolver(placeholders.EnvironmentSnapshot())
	specs, err := spec.Load(cfg.File, resolver)
	if err != nil {
		return nil, "", err
	}
	return specs, cfg.File, nil
}

// unresolvedPlaceholders lists placeholder names still present in specs.
func unresolvedPlaceholders(specs []spec.RequestSpec) []string {
	seen := make(map[string]struct{})
	collect := func(text string) {
		for _, name := range placeholders.Names(text) {
			seen[name] = struct{}{}
		}
	}
	for _, s := range specs {
		if s.Name != nil {
			collect(*s.Name)
		}
		collect(s.URL)
		collect(string(s.Body))
		for _, values := range []map[string]string{s.Headers, s.Params, s.Form} {
			for k, v := range values {
				collect(k)
				collect(v)
			}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

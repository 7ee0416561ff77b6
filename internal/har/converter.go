package har

import (
	"fmt"
	"net/url"
	"path"
	"slices"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/torosent/httpbatch/internal/spec"
)

var staticExtensions = []string{
	".js", ".mjs", ".css", ".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp",
	".woff", ".woff2", ".ttf", ".eot", ".ico", ".map",
}

// Headers the client sets itself or that only make sense on the original connection.
var skippedHeaders = map[string]bool{
	"connection":          true,
	"keep-alive":          true,
	"proxy-authenticate":  true,
	"proxy-authorization": true,
	"te":                  true,
	"trailers":            true,
	"transfer-encoding":   true,
	"upgrade":             true,
	"host":                true,
	"content-length":      true,
	"accept-encoding":     true,
}

// Convert turns the archive's entries into request specs, in recording order.
// Bodies that are neither JSON nor URL-encoded forms are dropped.
func Convert(doc *HAR, opts ConvertOptions) ([]spec.RequestSpec, error) {
	if doc == nil || doc.Log == nil {
		return nil, fmt.Errorf("HAR is nil or has no log")
	}

	specs := make([]spec.RequestSpec, 0, len(doc.Log.Entries))
	for _, entry := range doc.Log.Entries {
		if entry == nil || entry.Request == nil {
			continue
		}
		u, err := url.Parse(entry.Request.URL)
		if err != nil {
			continue
		}
		if !include(entry.Request, u, opts) {
			continue
		}
		specs = append(specs, toSpec(entry.Request, u, opts))
	}
	return specs, nil
}

func include(req *Request, u *url.URL, opts ConvertOptions) bool {
	host := u.Host
	if len(opts.IncludeHosts) > 0 && !containsFold(opts.IncludeHosts, host) {
		return false
	}
	if containsFold(opts.ExcludeHosts, host) {
		return false
	}
	if len(opts.IncludeMethods) > 0 && !containsFold(opts.IncludeMethods, req.Method) {
		return false
	}
	if opts.ExcludeStatic && isStaticAsset(u.Path) {
		return false
	}
	return true
}

func toSpec(req *Request, u *url.URL, opts ConvertOptions) spec.RequestSpec {
	base := *u
	base.RawQuery = ""
	base.Fragment = ""

	name := u.Path
	if name == "" {
		name = "/"
	}
	s := spec.RequestSpec{
		Name:   &name,
		URL:    base.String(),
		Method: strings.ToUpper(req.Method),
	}

	s.Params = queryParams(req, u)

	if opts.IncludeHeaders {
		s.Headers = requestHeaders(req.Headers)
	}

	if pd := req.PostData; pd != nil {
		mime := strings.ToLower(pd.MimeType)
		switch {
		case strings.Contains(mime, "json") && gjson.Valid(pd.Text):
			s.Body = []byte(pd.Text)
		case strings.HasPrefix(mime, "application/x-www-form-urlencoded"):
			s.Form = formFields(pd)
		}
	}
	return s
}

// queryParams prefers the recorded queryString list and falls back to the URL.
// Repeated names keep their last value.
func queryParams(req *Request, u *url.URL) map[string]string {
	params := map[string]string{}
	if len(req.QueryString) > 0 {
		for _, q := range req.QueryString {
			if q != nil {
				params[q.Name] = q.Value
			}
		}
	} else {
		for name, values := range u.Query() {
			params[name] = values[len(values)-1]
		}
	}
	if len(params) == 0 {
		return nil
	}
	return params
}

func requestHeaders(headers []*NameValue) map[string]string {
	out := map[string]string{}
	for _, h := range headers {
		if h == nil || strings.HasPrefix(h.Name, ":") {
			continue
		}
		if skippedHeaders[strings.ToLower(h.Name)] {
			continue
		}
		out[h.Name] = h.Value
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func formFields(pd *PostData) map[string]string {
	form := map[string]string{}
	if len(pd.Params) > 0 {
		for _, p := range pd.Params {
			if p != nil {
				form[p.Name] = p.Value
			}
		}
		return form
	}
	values, err := url.ParseQuery(pd.Text)
	if err != nil {
		return form
	}
	for name, vals := range values {
		form[name] = vals[len(vals)-1]
	}
	return form
}

func isStaticAsset(p string) bool {
	return slices.Contains(staticExtensions, strings.ToLower(path.Ext(p)))
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

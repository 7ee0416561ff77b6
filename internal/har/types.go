// Package har imports browser HTTP Archive (HAR 1.2) recordings as request specs.
package har

// HAR is the top-level archive document. Only the request side is modelled.
type HAR struct {
	Log *Log `json:"log"`
}

type Log struct {
	Version string   `json:"version"`
	Creator *Creator `json:"creator"`
	Entries []*Entry `json:"entries"`
}

type Creator struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Entry is one recorded request/response exchange.
type Entry struct {
	StartedDateTime string   `json:"startedDateTime"`
	Time            float64  `json:"time"`
	Request         *Request `json:"request"`
}

type Request struct {
	Method      string       `json:"method"`
	URL         string       `json:"url"`
	HTTPVersion string       `json:"httpVersion"`
	Headers     []*NameValue `json:"headers"`
	QueryString []*NameValue `json:"queryString"`
	PostData    *PostData    `json:"postData,omitempty"`
}

// NameValue is a header or query string pair.
type NameValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type PostData struct {
	MimeType string       `json:"mimeType"`
	Params   []*NameValue `json:"params,omitempty"`
	Text     string       `json:"text,omitempty"`
}

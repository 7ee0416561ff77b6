package output

import (
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/torosent/httpbatch/internal/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// WriteJSON writes the summary as one indented JSON document followed by a newline.
func WriteJSON(w io.Writer, s metrics.TestSummary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

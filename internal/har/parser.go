package har

import (
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ParseFile reads and parses a HAR file from disk.
func ParseFile(path string) (*HAR, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open HAR file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads a HAR document. A document without a log is rejected.
func Parse(r io.Reader) (*HAR, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read HAR data: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty HAR data")
	}

	var doc HAR
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse HAR JSON: %w", err)
	}
	if doc.Log == nil {
		return nil, fmt.Errorf("invalid HAR: missing log")
	}
	return &doc, nil
}

// Package config provides configuration loading and parsing for httpbatch.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// lookupSetting searches for a value in settings using multiple candidate keys.
// It performs case-insensitive matching by also checking lowercase versions.
func lookupSetting(settings map[string]interface{}, candidates ...string) (interface{}, bool) {
	for _, key := range candidates {
		if val, ok := settings[key]; ok {
			return val, true
		}
		lower := strings.ToLower(key)
		if val, ok := settings[lower]; ok {
			return val, true
		}
	}
	return nil, false
}

func asString(value interface{}) (string, error) {
	if value == nil {
		return "", nil
	}
	if b, ok := value.([]byte); ok {
		return string(b), nil
	}
	return cast.ToStringE(value)
}

func asInt(value interface{}) (int, error) {
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return 0, nil
	}
	if s, ok := value.(string); ok {
		return strconv.Atoi(strings.TrimSpace(s))
	}
	return cast.ToIntE(value)
}

func asFloat64(value interface{}) (float64, error) {
	if s, ok := value.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, nil
		}
		return strconv.ParseFloat(s, 64)
	}
	return cast.ToFloat64E(value)
}

func asBool(value interface{}) (bool, error) {
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		return false, nil
	}
	return cast.ToBoolE(value)
}

// asDuration reads bare numbers as whole or fractional seconds and anything
// else as a Go duration string ("1500ms", "2m").
func asDuration(value interface{}) (time.Duration, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case time.Duration:
		return v, nil
	case string:
		return ParseTimeout(v)
	default:
		secs, err := cast.ToFloat64E(v)
		if err != nil {
			return 0, fmt.Errorf("unsupported duration type %T", value)
		}
		return secondsToDuration(secs), nil
	}
}

// ParseTimeout accepts a number of seconds ("30", "2.5") or a duration ("45s").
func ParseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return secondsToDuration(secs), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: use seconds (30) or a duration (30s)", s)
	}
	return d, nil
}

func secondsToDuration(secs float64) time.Duration {
	return time.Duration(secs * float64(time.Second))
}

// asStringSlice treats a single string as one element; cast would split it on spaces.
func asStringSlice(value interface{}) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		return []string{v}, nil
	default:
		return cast.ToStringSliceE(v)
	}
}

func toStringKeyMap(value interface{}) (map[string]interface{}, error) {
	if value == nil {
		return nil, nil
	}
	m, err := cast.ToStringMapE(value)
	if err != nil {
		return nil, fmt.Errorf("expected object, got %T", value)
	}
	return m, nil
}

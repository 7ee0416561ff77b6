package metrics

import (
	"strconv"
	"time"
)

// FormatSeconds renders d in seconds with no trailing zeros and no exponent: 30s → "30", 1.5s → "1.5".
func FormatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}

package metrics

import "sort"

// Tier groups a result by its response status.
type Tier string

const (
	TierSuccess     Tier = "success"
	TierClientError Tier = "client_error"
	TierServerError Tier = "server_error"
	TierOther       Tier = "other"
	TierNoResponse  Tier = "no_response"
)

// TierOf classifies a result for display.
func TierOf(r RequestResult) Tier {
	if !r.HasStatus() {
		return TierNoResponse
	}
	code := r.Status()
	switch {
	case r.Success:
		return TierSuccess
	case code >= 400 && code < 500:
		return TierClientError
	case code >= 500:
		return TierServerError
	default:
		return TierOther
	}
}

// Bucket is one labelled count.
type Bucket struct {
	Key   string
	Count int
}

// FlattenBuckets converts a count map into rows sorted by descending count, then key.
func FlattenBuckets(buckets map[string]int) []Bucket {
	if len(buckets) == 0 {
		return nil
	}
	rows := make([]Bucket, 0, len(buckets))
	for key, count := range buckets {
		rows = append(rows, Bucket{Key: key, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count == rows[j].Count {
			return rows[i].Key < rows[j].Key
		}
		return rows[i].Count > rows[j].Count
	})
	return rows
}

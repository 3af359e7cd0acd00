package metrics

import (
	"cmp"
	"slices"

	"github.com/adanyl0v/go-tasksync/internal/models"
)

// EndpointSummary aggregates the samples of one "METHOD path" pair.
type EndpointSummary struct {
	Endpoint        string  `json:"endpoint"`
	Method          string  `json:"method"`
	RequestCount    int     `json:"requestCount"`
	AvgResponseTime float64 `json:"avgResponseTime"`
	MinResponseTime int64   `json:"minResponseTime"`
	MaxResponseTime int64   `json:"maxResponseTime"`
	// ErrorRate is the percentage of samples with a status of 400 or above.
	ErrorRate float64 `json:"errorRate"`
}

type endpointKey struct {
	method   string
	endpoint string
}

// Summarize groups samples by method and endpoint. The result is sorted by
// request count, busiest first; ties are broken by method and endpoint.
func Summarize(samples []*models.MetricSample) []EndpointSummary {
	type acc struct {
		count, errors int
		total         int64
		minRT, maxRT  int64
	}

	groups := make(map[endpointKey]*acc)
	for _, s := range samples {
		key := endpointKey{method: s.Method, endpoint: s.Endpoint}
		a, ok := groups[key]
		if !ok {
			a = &acc{minRT: s.ResponseTime, maxRT: s.ResponseTime}
			groups[key] = a
		}
		a.count++
		a.total += s.ResponseTime
		a.minRT = min(a.minRT, s.ResponseTime)
		a.maxRT = max(a.maxRT, s.ResponseTime)
		if s.ResponseStatus >= 400 {
			a.errors++
		}
	}

	out := make([]EndpointSummary, 0, len(groups))
	for key, a := range groups {
		out = append(out, EndpointSummary{
			Endpoint:        key.endpoint,
			Method:          key.method,
			RequestCount:    a.count,
			AvgResponseTime: float64(a.total) / float64(a.count),
			MinResponseTime: a.minRT,
			MaxResponseTime: a.maxRT,
			ErrorRate:       float64(a.errors) * 100 / float64(a.count),
		})
	}

	slices.SortFunc(out, func(a, b EndpointSummary) int {
		return cmp.Or(
			cmp.Compare(b.RequestCount, a.RequestCount),
			cmp.Compare(a.Method, b.Method),
			cmp.Compare(a.Endpoint, b.Endpoint),
		)
	})
	return out
}

package models

import "time"

// MetricSample is one latency/outcome measurement of a single API request.
// ResponseTime is in whole milliseconds.
type MetricSample struct {
	ID             int64     `json:"id"`
	Endpoint       string    `json:"endpoint"`
	Method         string    `json:"method"`
	ResponseTime   int64     `json:"responseTime"`
	ResponseStatus int       `json:"responseStatus"`
	Timestamp      time.Time `json:"timestamp"`
}

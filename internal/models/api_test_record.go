package models

import "time"

// ApiTestRecord is an append-only log entry of a manually triggered API probe.
type ApiTestRecord struct {
	ID             int64     `json:"id"`
	Endpoint       string    `json:"endpoint"`
	Method         string    `json:"method"`
	RequestBody    *string   `json:"requestBody"`
	ResponseStatus *int      `json:"responseStatus"`
	ResponseBody   *string   `json:"responseBody"`
	CreatedAt      time.Time `json:"createdAt"`
}

package v1

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-tasksync/internal/metrics"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDCtxKey = "request_id"
)

func (h *handlerImpl) HandleRequestIDMiddleware(c *gin.Context) {
	requestID := c.GetHeader(requestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	c.Set(requestIDCtxKey, requestID)
	c.Header(requestIDHeader, requestID)
	c.Next()
}

// HandleMetricsMiddleware times the rest of the chain and reports the final
// status. A request whose client went away before the handler returned is
// not reported, even if the handler still wrote a response.
func (h *handlerImpl) HandleMetricsMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next()

	if err := c.Request.Context().Err(); err != nil {
		logger := h.requestLogger(c)
		logger.Debug().
			Err(err).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("request aborted before response")
		return
	}

	h.observer.Observe(metrics.Observation{
		Method:   c.Request.Method,
		Path:     c.Request.URL.Path,
		Route:    c.FullPath(),
		Status:   c.Writer.Status(),
		Duration: time.Since(start),
	})
}

func (h *handlerImpl) requestLogger(c *gin.Context) *zerolog.Logger {
	requestID := c.GetString(requestIDCtxKey)
	if requestID == "" {
		return &h.logger
	}
	logger := h.logger.With().
		Str("request_id", requestID).
		Logger()
	return &logger
}

package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-tasksync/internal/metrics"
)

func (h *handlerImpl) HandleGetMetrics(c *gin.Context) {
	logger := h.requestLogger(c)

	samples, err := h.metrics.ListRecentMetrics(c, h.recentLimit)
	if err != nil {
		logger.Error().
			Err(err).
			Msg("failed to list metrics")
		abort(c, newServiceError(err))
		return
	}

	logger.Debug().
		Int("count", len(samples)).
		Msg("fetched metrics")
	c.JSON(http.StatusOK, samples)
}

// HandleGetMetricsSummary aggregates the same window GET /api/metrics returns.
func (h *handlerImpl) HandleGetMetricsSummary(c *gin.Context) {
	logger := h.requestLogger(c)

	samples, err := h.metrics.ListRecentMetrics(c, h.recentLimit)
	if err != nil {
		logger.Error().
			Err(err).
			Msg("failed to list metrics")
		abort(c, newServiceError(err))
		return
	}

	c.JSON(http.StatusOK, metrics.Summarize(samples))
}

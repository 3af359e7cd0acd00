package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-tasksync/internal/services"
)

type createApiTestRequest struct {
	Endpoint       string  `json:"endpoint" binding:"required"`
	Method         string  `json:"method" binding:"required"`
	RequestBody    *string `json:"requestBody"`
	ResponseStatus *int    `json:"responseStatus" binding:"omitempty,min=100,max=599"`
	ResponseBody   *string `json:"responseBody"`
}

func (h *handlerImpl) HandleCreateApiTest(c *gin.Context) {
	logger := h.requestLogger(c)

	var req createApiTestRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	record, err := h.apiTests.CreateApiTest(c, services.CreateApiTestParams{
		Endpoint:       req.Endpoint,
		Method:         req.Method,
		RequestBody:    req.RequestBody,
		ResponseStatus: req.ResponseStatus,
		ResponseBody:   req.ResponseBody,
	})
	if err != nil {
		logger.Error().
			Err(err).
			Msg("failed to create api test")
		abort(c, newServiceError(err))
		return
	}

	logger.Info().
		Int64("api_test_id", record.ID).
		Msg("created api test")
	c.JSON(http.StatusCreated, record)
}

func (h *handlerImpl) HandleGetApiTests(c *gin.Context) {
	logger := h.requestLogger(c)

	records, err := h.apiTests.ListApiTests(c)
	if err != nil {
		logger.Error().
			Err(err).
			Msg("failed to list api tests")
		abort(c, newServiceError(err))
		return
	}

	logger.Debug().
		Int("count", len(records)).
		Msg("fetched api tests")
	c.JSON(http.StatusOK, records)
}

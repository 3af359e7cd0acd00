package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-tasksync/internal/metrics"
	"github.com/adanyl0v/go-tasksync/internal/realtime"
	"github.com/adanyl0v/go-tasksync/internal/services"
)

type Handler interface {
	HandleRequestIDMiddleware(c *gin.Context)
	HandleMetricsMiddleware(c *gin.Context)

	HandleCreateTask(c *gin.Context)
	HandleGetTasks(c *gin.Context)
	HandleUpdateTask(c *gin.Context)
	HandleDeleteTask(c *gin.Context)

	HandleCreateApiTest(c *gin.Context)
	HandleGetApiTests(c *gin.Context)

	HandleGetMetrics(c *gin.Context)
	HandleGetMetricsSummary(c *gin.Context)

	HandleLiveConnection(c *gin.Context)
}

// LiveHub is the part of *realtime.Hub the handlers depend on.
type LiveHub interface {
	Broadcast(ev realtime.Event, exclude ...*realtime.Client)
	ServeWS(w http.ResponseWriter, r *http.Request)
}

// Observer receives one observation per finished request.
type Observer interface {
	Observe(o metrics.Observation)
}

type handlerImpl struct {
	logger      zerolog.Logger
	tasks       services.TaskService
	apiTests    services.ApiTestService
	metrics     services.MetricService
	live        LiveHub
	observer    Observer
	recentLimit int
}

func New(
	logger zerolog.Logger,
	taskService services.TaskService,
	apiTestService services.ApiTestService,
	metricService services.MetricService,
	live LiveHub,
	observer Observer,
	recentLimit int,
) Handler {
	return &handlerImpl{
		logger:      logger,
		tasks:       taskService,
		apiTests:    apiTestService,
		metrics:     metricService,
		live:        live,
		observer:    observer,
		recentLimit: recentLimit,
	}
}

// Register mounts every route of h on r. The JSON API lives under apiPrefix,
// the same namespace the metrics recorder persists samples for.
func Register(r gin.IRouter, h Handler, apiPrefix string) {
	r.GET("/", h.HandleLiveConnection)

	api := r.Group(strings.TrimSuffix(apiPrefix, "/"))
	{
		api.GET("/tasks", h.HandleGetTasks)
		api.POST("/tasks", h.HandleCreateTask)
		api.PUT("/tasks/:id", h.HandleUpdateTask)
		api.DELETE("/tasks/:id", h.HandleDeleteTask)

		api.GET("/tests", h.HandleGetApiTests)
		api.POST("/tests", h.HandleCreateApiTest)

		api.GET("/metrics", h.HandleGetMetrics)
		api.GET("/metrics/summary", h.HandleGetMetricsSummary)
	}
}

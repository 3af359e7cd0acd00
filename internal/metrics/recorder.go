package metrics

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-tasksync/internal/config"
	"github.com/adanyl0v/go-tasksync/internal/models"
	"github.com/adanyl0v/go-tasksync/internal/services"
)

const unmatchedRoute = "unmatched"

// Observation describes one finished request.
type Observation struct {
	Method string
	Path   string
	// Route is the matched route template, e.g. "/api/tasks/:id".
	// Empty when no route matched.
	Route    string
	Status   int
	Duration time.Duration
}

// Recorder persists a MetricSample for every finished request inside the
// API namespace. Persistence runs in the background and never delays or
// alters the response.
type Recorder struct {
	logger         zerolog.Logger
	samples        services.MetricService
	apiPrefix      string
	persistTimeout time.Duration

	wg sync.WaitGroup

	requestDuration *prometheus.HistogramVec
	persistFailures prometheus.Counter
}

func NewRecorder(
	logger zerolog.Logger,
	samples services.MetricService,
	cfg config.MetricsConfig,
	reg prometheus.Registerer,
) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		logger:         logger,
		samples:        samples,
		apiPrefix:      strings.TrimSuffix(cfg.APIPrefix, "/"),
		persistTimeout: cfg.PersistTimeout,
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tasksync_http_request_duration_seconds",
			Help:    "HTTP request latency by method, route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		persistFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "tasksync_metric_samples_failed_total",
			Help: "Metric samples that could not be persisted",
		}),
	}
}

// IsAPIPath reports whether path is the API prefix itself or lies below it.
func (r *Recorder) IsAPIPath(path string) bool {
	if r.apiPrefix == "" {
		return true
	}
	return path == r.apiPrefix || strings.HasPrefix(path, r.apiPrefix+"/")
}

// Observe records o. Every request feeds the latency histogram; only API
// requests are persisted as samples.
func (r *Recorder) Observe(o Observation) {
	route := o.Route
	if route == "" {
		route = unmatchedRoute
	}
	r.requestDuration.
		WithLabelValues(o.Method, route, strconv.Itoa(o.Status)).
		Observe(o.Duration.Seconds())

	if !r.IsAPIPath(o.Path) {
		return
	}

	sample := &models.MetricSample{
		Endpoint:       o.Path,
		Method:         o.Method,
		ResponseTime:   max(o.Duration.Milliseconds(), 0),
		ResponseStatus: o.Status,
	}

	r.wg.Add(1)
	go r.persist(sample)
}

func (r *Recorder) persist(sample *models.MetricSample) {
	defer r.wg.Done()

	// Detached from the request: the response has already been sent.
	ctx, cancel := context.WithTimeout(context.Background(), r.persistTimeout)
	defer cancel()

	_, err := r.samples.RecordMetric(ctx, sample)
	if err != nil {
		r.persistFailures.Inc()
		r.logger.Error().
			Err(err).
			Str("method", sample.Method).
			Str("endpoint", sample.Endpoint).
			Msg("failed to persist metric sample")
	}
}

// Close waits for in-flight samples to be persisted or for ctx to end.
func (r *Recorder) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/adanyl0v/go-tasksync/internal/config"
	"github.com/adanyl0v/go-tasksync/internal/delivery/http/v1"
	"github.com/adanyl0v/go-tasksync/internal/metrics"
	"github.com/adanyl0v/go-tasksync/internal/realtime"
	"github.com/adanyl0v/go-tasksync/internal/services"
)

// MustListenAndServeHTTP serves the API and live connections until SIGINT or
// SIGTERM. The hub and the metrics recorder live exactly as long as the server.
func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	metricService := services.NewMetricService(componentLogger("metric_service"), globalPostgresPool)
	hub := realtime.NewHub(componentLogger("realtime"), cfg.Realtime, registry)
	recorder := metrics.NewRecorder(componentLogger("metrics"), metricService, cfg.Metrics, registry)

	v1Handler := v1.New(
		componentLogger("http"),
		services.NewTaskService(componentLogger("task_service"), globalPostgresPool),
		services.NewApiTestService(componentLogger("api_test_service"), globalPostgresPool),
		metricService,
		hub,
		recorder,
		cfg.Metrics.RecentLimit,
	)

	router := gin.New()
	registerRoutes(router, registry, v1Handler, cfg.Metrics.APIPrefix)

	server := &http.Server{
		Addr:              net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler:           router,
		ReadHeaderTimeout: httpCfg.ReadHeaderTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		globalLogger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		globalLogger.Info().
			Msg("shutting down http server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
		defer cancel()

		// Hijacked live connections are not tracked by Shutdown.
		hub.Close()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			globalLogger.Error().
				Err(err).
				Msg("failed to shutdown http server")
		}

		recErr := recorder.Close(shutdownCtx)
		if recErr != nil {
			globalLogger.Warn().
				Err(recErr).
				Msg("pending metric samples were not persisted")
		}
		return err
	})

	err := g.Wait()
	if err != nil {
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

func registerRoutes(router *gin.Engine, registry prometheus.Gatherer, v1Handler v1.Handler, apiPrefix string) {
	// Recovery sits inside the metrics middleware so a panicking handler
	// still yields its 500 sample.
	router.Use(gin.Logger())
	router.Use(v1Handler.HandleRequestIDMiddleware)
	router.Use(v1Handler.HandleMetricsMiddleware)
	router.Use(gin.Recovery())

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	v1.Register(router, v1Handler, apiPrefix)
}

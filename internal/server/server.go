package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/mediavault/mount-sentinel/internal/healthcheck"
	"github.com/mediavault/mount-sentinel/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

// Start launches the health and metrics HTTP endpoints for watch mode.
// Endpoints configured on the same port share one listener; a one-shot run
// never calls this.
func Start(ctx context.Context, logger zerolog.Logger, pollInterval time.Duration, tracker *healthcheck.Tracker, collector *metrics.Metrics, healthPort, metricsPort int) {
	muxes := map[int]*http.ServeMux{}

	mux := func(port int) *http.ServeMux {
		if muxes[port] == nil {
			muxes[port] = http.NewServeMux()
		}
		return muxes[port]
	}

	if healthPort > 0 {
		m := mux(healthPort)
		m.HandleFunc("/healthz", healthcheck.HealthHandler(tracker, pollInterval))
		m.HandleFunc("/readyz", healthcheck.ReadyHandler(tracker))
	}
	if metricsPort > 0 && collector != nil {
		mux(metricsPort).Handle("/metrics", collector.Handler())
	}

	ports := make([]int, 0, len(muxes))
	for port := range muxes {
		ports = append(ports, port)
	}
	sort.Ints(ports)

	for _, port := range ports {
		serve(ctx, logger, muxes[port], port)
	}
}

func serve(ctx context.Context, logger zerolog.Logger, handler http.Handler, port int) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Int("port", port).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Int("port", port).Msg("http server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Int("port", port).Msg("http server shutdown failed")
		}
	}()
}

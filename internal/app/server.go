package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/open-metrics-mt-kit/ruler-informer/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

// runServer starts the dispatcher and the HTTP endpoint and blocks until
// ctx is cancelled, a signal arrives or one of them fails.
//
// Signal Handling:
//   - SIGINT (Ctrl+C): Triggers graceful shutdown
//   - SIGTERM: Triggers graceful shutdown (common in container environments)
func runServer(ctx context.Context, address string, services *Services) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              address,
		Handler:           newHTTPHandler(services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logging.Info("Server", "Serving metrics and health checks on %s", address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve on %s: %w", address, err)
		}
		return nil
	})

	g.Go(func() error {
		if err := services.Manager.Start(gctx); err != nil {
			return fmt.Errorf("failed to start reconciliation: %w", err)
		}
		<-gctx.Done()
		return services.Manager.Stop()
	})

	g.Go(func() error {
		<-gctx.Done()
		logging.Info("Server", "Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newHTTPHandler serves:
//   - /metrics: Prometheus metrics
//   - /healthz: 200 while the dispatcher runs, 503 otherwise
//   - /statuses: reconciliation status of every rule group seen so far
func newHTTPHandler(services *Services) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.HandlerFor(services.Registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !services.Manager.IsRunning() {
			http.Error(w, "not running", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/statuses", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(services.Manager.GetAllStatuses()); err != nil {
			logging.Warn("Server", "Failed to encode statuses: %v", err)
		}
	})

	return mux
}

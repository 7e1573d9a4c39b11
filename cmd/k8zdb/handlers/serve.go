package handlers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/k8zdb/internal/util/retry"
)

const shutdownTimeout = 10 * time.Second

// drainTimeout bounds the wait for detached tasks once the server stopped.
var drainTimeout = shutdownTimeout

// listen is replaced in tests.
var listen = func(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}

// Serve runs the HTTP API until ctx is cancelled. An empty addr uses the
// configured address.
func Serve(ctx context.Context, configPath, addr string) error {
	logger := log.FromContext(ctx).WithName("serve")
	app, err := newApp(ctx, configPath)
	if err != nil {
		return err
	}
	defer closeApp(logger, app)

	if addr == "" {
		addr = app.Config.Serve.Address
	}
	ln, err := listen(addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           NewAPI(app, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("serving", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	err = g.Wait()
	drainTasks(ctx, logger, app)
	return err
}

// drainTasks waits for provision and teardown workers before the store is
// closed underneath them.
func drainTasks(ctx context.Context, logger logr.Logger, app *App) {
	tracker := app.Deps.Tracker
	if tracker.Running() == 0 {
		return
	}
	logger.Info("waiting for running tasks", "count", tracker.Running())
	cfg := retry.PollConfig{What: "running tasks to finish", Interval: 50 * time.Millisecond, Timeout: drainTimeout}
	err := retry.Poll(context.WithoutCancel(ctx), cfg, func(context.Context) (bool, string, error) {
		n := tracker.Running()
		return n == 0, fmt.Sprintf("%d running", n), nil
	})
	if err != nil {
		logger.Error(err, "closing with tasks still running; their records stay BUILDING")
	}
}

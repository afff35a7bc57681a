package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

// Start begins serving HTTP and returns a channel that is closed once a
// termination signal arrives.
func (a *App) Start() <-chan struct{} {
	done := make(chan struct{})

	go func() {
		slog.Info("http server listening", "address", a.httpServer.Addr)

		err := a.httpServer.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to listen and serve http server", "error", err)
			os.Exit(1)
		}
	}()

	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		defer signal.Stop(sigs)

		<-sigs

		if a.cancel != nil {
			a.cancel()
		}
		close(done)

		slog.Info("application gracefully shutdown")
	}()

	return done
}

// Serve runs the HTTP server on l. Used by tests that need an ephemeral port.
func (a *App) Serve(l net.Listener) <-chan error {
	errs := make(chan error, 1)

	go func() {
		errs <- a.httpServer.Serve(l)
		close(errs)
	}()

	return errs
}

// Stop shuts the HTTP server down, waits for background goroutines, then
// closes every registered resource in order.
func (a *App) Stop(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}

	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to close resources", "name", "HTTP Server", "error", err)
	}

	slog.InfoContext(ctx, "waiting for background goroutines to finish")
	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "background goroutines returned errors", "error", err)
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		closer := a.closers[i]
		if err := closer.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", closer.name, "error", err)
		}
	}
}

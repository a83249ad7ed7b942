package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/config"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// Serve runs handler on the configured port until ctx is cancelled, then
// drains in-flight requests.
func Serve(ctx context.Context, cfg *config.Config, logg *logger.Logger, handler http.Handler) error {
	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.App.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(logg.WithField(ctx, "addr", srv.Addr), "server.listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(context.Background(), "server.shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

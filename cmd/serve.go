package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ipartes/quote-cli/internal/api"
	"github.com/ipartes/quote-cli/internal/config"
)

const defaultShutdownTimeout = 15 * time.Second

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  "Serves the quotation and supplier pages, the JSON API, /health and /metrics.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx, config.ModeServe)
		if err != nil {
			return err
		}
		defer env.Close()

		handler := buildRouter(env, cfg.Server)
		return startServer(ctx, handler, resolvePort(servePort, cfg.Server.Port), cfg.Server.ShutdownTimeout)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// resolvePort returns the flag port when set, otherwise the config port.
func resolvePort(flagPort, cfgPort int) int {
	if flagPort != 0 {
		return flagPort
	}
	return cfgPort
}

// buildRouter mounts the API over env's services.
func buildRouter(env *appEnv, sc config.ServerConfig) http.Handler {
	deps := api.Deps{
		Metrics:        env.Metrics,
		Service:        sc.Service,
		Version:        sc.Version,
		CORSOrigins:    sc.CORSOrigins,
		RequestTimeout: sc.RequestTimeout,
	}
	// Leave interfaces nil rather than holding typed nil pointers.
	if env.Drafter != nil {
		deps.Drafter = env.Drafter
	}
	if env.Discovery != nil {
		deps.Discoverer = env.Discovery
	}
	if env.Directory != nil {
		deps.Directory = env.Directory
	}
	return api.New(deps).Router()
}

// startServer listens on port until ctx is cancelled, then drains in-flight
// requests for up to shutdownTimeout.
func startServer(ctx context.Context, handler http.Handler, port int, shutdownTimeout time.Duration) error {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return eris.Wrap(err, "server listen")
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server shutdown")
	}
	return nil
}

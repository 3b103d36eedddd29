package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/fairmed-lab/fairmed/pkg/cli/config"
	httpctrl "github.com/fairmed-lab/fairmed/pkg/controller/http"
	"github.com/fairmed-lab/fairmed/pkg/usecase"
	"github.com/fairmed-lab/fairmed/pkg/utils/logging"
)

func cmdServe(sentryCfg *config.Sentry) *cli.Command {
	var addr string
	var corsOrigins []string
	var readTimeout time.Duration
	var writeTimeout time.Duration
	var shutdownTimeout time.Duration
	var catalogCfg config.Catalog

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":5001",
			Sources:     cli.EnvVars("FAIRMED_ADDR"),
			Destination: &addr,
		},
		&cli.StringSliceFlag{
			Name:        "cors-origin",
			Usage:       "Allowed CORS origin (repeatable)",
			Value:       []string{"*"},
			Sources:     cli.EnvVars("FAIRMED_CORS_ORIGINS"),
			Destination: &corsOrigins,
		},
		&cli.DurationFlag{
			Name:        "read-timeout",
			Usage:       "Maximum duration for reading a request",
			Value:       10 * time.Second,
			Category:    "Timeouts",
			Sources:     cli.EnvVars("FAIRMED_READ_TIMEOUT"),
			Destination: &readTimeout,
		},
		&cli.DurationFlag{
			Name:        "write-timeout",
			Usage:       "Maximum duration for writing a response",
			Value:       10 * time.Second,
			Category:    "Timeouts",
			Sources:     cli.EnvVars("FAIRMED_WRITE_TIMEOUT"),
			Destination: &writeTimeout,
		},
		&cli.DurationFlag{
			Name:        "shutdown-timeout",
			Usage:       "Grace period for in-flight requests on shutdown",
			Value:       10 * time.Second,
			Category:    "Timeouts",
			Sources:     cli.EnvVars("FAIRMED_SHUTDOWN_TIMEOUT"),
			Destination: &shutdownTimeout,
		},
	}
	flags = append(flags, catalogCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			// An invalid catalog must stop the process before it listens
			store, err := catalogCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to load scenario catalog")
			}

			uc := usecase.New(store)

			handler, err := httpctrl.New(uc.Analysis,
				httpctrl.WithCORSOrigins(corsOrigins),
				httpctrl.WithSentry(sentryCfg.Enabled()),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create http server")
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: readTimeout,
				ReadTimeout:       readTimeout,
				WriteTimeout:      writeTimeout,
			}

			listener, err := net.Listen("tcp", addr)
			if err != nil {
				return goerr.Wrap(err, "failed to listen", goerr.V("addr", addr))
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, server, listener, shutdownTimeout)
		},
	}
}

// serve runs server on listener until ctx is cancelled, then shuts it down
// gracefully
func serve(ctx context.Context, server *http.Server, listener net.Listener, shutdownTimeout time.Duration) error {
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		logging.Default().Info("Starting HTTP server", "addr", listener.Addr().String())
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return goerr.Wrap(err, "failed to serve")
		}
		return nil
	})

	eg.Go(func() error {
		<-ctx.Done()
		logging.Default().Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return goerr.Wrap(err, "failed to shutdown server gracefully")
		}

		logging.Default().Info("Server shutdown completed")
		return nil
	})

	return eg.Wait()
}

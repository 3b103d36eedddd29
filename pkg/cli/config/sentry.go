package config

import (
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Sentry holds error reporting configuration
type Sentry struct {
	dsn         string
	environment string
}

// Flags returns CLI flags for Sentry configuration
func (x *Sentry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN for server error reporting (disabled when empty)",
			Category:    "Sentry",
			Sources:     cli.EnvVars("FAIRMED_SENTRY_DSN"),
			Destination: &x.dsn,
		},
		&cli.StringFlag{
			Name:        "sentry-env",
			Usage:       "Sentry environment name",
			Value:       "development",
			Category:    "Sentry",
			Sources:     cli.EnvVars("FAIRMED_SENTRY_ENV"),
			Destination: &x.environment,
		},
	}
}

func (x Sentry) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("enabled", x.Enabled()),
		slog.Int("dsn.len", len(x.dsn)),
		slog.String("environment", x.environment),
	)
}

// Enabled reports whether a DSN is configured
func (x *Sentry) Enabled() bool {
	return x.dsn != ""
}

// Configure initializes the Sentry SDK. The returned function flushes
// buffered events and is a no-op when Sentry is disabled.
func (x *Sentry) Configure(version string) (func(), error) {
	if !x.Enabled() {
		return func() {}, nil
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         x.dsn,
		Environment: x.environment,
		Release:     version,
	}); err != nil {
		return func() {}, goerr.Wrap(err, "failed to initialize Sentry")
	}

	return func() { sentry.Flush(2 * time.Second) }, nil
}

package config

import (
	"context"

	"github.com/fairmed-lab/fairmed/pkg/service/gcs"
)

// NewCatalogForTest creates a Catalog that reads gs:// URLs through svc
func NewCatalogForTest(path string, svc gcs.Service) *Catalog {
	return &Catalog{
		path: path,
		newGCS: func(ctx context.Context, endpoint string) (gcs.Service, error) {
			return svc, nil
		},
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

// NewSentryForTest creates a Sentry config for testing purposes
func NewSentryForTest(dsn, environment string) *Sentry {
	return &Sentry{dsn: dsn, environment: environment}
}

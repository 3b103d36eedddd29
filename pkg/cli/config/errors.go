package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrCatalogNotFound    = goerr.New("scenario catalog not found")
	ErrInvalidCatalog     = goerr.New("invalid scenario catalog")
	ErrUnsupportedFormat  = goerr.New("unsupported catalog format")
	ErrInvalidLogSettings = goerr.New("invalid logger settings")
)

// Context keys for error values
const (
	CatalogPathKey = "catalog_path"
	ScenarioIDKey  = "scenario_id"
	FormatKey      = "format"
)

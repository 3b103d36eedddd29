package model

import "github.com/m-mizutani/goerr/v2"

// ErrUnknownScenario is returned when a well-formed scenario ID is not configured
var ErrUnknownScenario = goerr.New("unknown scenario")

// Validation errors for scenario records
var (
	ErrInvalidScenario  = goerr.New("invalid scenario")
	ErrInvalidRecord    = goerr.New("invalid analysis record")
	ErrInvalidGroup     = goerr.New("invalid demographic group")
	ErrGroupMismatch    = goerr.New("mitigated groups do not match baseline groups")
	ErrScoreNotImproved = goerr.New("mitigated score does not improve on baseline")
)

// Context keys for error values
const (
	ScenarioIDKey = "scenario_id"
	GroupKey      = "group"
	FieldKey      = "field"
	ValueKey      = "value"
	ExpectedKey   = "expected"
)

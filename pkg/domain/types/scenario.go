package types

import (
	"regexp"

	"github.com/m-mizutani/goerr/v2"
)

// idPattern defines the valid pattern for scenario identifiers
var idPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ScenarioID identifies one of the configured bias case studies
type ScenarioID string

const (
	ScenarioDermatology    ScenarioID = "dermatology"
	ScenarioCardiovascular ScenarioID = "cardiovascular"
	ScenarioPain           ScenarioID = "pain"
)

// Validate checks if the ScenarioID is well formed. It does not check whether
// the scenario is configured; that is the store's job.
func (s ScenarioID) Validate() error {
	if s == "" {
		return goerr.New("scenario ID cannot be empty")
	}
	if !idPattern.MatchString(string(s)) {
		return goerr.New("scenario ID must be lowercase alphanumeric with hyphens", goerr.V("id", s))
	}
	return nil
}

// String returns the string representation of ScenarioID
func (s ScenarioID) String() string {
	return string(s)
}

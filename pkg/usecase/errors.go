package usecase

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for use case layer
var (
	// ErrInvalidRequest is returned when a required field is missing or malformed
	ErrInvalidRequest = goerr.New("invalid request")

	// ErrLiveDataUnsupported is returned when analysis of uploaded data is
	// requested; only the pre-computed sample data path exists
	ErrLiveDataUnsupported = goerr.New("analysis of uploaded data is not implemented")
)

// Context keys for error values
const (
	ScenarioKey   = "scenario"
	MitigationKey = "mitigation"
)

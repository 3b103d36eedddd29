package types

import "fmt"

// Severity represents how serious a bias flag is
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// AllSeverities returns all valid severities
func AllSeverities() []Severity {
	return []Severity{
		SeverityHigh,
		SeverityMedium,
		SeverityLow,
	}
}

// IsValid checks if the severity is valid
func (s Severity) IsValid() bool {
	switch s {
	case SeverityHigh,
		SeverityMedium,
		SeverityLow:
		return true
	default:
		return false
	}
}

// String returns the string representation of the severity
func (s Severity) String() string {
	return string(s)
}

// ParseSeverity parses a string into a Severity
func ParseSeverity(s string) (Severity, error) {
	severity := Severity(s)
	if !severity.IsValid() {
		return "", fmt.Errorf("invalid severity: %s", s)
	}
	return severity, nil
}

package types

import "fmt"

// Priority ranks a mitigation recommendation
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// IsValid checks if the priority is valid
func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh,
		PriorityMedium,
		PriorityLow:
		return true
	default:
		return false
	}
}

func (p Priority) String() string {
	return string(p)
}

// ParsePriority parses a string into a Priority
func ParsePriority(s string) (Priority, error) {
	priority := Priority(s)
	if !priority.IsValid() {
		return "", fmt.Errorf("invalid priority: %s", s)
	}
	return priority, nil
}

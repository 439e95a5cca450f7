package enums

import "fmt"

// Priority ranks how urgently a message needs attention.
type Priority string

const (
	PriorityNormal  Priority = "NORMAL"
	PriorityUrgente Priority = "URGENTE"
	PriorityCritica Priority = "CRITICA"
)

var validPriorities = []Priority{
	PriorityNormal,
	PriorityUrgente,
	PriorityCritica,
}

// IsValid checks whether the priority matches the canonical enum.
func (p Priority) IsValid() bool {
	for _, candidate := range validPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePriority converts raw strings into Priority.
func ParsePriority(value string) (Priority, error) {
	for _, candidate := range validPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid priority %q", value)
}

// Rank orders priorities for sorting, highest urgency first.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritica:
		return 2
	case PriorityUrgente:
		return 1
	default:
		return 0
	}
}

package progression

import (
	"errors"
	"fmt"
	"strings"
)

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

var ErrInvalidPriority = errors.New("priority must be High, Medium, or Low")

var xpByPriority = map[Priority]int{
	PriorityHigh:   100,
	PriorityMedium: 50,
	PriorityLow:    25,
}

// CalculateXP returns the reward for completing a task of the given priority.
// Unknown priorities are worth nothing.
func CalculateXP(priority Priority) int {
	return xpByPriority[priority]
}

// ParsePriority accepts the wire values "High", "Medium" and "Low".
func ParsePriority(raw string) (Priority, error) {
	p := Priority(strings.TrimSpace(raw))
	if !p.Valid() {
		return "", fmt.Errorf("%w: got %q", ErrInvalidPriority, raw)
	}
	return p, nil
}

func (p Priority) Valid() bool {
	_, ok := xpByPriority[p]
	return ok
}

// Code is the criteria value used by first-completion achievements.
func (p Priority) Code() int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 0
	}
}

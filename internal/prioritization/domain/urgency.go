package domain

import (
	"errors"
	"strings"
)

// UrgencyLevel is the four-step classification assigned to a scored task.
type UrgencyLevel string

const (
	UrgencyCritical UrgencyLevel = "CRITICAL"
	UrgencyHigh     UrgencyLevel = "HIGH"
	UrgencyMedium   UrgencyLevel = "MEDIUM"
	UrgencyLow      UrgencyLevel = "LOW"
)

var ErrInvalidUrgencyLevel = errors.New("invalid urgency level")

var urgencyRanks = map[UrgencyLevel]int{
	UrgencyLow:      1,
	UrgencyMedium:   2,
	UrgencyHigh:     3,
	UrgencyCritical: 4,
}

// ParseUrgencyLevel converts a string to an UrgencyLevel.
func ParseUrgencyLevel(value string) (UrgencyLevel, error) {
	level := UrgencyLevel(strings.ToUpper(strings.TrimSpace(value)))
	if !level.IsValid() {
		return "", ErrInvalidUrgencyLevel
	}
	return level, nil
}

// Rank orders levels so that CRITICAL > HIGH > MEDIUM > LOW. Unknown levels rank 0.
func (u UrgencyLevel) Rank() int {
	return urgencyRanks[u]
}

// IsValid returns true if the level is one of the four defined values.
func (u UrgencyLevel) IsValid() bool {
	_, ok := urgencyRanks[u]
	return ok
}

// HigherThan reports whether u outranks other.
func (u UrgencyLevel) HigherThan(other UrgencyLevel) bool {
	return u.Rank() > other.Rank()
}

func (u UrgencyLevel) String() string {
	return string(u)
}

package services

import (
	"math"
	"time"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
)

// classify maps a final score onto an urgency level. Thresholds are inclusive
// lower bounds.
func (c ScoringConfig) classify(score float64) domain.UrgencyLevel {
	switch {
	case score >= c.Thresholds.Critical:
		return domain.UrgencyCritical
	case score >= c.Thresholds.High:
		return domain.UrgencyHigh
	case score >= c.Thresholds.Medium:
		return domain.UrgencyMedium
	default:
		return domain.UrgencyLow
	}
}

// slaHours scales the level's point estimate by the category factor, keeps it
// inside the level's window, and never lets it run past the nearest meeting or
// deadline.
func (c ScoringConfig) slaHours(level domain.UrgencyLevel, input domain.TaskInput) float64 {
	window := c.SLA[level]
	hours := clamp(window.Hours*c.slaCategoryFactor(input.Category), window.MinHours, window.MaxHours)

	if constraint, ok := input.NearestTimeConstraint(); ok {
		remaining := constraint.Sub(input.CreatedAt).Hours()
		if remaining < hours {
			hours = math.Max(remaining, c.MinSLAHours)
		}
	}
	return round2(hours)
}

func (c ScoringConfig) shouldEscalate(score float64, role domain.Role) bool {
	if score >= c.EscalationThreshold {
		return true
	}
	return role.IsExecutive() && score >= c.ExecutiveEscalationThreshold
}

// timeSensitivity ramps linearly from 10 inside the immediate window down to
// 0 at the horizon. Past constraints count as immediate.
func (c ScoringConfig) timeSensitivity(input domain.TaskInput) float64 {
	constraint, ok := input.NearestTimeConstraint()
	if !ok {
		return 0
	}
	gap := constraint.Sub(input.CreatedAt)
	switch {
	case gap <= c.ImmediateWindow:
		return 10
	case gap >= c.TimeHorizon:
		return 0
	}
	span := float64(c.TimeHorizon - c.ImmediateWindow)
	return 10 * float64(c.TimeHorizon-gap) / span
}

func hoursUntil(from, to time.Time) float64 {
	return to.Sub(from).Hours()
}

package domain

import (
	"math"
	"strings"
	"time"
)

// Overrides are manual values that always win over auto-calculation for their field.
type Overrides struct {
	BusinessValue        *float64 `json:"businessValue,omitempty"`
	RiskLevel            *float64 `json:"riskLevel,omitempty"`
	EstimatedEffortHours *float64 `json:"estimatedEffortHours,omitempty"`
	AffectedUsersCount   *int     `json:"affectedUsersCount,omitempty"`
	WorkaroundAvailable  *bool    `json:"workaroundAvailable,omitempty"`
}

// TaskInput is the normalized request handed to the scoring engine.
// It is built once per incoming request and never mutated.
type TaskInput struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Category      Category   `json:"category"`
	RequesterRole Role       `json:"requesterRole"`
	RequesterName string     `json:"requesterName,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	MeetingTime   *time.Time `json:"meetingTime,omitempty"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	Context       string     `json:"context,omitempty"`
	Tags          []string   `json:"tags,omitempty"`

	Overrides
}

// Validate checks structural validity. Sparse but well-formed input is valid.
func (t TaskInput) Validate() error {
	verr := &ValidationError{}

	if strings.TrimSpace(t.ID) == "" {
		verr.add("id", "is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		verr.add("title", "must not be empty")
	}
	if strings.TrimSpace(t.Description) == "" {
		verr.add("description", "must not be empty")
	}
	if t.CreatedAt.IsZero() {
		verr.add("createdAt", "is required")
	}
	if v := t.BusinessValue; v != nil && !inClosedRange(*v, 1, 10) {
		verr.add("businessValue", "must be between 1 and 10")
	}
	if v := t.RiskLevel; v != nil && !inClosedRange(*v, 1, 10) {
		verr.add("riskLevel", "must be between 1 and 10")
	}
	if v := t.EstimatedEffortHours; v != nil && (!isFinite(*v) || *v <= 0) {
		verr.add("estimatedEffortHours", "must be greater than 0")
	}
	if v := t.AffectedUsersCount; v != nil && *v < 1 {
		verr.add("affectedUsersCount", "must be at least 1")
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// AnalysisText is the concatenation inspected by the sensitive-content gate and the analyzer.
func (t TaskInput) AnalysisText() string {
	parts := []string{t.Title, t.Description}
	if t.Context != "" {
		parts = append(parts, t.Context)
	}
	return strings.Join(parts, "\n")
}

// NearestTimeConstraint returns the earliest of meetingTime and deadline, if any.
func (t TaskInput) NearestTimeConstraint() (time.Time, bool) {
	switch {
	case t.MeetingTime != nil && t.Deadline != nil:
		if t.MeetingTime.Before(*t.Deadline) {
			return *t.MeetingTime, true
		}
		return *t.Deadline, true
	case t.MeetingTime != nil:
		return *t.MeetingTime, true
	case t.Deadline != nil:
		return *t.Deadline, true
	default:
		return time.Time{}, false
	}
}

func inClosedRange(v, lo, hi float64) bool {
	return isFinite(v) && v >= lo && v <= hi
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

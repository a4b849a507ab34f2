package domain

import "time"

// MetricSource records where a content metric came from.
type MetricSource string

const (
	SourceOverride MetricSource = "override"
	SourceAuto     MetricSource = "auto"
)

// ContentMetrics are derived per scoring call and never persisted on their own.
type ContentMetrics struct {
	BusinessValue       float64                 `json:"businessValue"`
	RiskLevel           float64                 `json:"riskLevel"`
	EffortHours         float64                 `json:"effortHours"`
	AffectedUsers       int                     `json:"affectedUsers"`
	WorkaroundAvailable bool                    `json:"workaroundAvailable"`
	AnalysisConfidence  float64                 `json:"analysisConfidence"`
	Sources             map[string]MetricSource `json:"sources,omitempty"`
}

// PriorityMetrics holds the weighted sub-scores and the final score.
type PriorityMetrics struct {
	UrgencyScore          float64 `json:"urgencyScore"`
	BusinessImpactScore   float64 `json:"businessImpactScore"`
	RiskScore             float64 `json:"riskScore"`
	RoleWeight            float64 `json:"roleWeight"`
	TimeSensitivityScore  float64 `json:"timeSensitivityScore"`
	EffortComplexityScore float64 `json:"effortComplexityScore"`
	FinalPriorityScore    float64 `json:"finalPriorityScore"`
}

// Suggestion is a self-help or workaround hint returned with a result.
type Suggestion struct {
	Title                   string  `json:"title"`
	Description             string  `json:"description"`
	Kind                    string  `json:"kind"`
	EstimatedResolutionTime string  `json:"estimatedResolutionTime"`
	Confidence              float64 `json:"confidence"`
}

// PriorityResult is the engine's only output. It is immutable once produced.
type PriorityResult struct {
	RequestID             string          `json:"requestId"`
	UrgencyLevel          UrgencyLevel    `json:"urgencyLevel"`
	PriorityMetrics       PriorityMetrics `json:"priorityMetrics"`
	Reasoning             string          `json:"reasoning"`
	AIConfidence          float64         `json:"aiConfidence"`
	SuggestedSLAHours     float64         `json:"suggestedSlaHours"`
	EscalationRecommended bool            `json:"escalationRecommended"`
	RiskAssessment        string          `json:"riskAssessment"`
	ProcessedAt           time.Time       `json:"processedAt"`

	ContentMetrics        ContentMetrics `json:"contentMetrics"`
	DominantFactor        string         `json:"dominantFactor"`
	SensitiveDataDetected bool           `json:"sensitiveDataDetected"`
	PrivacyCategories     []string       `json:"privacyCategories,omitempty"`
	Refined               bool           `json:"refined"`
	Suggestions           []Suggestion   `json:"suggestions,omitempty"`
	NextActions           []string       `json:"nextActions,omitempty"`
}

// DueAt is processedAt plus the suggested SLA window.
func (r PriorityResult) DueAt() time.Time {
	return r.ProcessedAt.Add(time.Duration(r.SuggestedSLAHours * float64(time.Hour)))
}

// EstimatedMinutes converts the effort estimate (always hours) to minutes for downstream columns.
func (r PriorityResult) EstimatedMinutes() int {
	return int(r.ContentMetrics.EffortHours*60 + 0.5)
}

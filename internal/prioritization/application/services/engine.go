// Package services contains the priority scoring engine and its parts: the
// sensitive-content gate, the content analyzer, the classifier and the
// optional refiner hook.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
	"github.com/felixgeelhaar/prioritiai/pkg/observability"
	"go.opentelemetry.io/otel/attribute"
)

// Factor names as they appear in results and reasoning.
const (
	FactorUrgency         = "urgency"
	FactorBusinessImpact  = "business impact"
	FactorRisk            = "risk"
	FactorRoleWeight      = "requester role"
	FactorTimeSensitivity = "time sensitivity"
)

// Engine turns a TaskInput into a PriorityResult. It is safe for concurrent use.
type Engine struct {
	config   ScoringConfig
	gate     *SensitiveContentGate
	analyzer *ContentAnalyzer
	refiner  Refiner
	logger   *slog.Logger
	metrics  observability.Metrics
	now      func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRefiner enables the optional refinement step.
func WithRefiner(r Refiner) EngineOption {
	return func(e *Engine) { e.refiner = r }
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m observability.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithClock sets the clock used for processedAt.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine validates cfg and builds an engine holding a private copy of it.
func NewEngine(cfg ScoringConfig, opts ...EngineOption) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		config:  cfg.clone(),
		logger:  slog.Default(),
		metrics: observability.NoopMetrics{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.gate = NewSensitiveContentGate(e.config.Lexicon, e.logger)
	e.analyzer = NewContentAnalyzer(e.config.Lexicon)
	return e, nil
}

// Config returns a copy of the engine's configuration.
func (e *Engine) Config() ScoringConfig {
	return e.config.clone()
}

// Score validates input and computes its priority. The only error it returns
// is a *domain.ValidationError; refiner failures fall back to the local result.
func (e *Engine) Score(ctx context.Context, input domain.TaskInput) (domain.PriorityResult, error) {
	ctx, span := observability.StartSpan(ctx, "prioritization.score",
		attribute.String("task.id", input.ID),
		attribute.String("task.category", string(input.Category)),
	)
	start := time.Now()

	if err := input.Validate(); err != nil {
		e.metrics.Counter(observability.MetricScoringRejected, 1)
		observability.EndSpan(span, err)
		return domain.PriorityResult{}, err
	}

	gate := e.gate.Check(ctx, input.ID, input.AnalysisText())
	if gate.Sensitive {
		e.metrics.Counter(observability.MetricSensitiveDetected, 1)
	}

	result := e.scoreLocal(input, gate)

	if e.refiner != nil && !gate.Sensitive {
		result = e.refine(ctx, input, result)
	}

	span.SetAttributes(
		attribute.String("priority.level", string(result.UrgencyLevel)),
		attribute.Float64("priority.score", result.PriorityMetrics.FinalPriorityScore),
		attribute.Bool("priority.refined", result.Refined),
	)
	observability.EndSpan(span, nil)

	e.metrics.Counter(observability.MetricScoringTotal, 1, observability.T("level", string(result.UrgencyLevel)))
	e.metrics.Histogram(observability.MetricScoringFinalScore, result.PriorityMetrics.FinalPriorityScore)
	e.metrics.Timing(observability.MetricScoringDuration, time.Since(start))
	if result.EscalationRecommended {
		e.metrics.Counter(observability.MetricEscalations, 1)
	}

	e.logger.DebugContext(ctx, "task scored",
		"task_id", input.ID,
		"urgency_level", result.UrgencyLevel,
		"final_score", result.PriorityMetrics.FinalPriorityScore,
		"dominant_factor", result.DominantFactor,
		"refined", result.Refined,
	)
	return result, nil
}

// scoreLocal is the deterministic pipeline. It never fails.
func (e *Engine) scoreLocal(input domain.TaskInput, gate GateResult) domain.PriorityResult {
	cfg := e.config
	content := e.analyzer.Analyze(input)

	timeSens := cfg.timeSensitivity(input)
	urgencyBase := cfg.UrgencyTimeShare*timeSens + (1-cfg.UrgencyTimeShare)*content.RiskLevel

	pm := domain.PriorityMetrics{
		UrgencyScore:          round2(clamp(urgencyBase*cfg.categoryMultiplier(input.Category), 0, 10)),
		BusinessImpactScore:   round2(clamp(content.BusinessValue, 0, 10)),
		RiskScore:             round2(clamp(content.RiskLevel, 0, 10)),
		RoleWeight:            round2(clamp(cfg.roleWeight(input.RequesterRole), 0, cfg.MaxRoleWeight)),
		TimeSensitivityScore:  round2(timeSens),
		EffortComplexityScore: round2(clamp(10-cfg.Lexicon.EffortPenaltyPerHour*content.EffortHours, 1, 10)),
	}

	contributions := cfg.contributions(pm)
	var final float64
	for _, c := range contributions {
		final += c.value
	}
	pm.FinalPriorityScore = round2(clamp(final, 0, 10))

	level := cfg.classify(pm.FinalPriorityScore)
	result := domain.PriorityResult{
		RequestID:             input.ID,
		UrgencyLevel:          level,
		PriorityMetrics:       pm,
		AIConfidence:          round2(min(content.AnalysisConfidence, cfg.LocalConfidenceCeiling)),
		SuggestedSLAHours:     cfg.slaHours(level, input),
		EscalationRecommended: cfg.shouldEscalate(pm.FinalPriorityScore, input.RequesterRole),
		RiskAssessment:        riskAssessment(content),
		ProcessedAt:           e.now().UTC(),
		ContentMetrics:        content,
		SensitiveDataDetected: gate.Sensitive,
		PrivacyCategories:     gate.Categories,
		Suggestions:           localSuggestions(input, content),
	}
	result.DominantFactor, result.Reasoning = cfg.reasoning(input, result, contributions)
	result.NextActions = cfg.nextActions(result, input)
	return result
}

func (e *Engine) refine(ctx context.Context, input domain.TaskInput, local domain.PriorityResult) domain.PriorityResult {
	ctx, cancel := context.WithTimeout(ctx, e.config.RefinerTimeout)
	defer cancel()

	ctx, span := observability.StartSpan(ctx, "prioritization.refine")
	start := time.Now()
	ref, err := callRefiner(ctx, e.refiner, input, local)
	observability.EndSpan(span, err)
	e.metrics.Timing(observability.MetricRefinerDuration, time.Since(start))

	if err != nil {
		e.metrics.Counter(observability.MetricRefinerCalls, 1, observability.T("outcome", "failed"))
		e.logger.WarnContext(ctx, "refiner unavailable, using local result",
			"task_id", input.ID,
			"error", err,
		)
		return local
	}
	e.metrics.Counter(observability.MetricRefinerCalls, 1, observability.T("outcome", "ok"))
	return e.config.mergeRefinement(local, ref, input.RequesterRole)
}

type contribution struct {
	factor string
	value  float64
}

// contributions returns weight times sub-score for every factor, in a fixed
// order that also breaks ties when picking the dominant factor.
func (c ScoringConfig) contributions(pm domain.PriorityMetrics) []contribution {
	return []contribution{
		{FactorUrgency, c.Weights.Urgency * pm.UrgencyScore},
		{FactorBusinessImpact, c.Weights.BusinessImpact * pm.BusinessImpactScore},
		{FactorRisk, c.Weights.Risk * pm.RiskScore},
		{FactorRoleWeight, c.Weights.RoleWeight * pm.RoleWeight},
		{FactorTimeSensitivity, c.Weights.TimeSensitivity * pm.TimeSensitivityScore},
	}
}

func (c ScoringConfig) reasoning(input domain.TaskInput, result domain.PriorityResult, contributions []contribution) (string, string) {
	first, second := 0, -1
	for i := 1; i < len(contributions); i++ {
		if contributions[i].value > contributions[first].value {
			second = first
			first = i
		} else if second < 0 || contributions[i].value > contributions[second].value {
			second = i
		}
	}
	dominant := contributions[first]
	pm := result.PriorityMetrics

	var b strings.Builder
	fmt.Fprintf(&b, "%s priority (%.2f/10). Dominant factor: %s (%.2f).",
		result.UrgencyLevel, pm.FinalPriorityScore, dominant.factor, dominant.value)

	switch dominant.factor {
	case FactorUrgency:
		fmt.Fprintf(&b, " Urgency %.1f/10 for a %s task.", pm.UrgencyScore, categoryLabel(input.Category))
	case FactorBusinessImpact:
		fmt.Fprintf(&b, " Business impact %.1f/10 (%s).", pm.BusinessImpactScore, result.ContentMetrics.Sources[FieldBusinessValue])
	case FactorRisk:
		fmt.Fprintf(&b, " Risk %.1f/10.", pm.RiskScore)
	case FactorRoleWeight:
		fmt.Fprintf(&b, " Requested by %s.", roleLabel(input.RequesterRole))
	case FactorTimeSensitivity:
		fmt.Fprintf(&b, " Time sensitivity %.1f/10.", pm.TimeSensitivityScore)
	}
	if second >= 0 {
		fmt.Fprintf(&b, " Secondary factor: %s (%.2f).", contributions[second].factor, contributions[second].value)
	}
	if dominant.factor != FactorRoleWeight && pm.RoleWeight/c.MaxRoleWeight >= 0.9 {
		fmt.Fprintf(&b, " Executive requester (%s).", roleLabel(input.RequesterRole))
	}
	if constraint, ok := input.NearestTimeConstraint(); ok {
		if h := hoursUntil(input.CreatedAt, constraint); h > 0 {
			fmt.Fprintf(&b, " Nearest meeting or deadline in %.1fh.", h)
		} else {
			b.WriteString(" Meeting or deadline has already passed.")
		}
	}
	if result.EscalationRecommended {
		b.WriteString(" Escalation recommended.")
	}
	if result.SensitiveDataDetected {
		b.WriteString(" Sensitive content detected; analysis kept local.")
	}
	return dominant.factor, b.String()
}

func categoryLabel(c domain.Category) string {
	if c == "" {
		return "uncategorized"
	}
	return strings.ToLower(strings.ReplaceAll(string(c), "_", " "))
}

func roleLabel(r domain.Role) string {
	if r == "" {
		return "an unknown role"
	}
	return string(r)
}

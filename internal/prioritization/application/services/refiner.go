package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
)

// ErrRefinerUnavailable signals that a refiner could not produce a refinement.
var ErrRefinerUnavailable = errors.New("refiner unavailable")

// Refinement holds the fields an external refiner may improve. Zero values
// leave the local result untouched.
type Refinement struct {
	Reasoning       string              `json:"reasoning,omitempty"`
	RiskAssessment  string              `json:"riskAssessment,omitempty"`
	AIConfidence    *float64            `json:"aiConfidence,omitempty"`
	ScoreAdjustment float64             `json:"scoreAdjustment,omitempty"`
	Suggestions     []domain.Suggestion `json:"suggestions,omitempty"`
}

// Refiner is an optional capability that improves a locally computed result.
// It is never handed input the sensitive-content gate flagged.
type Refiner interface {
	Refine(ctx context.Context, input domain.TaskInput, local domain.PriorityResult) (Refinement, error)
}

// RefinerFunc adapts a function to the Refiner interface.
type RefinerFunc func(ctx context.Context, input domain.TaskInput, local domain.PriorityResult) (Refinement, error)

func (f RefinerFunc) Refine(ctx context.Context, input domain.TaskInput, local domain.PriorityResult) (Refinement, error) {
	return f(ctx, input, local)
}

type refineOutcome struct {
	refinement Refinement
	err        error
}

// callRefiner runs the refiner on its own goroutine so a refiner that ignores
// ctx is abandoned at the deadline instead of blocking the caller. Panics are
// turned into errors.
func callRefiner(ctx context.Context, r Refiner, input domain.TaskInput, local domain.PriorityResult) (Refinement, error) {
	done := make(chan refineOutcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- refineOutcome{err: fmt.Errorf("%w: panic: %v", ErrRefinerUnavailable, p)}
			}
		}()
		ref, err := r.Refine(ctx, input, local)
		done <- refineOutcome{refinement: ref, err: err}
	}()

	select {
	case out := <-done:
		return out.refinement, out.err
	case <-ctx.Done():
		return Refinement{}, fmt.Errorf("%w: %w", ErrRefinerUnavailable, ctx.Err())
	}
}

// mergeRefinement applies a refinement to a local result. A score adjustment
// is bounded by the configured delta and dropped when it would move the task
// into another urgency level.
func (c ScoringConfig) mergeRefinement(local domain.PriorityResult, ref Refinement, role domain.Role) domain.PriorityResult {
	out := local
	out.PriorityMetrics = local.PriorityMetrics
	out.Suggestions = append([]domain.Suggestion(nil), local.Suggestions...)
	out.NextActions = append([]string(nil), local.NextActions...)

	if ref.Reasoning != "" {
		out.Reasoning = local.Reasoning + " Refined analysis: " + ref.Reasoning
	}
	if ref.RiskAssessment != "" {
		out.RiskAssessment = ref.RiskAssessment
	}
	if ref.AIConfidence != nil {
		out.AIConfidence = round2(clamp(*ref.AIConfidence, 0, 1))
	}
	if adj := clamp(ref.ScoreAdjustment, -c.RefinerMaxScoreDelta, c.RefinerMaxScoreDelta); adj != 0 {
		score := round2(clamp(local.PriorityMetrics.FinalPriorityScore+adj, 0, 10))
		if c.classify(score) == local.UrgencyLevel {
			out.PriorityMetrics.FinalPriorityScore = score
			out.EscalationRecommended = c.shouldEscalate(score, role)
		}
	}
	for _, s := range ref.Suggestions {
		if s.Title == "" {
			continue
		}
		s.Confidence = clamp(s.Confidence, 0, 1)
		out.Suggestions = append(out.Suggestions, s)
	}
	out.Refined = true
	return out
}

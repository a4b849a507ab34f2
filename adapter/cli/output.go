package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
)

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintResult writes a human-readable summary of a priority result.
func PrintResult(w io.Writer, r domain.PriorityResult) {
	m := r.PriorityMetrics
	fmt.Fprintf(w, "Task %s: %s (score %.2f)\n", r.RequestID, r.UrgencyLevel, m.FinalPriorityScore)
	fmt.Fprintf(w, "   Urgency: %.2f  Impact: %.2f  Risk: %.2f  Time: %.2f  Effort: %.2f  Role: %.2f\n",
		m.UrgencyScore, m.BusinessImpactScore, m.RiskScore, m.TimeSensitivityScore, m.EffortComplexityScore, m.RoleWeight)
	fmt.Fprintf(w, "   SLA: %.1fh (due %s)\n", r.SuggestedSLAHours, r.DueAt().Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "   Confidence: %.0f%%\n", r.AIConfidence*100)
	if r.EscalationRecommended {
		fmt.Fprintln(w, "   Escalation recommended")
	}
	if r.SensitiveDataDetected {
		fmt.Fprintf(w, "   Sensitive data: %s\n", strings.Join(r.PrivacyCategories, ", "))
	}
	if r.Reasoning != "" {
		fmt.Fprintf(w, "   Reasoning: %s\n", r.Reasoning)
	}
	for _, action := range r.NextActions {
		fmt.Fprintf(w, "   - %s\n", action)
	}
}

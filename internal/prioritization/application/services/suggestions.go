package services

import (
	"fmt"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
)

const maxSuggestions = 3

var categorySuggestions = map[domain.Category][]domain.Suggestion{
	domain.CategorySupport: {
		{Title: "Restart the application", Description: "Close the application completely and start it again", Kind: "self_help", EstimatedResolutionTime: "2 minutes", Confidence: 0.7},
		{Title: "Check network connectivity", Description: "Verify the connection is stable and other sites or services respond", Kind: "self_help", EstimatedResolutionTime: "1 minute", Confidence: 0.6},
	},
	domain.CategorySecurity: {
		{Title: "Disconnect the affected device", Description: "Take the device off the network to stop any spread", Kind: "escalation", EstimatedResolutionTime: "30 seconds", Confidence: 0.9},
		{Title: "Document the incident", Description: "Capture screenshots and exact times for the security team", Kind: "prevention", EstimatedResolutionTime: "5 minutes", Confidence: 0.8},
	},
	domain.CategoryMeetingPrep: {
		{Title: "Open the file in other presentation software", Description: "Try a different presentation tool or the web viewer", Kind: "workaround", EstimatedResolutionTime: "3 minutes", Confidence: 0.8},
		{Title: "Use a backup device", Description: "Open the presentation on another computer", Kind: "workaround", EstimatedResolutionTime: "5 minutes", Confidence: 0.7},
	},
	domain.CategoryInfrastructure: {
		{Title: "Check the status page", Description: "Look for a known incident before reporting further symptoms", Kind: "self_help", EstimatedResolutionTime: "2 minutes", Confidence: 0.5},
	},
}

var categoryWorkarounds = map[domain.Category][]string{
	domain.CategorySupport:        {"Try a different browser or device", "Clear the browser cache and cookies"},
	domain.CategoryInfrastructure: {"Switch to backup systems if available", "Run the manual process temporarily"},
	domain.CategoryMeetingPrep:    {"Convert the file to another format", "Present from a backup device"},
}

var defaultWorkarounds = []string{"Check the status page for known issues", "Try an alternative access method"}

// localSuggestions returns up to three self-help hints for the task.
func localSuggestions(input domain.TaskInput, metrics domain.ContentMetrics) []domain.Suggestion {
	out := make([]domain.Suggestion, 0, maxSuggestions)
	out = append(out, categorySuggestions[input.Category]...)

	if metrics.WorkaroundAvailable {
		workarounds, ok := categoryWorkarounds[input.Category]
		if !ok {
			workarounds = defaultWorkarounds
		}
		for _, w := range workarounds {
			out = append(out, domain.Suggestion{
				Title:                   w,
				Description:             "A workaround was mentioned; use it while the issue is resolved",
				Kind:                    "workaround",
				EstimatedResolutionTime: "5 minutes",
				Confidence:              0.6,
			})
		}
	}

	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

func (c ScoringConfig) nextActions(result domain.PriorityResult, input domain.TaskInput) []string {
	var actions []string
	if result.EscalationRecommended {
		actions = append(actions, "Escalate to senior staff immediately")
	}
	if result.ContentMetrics.WorkaroundAvailable {
		actions = append(actions, "Provide the workaround to minimize impact")
	}
	actions = append(actions, fmt.Sprintf("Begin resolution within %.1f hours", result.SuggestedSLAHours))
	if constraint, ok := input.NearestTimeConstraint(); ok && constraint.After(input.CreatedAt) {
		actions = append(actions, fmt.Sprintf("Resolve before %s", constraint.UTC().Format("2006-01-02 15:04 MST")))
	}
	if result.PriorityMetrics.RiskScore >= 7 {
		actions = append(actions, "Monitor for additional impact")
	}
	if result.SensitiveDataDetected {
		actions = append(actions, "Handle the reported details through secure channels only")
	}
	return actions
}

func riskAssessment(metrics domain.ContentMetrics) string {
	var text string
	switch risk := metrics.RiskLevel; {
	case risk >= 8:
		text = fmt.Sprintf("High risk requiring immediate attention. Risk level %.1f/10 indicates potential for significant business disruption.", risk)
	case risk >= 5:
		text = fmt.Sprintf("Moderate risk that should be addressed promptly. Risk level %.1f/10 may escalate if left unresolved.", risk)
	default:
		text = fmt.Sprintf("Low risk. Risk level %.1f/10 can be handled through standard support channels.", risk)
	}
	if metrics.AffectedUsers > 1 {
		text += fmt.Sprintf(" Approximately %d users affected.", metrics.AffectedUsers)
	}
	if metrics.WorkaroundAvailable {
		text += " A workaround is available."
	}
	return text
}

package services

import (
	"strings"
	"testing"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
	"github.com/stretchr/testify/assert"
)

func analyzerInput(desc string) domain.TaskInput {
	return domain.TaskInput{
		ID:            "req-a",
		Title:         "Issue",
		Description:   desc,
		Category:      domain.CategorySupport,
		RequesterRole: domain.RoleEmployee,
		CreatedAt:     baseTime,
	}
}

func TestContentAnalyzer_Overrides(t *testing.T) {
	a := NewContentAnalyzer(DefaultLexicon())
	in := analyzerInput("Ransomware breach on production, 400 users down, workaround available")
	in.BusinessValue = floatPtr(2)
	in.RiskLevel = floatPtr(3)
	in.EstimatedEffortHours = floatPtr(0.5)
	in.AffectedUsersCount = intPtr(7)
	in.WorkaroundAvailable = boolPtr(false)

	m := a.Analyze(in)

	assert.Equal(t, 2.0, m.BusinessValue)
	assert.Equal(t, 3.0, m.RiskLevel)
	assert.Equal(t, 0.5, m.EffortHours)
	assert.Equal(t, 7, m.AffectedUsers)
	assert.False(t, m.WorkaroundAvailable)
	for _, field := range []string{FieldBusinessValue, FieldRiskLevel, FieldEffortHours, FieldAffectedUsers, FieldWorkaround} {
		assert.Equal(t, domain.SourceOverride, m.Sources[field], field)
	}
}

func TestContentAnalyzer_AffectedUsers(t *testing.T) {
	a := NewContentAnalyzer(DefaultLexicon())

	tests := []struct {
		desc string
		want int
	}{
		{"about 250 users cannot log in", 250},
		{"20,000 customers see errors at checkout", 10000},
		{"the whole team is blocked", 10},
		{"nobody else mentioned", 1},
		{"only me, my laptop fan is loud", 1},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			m := a.Analyze(analyzerInput(tt.desc))
			assert.Equal(t, tt.want, m.AffectedUsers)
			assert.Equal(t, domain.SourceAuto, m.Sources[FieldAffectedUsers])
		})
	}
}

func TestContentAnalyzer_Heuristics(t *testing.T) {
	a := NewContentAnalyzer(DefaultLexicon())

	t.Run("risk terms raise risk", func(t *testing.T) {
		calm := a.Analyze(analyzerInput("Mouse pointer feels slow"))
		alarming := a.Analyze(analyzerInput("Malware outage, data loss on production"))
		assert.Greater(t, alarming.RiskLevel, calm.RiskLevel)
	})

	t.Run("workaround lowers risk", func(t *testing.T) {
		without := a.Analyze(analyzerInput("Email sync is down"))
		with := a.Analyze(analyzerInput("Email sync is down, I can use webmail in the meantime"))
		assert.True(t, with.WorkaroundAvailable)
		assert.Less(t, with.RiskLevel, without.RiskLevel)
	})

	t.Run("business terms raise business value", func(t *testing.T) {
		plain := a.Analyze(analyzerInput("Screen flickers"))
		commercial := a.Analyze(analyzerInput("Screen flickers during customer demo for the sales contract"))
		assert.Greater(t, commercial.BusinessValue, plain.BusinessValue)
	})

	t.Run("complexity and length raise effort", func(t *testing.T) {
		short := a.Analyze(analyzerInput("Reset my token generator"))
		long := a.Analyze(analyzerInput("We need to migrate and refactor the sync job. " + strings.Repeat("detail ", 60)))
		assert.Equal(t, 1.0, short.EffortHours)
		assert.Equal(t, 1.0+2*2+2, long.EffortHours)
	})

	t.Run("values stay clamped", func(t *testing.T) {
		in := analyzerInput("breach hack malware ransomware phishing outage production critical urgent emergency")
		in.Category = domain.CategorySecurity
		m := a.Analyze(in)
		assert.Equal(t, 10.0, m.RiskLevel)

		low := a.Analyze(analyzerInput("minor cosmetic typo, no impact, nice to have, low priority"))
		assert.Equal(t, 1.0, low.BusinessValue)
		assert.Equal(t, 1.0, low.RiskLevel)
	})
}

func TestContentAnalyzer_Confidence(t *testing.T) {
	a := NewContentAnalyzer(DefaultLexicon())
	desc := "Payment outage for 300 customers, workaround: use the backup terminal for now"

	auto := a.Analyze(analyzerInput(desc))

	in := analyzerInput(desc)
	in.BusinessValue = floatPtr(5)
	in.RiskLevel = floatPtr(5)
	in.EstimatedEffortHours = floatPtr(2)
	in.AffectedUsersCount = intPtr(300)
	in.WorkaroundAvailable = boolPtr(true)
	overridden := a.Analyze(in)

	assert.Equal(t, 0.5, overridden.AnalysisConfidence)
	assert.Greater(t, auto.AnalysisConfidence, overridden.AnalysisConfidence)
	assert.LessOrEqual(t, auto.AnalysisConfidence, 0.95)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, normalizedText(" file won t open "), normalize("File won't open!"))
	assert.True(t, normalize("It's DOWN.").contains("down"))
	assert.False(t, normalize("downtime report").contains("down"))
	assert.True(t, normalize("no functional-impact").contains("no functional impact"))
}

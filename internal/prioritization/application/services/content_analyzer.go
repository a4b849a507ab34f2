package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
)

// Metric field names used in ContentMetrics.Sources.
const (
	FieldBusinessValue = "businessValue"
	FieldRiskLevel     = "riskLevel"
	FieldEffortHours   = "effortHours"
	FieldAffectedUsers = "affectedUsers"
	FieldWorkaround    = "workaroundAvailable"
)

var audienceCountPattern = regexp.MustCompile(`(?i)(\d[\d,]*)\s*\+?\s*(?:users?|people|persons?|employees|customers|clients|staff|members|colleagues|accounts|seats)\b`)

// ContentAnalyzer derives ContentMetrics from free text and role/category
// tables. Manual overrides always win for their field.
type ContentAnalyzer struct {
	lex Lexicon
}

// NewContentAnalyzer creates an analyzer over the given lexicon.
func NewContentAnalyzer(lex Lexicon) *ContentAnalyzer {
	return &ContentAnalyzer{lex: lex}
}

type signals struct {
	businessHits   int
	lowImpactHits  int
	riskHits       int
	severityHits   int
	complexityHits int
	numericUsers   bool
	audienceWords  bool
	workaroundHit  bool
}

// Analyze is deterministic: the same input always yields the same metrics.
func (a *ContentAnalyzer) Analyze(input domain.TaskInput) domain.ContentMetrics {
	raw := input.AnalysisText()
	text := normalize(raw)
	sources := make(map[string]domain.MetricSource, 5)

	var sig signals

	users := 1
	if input.AffectedUsersCount != nil {
		users = *input.AffectedUsersCount
		sources[FieldAffectedUsers] = domain.SourceOverride
	} else {
		users, sig.numericUsers, sig.audienceWords = a.extractAudience(raw, text)
		sources[FieldAffectedUsers] = domain.SourceAuto
	}

	workaround := false
	if input.WorkaroundAvailable != nil {
		workaround = *input.WorkaroundAvailable
		sources[FieldWorkaround] = domain.SourceOverride
	} else {
		sig.workaroundHit = text.containsAny(a.lex.WorkaroundTerms)
		workaround = sig.workaroundHit
		sources[FieldWorkaround] = domain.SourceAuto
	}

	sig.lowImpactHits = text.countTerms(a.lex.LowImpactTerms)

	var businessValue float64
	if input.BusinessValue != nil {
		businessValue = *input.BusinessValue
		sources[FieldBusinessValue] = domain.SourceOverride
	} else {
		sig.businessHits = text.countTerms(a.lex.BusinessTerms)
		businessValue = a.businessValue(input.RequesterRole, sig, users)
		sources[FieldBusinessValue] = domain.SourceAuto
	}

	var riskLevel float64
	if input.RiskLevel != nil {
		riskLevel = *input.RiskLevel
		sources[FieldRiskLevel] = domain.SourceOverride
	} else {
		sig.riskHits = text.countTerms(a.lex.RiskTerms)
		sig.severityHits = text.countTerms(a.lex.SeverityTerms)
		riskLevel = a.riskLevel(input.Category, sig, workaround)
		sources[FieldRiskLevel] = domain.SourceAuto
	}

	var effort float64
	if input.EstimatedEffortHours != nil {
		effort = *input.EstimatedEffortHours
		sources[FieldEffortHours] = domain.SourceOverride
	} else {
		sig.complexityHits = text.countTerms(a.lex.ComplexityTerms)
		effort = a.effortHours(input.Category, sig, len(raw))
		sources[FieldEffortHours] = domain.SourceAuto
	}

	return domain.ContentMetrics{
		BusinessValue:       round2(businessValue),
		RiskLevel:           round2(riskLevel),
		EffortHours:         round2(effort),
		AffectedUsers:       users,
		WorkaroundAvailable: workaround,
		AnalysisConfidence:  round2(a.confidence(input, sig, sources)),
		Sources:             sources,
	}
}

func (a *ContentAnalyzer) businessValue(role domain.Role, sig signals, users int) float64 {
	base, ok := a.lex.RoleBusinessBase[role]
	if !ok {
		base = a.lex.DefaultBusinessBase
	}
	boost := math.Min(float64(sig.businessHits)*a.lex.BusinessTermWeight, a.lex.MaxBusinessBoost)
	penalty := float64(sig.lowImpactHits) * a.lex.LowImpactPenalty
	reach := math.Log10(float64(max(users, 1)))
	return clamp(base+boost-penalty+reach, 1, 10)
}

func (a *ContentAnalyzer) riskLevel(cat domain.Category, sig signals, workaround bool) float64 {
	base, ok := a.lex.CategoryRiskBase[cat]
	if !ok {
		base = a.lex.DefaultRiskBase
	}
	risk := base +
		math.Min(float64(sig.riskHits)*a.lex.RiskTermWeight, a.lex.MaxRiskBoost) +
		math.Min(float64(sig.severityHits)*a.lex.SeverityWeight, a.lex.MaxSeverityBoost) -
		float64(sig.lowImpactHits)*a.lex.LowImpactPenalty
	if workaround {
		risk -= a.lex.WorkaroundRelief
	}
	return clamp(risk, 1, 10)
}

func (a *ContentAnalyzer) effortHours(cat domain.Category, sig signals, textLen int) float64 {
	hours, ok := a.lex.CategoryEffortBase[cat]
	if !ok {
		hours = a.lex.DefaultEffortBase
	}
	hours += math.Min(float64(sig.complexityHits)*a.lex.ComplexityHours, a.lex.MaxComplexityHours)
	if a.lex.LongTextChars > 0 && textLen > a.lex.LongTextChars {
		hours += a.lex.LongTextHours
	}
	return clamp(hours, a.lex.MinEffortHours, a.lex.MaxEffortHours)
}

// extractAudience returns the affected-user count and which kind of signal
// produced it. The count is at least 1 and capped at MaxAffectedUsers.
func (a *ContentAnalyzer) extractAudience(raw string, text normalizedText) (users int, numeric, words bool) {
	users = 0
	for _, m := range audienceCountPattern.FindAllStringSubmatch(raw, -1) {
		n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
		if err != nil || n <= 0 {
			continue
		}
		numeric = true
		users = max(users, n)
	}

	if !numeric {
		for phrase, n := range a.lex.AudienceScale {
			if text.contains(phrase) {
				words = true
				users = max(users, n)
			}
		}
		if users == 0 && text.containsAny(a.lex.SingleUserTerms) {
			words = true
			users = 1
		}
	}

	if users < 1 {
		users = 1
	}
	if a.lex.MaxAffectedUsers > 0 && users > a.lex.MaxAffectedUsers {
		users = a.lex.MaxAffectedUsers
	}
	return users, numeric, words
}

// confidence only credits signals for fields that were auto-derived.
func (a *ContentAnalyzer) confidence(input domain.TaskInput, sig signals, sources map[string]domain.MetricSource) float64 {
	w := a.lex.Confidence
	c := w.Baseline

	auto := func(field string) bool { return sources[field] == domain.SourceAuto }

	if auto(FieldBusinessValue) {
		if _, ok := a.lex.RoleBusinessBase[input.RequesterRole]; ok {
			c += w.KnownRole
		}
		if sig.businessHits > 0 || sig.lowImpactHits > 0 {
			c += w.BusinessSignals
		}
	}
	if auto(FieldRiskLevel) && (sig.riskHits > 0 || sig.severityHits > 0) {
		c += w.RiskSignals
	}
	if auto(FieldAffectedUsers) {
		switch {
		case sig.numericUsers:
			c += w.NumericAudience
		case sig.audienceWords:
			c += w.AudienceWords
		}
	}
	if auto(FieldEffortHours) && sig.complexityHits > 0 {
		c += w.EffortSignals
	}
	if auto(FieldWorkaround) && sig.workaroundHit {
		c += w.Workaround
	}
	if w.DetailedChars > 0 && len(input.Description) > w.DetailedChars {
		c += w.DetailedText
	}
	if len(input.Tags) > 0 {
		c += w.Tags
	}
	return clamp(c, 0, w.Max)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

package services

import (
	"strings"
	"unicode"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
)

// Lexicon is the keyword and baseline data behind content analysis.
// Terms are matched on word boundaries after normalization.
type Lexicon struct {
	RoleBusinessBase    map[domain.Role]float64 `yaml:"role_business_base"`
	DefaultBusinessBase float64                 `yaml:"default_business_base"`
	BusinessTerms       []string                `yaml:"business_terms"`
	BusinessTermWeight  float64                 `yaml:"business_term_weight"`
	MaxBusinessBoost    float64                 `yaml:"max_business_boost"`
	LowImpactTerms      []string                `yaml:"low_impact_terms"`
	LowImpactPenalty    float64                 `yaml:"low_impact_penalty"`

	CategoryRiskBase map[domain.Category]float64 `yaml:"category_risk_base"`
	DefaultRiskBase  float64                     `yaml:"default_risk_base"`
	RiskTerms        []string                    `yaml:"risk_terms"`
	RiskTermWeight   float64                     `yaml:"risk_term_weight"`
	MaxRiskBoost     float64                     `yaml:"max_risk_boost"`
	SeverityTerms    []string                    `yaml:"severity_terms"`
	SeverityWeight   float64                     `yaml:"severity_weight"`
	MaxSeverityBoost float64                     `yaml:"max_severity_boost"`
	WorkaroundRelief float64                     `yaml:"workaround_relief"`

	CategoryEffortBase   map[domain.Category]float64 `yaml:"category_effort_base"`
	DefaultEffortBase    float64                     `yaml:"default_effort_base"`
	ComplexityTerms      []string                    `yaml:"complexity_terms"`
	ComplexityHours      float64                     `yaml:"complexity_hours"`
	MaxComplexityHours   float64                     `yaml:"max_complexity_hours"`
	LongTextChars        int                         `yaml:"long_text_chars"`
	LongTextHours        float64                     `yaml:"long_text_hours"`
	MinEffortHours       float64                     `yaml:"min_effort_hours"`
	MaxEffortHours       float64                     `yaml:"max_effort_hours"`
	EffortPenaltyPerHour float64                     `yaml:"effort_penalty_per_hour"`

	WorkaroundTerms  []string       `yaml:"workaround_terms"`
	AudienceScale    map[string]int `yaml:"audience_scale"`
	SingleUserTerms  []string       `yaml:"single_user_terms"`
	MaxAffectedUsers int            `yaml:"max_affected_users"`

	SensitiveKeywords map[string][]string `yaml:"sensitive_keywords"`

	Confidence ConfidenceWeights `yaml:"confidence"`
}

// ConfidenceWeights are the increments that build analysisConfidence.
type ConfidenceWeights struct {
	Baseline        float64 `yaml:"baseline"`
	Max             float64 `yaml:"max"`
	KnownRole       float64 `yaml:"known_role"`
	BusinessSignals float64 `yaml:"business_signals"`
	RiskSignals     float64 `yaml:"risk_signals"`
	NumericAudience float64 `yaml:"numeric_audience"`
	AudienceWords   float64 `yaml:"audience_words"`
	EffortSignals   float64 `yaml:"effort_signals"`
	Workaround      float64 `yaml:"workaround"`
	DetailedText    float64 `yaml:"detailed_text"`
	DetailedChars   int     `yaml:"detailed_chars"`
	Tags            float64 `yaml:"tags"`
}

// DefaultLexicon returns the built-in English lexicon.
func DefaultLexicon() Lexicon {
	return Lexicon{
		RoleBusinessBase: map[domain.Role]float64{
			domain.RoleCEO:       7.0,
			domain.RoleCFO:       6.5,
			domain.RoleCTO:       6.5,
			domain.RoleManager:   5.0,
			domain.RoleClient:    5.0,
			domain.RoleITAdmin:   4.0,
			domain.RoleDeveloper: 3.0,
			domain.RoleEmployee:  3.0,
		},
		DefaultBusinessBase: 3.0,
		BusinessTerms: []string{
			"revenue", "customer", "customers", "client", "clients", "sales",
			"board", "executive", "investor", "investors", "contract",
			"presentation", "launch", "payment", "payments", "billing",
			"payroll", "invoice", "meeting", "deadline", "demo", "audit",
		},
		BusinessTermWeight: 1.0,
		MaxBusinessBoost:   3.0,
		LowImpactTerms: []string{
			"minor", "typo", "cosmetic", "misspelled", "no impact",
			"no functional impact", "nice to have", "low priority",
			"when you have time", "whenever",
		},
		LowImpactPenalty: 1.0,

		CategoryRiskBase: map[domain.Category]float64{
			domain.CategorySecurity:       7.0,
			domain.CategoryInfrastructure: 6.0,
			domain.CategoryCompliance:     5.0,
			domain.CategoryMeetingPrep:    4.0,
			domain.CategorySupport:        3.0,
			domain.CategoryMaintenance:    3.0,
			domain.CategoryDevelopment:    2.0,
			domain.CategoryTraining:       1.0,
		},
		DefaultRiskBase: 3.0,
		RiskTerms: []string{
			"breach", "hacked", "hack", "malware", "ransomware", "phishing",
			"vulnerability", "exploit", "outage", "down", "crash", "crashed",
			"data loss", "compromised", "virus", "attack", "leak", "leaked",
			"unauthorized", "corrupted", "not working",
		},
		RiskTermWeight:   1.5,
		MaxRiskBoost:     4.5,
		SeverityTerms:    []string{"production", "critical", "urgent", "asap", "emergency", "blocking", "blocked"},
		SeverityWeight:   1.0,
		MaxSeverityBoost: 2.0,
		WorkaroundRelief: 1.0,

		CategoryEffortBase: map[domain.Category]float64{
			domain.CategorySupport:        1.0,
			domain.CategoryMeetingPrep:    1.0,
			domain.CategorySecurity:       4.0,
			domain.CategoryTraining:       4.0,
			domain.CategoryInfrastructure: 6.0,
			domain.CategoryMaintenance:    6.0,
			domain.CategoryCompliance:     6.0,
			domain.CategoryDevelopment:    8.0,
		},
		DefaultEffortBase: 4.0,
		ComplexityTerms: []string{
			"rebuild", "migrate", "migration", "investigate", "refactor",
			"redesign", "integrate", "integration", "upgrade", "root cause",
			"architecture", "rollout",
		},
		ComplexityHours:      2.0,
		MaxComplexityHours:   8.0,
		LongTextChars:        300,
		LongTextHours:        2.0,
		MinEffortHours:       0.25,
		MaxEffortHours:       40.0,
		EffortPenaltyPerHour: 0.5,

		WorkaroundTerms: []string{
			"workaround", "work around", "can use", "alternative",
			"temporarily", "in the meantime", "for now", "as a fallback",
		},
		AudienceScale: map[string]int{
			"everyone":       500,
			"entire company": 500,
			"company wide":   500,
			"all users":      500,
			"all customers":  500,
			"all staff":      200,
			"whole office":   100,
			"department":     25,
			"whole team":     10,
			"team":           8,
			"several people": 5,
			"multiple users": 5,
			"a few users":    3,
		},
		SingleUserTerms:  []string{"only me", "just me", "one person", "one user", "single user", "my laptop"},
		MaxAffectedUsers: 10000,

		SensitiveKeywords: map[string][]string{
			PrivacyConfidential: {
				"confidential", "strictly private", "internal only", "nda",
				"private", "personal", "secret", "classified", "restricted",
			},
			PrivacyDataProtection:   {"gdpr", "privacy", "sensitive"},
			PrivacyHealth:           {"medical", "health", "patient", "diagnosis"},
			PrivacyIdentityDocument: {"passport", "driver license", "drivers license", "driving licence", "national id"},
			PrivacySalary:           {"salary", "salaries", "wage", "wages", "compensation", "pay slip", "payslip"},
			PrivacySSN:              {"ssn", "social security"},
		},

		Confidence: ConfidenceWeights{
			Baseline:        0.5,
			Max:             0.95,
			KnownRole:       0.05,
			BusinessSignals: 0.1,
			RiskSignals:     0.1,
			NumericAudience: 0.1,
			AudienceWords:   0.05,
			EffortSignals:   0.05,
			Workaround:      0.05,
			DetailedText:    0.1,
			DetailedChars:   100,
			Tags:            0.05,
		},
	}
}

func (l Lexicon) clone() Lexicon {
	out := l
	out.RoleBusinessBase = cloneMap(l.RoleBusinessBase)
	out.CategoryRiskBase = cloneMap(l.CategoryRiskBase)
	out.CategoryEffortBase = cloneMap(l.CategoryEffortBase)
	out.AudienceScale = cloneMap(l.AudienceScale)
	out.BusinessTerms = append([]string(nil), l.BusinessTerms...)
	out.LowImpactTerms = append([]string(nil), l.LowImpactTerms...)
	out.RiskTerms = append([]string(nil), l.RiskTerms...)
	out.SeverityTerms = append([]string(nil), l.SeverityTerms...)
	out.ComplexityTerms = append([]string(nil), l.ComplexityTerms...)
	out.WorkaroundTerms = append([]string(nil), l.WorkaroundTerms...)
	out.SingleUserTerms = append([]string(nil), l.SingleUserTerms...)
	if l.SensitiveKeywords != nil {
		out.SensitiveKeywords = make(map[string][]string, len(l.SensitiveKeywords))
		for k, v := range l.SensitiveKeywords {
			out.SensitiveKeywords[k] = append([]string(nil), v...)
		}
	}
	return out
}

// normalizedText is lower-cased text with every non-alphanumeric run folded
// into a single space and padded on both ends, so " term " matches whole words.
type normalizedText string

func normalize(s string) normalizedText {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(' ')
	space := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	if !space {
		b.WriteByte(' ')
	}
	return normalizedText(b.String())
}

func (t normalizedText) contains(term string) bool {
	n := string(normalize(term))
	if strings.TrimSpace(n) == "" {
		return false
	}
	return strings.Contains(string(t), n)
}

// countTerms returns how many distinct terms occur in the text.
func (t normalizedText) countTerms(terms []string) int {
	n := 0
	for _, term := range terms {
		if t.contains(term) {
			n++
		}
	}
	return n
}

func (t normalizedText) containsAny(terms []string) bool {
	for _, term := range terms {
		if t.contains(term) {
			return true
		}
	}
	return false
}

package services

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/prioritiai/pkg/observability"
)

// Privacy categories reported by the gate.
const (
	PrivacyNationalID        = "national_id"
	PrivacyCredential        = "credential"
	PrivacyPaymentCard       = "payment_card"
	PrivacyEmailPasswordPair = "email_password_pair"
	PrivacyIPAddress         = "ip_address"
	PrivacyConfidential      = "confidential"
	PrivacyDataProtection    = "data_protection"
	PrivacyHealth            = "health"
	PrivacyIdentityDocument  = "identity_document"
	PrivacySalary            = "salary"
	PrivacySSN               = "ssn"
)

// sensitivePattern flags text when re matches and, if set, valid accepts
// at least one match.
type sensitivePattern struct {
	category string
	re       *regexp.Regexp
	valid    func(match []string) bool
}

func (p sensitivePattern) matches(text string) bool {
	if p.valid == nil {
		return p.re.MatchString(text)
	}
	for _, m := range p.re.FindAllStringSubmatch(text, -1) {
		if p.valid(m) {
			return true
		}
	}
	return false
}

var (
	sensitivePatterns = []sensitivePattern{
		{category: PrivacyNationalID, re: regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
		{category: PrivacyNationalID, re: regexp.MustCompile(`\b[A-Z]{2}\d{2}(?: ?[A-Z0-9]{4}){3,7}(?: ?[A-Z0-9]{1,4})?\b`)},
		{category: PrivacyCredential, re: regexp.MustCompile(`(?i)\b(?:pin|api[_-]?key|secret|token|access[_-]?key|private[_-]?key)\s*[:=]\s*\S+`)},
		{
			category: PrivacyCredential,
			re:       regexp.MustCompile(`(?i)\b(?:password|passwd|pwd|passcode)\b[\s:=]+(?:is\s+)?(\S+)`),
			valid:    func(m []string) bool { return !ordinaryPasswordWord(m[1]) },
		},
		{
			category: PrivacyPaymentCard,
			re:       regexp.MustCompile(`\b(?:\d{4}[ -]?){3}\d{1,4}\b`),
			valid:    func(m []string) bool { return luhnValid(m[0]) },
		},
		{
			category: PrivacyIPAddress,
			re:       regexp.MustCompile(`\b(\d{1,3})\.(\d{1,3})\.(\d{1,3})\.(\d{1,3})\b`),
			valid:    validIPv4,
		},
	}
	emailPattern    = regexp.MustCompile(`(?i)\b[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}\b`)
	passwordPattern = regexp.MustCompile(`(?i)\b(?:password|passwd|pwd)\b`)
)

// Words that commonly follow "password" in a request without being one.
var passwordPhraseWords = map[string]struct{}{
	"reset": {}, "resets": {}, "change": {}, "changes": {}, "changed": {},
	"expired": {}, "expires": {}, "expiry": {}, "expiration": {}, "policy": {},
	"manager": {}, "field": {}, "prompt": {}, "update": {}, "updates": {},
	"recovery": {}, "rotation": {}, "requirements": {}, "complexity": {},
	"for": {}, "to": {}, "and": {}, "or": {}, "not": {}, "was": {}, "has": {},
	"page": {}, "screen": {}, "again": {}, "no": {}, "a": {}, "the": {},
}

func ordinaryPasswordWord(token string) bool {
	word := strings.ToLower(strings.TrimRight(token, ".,;:!?)\"'"))
	if word == "" {
		return true
	}
	_, ok := passwordPhraseWords[word]
	return ok
}

// luhnValid reports whether the digits in s form a 13-19 digit number
// with a valid Luhn checksum.
func luhnValid(s string) bool {
	sum, n := 0, 0
	double := false
	for i := len(s) - 1; i >= 0; i-- {
		c := s[i]
		if c < '0' || c > '9' {
			continue
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
		n++
	}
	return n >= 13 && n <= 19 && sum%10 == 0
}

func validIPv4(m []string) bool {
	for _, octet := range m[1:] {
		v, err := strconv.Atoi(octet)
		if err != nil || v > 255 {
			return false
		}
	}
	return true
}

// GateResult is the outcome of one inspection. It never carries matched text.
type GateResult struct {
	Sensitive  bool
	Categories []string
}

// SensitiveContentGate decides whether text may leave the local process.
type SensitiveContentGate struct {
	keywords map[string][]string
	audit    *slog.Logger
}

// NewSensitiveContentGate creates a gate using the lexicon's sensitive keywords.
func NewSensitiveContentGate(lexicon Lexicon, logger *slog.Logger) *SensitiveContentGate {
	if logger == nil {
		logger = slog.Default()
	}
	return &SensitiveContentGate{
		keywords: lexicon.SensitiveKeywords,
		audit:    observability.AuditLogger(logger),
	}
}

// Inspect classifies text without side effects.
func (g *SensitiveContentGate) Inspect(text string) GateResult {
	found := make(map[string]struct{})

	for _, p := range sensitivePatterns {
		if p.matches(text) {
			found[p.category] = struct{}{}
		}
	}
	if emailPattern.MatchString(text) && passwordPattern.MatchString(text) {
		found[PrivacyEmailPasswordPair] = struct{}{}
	}

	norm := normalize(text)
	for category, terms := range g.keywords {
		if norm.containsAny(terms) {
			found[category] = struct{}{}
		}
	}

	if len(found) == 0 {
		return GateResult{}
	}
	categories := make([]string, 0, len(found))
	for c := range found {
		categories = append(categories, c)
	}
	sort.Strings(categories)
	return GateResult{Sensitive: true, Categories: categories}
}

// Check inspects text and writes an audit record when it is sensitive.
// The record holds the request ID and category names only.
func (g *SensitiveContentGate) Check(ctx context.Context, requestID, text string) GateResult {
	result := g.Inspect(text)
	if result.Sensitive {
		g.audit.InfoContext(ctx, "sensitive content detected",
			"request_id", requestID,
			"categories", result.Categories,
			"external_processing", false,
		)
	}
	return result
}

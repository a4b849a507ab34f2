package services

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
	"github.com/felixgeelhaar/prioritiai/internal/shared/infrastructure/security"
	"gopkg.in/yaml.v3"
)

// Weights are the linear-combination coefficients of the final score.
type Weights struct {
	Urgency         float64 `yaml:"urgency"`
	BusinessImpact  float64 `yaml:"business_impact"`
	Risk            float64 `yaml:"risk"`
	RoleWeight      float64 `yaml:"role_weight"`
	TimeSensitivity float64 `yaml:"time_sensitivity"`
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Urgency + w.BusinessImpact + w.Risk + w.RoleWeight + w.TimeSensitivity
}

// Thresholds map the final score onto urgency levels.
type Thresholds struct {
	Critical float64 `yaml:"critical"`
	High     float64 `yaml:"high"`
	Medium   float64 `yaml:"medium"`
}

// SLAWindow is the response window for one urgency level, in hours.
type SLAWindow struct {
	Hours    float64 `yaml:"hours"`
	MinHours float64 `yaml:"min_hours"`
	MaxHours float64 `yaml:"max_hours"`
}

// ScoringConfig holds every constant the engine uses. An Engine copies it at
// construction and never mutates it afterwards.
type ScoringConfig struct {
	Weights    Weights    `yaml:"weights"`
	Thresholds Thresholds `yaml:"thresholds"`

	SLA                map[domain.UrgencyLevel]SLAWindow `yaml:"sla"`
	SLACategoryFactors map[domain.Category]float64       `yaml:"sla_category_factors"`
	MinSLAHours        float64                           `yaml:"min_sla_hours"`

	CategoryMultipliers       map[domain.Category]float64 `yaml:"category_multipliers"`
	DefaultCategoryMultiplier float64                     `yaml:"default_category_multiplier"`
	RoleWeights               map[domain.Role]float64     `yaml:"role_weights"`
	DefaultRoleWeight         float64                     `yaml:"default_role_weight"`
	MaxRoleWeight             float64                     `yaml:"max_role_weight"`

	// ImmediateWindow and TimeHorizon bound the time-sensitivity ramp: a
	// constraint inside the window scores 10, one beyond the horizon scores 0.
	ImmediateWindow time.Duration `yaml:"immediate_window"`
	TimeHorizon     time.Duration `yaml:"time_horizon"`
	// UrgencyTimeShare is the share of time sensitivity in the urgency base;
	// the rest comes from the risk level.
	UrgencyTimeShare float64 `yaml:"urgency_time_share"`

	EscalationThreshold          float64 `yaml:"escalation_threshold"`
	ExecutiveEscalationThreshold float64 `yaml:"executive_escalation_threshold"`

	LocalConfidenceCeiling float64       `yaml:"local_confidence_ceiling"`
	RefinerTimeout         time.Duration `yaml:"refiner_timeout"`
	RefinerMaxScoreDelta   float64       `yaml:"refiner_max_score_delta"`

	Lexicon Lexicon `yaml:"lexicon"`
}

var ErrInvalidScoringConfig = errors.New("invalid scoring config")

// maxRoleWeight is the upper bound of the roleWeight metric.
const maxRoleWeight = 5.0

// DefaultScoringConfig returns the calibrated defaults.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Weights: Weights{
			Urgency:         0.30,
			BusinessImpact:  0.25,
			Risk:            0.20,
			RoleWeight:      0.15,
			TimeSensitivity: 0.10,
		},
		Thresholds: Thresholds{Critical: 8, High: 6, Medium: 4},
		SLA: map[domain.UrgencyLevel]SLAWindow{
			domain.UrgencyCritical: {Hours: 3, MinHours: 2, MaxHours: 4},
			domain.UrgencyHigh:     {Hours: 10, MinHours: 8, MaxHours: 12},
			domain.UrgencyMedium:   {Hours: 36, MinHours: 24, MaxHours: 48},
			domain.UrgencyLow:      {Hours: 96, MinHours: 72, MaxHours: 168},
		},
		SLACategoryFactors: map[domain.Category]float64{
			domain.CategorySecurity:       0.5,
			domain.CategoryInfrastructure: 0.7,
			domain.CategoryMeetingPrep:    0.3,
			domain.CategorySupport:        1.0,
			domain.CategoryDevelopment:    1.5,
			domain.CategoryMaintenance:    2.0,
			domain.CategoryTraining:       3.0,
			domain.CategoryCompliance:     1.2,
		},
		MinSLAHours: 0.25,
		CategoryMultipliers: map[domain.Category]float64{
			domain.CategorySecurity:       1.5,
			domain.CategoryInfrastructure: 1.3,
			domain.CategoryMeetingPrep:    1.2,
			domain.CategorySupport:        1.0,
			domain.CategoryDevelopment:    0.8,
			domain.CategoryMaintenance:    0.7,
			domain.CategoryTraining:       0.6,
			domain.CategoryCompliance:     0.9,
		},
		DefaultCategoryMultiplier: 1.0,
		RoleWeights: map[domain.Role]float64{
			domain.RoleCEO:       5.0,
			domain.RoleCFO:       4.5,
			domain.RoleCTO:       4.5,
			domain.RoleManager:   3.5,
			domain.RoleITAdmin:   3.0,
			domain.RoleClient:    2.5,
			domain.RoleDeveloper: 2.5,
			domain.RoleEmployee:  2.0,
		},
		DefaultRoleWeight:            2.0,
		MaxRoleWeight:                5.0,
		ImmediateWindow:              time.Hour,
		TimeHorizon:                  72 * time.Hour,
		UrgencyTimeShare:             0.6,
		EscalationThreshold:          8.0,
		ExecutiveEscalationThreshold: 6.0,
		LocalConfidenceCeiling:       0.85,
		RefinerTimeout:               30 * time.Second,
		RefinerMaxScoreDelta:         0.25,
		Lexicon:                      DefaultLexicon(),
	}
}

// Validate checks the invariants the engine relies on.
func (c ScoringConfig) Validate() error {
	if math.Abs(c.Weights.Sum()-1.0) > 1e-9 {
		return fmt.Errorf("%w: weights sum to %.4f, want 1.0", ErrInvalidScoringConfig, c.Weights.Sum())
	}
	for _, w := range []float64{c.Weights.Urgency, c.Weights.BusinessImpact, c.Weights.Risk, c.Weights.RoleWeight, c.Weights.TimeSensitivity} {
		if w < 0 {
			return fmt.Errorf("%w: negative weight %.4f", ErrInvalidScoringConfig, w)
		}
	}
	t := c.Thresholds
	if !(t.Critical > t.High && t.High > t.Medium && t.Medium > 0 && t.Critical <= 10) {
		return fmt.Errorf("%w: thresholds must satisfy 10 >= critical > high > medium > 0", ErrInvalidScoringConfig)
	}
	for level := range c.SLA {
		if !level.IsValid() {
			return fmt.Errorf("%w: unknown urgency level %q in SLA table", ErrInvalidScoringConfig, level)
		}
	}
	for _, level := range []domain.UrgencyLevel{domain.UrgencyCritical, domain.UrgencyHigh, domain.UrgencyMedium, domain.UrgencyLow} {
		w, ok := c.SLA[level]
		if !ok {
			return fmt.Errorf("%w: missing SLA window for %s", ErrInvalidScoringConfig, level)
		}
		if w.MinHours <= 0 || w.MinHours > w.MaxHours {
			return fmt.Errorf("%w: SLA window for %s is empty", ErrInvalidScoringConfig, level)
		}
	}
	if c.MinSLAHours <= 0 {
		return fmt.Errorf("%w: min SLA hours must be positive", ErrInvalidScoringConfig)
	}
	if c.MaxRoleWeight <= 0 || c.MaxRoleWeight > maxRoleWeight {
		return fmt.Errorf("%w: max role weight must be within (0,%.0f]", ErrInvalidScoringConfig, maxRoleWeight)
	}
	if c.DefaultRoleWeight < 0 || c.DefaultRoleWeight > c.MaxRoleWeight {
		return fmt.Errorf("%w: default role weight out of range", ErrInvalidScoringConfig)
	}
	for role, w := range c.RoleWeights {
		if w < 0 || w > c.MaxRoleWeight {
			return fmt.Errorf("%w: role weight for %s out of range", ErrInvalidScoringConfig, role)
		}
	}
	if c.ImmediateWindow < 0 || c.TimeHorizon <= c.ImmediateWindow {
		return fmt.Errorf("%w: time horizon must exceed the immediate window", ErrInvalidScoringConfig)
	}
	if c.UrgencyTimeShare < 0 || c.UrgencyTimeShare > 1 {
		return fmt.Errorf("%w: urgency time share must be within [0,1]", ErrInvalidScoringConfig)
	}
	if c.LocalConfidenceCeiling <= 0 || c.LocalConfidenceCeiling > 1 {
		return fmt.Errorf("%w: local confidence ceiling must be within (0,1]", ErrInvalidScoringConfig)
	}
	if c.RefinerTimeout <= 0 {
		return fmt.Errorf("%w: refiner timeout must be positive", ErrInvalidScoringConfig)
	}
	if c.RefinerMaxScoreDelta < 0 {
		return fmt.Errorf("%w: refiner score delta must not be negative", ErrInvalidScoringConfig)
	}
	return nil
}

// LoadScoringConfig reads a YAML file over the defaults. A missing file
// yields the defaults unchanged.
func LoadScoringConfig(path string) (ScoringConfig, error) {
	cfg := DefaultScoringConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := security.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read scoring config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse scoring config: %w", err)
	}
	cfg.normalizeSLALevels()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// normalizeSLALevels folds spellings like "critical" onto the canonical
// level, replacing the default window for that level.
func (c *ScoringConfig) normalizeSLALevels() {
	for level, w := range c.SLA {
		parsed, err := domain.ParseUrgencyLevel(string(level))
		if err != nil || parsed == level {
			continue
		}
		delete(c.SLA, level)
		c.SLA[parsed] = w
	}
}

func (c ScoringConfig) clone() ScoringConfig {
	out := c
	out.SLA = cloneMap(c.SLA)
	out.SLACategoryFactors = cloneMap(c.SLACategoryFactors)
	out.CategoryMultipliers = cloneMap(c.CategoryMultipliers)
	out.RoleWeights = cloneMap(c.RoleWeights)
	out.Lexicon = c.Lexicon.clone()
	return out
}

func (c ScoringConfig) categoryMultiplier(cat domain.Category) float64 {
	if m, ok := c.CategoryMultipliers[cat]; ok {
		return m
	}
	return c.DefaultCategoryMultiplier
}

func (c ScoringConfig) roleWeight(role domain.Role) float64 {
	if w, ok := c.RoleWeights[role]; ok {
		return w
	}
	return c.DefaultRoleWeight
}

func (c ScoringConfig) slaCategoryFactor(cat domain.Category) float64 {
	if f, ok := c.SLACategoryFactors[cat]; ok {
		return f
	}
	return 1.0
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	if in == nil {
		return nil
	}
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

package observability

import (
	"context"
	"maps"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// severity orders statuses so the worst one wins when aggregating.
func (s HealthStatus) severity() int {
	switch s {
	case HealthStatusUnhealthy:
		return 2
	case HealthStatusDegraded:
		return 1
	default:
		return 0
	}
}

// HealthCheckResult is what one dependency reported.
type HealthCheckResult struct {
	Status    HealthStatus  `json:"status"`
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
	Timestamp time.Time     `json:"timestamp"`
}

type HealthChecker func(ctx context.Context) HealthCheckResult

// OverallHealth is the aggregated readiness report served on /readyz, by
// `prioritiai health` and by the MCP health tool.
type OverallHealth struct {
	Status    HealthStatus                 `json:"status"`
	Timestamp time.Time                    `json:"timestamp"`
	Checks    map[string]HealthCheckResult `json:"checks"`
}

// HealthRegistry holds the named dependency checks of one process.
type HealthRegistry struct {
	mu       sync.RWMutex
	checkers map[string]HealthChecker
}

func NewHealthRegistry() *HealthRegistry {
	return &HealthRegistry{checkers: map[string]HealthChecker{}}
}

// Register adds or replaces the check for name.
func (r *HealthRegistry) Register(name string, checker HealthChecker) {
	r.mu.Lock()
	r.checkers[name] = checker
	r.mu.Unlock()
}

// GetOverallHealth runs every registered check concurrently. The overall
// status is the worst individual status; an empty registry is healthy.
func (r *HealthRegistry) GetOverallHealth(ctx context.Context) OverallHealth {
	r.mu.RLock()
	checkers := maps.Clone(r.checkers)
	r.mu.RUnlock()

	var (
		mu      sync.Mutex
		results = make(map[string]HealthCheckResult, len(checkers))
	)
	var g errgroup.Group
	for name, check := range checkers {
		g.Go(func() error {
			start := time.Now()
			res := check(ctx)
			res.Duration = time.Since(start)
			res.Timestamp = time.Now()

			mu.Lock()
			results[name] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	overall := HealthStatusHealthy
	for _, res := range results {
		if res.Status.severity() > overall.severity() {
			overall = res.Status
		}
	}
	return OverallHealth{Status: overall, Timestamp: time.Now(), Checks: results}
}

// PingChecker adapts a ping function. A failed ping reports onFailure, so
// optional dependencies such as the cache can degrade instead of failing
// readiness.
func PingChecker(component string, onFailure HealthStatus, ping func(context.Context) error) HealthChecker {
	return func(ctx context.Context) HealthCheckResult {
		if err := ping(ctx); err != nil {
			return HealthCheckResult{Status: onFailure, Message: component + " unreachable: " + err.Error()}
		}
		return HealthCheckResult{Status: HealthStatusHealthy, Message: component + " reachable"}
	}
}

package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthRegistry_Empty(t *testing.T) {
	overall := NewHealthRegistry().GetOverallHealth(context.Background())

	assert.Equal(t, HealthStatusHealthy, overall.Status)
	assert.Empty(t, overall.Checks)
}

func TestHealthRegistry_WorstStatusWins(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name   string
		redis  func(context.Context) error
		db     func(context.Context) error
		expect HealthStatus
	}{
		{"all up", ok, ok, HealthStatusHealthy},
		{"cache down", down, ok, HealthStatusDegraded},
		{"database down", ok, down, HealthStatusUnhealthy},
		{"both down", down, down, HealthStatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewHealthRegistry()
			r.Register("redis", PingChecker("redis", HealthStatusDegraded, tt.redis))
			r.Register("database", PingChecker("database", HealthStatusUnhealthy, tt.db))

			overall := r.GetOverallHealth(context.Background())

			assert.Equal(t, tt.expect, overall.Status)
			require.Len(t, overall.Checks, 2)
			assert.False(t, overall.Checks["database"].Timestamp.IsZero())
		})
	}
}

func TestHealthRegistry_RegisterReplaces(t *testing.T) {
	r := NewHealthRegistry()
	r.Register("db", PingChecker("db", HealthStatusUnhealthy, func(context.Context) error { return errors.New("x") }))
	r.Register("db", PingChecker("db", HealthStatusUnhealthy, func(context.Context) error { return nil }))

	assert.Equal(t, HealthStatusHealthy, r.GetOverallHealth(context.Background()).Status)
}

func TestPingChecker_Message(t *testing.T) {
	res := PingChecker("rabbitmq", HealthStatusDegraded, func(context.Context) error {
		return errors.New("dial tcp: refused")
	})(context.Background())

	assert.Equal(t, HealthStatusDegraded, res.Status)
	assert.Equal(t, "rabbitmq unreachable: dial tcp: refused", res.Message)
}

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
	"github.com/felixgeelhaar/prioritiai/pkg/config"
	"github.com/felixgeelhaar/prioritiai/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	defer versionCmd.SetOut(nil)

	versionCmd.Run(versionCmd, nil)

	assert.Contains(t, buf.String(), "prioritiai dev")
	assert.Contains(t, buf.String(), "commit: none")
}

func TestVersionCmd_JSON(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionJSON = true
	defer func() {
		versionCmd.SetOut(nil)
		versionJSON = false
	}()

	versionCmd.Run(versionCmd, nil)

	var info buildInfo
	require.NoError(t, json.Unmarshal(buf.Bytes(), &info))
	assert.Equal(t, "dev", info.Version)
	assert.NotEmpty(t, info.Go)
}

func TestHealthCmd(t *testing.T) {
	defer SetApp(nil)

	SetApp(nil)
	healthCmd.SetContext(context.Background())
	assert.Error(t, healthCmd.RunE(healthCmd, nil))

	registry := observability.NewHealthRegistry()
	registry.Register("database", func(ctx context.Context) observability.HealthCheckResult {
		return observability.HealthCheckResult{Status: observability.HealthStatusHealthy}
	})
	SetApp(&App{Health: registry})

	var buf bytes.Buffer
	healthCmd.SetOut(&buf)
	defer healthCmd.SetOut(nil)

	require.NoError(t, healthCmd.RunE(healthCmd, nil))
	assert.Contains(t, buf.String(), "database")
	assert.Contains(t, buf.String(), "overall    healthy")

	registry.Register("redis", func(ctx context.Context) observability.HealthCheckResult {
		return observability.HealthCheckResult{Status: observability.HealthStatusUnhealthy, Message: "connection refused"}
	})
	buf.Reset()
	assert.Error(t, healthCmd.RunE(healthCmd, nil))
	assert.Contains(t, buf.String(), "connection refused")
}

func TestNewApp_Defaults(t *testing.T) {
	app := NewApp(nil, nil, nil, nil, nil, nil, nil, nil, nil, nil)

	assert.Equal(t, DefaultActor, app.Actor)
	assert.Equal(t, 0, app.RecalcLimit())

	app.SetActor("")
	assert.Equal(t, DefaultActor, app.Actor)
	app.SetActor("ops-bot")
	assert.Equal(t, "ops-bot", app.Actor)

	app.SetConfig(&config.Config{RecalcLimit: 250})
	assert.Equal(t, 250, app.RecalcLimit())
	assert.NotNil(t, app.APIHandler())
}

func TestPrintResult(t *testing.T) {
	processed := time.Date(2026, time.January, 15, 9, 0, 0, 0, time.UTC)
	r := domain.PriorityResult{
		RequestID:             "T-9",
		UrgencyLevel:          domain.UrgencyCritical,
		PriorityMetrics:       domain.PriorityMetrics{FinalPriorityScore: 9.25},
		Reasoning:             "Production outage",
		AIConfidence:          0.8,
		SuggestedSLAHours:     2,
		EscalationRecommended: true,
		ProcessedAt:           processed,
		SensitiveDataDetected: true,
		PrivacyCategories:     []string{"ssn"},
		NextActions:           []string{"Page the on-call engineer"},
	}

	var buf bytes.Buffer
	PrintResult(&buf, r)
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "Task T-9: CRITICAL (score 9.25)"))
	assert.Contains(t, out, "SLA: 2.0h (due 2026-01-15 11:00)")
	assert.Contains(t, out, "Confidence: 80%")
	assert.Contains(t, out, "Escalation recommended")
	assert.Contains(t, out, "Sensitive data: ssn")
	assert.Contains(t, out, "- Page the on-call engineer")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, map[string]int{"count": 2}))
	assert.JSONEq(t, `{"count":2}`, buf.String())
}

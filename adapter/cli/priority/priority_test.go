package priority

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/prioritiai/adapter/cli"
	internalApp "github.com/felixgeelhaar/prioritiai/internal/app"
	"github.com/felixgeelhaar/prioritiai/internal/prioritization/application/queries"
	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
	"github.com/felixgeelhaar/prioritiai/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupLocalModeTestApp creates a test application with SQLite for integration tests.
func setupLocalModeTestApp(t *testing.T) *cli.App {
	t.Helper()

	cfg := &config.Config{
		AppEnv:            "test",
		LocalMode:         true,
		DatabaseDriver:    "sqlite",
		SQLitePath:        filepath.Join(t.TempDir(), "test.db"),
		LogLevel:          "error",
		RecalcConcurrency: 2,
		RecalcLimit:       100,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	container, err := internalApp.NewLocalContainer(context.Background(), cfg, logger)
	require.NoError(t, err)

	app := cli.NewApp(
		container.ScoreTaskHandler,
		container.BatchScoreHandler,
		container.RecalculateHandler,
		container.LockTaskHandler,
		container.UnlockTaskHandler,
		container.OverrideTaskHandler,
		container.GetPriorityResultHandler,
		container.GetScoredTaskHandler,
		container.ListScoredTasksHandler,
		container.ListPrivacyAuditHandler,
	)
	app.SetConfig(cfg)

	cli.SetApp(app)
	t.Cleanup(func() {
		cli.SetApp(nil)
		container.Close()
	})
	return app
}

func resetFlags(cmd *cobra.Command) {
	for _, c := range cmd.Commands() {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				_ = sv.Replace(nil)
			} else {
				_ = f.Value.Set(f.DefValue)
			}
			f.Changed = false
		})
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(Cmd)

	var buf bytes.Buffer
	Cmd.SetOut(&buf)
	Cmd.SetErr(io.Discard)
	Cmd.SetArgs(args)
	Cmd.SilenceUsage = true
	Cmd.SilenceErrors = true

	err := Cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestScoreCmd_Flags(t *testing.T) {
	app := setupLocalModeTestApp(t)

	out, err := run(t, "score", "Checkout returns 500",
		"--id", "CLI-1",
		"--description", "Payments fail for every customer since the last deploy",
		"--category", "support",
		"--role", "manager",
		"--business-value", "8",
		"--tag", "payments",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Task CLI-1:")

	task, err := app.GetScoredTaskHandler.Handle(context.Background(), queries.GetScoredTaskQuery{TaskID: "CLI-1"})
	require.NoError(t, err)
	assert.Equal(t, "Checkout returns 500", task.Title)
	assert.Equal(t, "SUPPORT", task.Category)
	assert.Equal(t, "MANAGER", task.RequesterRole)
	assert.Equal(t, 1, task.ScoreCount)
}

func TestScoreCmd_FileAsJSON(t *testing.T) {
	setupLocalModeTestApp(t)

	path := writeFile(t, "task.json", `{
		"id": "CLI-2",
		"title": "Renew the TLS certificate",
		"description": "The public certificate expires on Friday",
		"category": "INFRASTRUCTURE",
		"requesterRole": "IT_ADMIN"
	}`)

	out, err := run(t, "score", "--file", path, "--json")
	require.NoError(t, err)

	var result domain.PriorityResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "CLI-2", result.RequestID)
	assert.NotEmpty(t, result.UrgencyLevel)
}

func TestScoreCmd_Errors(t *testing.T) {
	setupLocalModeTestApp(t)

	listPath := writeFile(t, "list.json", `[{"title":"a"},{"title":"b"}]`)
	_, err := run(t, "score", "--file", listPath)
	assert.ErrorContains(t, err, "expected one task")

	_, err = run(t, "score", "Broken deadline", "--deadline", "next week")
	assert.ErrorContains(t, err, "invalid --deadline")

	_, err = run(t, "score", "Too valuable", "--business-value", "42")
	assert.Error(t, err)

	cli.SetApp(nil)
	_, err = run(t, "score", "No app")
	assert.ErrorContains(t, err, "database connection required")
}

func TestBatchCmd(t *testing.T) {
	setupLocalModeTestApp(t)

	path := writeFile(t, "batch.json", `[
		{"id": "B-1", "title": "Update onboarding docs", "description": "New hires follow outdated steps"},
		{"id": "B-2", "title": "Bad value", "description": "Out of range", "businessValue": 42}
	]`)

	out, err := run(t, "batch", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "[0] B-1:")
	assert.Contains(t, out, "[1] B-2: error:")
	assert.Contains(t, out, "Scored 1 of 2 tasks (1 failed)")

	_, err = run(t, "batch")
	assert.ErrorContains(t, err, "--file is required")
}

func TestRecalcCmd(t *testing.T) {
	setupLocalModeTestApp(t)

	_, err := run(t, "score", "Quarterly report", "--id", "R-1", "--deadline", time.Now().Add(48*time.Hour).Format(time.RFC3339))
	require.NoError(t, err)

	out, err := run(t, "recalc")
	require.NoError(t, err)
	assert.Contains(t, out, "Recalculated 1 priority scores")
	assert.Contains(t, out, "scanned 1")

	_, err = run(t, "recalc", "--limit", "-1")
	assert.Error(t, err)
}

func TestRecalcCmd_WithoutApp(t *testing.T) {
	cli.SetApp(nil)

	out, err := run(t, "recalc")
	require.NoError(t, err)
	assert.Contains(t, out, "requires database connection")
}

func TestStatusCmd(t *testing.T) {
	setupLocalModeTestApp(t)

	_, err := run(t, "score", "Reset VPN token", "--id", "S-1")
	require.NoError(t, err)

	out, err := run(t, "status", "S-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Task S-1:")
	assert.Contains(t, out, "Effective priority:")
	assert.Contains(t, out, "(cached)")

	_, err = run(t, "status", "missing")
	assert.Error(t, err)
}

func TestAuditCmd(t *testing.T) {
	setupLocalModeTestApp(t)

	out, err := run(t, "audit")
	require.NoError(t, err)
	assert.Contains(t, out, "No sensitive data detected.")

	_, err = run(t, "score", "Update payroll record",
		"--id", "P-1",
		"--description", "Employee SSN 123-45-6789 needs correcting",
	)
	require.NoError(t, err)

	out, err = run(t, "audit")
	require.NoError(t, err)
	assert.Contains(t, out, "P-1")
}

func TestDecodeInputs(t *testing.T) {
	inputs, err := decodeInputs([]byte(`{"id":"a","title":"one"}`))
	require.NoError(t, err)
	require.Len(t, inputs, 1)
	assert.Equal(t, "a", inputs[0].ID)

	inputs, err = decodeInputs([]byte("  [{\"id\":\"a\"},{\"id\":\"b\"}]"))
	require.NoError(t, err)
	assert.Len(t, inputs, 2)

	_, err = decodeInputs([]byte(`{not json`))
	assert.Error(t, err)
}

func TestWithDefaults(t *testing.T) {
	now := time.Date(2026, time.February, 2, 10, 0, 0, 0, time.UTC)

	in := withDefaults(domain.TaskInput{Title: "x"}, now)
	assert.NotEmpty(t, in.ID)
	assert.Equal(t, now, in.CreatedAt)

	created := now.Add(-time.Hour)
	in = withDefaults(domain.TaskInput{ID: "keep", CreatedAt: created}, now)
	assert.Equal(t, "keep", in.ID)
	assert.Equal(t, created, in.CreatedAt)
}

func TestParseTime(t *testing.T) {
	got, err := parseTime("deadline", "")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = parseTime("deadline", "2026-03-01T12:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 12, got.UTC().Hour())

	got, err = parseTime("deadline", "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.March, got.Month())

	_, err = parseTime("deadline", "tomorrow")
	assert.ErrorContains(t, err, "--deadline")
}

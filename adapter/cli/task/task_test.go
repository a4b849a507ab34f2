package task

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/prioritiai/adapter/cli"
	internalApp "github.com/felixgeelhaar/prioritiai/internal/app"
	"github.com/felixgeelhaar/prioritiai/internal/prioritization/application/commands"
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

func seedTask(t *testing.T, app *cli.App, id, title string) {
	t.Helper()
	_, err := app.ScoreTaskHandler.Handle(context.Background(), commands.ScoreTaskCommand{
		Input: domain.TaskInput{
			ID:          id,
			Title:       title,
			Description: title + " for the customer portal",
			CreatedAt:   time.Now(),
		},
		Actor: "test",
	})
	require.NoError(t, err)
}

func resetFlags(cmd *cobra.Command) {
	for _, c := range cmd.Commands() {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
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

func TestListCmd(t *testing.T) {
	app := setupLocalModeTestApp(t)

	out, err := run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No tasks found.")

	seedTask(t, app, "T-1", "Fix login redirect")
	seedTask(t, app, "T-2", "Refresh marketing copy")

	out, err = run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Tasks (2):")
	assert.Contains(t, out, "Fix login redirect")
	assert.Contains(t, out, "ID: T-2")

	out, err = run(t, "ls", "--json", "--limit", "1")
	require.NoError(t, err)
	var tasks []queries.ScoredTaskDTO
	require.NoError(t, json.Unmarshal([]byte(out), &tasks))
	assert.Len(t, tasks, 1)

	out, err = run(t, "list", "--locked", "true")
	require.NoError(t, err)
	assert.Contains(t, out, "No tasks found.")

	_, err = run(t, "list", "--urgency", "someday")
	assert.Error(t, err)
}

func TestShowCmd(t *testing.T) {
	app := setupLocalModeTestApp(t)
	seedTask(t, app, "T-1", "Fix login redirect")

	out, err := run(t, "show", "T-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Fix login redirect")
	assert.Contains(t, out, "Scored 1 time(s)")
	assert.Contains(t, out, "Task T-1:")

	_, err = run(t, "show", "missing")
	assert.Error(t, err)

	_, err = run(t, "show")
	assert.Error(t, err)
}

func TestLockUnlockCmd(t *testing.T) {
	app := setupLocalModeTestApp(t)
	seedTask(t, app, "T-1", "Fix login redirect")

	out, err := run(t, "lock", "T-1", "--reason", "agreed with support lead")
	require.NoError(t, err)
	assert.Contains(t, out, "Locked task T-1")

	out, err = run(t, "show", "T-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Locked by cli: agreed with support lead")

	out, err = run(t, "list", "--locked", "true")
	require.NoError(t, err)
	assert.Contains(t, out, "[LOCKED]")

	out, err = run(t, "unlock", "T-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Unlocked task T-1")

	_, err = run(t, "unlock", "T-1")
	assert.Error(t, err)

	_, err = run(t, "lock", "missing")
	assert.Error(t, err)
}

func TestOverrideCmd(t *testing.T) {
	app := setupLocalModeTestApp(t)
	seedTask(t, app, "T-1", "Fix login redirect")

	_, err := run(t, "override", "T-1")
	assert.ErrorContains(t, err, "--priority and/or --status")

	out, err := run(t, "override", "T-1", "--priority", "9.5", "--reason", "board request")
	require.NoError(t, err)
	assert.Contains(t, out, "Overrode task T-1")

	task, err := app.GetScoredTaskHandler.Handle(context.Background(), queries.GetScoredTaskQuery{TaskID: "T-1"})
	require.NoError(t, err)
	require.NotNil(t, task.ManualPriority)
	assert.Equal(t, 9.5, *task.ManualPriority)
	assert.Equal(t, 9.5, task.EffectivePriority)
	assert.True(t, task.Locked)

	_, err = run(t, "override", "T-1", "--status", "someday")
	assert.Error(t, err)
}

func TestCommandsWithoutApp(t *testing.T) {
	cli.SetApp(nil)

	for _, args := range [][]string{
		{"list"},
		{"show", "T-1"},
		{"lock", "T-1"},
		{"unlock", "T-1"},
		{"override", "T-1", "--priority", "5"},
	} {
		_, err := run(t, args...)
		assert.ErrorContains(t, err, "database connection required", args[0])
	}
}

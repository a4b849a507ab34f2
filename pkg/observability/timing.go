package observability

import (
	"context"
	"log/slog"
	"time"
)

// Timer measures one operation and reports it under the generic operation
// metrics, tagged with the operation name.
type Timer struct {
	operation string
	start     time.Time
	metrics   Metrics
	logger    *slog.Logger
}

// StartTimer starts timing operation. Either sink may be nil.
func StartTimer(operation string, metrics Metrics, logger *slog.Logger) *Timer {
	return &Timer{operation: operation, start: time.Now(), metrics: metrics, logger: logger}
}

// Stop records the elapsed time and, when err is non-nil, an error count.
func (t *Timer) Stop(ctx context.Context, err error) time.Duration {
	elapsed := time.Since(t.start)
	op := T("operation", t.operation)

	if t.metrics != nil {
		t.metrics.Timing(MetricOperationDuration, elapsed, op)
		t.metrics.Counter(MetricOperationTotal, 1, op)
		if err != nil {
			t.metrics.Counter(MetricOperationErrors, 1, op)
		}
	}
	if t.logger != nil {
		if err != nil {
			t.logger.ErrorContext(ctx, "operation failed", "operation", t.operation, "duration_ms", elapsed.Milliseconds(), "error", err)
		} else {
			t.logger.DebugContext(ctx, "operation completed", "operation", t.operation, "duration_ms", elapsed.Milliseconds())
		}
	}
	return elapsed
}

// TimeOperation runs fn under a Timer and returns its result.
func TimeOperation[R any](ctx context.Context, metrics Metrics, logger *slog.Logger, operation string, fn func(context.Context) (R, error)) (R, error) {
	timer := StartTimer(operation, metrics, logger)
	res, err := fn(ctx)
	timer.Stop(ctx, err)
	return res, err
}

package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeOperation_Success(t *testing.T) {
	metrics := NewInMemoryMetrics()

	n, err := TimeOperation(context.Background(), metrics, nil, "outbox.cleanup",
		func(context.Context) (int64, error) { return 3, nil })

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	op := T("operation", "outbox.cleanup")
	assert.Equal(t, int64(1), metrics.GetCounter(MetricOperationTotal, op))
	assert.Equal(t, int64(0), metrics.GetCounter(MetricOperationErrors, op))
	assert.Len(t, metrics.GetTimings(MetricOperationDuration, op), 1)
}

func TestTimeOperation_Error(t *testing.T) {
	metrics := NewInMemoryMetrics()
	boom := errors.New("boom")

	_, err := TimeOperation(context.Background(), metrics, nil, "recalc",
		func(context.Context) (int, error) { return 0, boom })

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(1), metrics.GetCounter(MetricOperationErrors, T("operation", "recalc")))
}

func TestTimer_NilSinks(t *testing.T) {
	timer := StartTimer("noop", nil, nil)
	assert.GreaterOrEqual(t, timer.Stop(context.Background(), nil).Nanoseconds(), int64(0))
}

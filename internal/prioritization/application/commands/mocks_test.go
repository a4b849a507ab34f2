package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
	"github.com/felixgeelhaar/prioritiai/internal/shared/infrastructure/outbox"
	"github.com/stretchr/testify/mock"
)

type mockScoredTaskRepo struct {
	mock.Mock
}

func (m *mockScoredTaskRepo) Save(ctx context.Context, task *domain.ScoredTask) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *mockScoredTaskRepo) FindByID(ctx context.Context, taskID string) (*domain.ScoredTask, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScoredTask), args.Error(1)
}

func (m *mockScoredTaskRepo) List(ctx context.Context, filter domain.ListFilter) ([]*domain.ScoredTask, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ScoredTask), args.Error(1)
}

func (m *mockScoredTaskRepo) ListUnlocked(ctx context.Context, limit int) ([]*domain.ScoredTask, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ScoredTask), args.Error(1)
}

type mockOutboxRepo struct {
	mock.Mock
}

func (m *mockOutboxRepo) Save(ctx context.Context, msg *outbox.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *mockOutboxRepo) SaveBatch(ctx context.Context, msgs []*outbox.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *mockOutboxRepo) GetUnpublished(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *mockOutboxRepo) MarkPublished(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockOutboxRepo) MarkFailed(ctx context.Context, id int64, err string, nextRetryAt time.Time) error {
	args := m.Called(ctx, id, err, nextRetryAt)
	return args.Error(0)
}

func (m *mockOutboxRepo) MarkDead(ctx context.Context, id int64, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *mockOutboxRepo) GetFailed(ctx context.Context, maxRetries, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, maxRetries, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *mockOutboxRepo) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	args := m.Called(ctx, olderThanDays)
	return args.Get(0).(int64), args.Error(1)
}

type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type mockResultCache struct {
	mock.Mock
}

func (m *mockResultCache) Get(ctx context.Context, requestID string) (*domain.PriorityResult, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PriorityResult), args.Error(1)
}

func (m *mockResultCache) Set(ctx context.Context, result domain.PriorityResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *mockResultCache) Delete(ctx context.Context, requestID string) error {
	args := m.Called(ctx, requestID)
	return args.Error(0)
}

type mockAuditRepo struct {
	mock.Mock
}

func (m *mockAuditRepo) Record(ctx context.Context, entry *domain.PrivacyAuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockAuditRepo) ListRecent(ctx context.Context, limit int) ([]domain.PrivacyAuditEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PrivacyAuditEntry), args.Error(1)
}

type mockScorer struct {
	mock.Mock
}

func (m *mockScorer) Score(ctx context.Context, input domain.TaskInput) (domain.PriorityResult, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(domain.PriorityResult), args.Error(1)
}

type txKey struct{}

func newTxContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, txKey{}, "transaction")
}

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func testInput(id string) domain.TaskInput {
	return domain.TaskInput{
		ID:            id,
		Title:         "VPN down for sales team",
		Description:   "Sales cannot reach the CRM from home",
		Category:      domain.CategoryInfrastructure,
		RequesterRole: domain.RoleManager,
		CreatedAt:     testNow,
	}
}

func testResult(id string, score float64, level domain.UrgencyLevel, escalate bool) domain.PriorityResult {
	return domain.PriorityResult{
		RequestID:             id,
		UrgencyLevel:          level,
		PriorityMetrics:       domain.PriorityMetrics{FinalPriorityScore: score},
		SuggestedSLAHours:     12,
		EscalationRecommended: escalate,
		ProcessedAt:           testNow,
	}
}

package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
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

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func createTestTask(id string, score float64) *domain.ScoredTask {
	input := domain.TaskInput{
		ID:            id,
		Title:         "Payroll export failing",
		Description:   "Monthly payroll export times out",
		Category:      domain.CategorySupport,
		RequesterRole: domain.RoleEmployee,
		CreatedAt:     testNow,
	}
	result := domain.PriorityResult{
		RequestID:         id,
		UrgencyLevel:      domain.UrgencyHigh,
		PriorityMetrics:   domain.PriorityMetrics{FinalPriorityScore: score},
		SuggestedSLAHours: 8,
		ProcessedAt:       testNow,
	}
	task := domain.NewScoredTask(input, result)
	task.ClearDomainEvents()
	return task
}

package domain

import (
	"context"
	"time"
)

// ListFilter narrows history listings.
type ListFilter struct {
	Category     Category
	UrgencyLevel UrgencyLevel
	Role         Role
	Locked       *bool
	Limit        int
	Offset       int
}

// ScoredTaskRepository persists scored tasks keyed by their caller-assigned ID.
type ScoredTaskRepository interface {
	Save(ctx context.Context, task *ScoredTask) error
	FindByID(ctx context.Context, taskID string) (*ScoredTask, error)
	List(ctx context.Context, filter ListFilter) ([]*ScoredTask, error)
	ListUnlocked(ctx context.Context, limit int) ([]*ScoredTask, error)
}

// PrivacyAuditEntry records that the sensitive-content gate fired. It never holds the matched text.
type PrivacyAuditEntry struct {
	ID         int64     `json:"id"`
	RequestID  string    `json:"requestId"`
	Categories []string  `json:"categories"`
	DetectedAt time.Time `json:"detectedAt"`
}

// PrivacyAuditRepository stores gate audit entries.
type PrivacyAuditRepository interface {
	Record(ctx context.Context, entry *PrivacyAuditEntry) error
	ListRecent(ctx context.Context, limit int) ([]PrivacyAuditEntry, error)
}

// ResultCache holds recent results for the status lookup path.
type ResultCache interface {
	Get(ctx context.Context, requestID string) (*PriorityResult, error)
	Set(ctx context.Context, result PriorityResult) error
	Delete(ctx context.Context, requestID string) error
}

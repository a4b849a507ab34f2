package queries

import (
	"context"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
	sharedApplication "github.com/felixgeelhaar/prioritiai/internal/shared/application"
)

const defaultAuditLimit = 50

// ListPrivacyAuditQuery lists the most recent gate activations.
type ListPrivacyAuditQuery struct {
	Limit int
}

func (ListPrivacyAuditQuery) QueryName() string { return "prioritization.list_privacy_audit" }

// ListPrivacyAuditHandler handles the ListPrivacyAuditQuery.
type ListPrivacyAuditHandler struct {
	repo domain.PrivacyAuditRepository
}

var _ sharedApplication.QueryHandler[ListPrivacyAuditQuery, []domain.PrivacyAuditEntry] = (*ListPrivacyAuditHandler)(nil)

// NewListPrivacyAuditHandler creates a new ListPrivacyAuditHandler.
func NewListPrivacyAuditHandler(repo domain.PrivacyAuditRepository) *ListPrivacyAuditHandler {
	return &ListPrivacyAuditHandler{repo: repo}
}

// Handle executes the ListPrivacyAuditQuery.
func (h *ListPrivacyAuditHandler) Handle(ctx context.Context, q ListPrivacyAuditQuery) ([]domain.PrivacyAuditEntry, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	return h.repo.ListRecent(ctx, limit)
}

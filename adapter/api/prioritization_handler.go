package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/application/commands"
	"github.com/felixgeelhaar/prioritiai/internal/prioritization/application/queries"
	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
	sharedApplication "github.com/felixgeelhaar/prioritiai/internal/shared/application"
	"github.com/felixgeelhaar/prioritiai/pkg/observability"
)

const maxBodyBytes = 4 << 20

// PrioritizationHandler handles prioritization API requests.
type PrioritizationHandler struct {
	score    sharedApplication.ResultCommandHandler[commands.ScoreTaskCommand, *commands.ScoreTaskResult]
	batch    sharedApplication.ResultCommandHandler[commands.BatchScoreCommand, *commands.BatchScoreResult]
	recalc   sharedApplication.ResultCommandHandler[commands.RecalculatePrioritiesCommand, *commands.RecalculatePrioritiesResult]
	lock     sharedApplication.CommandHandler[commands.LockTaskCommand]
	unlock   sharedApplication.CommandHandler[commands.UnlockTaskCommand]
	override sharedApplication.CommandHandler[commands.OverrideTaskCommand]
	status   sharedApplication.QueryHandler[queries.GetPriorityResultQuery, *queries.PriorityStatus]
	history  sharedApplication.QueryHandler[queries.ListScoredTasksQuery, []queries.ScoredTaskDTO]
	audit    sharedApplication.QueryHandler[queries.ListPrivacyAuditQuery, []domain.PrivacyAuditEntry]
	logger   *slog.Logger

	recalcLimit int
}

// PrioritizationHandlerConfig holds dependencies for the prioritization handler.
type PrioritizationHandlerConfig struct {
	Score       sharedApplication.ResultCommandHandler[commands.ScoreTaskCommand, *commands.ScoreTaskResult]
	Batch       sharedApplication.ResultCommandHandler[commands.BatchScoreCommand, *commands.BatchScoreResult]
	Recalculate sharedApplication.ResultCommandHandler[commands.RecalculatePrioritiesCommand, *commands.RecalculatePrioritiesResult]
	Lock        sharedApplication.CommandHandler[commands.LockTaskCommand]
	Unlock      sharedApplication.CommandHandler[commands.UnlockTaskCommand]
	Override    sharedApplication.CommandHandler[commands.OverrideTaskCommand]
	Status      sharedApplication.QueryHandler[queries.GetPriorityResultQuery, *queries.PriorityStatus]
	History     sharedApplication.QueryHandler[queries.ListScoredTasksQuery, []queries.ScoredTaskDTO]
	Audit       sharedApplication.QueryHandler[queries.ListPrivacyAuditQuery, []domain.PrivacyAuditEntry]
	Logger      *slog.Logger

	// RecalcLimit caps a recalculation run when the request names no limit.
	RecalcLimit int
}

// NewPrioritizationHandler creates a new prioritization handler.
func NewPrioritizationHandler(cfg PrioritizationHandlerConfig) *PrioritizationHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &PrioritizationHandler{
		score:    cfg.Score,
		batch:    cfg.Batch,
		recalc:   cfg.Recalculate,
		lock:     cfg.Lock,
		unlock:   cfg.Unlock,
		override: cfg.Override,
		status:   cfg.Status,
		history:  cfg.History,
		audit:    cfg.Audit,
		logger:   cfg.Logger,

		recalcLimit: cfg.RecalcLimit,
	}
}

// Score handles POST /api/v1/prioritization/sync
func (h *PrioritizationHandler) Score(w http.ResponseWriter, r *http.Request) {
	var input domain.TaskInput
	if err := decodeBody(r, &input); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.score.Handle(r.Context(), commands.ScoreTaskCommand{
		Input:         input,
		Actor:         actor(r),
		CorrelationID: observability.CorrelationIDFromContext(r.Context()),
	})
	if err != nil {
		h.writeDomainError(w, err, "Failed to score task")
		return
	}

	if res.Locked {
		w.Header().Set("X-Task-Locked", "true")
	}
	writeJSON(w, http.StatusOK, res.Result)
}

type batchItemResponse struct {
	Index  int                    `json:"index"`
	TaskID string                 `json:"taskId"`
	Locked bool                   `json:"locked,omitempty"`
	Result *domain.PriorityResult `json:"result,omitempty"`
	Error  *errorBody             `json:"error,omitempty"`
}

type batchResponse struct {
	Results   []batchItemResponse `json:"results"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
}

// Batch handles POST /api/v1/prioritization/batch
func (h *PrioritizationHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var inputs []domain.TaskInput
	if err := decodeBody(r, &inputs); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.batch.Handle(r.Context(), commands.BatchScoreCommand{
		Inputs:        inputs,
		Actor:         actor(r),
		CorrelationID: observability.CorrelationIDFromContext(r.Context()),
	})
	if err != nil {
		h.writeDomainError(w, err, "Failed to score batch")
		return
	}

	out := batchResponse{
		Results:   make([]batchItemResponse, 0, len(res.Items)),
		Succeeded: res.Succeeded,
		Failed:    res.Failed,
	}
	for _, item := range res.Items {
		entry := batchItemResponse{Index: item.Index, TaskID: item.TaskID}
		if item.Err != nil {
			status, body := errorResponse(item.Err, "Failed to score task")
			if status == http.StatusInternalServerError {
				h.logger.Error("batch item failed", "task_id", item.TaskID, "error", item.Err)
			}
			entry.Error = &body
		} else {
			result := item.Result.Result
			entry.Result = &result
			entry.Locked = item.Result.Locked
		}
		out.Results = append(out.Results, entry)
	}
	writeJSON(w, http.StatusOK, out)
}

// Recalculate handles POST /api/v1/prioritization/recalculate
func (h *PrioritizationHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 0)
	if limit < 0 {
		writeError(w, http.StatusBadRequest, "limit must not be negative")
		return
	}
	if limit == 0 {
		limit = h.recalcLimit
	}

	res, err := h.recalc.Handle(r.Context(), commands.RecalculatePrioritiesCommand{
		Limit:         limit,
		Actor:         actor(r),
		CorrelationID: observability.CorrelationIDFromContext(r.Context()),
	})
	if err != nil {
		h.writeDomainError(w, err, "Failed to recalculate priorities")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Status handles GET /api/v1/prioritization/status/{id}
func (h *PrioritizationHandler) Status(w http.ResponseWriter, r *http.Request) {
	res, err := h.status.Handle(r.Context(), queries.GetPriorityResultQuery{RequestID: r.PathValue("id")})
	if err != nil {
		h.writeDomainError(w, err, "Failed to get priority result")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// History handles GET /api/v1/prioritization/history
func (h *PrioritizationHandler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tasks, err := h.history.Handle(r.Context(), queries.ListScoredTasksQuery{
		Category: q.Get("category"),
		Urgency:  q.Get("urgency"),
		Role:     q.Get("role"),
		Locked:   q.Get("locked"),
		Limit:    parseIntParam(r, "limit", 0),
		Offset:   parseIntParam(r, "offset", 0),
	})
	if err != nil {
		h.writeDomainError(w, err, "Failed to list tasks")
		return
	}
	if tasks == nil {
		tasks = []queries.ScoredTaskDTO{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tasks": tasks,
		"count": len(tasks),
	})
}

// PrivacyAudit handles GET /api/v1/prioritization/privacy-audit
func (h *PrioritizationHandler) PrivacyAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := h.audit.Handle(r.Context(), queries.ListPrivacyAuditQuery{Limit: parseIntParam(r, "limit", 0)})
	if err != nil {
		h.writeDomainError(w, err, "Failed to list privacy audit")
		return
	}
	if entries == nil {
		entries = []domain.PrivacyAuditEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

type lockRequest struct {
	Reason string `json:"reason"`
}

// Lock handles POST /api/v1/prioritization/{id}/lock
func (h *PrioritizationHandler) Lock(w http.ResponseWriter, r *http.Request) {
	var req lockRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err := h.lock.Handle(r.Context(), commands.LockTaskCommand{
		TaskID: r.PathValue("id"),
		Reason: req.Reason,
		Actor:  actor(r),
	})
	if err != nil {
		h.writeDomainError(w, err, "Failed to lock task")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"taskId": r.PathValue("id"), "locked": true})
}

// Unlock handles POST /api/v1/prioritization/{id}/unlock
func (h *PrioritizationHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	err := h.unlock.Handle(r.Context(), commands.UnlockTaskCommand{
		TaskID: r.PathValue("id"),
		Actor:  actor(r),
	})
	if err != nil {
		h.writeDomainError(w, err, "Failed to unlock task")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"taskId": r.PathValue("id"), "locked": false})
}

type overrideRequest struct {
	ManualPriority *float64 `json:"manualPriority"`
	Status         string   `json:"status"`
	Reason         string   `json:"reason"`
}

// Override handles POST /api/v1/prioritization/{id}/override
func (h *PrioritizationHandler) Override(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ManualPriority == nil && strings.TrimSpace(req.Status) == "" {
		writeError(w, http.StatusBadRequest, "manualPriority or status is required")
		return
	}

	err := h.override.Handle(r.Context(), commands.OverrideTaskCommand{
		TaskID:         r.PathValue("id"),
		ManualPriority: req.ManualPriority,
		Status:         req.Status,
		Reason:         req.Reason,
		Actor:          actor(r),
	})
	if err != nil {
		h.writeDomainError(w, err, "Failed to override task")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"taskId": r.PathValue("id"), "locked": true})
}

func (h *PrioritizationHandler) writeDomainError(w http.ResponseWriter, err error, fallback string) {
	status, body := errorResponse(err, fallback)
	if status == http.StatusInternalServerError {
		h.logger.Error(fallback, "error", err)
	}
	writeJSON(w, status, body)
}

// errorResponse maps domain errors to HTTP statuses.
func errorResponse(err error, fallback string) (int, errorBody) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, errorBody{
			Error:   http.StatusText(http.StatusBadRequest),
			Message: verr.Error(),
			Fields:  verr.Fields,
		}
	case errors.Is(err, domain.ErrInvalidStatus), errors.Is(err, domain.ErrInvalidManualPriority):
		return http.StatusBadRequest, errorBody{Error: http.StatusText(http.StatusBadRequest), Message: err.Error()}
	case errors.Is(err, domain.ErrTaskNotFound):
		return http.StatusNotFound, errorBody{Error: http.StatusText(http.StatusNotFound), Message: err.Error()}
	case errors.Is(err, domain.ErrTaskLocked), errors.Is(err, domain.ErrNotLocked), errors.Is(err, domain.ErrConcurrentUpdate):
		return http.StatusConflict, errorBody{Error: http.StatusText(http.StatusConflict), Message: err.Error()}
	default:
		return http.StatusInternalServerError, errorBody{Error: http.StatusText(http.StatusInternalServerError), Message: fallback}
	}
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func decodeOptionalBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	err := decodeBody(r, v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func actor(r *http.Request) string {
	if a := strings.TrimSpace(r.Header.Get("X-Actor")); a != "" {
		return a
	}
	return "api"
}

func parseIntParam(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

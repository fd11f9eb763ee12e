package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/ai-secretary/internal/application"
)

type reminderService interface {
	GenerateReminders(ctx context.Context, principal application.Principal) (application.ReminderRun, error)
	DraftReminder(ctx context.Context, principal application.Principal, taskID string) (application.ReviewItem, error)
	DraftEscalation(ctx context.Context, principal application.Principal, taskID string) (application.ReviewItem, error)
}

// ReminderHandler drafts reminder and escalation emails into the review queue.
type ReminderHandler struct {
	service   reminderService
	responder responder
	logger    *slog.Logger
}

func NewReminderHandler(service reminderService, logger *slog.Logger) *ReminderHandler {
	base := defaultLogger(logger)
	return &ReminderHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ReminderHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReminderHandler", operation, attrs...)
}

// Run performs one reminder pass and reports per-task outcomes.
func (h *ReminderHandler) Run(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Run", "principal_id", principal.UserID)

	run, err := h.service.GenerateReminders(r.Context(), principal)
	if err != nil {
		serviceFailed(r.Context(), logger, "reminder run failed", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "reminder run finished", "eligible", run.Eligible, "created", len(run.Created), "failed", len(run.Failures))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReminderRunDTO(run))
}

func (h *ReminderHandler) DraftReminder(w http.ResponseWriter, r *http.Request) {
	h.draft(w, r, "DraftReminder", false)
}

func (h *ReminderHandler) DraftEscalation(w http.ResponseWriter, r *http.Request) {
	h.draft(w, r, "DraftEscalation", true)
}

func (h *ReminderHandler) draft(w http.ResponseWriter, r *http.Request, operation string, escalation bool) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	taskID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(taskID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTaskID)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), operation, "principal_id", principal.UserID, "task_id", taskID)

	draft := h.service.DraftReminder
	if escalation {
		draft = h.service.DraftEscalation
	}
	item, err := draft(r.Context(), principal, taskID)
	if err != nil {
		serviceFailed(r.Context(), logger, "failed to draft email", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "email drafted", "review_id", item.ID)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toReviewDTO(item))
}

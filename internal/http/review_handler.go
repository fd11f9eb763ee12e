package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/ai-secretary/internal/application"
)

type reviewService interface {
	ListPending(ctx context.Context, principal application.Principal) ([]application.ReviewItem, error)
	ListCompleted(ctx context.Context, principal application.Principal) ([]application.ReviewItem, error)
	GetReviewItem(ctx context.Context, principal application.Principal, id string) (application.ReviewItem, error)
	DeleteReviewItem(ctx context.Context, principal application.Principal, id string) error
	Approve(ctx context.Context, params application.ApproveReviewParams) (application.ApproveReviewResult, error)
	Reject(ctx context.Context, params application.RejectReviewParams) (application.ReviewItem, error)
}

type ReviewHandler struct {
	service   reviewService
	responder responder
	logger    *slog.Logger
}

func NewReviewHandler(service reviewService, logger *slog.Logger) *ReviewHandler {
	base := defaultLogger(logger)
	return &ReviewHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ReviewHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReviewHandler", operation, attrs...)
}

func (h *ReviewHandler) reviewID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReviewID)
		return "", false
	}
	return id, true
}

// List returns the pending queue by default, or reviewed items for state=completed.
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	state := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("state")))

	var (
		items []application.ReviewItem
		err   error
	)
	switch state {
	case "", application.ReviewStatusPending:
		items, err = h.service.ListPending(r.Context(), principal)
	case "completed":
		items, err = h.service.ListCompleted(r.Context(), principal)
	default:
		h.log(r.Context(), "List", "error_kind", "bad_request", "state", state).ErrorContext(r.Context(), "unknown review state")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidQuery)
		return
	}
	if err != nil {
		serviceFailed(r.Context(), h.log(r.Context(), "List", "state", state), "failed to list review items", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReviewDTOs(items))
}

func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := h.reviewID(w, r)
	if !ok {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	item, err := h.service.GetReviewItem(r.Context(), principal, id)
	if err != nil {
		serviceFailed(r.Context(), h.log(r.Context(), "Get", "review_id", id), "failed to load review item", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReviewDTO(item))
}

func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := h.reviewID(w, r)
	if !ok {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "review_id", id)

	if err := h.service.DeleteReviewItem(r.Context(), principal, id); err != nil {
		serviceFailed(r.Context(), logger, "failed to delete review item", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "review item deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Approve accepts an optional body carrying edited content and notes.
func (h *ReviewHandler) Approve(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := h.reviewID(w, r)
	if !ok {
		return
	}

	var req approveRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		h.log(r.Context(), "Approve", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode approve request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Approve", "principal_id", principal.UserID, "review_id", id, "edited", req.EditedContent != nil)

	result, err := h.service.Approve(r.Context(), application.ApproveReviewParams{
		Principal:     principal,
		ReviewID:      id,
		EditedContent: req.EditedContent,
		Notes:         req.Notes,
	})
	if err != nil {
		serviceFailed(r.Context(), logger, "failed to approve review item", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	createdIDs := result.CreatedTaskIDs
	if createdIDs == nil {
		createdIDs = []string{}
	}
	logger.InfoContext(r.Context(), "review item approved", "status", result.Item.Status, "created_tasks", len(createdIDs))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, approveResponse{
		Item:           toReviewDTO(result.Item),
		CreatedTaskIDs: createdIDs,
	})
}

func (h *ReviewHandler) Reject(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := h.reviewID(w, r)
	if !ok {
		return
	}

	var req rejectRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		h.log(r.Context(), "Reject", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode reject request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Reject", "principal_id", principal.UserID, "review_id", id)

	item, err := h.service.Reject(r.Context(), application.RejectReviewParams{
		Principal: principal,
		ReviewID:  id,
		Notes:     req.Notes,
	})
	if err != nil {
		serviceFailed(r.Context(), logger, "failed to reject review item", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "review item rejected")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReviewDTO(item))
}

// decodeOptionalBody treats an empty body as the zero value.
func decodeOptionalBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

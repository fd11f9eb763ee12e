package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/ai-secretary/internal/application"
)

type minutesService interface {
	GenerateSummary(ctx context.Context, params application.GenerateMinutesParams) (application.ReviewItem, error)
	ExtractActionItems(ctx context.Context, params application.GenerateMinutesParams) (application.ReviewItem, error)
	Translate(ctx context.Context, params application.TranslateParams) (application.ReviewItem, error)
}

// MinutesHandler queues meeting summaries, action items and translations for review.
type MinutesHandler struct {
	service   minutesService
	responder responder
	logger    *slog.Logger
}

func NewMinutesHandler(service minutesService, logger *slog.Logger) *MinutesHandler {
	base := defaultLogger(logger)
	return &MinutesHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *MinutesHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "MinutesHandler", operation, attrs...)
}

type transcriptRequest struct {
	Transcript string `json:"transcript"`
}

type translateRequest struct {
	Text      string `json:"text"`
	Title     string `json:"title"`
	MeetingID string `json:"meeting_id"`
}

func (h *MinutesHandler) Summary(w http.ResponseWriter, r *http.Request) {
	h.fromTranscript(w, r, "Summary", false)
}

func (h *MinutesHandler) ActionItems(w http.ResponseWriter, r *http.Request) {
	h.fromTranscript(w, r, "ActionItems", true)
}

func (h *MinutesHandler) fromTranscript(w http.ResponseWriter, r *http.Request, operation string, actionItems bool) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	meetingID, ok := ResourceIDFromContext(r.Context())
	if !ok || meetingID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMeetingID)
		return
	}

	var req transcriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), operation, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode transcript request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), operation, "principal_id", principal.UserID, "meeting_id", meetingID)

	generate := h.service.GenerateSummary
	if actionItems {
		generate = h.service.ExtractActionItems
	}
	item, err := generate(r.Context(), application.GenerateMinutesParams{
		Principal:  principal,
		MeetingID:  meetingID,
		Transcript: req.Transcript,
	})
	if err != nil {
		serviceFailed(r.Context(), logger, "failed to queue meeting content", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "meeting content queued for review", "review_id", item.ID, "type", item.Type)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toReviewDTO(item))
}

func (h *MinutesHandler) Translate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Translate", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode translate request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Translate", "principal_id", principal.UserID, "meeting_id", req.MeetingID)

	item, err := h.service.Translate(r.Context(), application.TranslateParams{
		Principal: principal,
		Text:      req.Text,
		Title:     req.Title,
		MeetingID: req.MeetingID,
	})
	if err != nil {
		serviceFailed(r.Context(), logger, "failed to queue translation", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "translation queued for review", "review_id", item.ID)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toReviewDTO(item))
}

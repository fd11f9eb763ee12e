package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/example/ai-secretary/internal/application"
)

type meetingService interface {
	CreateMeeting(ctx context.Context, params application.CreateMeetingParams) (application.Meeting, []application.ConflictWarning, error)
	UpdateMeeting(ctx context.Context, params application.UpdateMeetingParams) (application.Meeting, []application.ConflictWarning, error)
	CancelMeeting(ctx context.Context, principal application.Principal, meetingID string) (application.Meeting, error)
	DeleteMeeting(ctx context.Context, principal application.Principal, meetingID string) error
	GetMeeting(ctx context.Context, principal application.Principal, meetingID string) (application.Meeting, error)
	ListMeetings(ctx context.Context, params application.ListMeetingsParams) ([]application.Meeting, error)
	CheckConflicts(ctx context.Context, params application.CheckConflictsParams) ([]application.ConflictWarning, error)
	JoinMeeting(ctx context.Context, principal application.Principal, meetingID string) (application.ConferenceAccess, error)
}

type MeetingHandler struct {
	service   meetingService
	responder responder
	logger    *slog.Logger
}

func NewMeetingHandler(service meetingService, logger *slog.Logger) *MeetingHandler {
	base := defaultLogger(logger)
	return &MeetingHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *MeetingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "MeetingHandler", operation, attrs...)
}

func (h *MeetingHandler) meetingID(w http.ResponseWriter, r *http.Request, operation string) (string, bool) {
	id, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.log(r.Context(), operation, "error_kind", "bad_request").ErrorContext(r.Context(), "meeting id missing from path")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMeetingID)
		return "", false
	}
	return id, true
}

func (h *MeetingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req meetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode meeting request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	input, err := req.toInput()
	if err != nil {
		serviceFailed(r.Context(), logger, "meeting request rejected", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	meeting, warnings, err := h.service.CreateMeeting(r.Context(), application.CreateMeetingParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		serviceFailed(r.Context(), logger, "failed to create meeting", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "meeting created", "meeting_id", meeting.ID, "conflicts", len(warnings))
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, meetingResponse{
		Meeting:  toMeetingDTO(meeting),
		Warnings: toWarningDTOs(warnings),
	})
}

func (h *MeetingHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	meetingID, ok := h.meetingID(w, r, "Update")
	if !ok {
		return
	}

	var req meetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode meeting request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "meeting_id", meetingID)

	input, err := req.toInput()
	if err != nil {
		serviceFailed(r.Context(), logger, "meeting request rejected", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	meeting, warnings, err := h.service.UpdateMeeting(r.Context(), application.UpdateMeetingParams{
		Principal: principal,
		MeetingID: meetingID,
		Input:     input,
	})
	if err != nil {
		serviceFailed(r.Context(), logger, "failed to update meeting", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "meeting updated", "conflicts", len(warnings))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, meetingResponse{
		Meeting:  toMeetingDTO(meeting),
		Warnings: toWarningDTOs(warnings),
	})
}

func (h *MeetingHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	meetingID, ok := h.meetingID(w, r, "Get")
	if !ok {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	meeting, err := h.service.GetMeeting(r.Context(), principal, meetingID)
	if err != nil {
		serviceFailed(r.Context(), h.log(r.Context(), "Get", "meeting_id", meetingID), "failed to load meeting", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toMeetingDTO(meeting))
}

func (h *MeetingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	meetingID, ok := h.meetingID(w, r, "Delete")
	if !ok {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "meeting_id", meetingID)

	if err := h.service.DeleteMeeting(r.Context(), principal, meetingID); err != nil {
		serviceFailed(r.Context(), logger, "failed to delete meeting", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "meeting deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *MeetingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	meetingID, ok := h.meetingID(w, r, "Cancel")
	if !ok {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Cancel", "principal_id", principal.UserID, "meeting_id", meetingID)

	meeting, err := h.service.CancelMeeting(r.Context(), principal, meetingID)
	if err != nil {
		serviceFailed(r.Context(), logger, "failed to cancel meeting", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "meeting cancelled")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toMeetingDTO(meeting))
}

// List accepts optional from/to RFC3339 bounds and include_cancelled=true.
func (h *MeetingHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	params, err := buildMeetingListParams(r.URL.Query(), principal)
	if err != nil {
		h.log(r.Context(), "List", "error_kind", "validation").ErrorContext(r.Context(), "invalid meeting query", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	meetings, err := h.service.ListMeetings(r.Context(), params)
	if err != nil {
		serviceFailed(r.Context(), h.log(r.Context(), "List"), "failed to list meetings", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toMeetingDTOs(meetings))
}

func (h *MeetingHandler) CheckConflicts(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req conflictsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "CheckConflicts", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode conflict request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	var fields timeFields
	start := fields.parse("start", req.Start)
	if err := fields.err(); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	warnings, err := h.service.CheckConflicts(r.Context(), application.CheckConflictsParams{
		Principal:        principal,
		Start:            start,
		DurationMinutes:  req.DurationMinutes,
		ExcludeMeetingID: req.ExcludeMeetingID,
	})
	if err != nil {
		serviceFailed(r.Context(), h.log(r.Context(), "CheckConflicts"), "failed to check conflicts", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]any{
		"has_conflicts": len(warnings) > 0,
		"conflicts":     toWarningDTOs(warnings),
	})
}

// Conference returns the video room URL and a join token for the caller.
func (h *MeetingHandler) Conference(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	meetingID, ok := h.meetingID(w, r, "Conference")
	if !ok {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Conference", "principal_id", principal.UserID, "meeting_id", meetingID)

	access, err := h.service.JoinMeeting(r.Context(), principal, meetingID)
	if err != nil {
		serviceFailed(r.Context(), logger, "failed to join meeting", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "conference token issued")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, conferenceDTO{
		MeetingID: access.MeetingID,
		RoomURL:   access.RoomURL,
		Token:     access.Token,
		ExpiresAt: formatTime(access.ExpiresAt),
	})
}

func buildMeetingListParams(values url.Values, principal application.Principal) (application.ListMeetingsParams, error) {
	var fields timeFields
	params := application.ListMeetingsParams{
		Principal: principal,
		From:      fields.parsePtr("from", queryPtr(values, "from")),
		To:        fields.parsePtr("to", queryPtr(values, "to")),
	}
	if raw := strings.TrimSpace(values.Get("include_cancelled")); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			return params, &application.ValidationError{FieldErrors: map[string]string{"include_cancelled": "include_cancelled must be a boolean"}}
		}
		params.IncludeCancelled = include
	}
	return params, fields.err()
}

func queryPtr(values url.Values, key string) *string {
	if !values.Has(key) {
		return nil
	}
	v := values.Get(key)
	return &v
}

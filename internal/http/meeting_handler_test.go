package http

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/example/ai-secretary/internal/application"
)

func sampleMeeting() application.Meeting {
	return application.Meeting{
		ID:              "m-1",
		Title:           "Planning",
		Start:           time.Date(2024, 3, 11, 10, 0, 0, 0, time.UTC),
		DurationMinutes: intPtr(30),
		Status:          application.MeetingStatusScheduled,
		CreatedBy:       "user-1",
		CreatedAt:       testNow,
		UpdatedAt:       testNow,
	}
}

func TestMeetingHandler_Create(t *testing.T) {
	t.Parallel()

	t.Run("returns the meeting with conflict warnings", func(t *testing.T) {
		t.Parallel()
		router, svc := newTestRouter(t)
		svc.meetings.meetings = []application.Meeting{sampleMeeting()}
		svc.meetings.warnings = []application.ConflictWarning{{
			MeetingID: "m-0",
			Title:     "Standup",
			Start:     time.Date(2024, 3, 11, 10, 15, 0, 0, time.UTC),
			End:       time.Date(2024, 3, 11, 10, 45, 0, 0, time.UTC),
		}}

		rec := doRequest(t, router, http.MethodPost, "/meetings", "user-token",
			`{"title":"Planning","start":"2024-03-11T19:00:00+09:00","duration_minutes":30,"participants":["a@example.com"]}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		body := decodeBody[meetingResponse](t, rec)
		if body.Meeting.ID != "m-1" || body.Meeting.End != "2024-03-11T10:30:00Z" {
			t.Fatalf("unexpected meeting %+v", body.Meeting)
		}
		if len(body.Warnings) != 1 || body.Warnings[0].MeetingID != "m-0" || body.Warnings[0].End != "2024-03-11T10:45:00Z" {
			t.Fatalf("unexpected warnings %+v", body.Warnings)
		}

		input := svc.meetings.lastInput
		if !input.Start.Equal(time.Date(2024, 3, 11, 10, 0, 0, 0, time.UTC)) {
			t.Fatalf("expected start parsed from offset time, got %v", input.Start)
		}
		if input.DurationMinutes == nil || *input.DurationMinutes != 30 || len(input.Participants) != 1 {
			t.Fatalf("unexpected input %+v", input)
		}
		if svc.meetings.principal.UserID != "user-1" {
			t.Fatalf("expected principal from session, got %+v", svc.meetings.principal)
		}
	})

	t.Run("rejects malformed bodies", func(t *testing.T) {
		t.Parallel()
		router, _ := newTestRouter(t)
		rec := doRequest(t, router, http.MethodPost, "/meetings", "user-token", `{"title":`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("reports unparsable times as field errors", func(t *testing.T) {
		t.Parallel()
		router, _ := newTestRouter(t)
		rec := doRequest(t, router, http.MethodPost, "/meetings", "user-token", `{"title":"x","start":"tomorrow"}`)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		if body := decodeBody[errorResponse](t, rec); body.Errors["start"] == "" {
			t.Fatalf("expected start field error, got %+v", body)
		}
	})

	t.Run("surfaces service validation errors", func(t *testing.T) {
		t.Parallel()
		router, svc := newTestRouter(t)
		svc.meetings.err = &application.ValidationError{FieldErrors: map[string]string{"title": "title is required"}}
		rec := doRequest(t, router, http.MethodPost, "/meetings", "user-token", `{"start":"2024-03-11T10:00:00Z"}`)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
	})
}

func TestMeetingHandler_ItemRoutes(t *testing.T) {
	t.Parallel()

	t.Run("update passes the path id", func(t *testing.T) {
		t.Parallel()
		router, svc := newTestRouter(t)
		svc.meetings.meetings = []application.Meeting{sampleMeeting()}
		rec := doRequest(t, router, http.MethodPut, "/meetings/m-1", "user-token", `{"title":"Renamed","start":"2024-03-11T10:00:00Z"}`)
		if rec.Code != http.StatusOK || svc.meetings.lastID != "m-1" || svc.meetings.lastInput.Title != "Renamed" {
			t.Fatalf("unexpected update: %d id=%q input=%+v", rec.Code, svc.meetings.lastID, svc.meetings.lastInput)
		}
	})

	t.Run("forbidden updates map to 403", func(t *testing.T) {
		t.Parallel()
		router, svc := newTestRouter(t)
		svc.meetings.err = application.ErrUnauthorized
		rec := doRequest(t, router, http.MethodPut, "/meetings/m-1", "user-token", `{"title":"x","start":"2024-03-11T10:00:00Z"}`)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("missing meetings map to 404", func(t *testing.T) {
		t.Parallel()
		router, svc := newTestRouter(t)
		svc.meetings.err = application.ErrNotFound
		rec := doRequest(t, router, http.MethodGet, "/meetings/missing", "user-token", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("delete returns no content", func(t *testing.T) {
		t.Parallel()
		router, svc := newTestRouter(t)
		rec := doRequest(t, router, http.MethodDelete, "/meetings/m-1", "admin-token", "")
		if rec.Code != http.StatusNoContent || !svc.meetings.principal.IsAdmin {
			t.Fatalf("expected 204 as admin, got %d %+v", rec.Code, svc.meetings.principal)
		}
	})

	t.Run("cancel returns the cancelled meeting", func(t *testing.T) {
		t.Parallel()
		router, svc := newTestRouter(t)
		cancelled := sampleMeeting()
		cancelled.Status = application.MeetingStatusCancelled
		svc.meetings.meetings = []application.Meeting{cancelled}
		rec := doRequest(t, router, http.MethodPost, "/meetings/m-1/cancel", "user-token", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if body := decodeBody[meetingDTO](t, rec); body.Status != application.MeetingStatusCancelled {
			t.Fatalf("expected cancelled status, got %q", body.Status)
		}
	})

	t.Run("conference returns a join token", func(t *testing.T) {
		t.Parallel()
		router, svc := newTestRouter(t)
		rec := doRequest(t, router, http.MethodGet, "/meetings/m-1/conference", "user-token", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		body := decodeBody[conferenceDTO](t, rec)
		if body.Token != "jwt" || body.ExpiresAt != "2024-03-11T11:00:00Z" || svc.meetings.lastID != "m-1" {
			t.Fatalf("unexpected conference payload %+v", body)
		}
	})

	t.Run("conference without an issuer maps to 503", func(t *testing.T) {
		t.Parallel()
		router, svc := newTestRouter(t)
		svc.meetings.err = application.ErrUnavailable
		rec := doRequest(t, router, http.MethodGet, "/meetings/m-1/conference", "user-token", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	})
}

func TestMeetingHandler_List(t *testing.T) {
	t.Parallel()

	t.Run("parses range and include_cancelled", func(t *testing.T) {
		t.Parallel()
		router, svc := newTestRouter(t)
		rec := doRequest(t, router, http.MethodGet, "/meetings?from=2024-03-01T00:00:00Z&to=2024-04-01T00:00:00Z&include_cancelled=true", "user-token", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		params := svc.meetings.lastList
		if params.From == nil || params.To == nil || !params.IncludeCancelled {
			t.Fatalf("unexpected list params %+v", params)
		}
		if strings.TrimSpace(rec.Body.String()) != "[]" {
			t.Fatalf("expected empty JSON array, got %q", rec.Body.String())
		}
	})

	t.Run("rejects bad query values", func(t *testing.T) {
		t.Parallel()
		router, _ := newTestRouter(t)
		for _, query := range []string{"?from=yesterday", "?include_cancelled=maybe"} {
			rec := doRequest(t, router, http.MethodGet, "/meetings"+query, "user-token", "")
			if rec.Code != http.StatusUnprocessableEntity {
				t.Errorf("expected 422 for %s, got %d", query, rec.Code)
			}
		}
	})
}

func TestMeetingHandler_CheckConflicts(t *testing.T) {
	t.Parallel()

	router, svc := newTestRouter(t)
	svc.meetings.warnings = []application.ConflictWarning{{MeetingID: "m-2", Title: "Review"}}

	rec := doRequest(t, router, http.MethodPost, "/meetings/conflicts", "user-token",
		`{"start":"2024-03-11T10:00:00Z","duration_minutes":45,"exclude_meeting_id":"m-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody[struct {
		HasConflicts bool                 `json:"has_conflicts"`
		Conflicts    []conflictWarningDTO `json:"conflicts"`
	}](t, rec)
	if !body.HasConflicts || len(body.Conflicts) != 1 || body.Conflicts[0].MeetingID != "m-2" {
		t.Fatalf("unexpected conflict response %+v", body)
	}
	check := svc.meetings.lastCheck
	if check.ExcludeMeetingID != "m-1" || check.DurationMinutes == nil || *check.DurationMinutes != 45 {
		t.Fatalf("unexpected check params %+v", check)
	}
}

package http

import (
	"bytes"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/emersion/go-ical"

	"github.com/example/ai-secretary/internal/application"
)

func TestCalendarHandler_Feed(t *testing.T) {
	t.Parallel()

	t.Run("exports meetings including cancelled ones", func(t *testing.T) {
		t.Parallel()
		router, svc := newTestRouter(t)
		cancelled := sampleMeeting()
		cancelled.ID = "m-2"
		cancelled.Status = application.MeetingStatusCancelled
		cancelled.DurationMinutes = nil
		svc.meetings.meetings = []application.Meeting{sampleMeeting(), cancelled}

		rec := doRequest(t, router, http.MethodGet, "/calendar.ics", "user-token", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "text/calendar; charset=utf-8" {
			t.Fatalf("unexpected content type %q", ct)
		}
		if !svc.meetings.lastList.IncludeCancelled {
			t.Fatalf("expected cancelled meetings to be requested")
		}

		cal, err := ical.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode()
		if err != nil {
			t.Fatalf("decode calendar: %v", err)
		}
		events := cal.Events()
		if len(events) != 2 {
			t.Fatalf("expected 2 events, got %d", len(events))
		}
		end, err := events[1].DateTimeEnd(time.UTC)
		if err != nil {
			t.Fatalf("read end: %v", err)
		}
		if !end.Equal(time.Date(2024, 3, 11, 11, 0, 0, 0, time.UTC)) {
			t.Fatalf("expected default one hour duration, got %v", end)
		}
		if status := events[1].Props.Get(ical.PropStatus); status == nil || status.Value != string(ical.EventCancelled) {
			t.Fatalf("expected cancelled status, got %+v", status)
		}
	})

	t.Run("service errors use the standard mapping", func(t *testing.T) {
		t.Parallel()
		router, svc := newTestRouter(t)
		svc.meetings.err = errors.New("boom")
		rec := doRequest(t, router, http.MethodGet, "/calendar.ics", "user-token", "")
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})
}

package http

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/ai-secretary/internal/application"
	"github.com/example/ai-secretary/internal/calendar"
)

const calendarName = "AI Secretary Meetings"

type meetingLister interface {
	ListMeetings(ctx context.Context, params application.ListMeetingsParams) ([]application.Meeting, error)
}

// CalendarHandler serves meetings as an iCalendar feed.
type CalendarHandler struct {
	meetings  meetingLister
	now       func() time.Time
	responder responder
	logger    *slog.Logger
}

func NewCalendarHandler(meetings meetingLister, now func() time.Time, logger *slog.Logger) *CalendarHandler {
	base := defaultLogger(logger)
	if now == nil {
		now = time.Now
	}
	return &CalendarHandler{meetings: meetings, now: now, responder: newResponder(base), logger: base}
}

// Feed writes every meeting, cancelled ones included, as VEVENTs.
func (h *CalendarHandler) Feed(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.meetings == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := handlerLogger(r.Context(), h.logger, "CalendarHandler", "Feed", "principal_id", principal.UserID)

	meetings, err := h.meetings.ListMeetings(r.Context(), application.ListMeetingsParams{
		Principal:        principal,
		IncludeCancelled: true,
	})
	if err != nil {
		serviceFailed(r.Context(), logger, "failed to list meetings for calendar", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	events := make([]calendar.Event, 0, len(meetings))
	for _, m := range meetings {
		events = append(events, calendar.Event{
			UID:         m.ID,
			Summary:     m.Title,
			Description: m.Description,
			Location:    m.Location,
			URL:         m.MeetLink,
			Start:       m.Start,
			End:         m.End(),
			Cancelled:   m.Status == application.MeetingStatusCancelled,
		})
	}

	var buf bytes.Buffer
	if err := calendar.WriteCalendar(&buf, calendarName, events, h.now()); err != nil {
		logger.ErrorContext(r.Context(), "failed to encode calendar", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusInternalServerError, nil)
		return
	}

	logger.InfoContext(r.Context(), "calendar exported", "events", len(events))
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="meetings.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

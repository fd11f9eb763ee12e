package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/ai-secretary/internal/application"
)

var testNow = time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type sessionStub struct {
	principals map[string]application.Principal
	err        error
}

func (s sessionStub) ValidateSession(_ context.Context, token string) (application.Principal, error) {
	if s.err != nil {
		return application.Principal{}, s.err
	}
	principal, ok := s.principals[token]
	if !ok {
		return application.Principal{}, application.ErrUnauthorized
	}
	return principal, nil
}

var testSessions = sessionStub{principals: map[string]application.Principal{
	"user-token":  {UserID: "user-1"},
	"admin-token": {UserID: "admin-1", IsAdmin: true},
}}

type meetingServiceStub struct {
	meetings  []application.Meeting
	warnings  []application.ConflictWarning
	err       error
	lastList  application.ListMeetingsParams
	lastInput application.MeetingInput
	lastCheck application.CheckConflictsParams
	lastID    string
	principal application.Principal
}

func (s *meetingServiceStub) first() application.Meeting {
	if len(s.meetings) == 0 {
		return application.Meeting{}
	}
	return s.meetings[0]
}

func (s *meetingServiceStub) CreateMeeting(_ context.Context, params application.CreateMeetingParams) (application.Meeting, []application.ConflictWarning, error) {
	s.principal, s.lastInput = params.Principal, params.Input
	return s.first(), s.warnings, s.err
}

func (s *meetingServiceStub) UpdateMeeting(_ context.Context, params application.UpdateMeetingParams) (application.Meeting, []application.ConflictWarning, error) {
	s.principal, s.lastInput, s.lastID = params.Principal, params.Input, params.MeetingID
	return s.first(), s.warnings, s.err
}

func (s *meetingServiceStub) CancelMeeting(_ context.Context, principal application.Principal, id string) (application.Meeting, error) {
	s.principal, s.lastID = principal, id
	return s.first(), s.err
}

func (s *meetingServiceStub) DeleteMeeting(_ context.Context, principal application.Principal, id string) error {
	s.principal, s.lastID = principal, id
	return s.err
}

func (s *meetingServiceStub) GetMeeting(_ context.Context, principal application.Principal, id string) (application.Meeting, error) {
	s.principal, s.lastID = principal, id
	return s.first(), s.err
}

func (s *meetingServiceStub) ListMeetings(_ context.Context, params application.ListMeetingsParams) ([]application.Meeting, error) {
	s.lastList = params
	return s.meetings, s.err
}

func (s *meetingServiceStub) CheckConflicts(_ context.Context, params application.CheckConflictsParams) ([]application.ConflictWarning, error) {
	s.lastCheck = params
	return s.warnings, s.err
}

func (s *meetingServiceStub) JoinMeeting(_ context.Context, principal application.Principal, id string) (application.ConferenceAccess, error) {
	s.principal, s.lastID = principal, id
	if s.err != nil {
		return application.ConferenceAccess{}, s.err
	}
	return application.ConferenceAccess{
		MeetingID: id,
		RoomURL:   "https://video.test/app/room-1",
		Token:     "jwt",
		ExpiresAt: testNow.Add(2 * time.Hour),
	}, nil
}

type taskServiceStub struct {
	tasks     []application.Task
	err       error
	lastList  application.ListTasksParams
	lastInput application.TaskInput
	lastID    string
	calls     []string
}

func (s *taskServiceStub) first() application.Task {
	if len(s.tasks) == 0 {
		return application.Task{}
	}
	return s.tasks[0]
}

func (s *taskServiceStub) CreateTask(_ context.Context, params application.CreateTaskParams) (application.Task, error) {
	s.calls = append(s.calls, "create")
	s.lastInput = params.Input
	return s.first(), s.err
}

func (s *taskServiceStub) UpdateTask(_ context.Context, params application.UpdateTaskParams) (application.Task, error) {
	s.calls = append(s.calls, "update")
	s.lastInput, s.lastID = params.Input, params.TaskID
	return s.first(), s.err
}

func (s *taskServiceStub) MarkComplete(_ context.Context, _ application.Principal, id string) (application.Task, error) {
	s.calls = append(s.calls, "complete")
	s.lastID = id
	return s.first(), s.err
}

func (s *taskServiceStub) DeleteTask(_ context.Context, _ application.Principal, id string) error {
	s.calls = append(s.calls, "delete")
	s.lastID = id
	return s.err
}

func (s *taskServiceStub) GetTask(_ context.Context, _ application.Principal, id string) (application.Task, error) {
	s.calls = append(s.calls, "get")
	s.lastID = id
	return s.first(), s.err
}

func (s *taskServiceStub) ListTasks(_ context.Context, params application.ListTasksParams) ([]application.Task, error) {
	s.calls = append(s.calls, "list")
	s.lastList = params
	return s.tasks, s.err
}

func (s *taskServiceStub) ListOverdue(context.Context, application.Principal) ([]application.Task, error) {
	s.calls = append(s.calls, "overdue")
	return s.tasks, s.err
}

func (s *taskServiceStub) ListReminderCandidates(context.Context, application.Principal) ([]application.Task, error) {
	s.calls = append(s.calls, "candidates")
	return s.tasks, s.err
}

type reminderServiceStub struct {
	run    application.ReminderRun
	err    error
	calls  []string
	lastID string
}

func (s *reminderServiceStub) GenerateReminders(context.Context, application.Principal) (application.ReminderRun, error) {
	s.calls = append(s.calls, "run")
	return s.run, s.err
}

func (s *reminderServiceStub) DraftReminder(_ context.Context, _ application.Principal, id string) (application.ReviewItem, error) {
	s.calls = append(s.calls, "reminder")
	s.lastID = id
	return application.ReviewItem{ID: "review-1", Type: application.ReviewTypeEmailDraft, Status: application.ReviewStatusPending}, s.err
}

func (s *reminderServiceStub) DraftEscalation(_ context.Context, _ application.Principal, id string) (application.ReviewItem, error) {
	s.calls = append(s.calls, "escalation")
	s.lastID = id
	return application.ReviewItem{ID: "review-2", Type: application.ReviewTypeEmailDraft, Status: application.ReviewStatusPending}, s.err
}

type reviewServiceStub struct {
	items       []application.ReviewItem
	createdIDs  []string
	err         error
	calls       []string
	lastID      string
	lastApprove application.ApproveReviewParams
	lastReject  application.RejectReviewParams
}

func (s *reviewServiceStub) first() application.ReviewItem {
	if len(s.items) == 0 {
		return application.ReviewItem{}
	}
	return s.items[0]
}

func (s *reviewServiceStub) ListPending(context.Context, application.Principal) ([]application.ReviewItem, error) {
	s.calls = append(s.calls, "pending")
	return s.items, s.err
}

func (s *reviewServiceStub) ListCompleted(context.Context, application.Principal) ([]application.ReviewItem, error) {
	s.calls = append(s.calls, "completed")
	return s.items, s.err
}

func (s *reviewServiceStub) GetReviewItem(_ context.Context, _ application.Principal, id string) (application.ReviewItem, error) {
	s.calls = append(s.calls, "get")
	s.lastID = id
	return s.first(), s.err
}

func (s *reviewServiceStub) DeleteReviewItem(_ context.Context, _ application.Principal, id string) error {
	s.calls = append(s.calls, "delete")
	s.lastID = id
	return s.err
}

func (s *reviewServiceStub) Approve(_ context.Context, params application.ApproveReviewParams) (application.ApproveReviewResult, error) {
	s.calls = append(s.calls, "approve")
	s.lastApprove = params
	return application.ApproveReviewResult{Item: s.first(), CreatedTaskIDs: s.createdIDs}, s.err
}

func (s *reviewServiceStub) Reject(_ context.Context, params application.RejectReviewParams) (application.ReviewItem, error) {
	s.calls = append(s.calls, "reject")
	s.lastReject = params
	return s.first(), s.err
}

type minutesServiceStub struct {
	err           error
	calls         []string
	lastMinutes   application.GenerateMinutesParams
	lastTranslate application.TranslateParams
}

func (s *minutesServiceStub) GenerateSummary(_ context.Context, params application.GenerateMinutesParams) (application.ReviewItem, error) {
	s.calls = append(s.calls, "summary")
	s.lastMinutes = params
	return application.ReviewItem{ID: "review-s", Type: application.ReviewTypeMeetingSummary, Status: application.ReviewStatusPending, MeetingID: params.MeetingID}, s.err
}

func (s *minutesServiceStub) ExtractActionItems(_ context.Context, params application.GenerateMinutesParams) (application.ReviewItem, error) {
	s.calls = append(s.calls, "action-items")
	s.lastMinutes = params
	return application.ReviewItem{ID: "review-a", Type: application.ReviewTypeActionItems, Status: application.ReviewStatusPending, Content: "[]", MeetingID: params.MeetingID}, s.err
}

func (s *minutesServiceStub) Translate(_ context.Context, params application.TranslateParams) (application.ReviewItem, error) {
	s.calls = append(s.calls, "translate")
	s.lastTranslate = params
	original := params.Text
	return application.ReviewItem{ID: "review-t", Type: application.ReviewTypeTranslation, Status: application.ReviewStatusPending, Content: "Hello", OriginalContent: &original}, s.err
}

type authServiceStub struct {
	result application.AuthenticateResult
	err    error
	last   application.AuthenticateParams
}

func (s *authServiceStub) Authenticate(_ context.Context, params application.AuthenticateParams) (application.AuthenticateResult, error) {
	s.last = params
	return s.result, s.err
}

type testServices struct {
	auth      *authServiceStub
	meetings  *meetingServiceStub
	tasks     *taskServiceStub
	reminders *reminderServiceStub
	reviews   *reviewServiceStub
	minutes   *minutesServiceStub
}

func newTestRouter(t *testing.T) (http.Handler, *testServices) {
	t.Helper()
	logger := discardLogger()
	svc := &testServices{
		auth:      &authServiceStub{},
		meetings:  &meetingServiceStub{},
		tasks:     &taskServiceStub{},
		reminders: &reminderServiceStub{},
		reviews:   &reviewServiceStub{},
		minutes:   &minutesServiceStub{},
	}
	router := NewRouter(RouterConfig{
		Auth:       NewAuthHandler(svc.auth, logger),
		Meetings:   NewMeetingHandler(svc.meetings, logger),
		Tasks:      NewTaskHandler(svc.tasks, logger),
		Reminders:  NewReminderHandler(svc.reminders, logger),
		Reviews:    NewReviewHandler(svc.reviews, logger),
		Minutes:    NewMinutesHandler(svc.minutes, logger),
		Calendar:   NewCalendarHandler(svc.meetings, func() time.Time { return testNow }, logger),
		Session:    RequireSession(testSessions, logger),
		Middleware: []func(http.Handler) http.Handler{RequestLogger(logger)},
	})
	return router, svc
}

func doRequest(t *testing.T, handler http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return out
}

func intPtr(v int) *int { return &v }

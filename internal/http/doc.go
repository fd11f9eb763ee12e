// Package http exposes the secretary API over net/http.
//
// Routes:
//   - POST /sessions: exchanges {"email","password"} for a signed session token.
//     The token is also set as the `session_token` cookie.
//   - GET /healthz: liveness probe.
//   - /meetings, /meetings/{id}, /meetings/{id}/cancel, /meetings/{id}/conference and
//     POST /meetings/conflicts: meeting management exchanging `meetingDTO`. Create and
//     update responses carry conflict warnings alongside the meeting.
//   - GET /calendar.ics: every meeting as an iCalendar feed.
//   - /tasks, /tasks/{id}, /tasks/overdue, /tasks/reminder-candidates and
//     POST /tasks/{id}/complete|reminder|escalation: task tracking exchanging `taskDTO`.
//   - POST /reminders/run: one reminder pass over every eligible task.
//   - /reviews?state=pending|completed, /reviews/{id} and
//     POST /reviews/{id}/approve|reject: the human review queue.
//   - POST /meetings/{id}/summary and /meetings/{id}/action-items take {"transcript"};
//     POST /translations takes {"text","title","meeting_id"}. Each queues a pending
//     review item and answers with its `reviewDTO`.
//
// All routes but /sessions and /healthz require an `Authorization: Bearer` token.
// Times are RFC3339 in UTC and JSON fields are snake_case. DTOs live in dto.go.
package http

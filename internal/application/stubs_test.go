package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/example/ai-secretary/internal/persistence"
)

var testNow = time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sequentialIDs(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

type meetingStore struct {
	mu       sync.Mutex
	meetings map[string]Meeting
	listErr  error
}

func newMeetingStore(seed ...Meeting) *meetingStore {
	store := &meetingStore{meetings: make(map[string]Meeting)}
	for _, m := range seed {
		store.meetings[m.ID] = m
	}
	return store
}

func (s *meetingStore) InsertMeeting(_ context.Context, meeting Meeting) (Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.meetings[meeting.ID]; ok {
		return Meeting{}, persistence.ErrDuplicate
	}
	s.meetings[meeting.ID] = meeting
	return meeting, nil
}

func (s *meetingStore) GetMeeting(_ context.Context, id string) (Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[id]
	if !ok {
		return Meeting{}, persistence.ErrNotFound
	}
	return m, nil
}

func (s *meetingStore) UpdateMeeting(_ context.Context, meeting Meeting) (Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.meetings[meeting.ID]; !ok {
		return Meeting{}, persistence.ErrNotFound
	}
	s.meetings[meeting.ID] = meeting
	return meeting, nil
}

func (s *meetingStore) DeleteMeeting(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.meetings[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.meetings, id)
	return nil
}

func (s *meetingStore) ListMeetings(_ context.Context, filter MeetingRepositoryFilter) ([]Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []Meeting
	for _, m := range s.meetings {
		if !filter.IncludeCancelled && m.Status == MeetingStatusCancelled {
			continue
		}
		if filter.StartsAfter != nil && m.Start.Before(*filter.StartsAfter) {
			continue
		}
		if filter.StartsBefore != nil && !m.Start.Before(*filter.StartsBefore) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type taskStore struct {
	mu         sync.Mutex
	tasks      map[string]Task
	order      []string
	markErr    map[string]error
	markedAt   map[string]time.Time
	claimLost  map[string]bool
	released   map[string]bool
	listCalled int
}

func newTaskStore(seed ...Task) *taskStore {
	store := &taskStore{
		tasks:    make(map[string]Task),
		markErr:   make(map[string]error),
		markedAt:  make(map[string]time.Time),
		claimLost: make(map[string]bool),
		released:  make(map[string]bool),
	}
	for _, task := range seed {
		store.tasks[task.ID] = task
		store.order = append(store.order, task.ID)
	}
	return store
}

func (s *taskStore) InsertTask(_ context.Context, task Task) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; ok {
		return Task{}, persistence.ErrDuplicate
	}
	s.tasks[task.ID] = task
	s.order = append(s.order, task.ID)
	return task, nil
}

func (s *taskStore) GetTask(_ context.Context, id string) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return Task{}, persistence.ErrNotFound
	}
	return task, nil
}

func (s *taskStore) UpdateTask(_ context.Context, task Task) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; !ok {
		return Task{}, persistence.ErrNotFound
	}
	s.tasks[task.ID] = task
	return task, nil
}

func (s *taskStore) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.tasks, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *taskStore) ListTasks(_ context.Context, filter TaskRepositoryFilter) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalled++
	var out []Task
	for _, id := range s.order {
		task := s.tasks[id]
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.OwnerID != "" && task.OwnerID != filter.OwnerID {
			continue
		}
		out = append(out, task)
	}
	return out, nil
}

func (s *taskStore) MarkReminderSent(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.markErr[id]; err != nil {
		return err
	}
	task, ok := s.tasks[id]
	if !ok {
		return persistence.ErrNotFound
	}
	task.LastReminderSent = &at
	s.tasks[id] = task
	s.markedAt[id] = at
	return nil
}

func (s *taskStore) ClaimReminder(_ context.Context, id string, at, cutoff time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.markErr[id]; err != nil {
		return false, err
	}
	task, ok := s.tasks[id]
	if !ok {
		return false, persistence.ErrNotFound
	}
	if s.claimLost[id] || (task.LastReminderSent != nil && task.LastReminderSent.After(cutoff)) {
		return false, nil
	}
	task.LastReminderSent = &at
	s.tasks[id] = task
	s.markedAt[id] = at
	return true, nil
}

func (s *taskStore) ReleaseReminder(_ context.Context, id string, claimedAt time.Time, previous *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok || task.LastReminderSent == nil || !task.LastReminderSent.Equal(claimedAt) {
		return nil
	}
	task.LastReminderSent = previous
	s.tasks[id] = task
	delete(s.markedAt, id)
	s.released[id] = true
	return nil
}

type reviewStore struct {
	mu    sync.Mutex
	items map[string]reviewRow
}

// reviewRow keeps insertion order alongside the item for deterministic listing.
type reviewRow struct {
	seq  int
	item ReviewItem
}

func newReviewStore(seed ...ReviewItem) *reviewStore {
	store := &reviewStore{items: make(map[string]reviewRow)}
	for _, item := range seed {
		store.items[item.ID] = reviewRow{seq: len(store.items), item: item}
	}
	return store
}

func (s *reviewStore) InsertReviewItem(_ context.Context, item ReviewItem) (ReviewItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[item.ID]; ok {
		return ReviewItem{}, persistence.ErrDuplicate
	}
	s.items[item.ID] = reviewRow{seq: len(s.items), item: item}
	return item, nil
}

func (s *reviewStore) GetReviewItem(_ context.Context, id string) (ReviewItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.items[id]
	if !ok {
		return ReviewItem{}, persistence.ErrNotFound
	}
	return r.item, nil
}

func (s *reviewStore) ResolveReviewItem(_ context.Context, item ReviewItem) (ReviewItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.items[item.ID]
	if !ok {
		return ReviewItem{}, persistence.ErrNotFound
	}
	if r.item.Status != ReviewStatusPending {
		return ReviewItem{}, persistence.ErrStaleState
	}
	r.item = item
	s.items[item.ID] = r
	return item, nil
}

func (s *reviewStore) DeleteReviewItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *reviewStore) ListReviewItems(_ context.Context, statuses []string) ([]ReviewItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rows []reviewRow
	for _, r := range s.items {
		if len(statuses) > 0 && !containsString(statuses, r.item.Status) {
			continue
		}
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq > rows[j].seq })
	out := make([]ReviewItem, len(rows))
	for i, r := range rows {
		out[i] = r.item
	}
	return out, nil
}

func (s *reviewStore) all() []ReviewItem {
	items, _ := s.ListReviewItems(context.Background(), nil)
	return items
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

type userStore struct {
	mu    sync.Mutex
	users map[string]UserCredentials
	err   error
}

func newUserStore(users ...UserCredentials) *userStore {
	store := &userStore{users: make(map[string]UserCredentials)}
	for _, u := range users {
		store.users[u.User.ID] = u
	}
	return store
}

func (s *userStore) GetUser(_ context.Context, id string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return User{}, s.err
	}
	creds, ok := s.users[id]
	if !ok {
		return User{}, persistence.ErrNotFound
	}
	return creds.User, nil
}

func (s *userStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	creds, err := s.GetUserCredentialsByEmail(ctx, email)
	return creds.User, err
}

func (s *userStore) GetUserCredentialsByEmail(_ context.Context, email string) (UserCredentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return UserCredentials{}, s.err
	}
	for _, creds := range s.users {
		if creds.User.Email == email {
			return creds, nil
		}
	}
	return UserCredentials{}, persistence.ErrNotFound
}

func (s *userStore) UpsertUser(_ context.Context, creds UserCredentials) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.users {
		if existing.User.Email == creds.User.Email {
			creds.User.ID = id
			creds.User.CreatedAt = existing.User.CreatedAt
			break
		}
	}
	s.users[creds.User.ID] = creds
	return creds.User, nil
}

type conferenceStub struct {
	mu     sync.Mutex
	rooms  int
	issued []ConferenceUser
	err    error
}

func (c *conferenceStub) NewRoomName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms++
	return fmt.Sprintf("room-%d", c.rooms)
}

func (c *conferenceStub) RoomURL(room string) string {
	return "https://video.test/app/" + room
}

func (c *conferenceStub) IssueToken(user ConferenceUser, now time.Time) (string, time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", time.Time{}, c.err
	}
	c.issued = append(c.issued, user)
	return "token-for-" + user.ID, now.Add(2 * time.Hour), nil
}

type drafterStub struct {
	reminder   func(ctx context.Context, req DraftRequest) (EmailDraft, error)
	escalation func(ctx context.Context, req DraftRequest) (EmailDraft, error)
}

func (d drafterStub) DraftReminder(ctx context.Context, req DraftRequest) (EmailDraft, error) {
	if d.reminder != nil {
		return d.reminder(ctx, req)
	}
	return EmailDraft{Subject: "Reminder: " + req.Task.Title, Body: "Hello " + req.RecipientEmail}, nil
}

func (d drafterStub) DraftEscalation(ctx context.Context, req DraftRequest) (EmailDraft, error) {
	if d.escalation != nil {
		return d.escalation(ctx, req)
	}
	return EmailDraft{Subject: "Overdue: " + req.Task.Title, Body: "Escalating to " + req.RecipientEmail}, nil
}

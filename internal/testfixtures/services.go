package testfixtures

import (
	"io"
	"log/slog"
	"time"

	"github.com/example/ai-secretary/internal/application"
	"github.com/example/ai-secretary/internal/drafting"
	"github.com/example/ai-secretary/internal/persistence/adapters"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	if factory.Logger == nil {
		factory.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithLogger routes service logs to logger instead of discarding them.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// Services bundles the application services wired over one storage.
type Services struct {
	Users     *application.UserService
	Auth      *application.AuthService
	Meetings  *application.MeetingService
	Tasks     *application.TaskService
	Reminders *application.ReminderService
	Reviews   *application.ReviewService
	Minutes   *application.MinutesService
}

// ServicesDeps captures optional collaborators. Zero values fall back to the
// template drafter, no conference issuer and a fixed session secret. Without an
// Assistant the minutes operations report application.ErrUnavailable.
type ServicesDeps struct {
	Drafter       application.ReminderDrafter
	Assistant     application.MeetingAssistant
	Conference    application.ConferenceIssuer
	SessionSecret []byte
	SessionTTL    time.Duration
	Reminder      application.ReminderOptions
}

// NewSQLiteServices wires every application service over the harness storage
// using the factory clock and identifier generator.
func (f *ServiceFactory) NewSQLiteServices(h *SQLiteHarness, deps ServicesDeps) *Services {
	users := adapters.NewUsers(h.Storage)
	meetings := adapters.NewMeetings(h.Storage)
	tasks := adapters.NewTasks(h.Storage)
	reviews := adapters.NewReviews(h.Storage)

	drafter := deps.Drafter
	if drafter == nil {
		drafter = drafting.TemplateDrafter{}
	}
	secret := deps.SessionSecret
	if len(secret) == 0 {
		secret = []byte("fixture-session-secret")
	}

	idGen := f.IDGenerator.NextFunc()
	now := f.Clock.NowFunc()

	taskService := application.NewTaskServiceWithLogger(tasks, users, idGen, now, f.Logger)
	return &Services{
		Users:     application.NewUserServiceWithLogger(users, fastHash, idGen, now, f.Logger),
		Auth:      application.NewAuthServiceWithLogger(users, secret, nil, now, deps.SessionTTL, f.Logger),
		Meetings:  application.NewMeetingServiceWithLogger(meetings, users, deps.Conference, idGen, now, f.Logger),
		Tasks:     taskService,
		Reminders: application.NewReminderServiceWithLogger(tasks, reviews, drafter, deps.Reminder, idGen, now, f.Logger),
		Reviews:   application.NewReviewServiceWithLogger(reviews, taskService, now, f.Logger),
		Minutes:   application.NewMinutesServiceWithLogger(meetings, reviews, deps.Assistant, idGen, now, f.Logger),
	}
}

// fastHash keeps argon2id but with parameters cheap enough for tests.
func fastHash(password string) (string, error) {
	return application.CreatePasswordHash(password, application.Argon2idParams{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
}

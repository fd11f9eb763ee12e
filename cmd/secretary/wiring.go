package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/example/ai-secretary/internal/application"
	"github.com/example/ai-secretary/internal/conference"
	"github.com/example/ai-secretary/internal/config"
	"github.com/example/ai-secretary/internal/drafting"
	httptransport "github.com/example/ai-secretary/internal/http"
	"github.com/example/ai-secretary/internal/persistence/adapters"
	"github.com/example/ai-secretary/internal/persistence/sqlite"
)

// services holds the application layer built over one storage.
type services struct {
	users     *application.UserService
	auth      *application.AuthService
	meetings  *application.MeetingService
	tasks     *application.TaskService
	reminders *application.ReminderService
	reviews   *application.ReviewService
	minutes   *application.MinutesService
}

func newID() string {
	return uuid.NewString()
}

func buildServices(cfg config.Config, storage *sqlite.Storage, logger *slog.Logger, now func() time.Time) (*services, error) {
	drafter, assistant, err := newDrafter(cfg.LLM, logger)
	if err != nil {
		return nil, err
	}
	issuer, err := newConferenceIssuer(cfg.JaaS)
	if err != nil {
		return nil, err
	}

	userRepo := adapters.NewUsers(storage)
	meetingRepo := adapters.NewMeetings(storage)
	taskRepo := adapters.NewTasks(storage)
	reviewRepo := adapters.NewReviews(storage)

	options := application.ReminderOptions{
		Concurrency: cfg.Reminder.Concurrency,
		TaskTimeout: cfg.Reminder.Timeout,
	}

	taskService := application.NewTaskServiceWithLogger(taskRepo, userRepo, newID, now, logger)
	return &services{
		users:     application.NewUserServiceWithLogger(userRepo, nil, newID, now, logger),
		auth:      application.NewAuthServiceWithLogger(userRepo, []byte(cfg.SessionSecret), application.VerifyPassword, now, cfg.SessionTTL, logger),
		meetings:  application.NewMeetingServiceWithLogger(meetingRepo, userRepo, issuer, newID, now, logger),
		tasks:     taskService,
		reminders: application.NewReminderServiceWithLogger(taskRepo, reviewRepo, drafter, options, newID, now, logger),
		reviews:   application.NewReviewServiceWithLogger(reviewRepo, taskService, now, logger),
		minutes:   application.NewMinutesServiceWithLogger(meetingRepo, reviewRepo, assistant, newID, now, logger),
	}, nil
}

// newDrafter prefers the LLM endpoint and falls back to fixed templates. The
// meeting assistant has no template fallback and is nil without an endpoint.
func newDrafter(cfg config.LLMConfig, logger *slog.Logger) (application.ReminderDrafter, application.MeetingAssistant, error) {
	if !cfg.Enabled() {
		return drafting.TemplateDrafter{}, nil, nil
	}
	client, err := drafting.NewClient(drafting.ClientConfig{
		BaseURL:           cfg.BaseURL,
		APIKey:            cfg.APIKey,
		Model:             cfg.Model,
		Timeout:           cfg.Timeout,
		MaxRetries:        cfg.MaxRetries,
		RequestsPerSecond: cfg.RequestsPerSecond,
	}, nil, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("llm client: %w", err)
	}
	return drafting.NewLLMDrafter(client), drafting.NewLLMAssistant(client), nil
}

// newConferenceIssuer returns a nil interface when JaaS is not configured.
func newConferenceIssuer(cfg config.JaaSConfig) (application.ConferenceIssuer, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	issuer, err := conference.LoadIssuer(conference.Config{
		AppID:          cfg.AppID,
		APIKeyID:       cfg.APIKeyID,
		PrivateKeyPath: cfg.PrivateKeyPath,
	})
	if err != nil {
		return nil, err
	}
	return issuer, nil
}

func newHandler(svc *services, logger *slog.Logger, now func() time.Time) http.Handler {
	return httptransport.NewRouter(httptransport.RouterConfig{
		Auth:      httptransport.NewAuthHandler(svc.auth, logger),
		Meetings:  httptransport.NewMeetingHandler(svc.meetings, logger),
		Tasks:     httptransport.NewTaskHandler(svc.tasks, logger),
		Reminders: httptransport.NewReminderHandler(svc.reminders, logger),
		Reviews:   httptransport.NewReviewHandler(svc.reviews, logger),
		Minutes:   httptransport.NewMinutesHandler(svc.minutes, logger),
		Calendar:  httptransport.NewCalendarHandler(svc.meetings, now, logger),
		Session:   httptransport.RequireSession(svc.auth, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
		},
	})
}

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/ai-secretary/internal/application"
)

// MigrateCmd applies pending migrations or, with --status, only reports them.
type MigrateCmd struct {
	Status bool `help:"Only print the migration status."`
}

func (c *MigrateCmd) Run(rt *runtime) error {
	env, err := rt.open(false)
	if err != nil {
		return err
	}
	defer env.release()

	if !c.Status {
		if err := env.storage.Migrate(rt.ctx); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	status, err := env.storage.MigrationStatus(rt.ctx)
	if err != nil {
		return fmt.Errorf("migration status: %w", err)
	}

	current := status.CurrentVersion
	if current == "" {
		current = "none"
	}
	fmt.Fprintf(rt.stdout, "current version: %s\n", current)
	fmt.Fprintf(rt.stdout, "applied: %d\n", len(status.AppliedMigrations))
	fmt.Fprintf(rt.stdout, "pending: %d\n", status.PendingCount)
	return nil
}

// RemindCmd performs one reminder sweep and exits non-zero when a task failed.
type RemindCmd struct{}

var errReminderFailures = errors.New("some reminders could not be drafted")

func (c *RemindCmd) Run(rt *runtime) error {
	env, err := rt.open(true)
	if err != nil {
		return err
	}
	defer env.release()

	svc, err := buildServices(env.cfg, env.storage, env.logger, time.Now)
	if err != nil {
		return err
	}
	run, err := svc.reminders.GenerateReminders(rt.ctx, application.SystemPrincipal)
	if err != nil {
		return err
	}

	fmt.Fprintf(rt.stdout, "eligible: %d\n", run.Eligible)
	for _, created := range run.Created {
		fmt.Fprintf(rt.stdout, "drafted task=%s review=%s\n", created.TaskID, created.ReviewID)
	}
	for _, taskID := range run.Skipped {
		fmt.Fprintf(rt.stdout, "skipped task=%s (reminded by another run)\n", taskID)
	}
	for _, failure := range run.Failures {
		fmt.Fprintf(rt.stdout, "failed task=%s error=%v\n", failure.TaskID, failure.Err)
	}
	if len(run.Failures) > 0 {
		return fmt.Errorf("%w: %d of %d", errReminderFailures, len(run.Failures), run.Eligible)
	}
	return nil
}

// UserAddCmd registers an account.
type UserAddCmd struct {
	Email    string `required:"" help:"Login email address."`
	Name     string `required:"" help:"Display name."`
	Password string `required:"" env:"SECRETARY_USER_PASSWORD" help:"Initial password."`
	Admin    bool   `help:"Grant administrator rights."`
}

func (c *UserAddCmd) Run(rt *runtime) error {
	env, err := rt.open(true)
	if err != nil {
		return err
	}
	defer env.release()

	svc, err := buildServices(env.cfg, env.storage, env.logger, time.Now)
	if err != nil {
		return err
	}
	user, err := svc.users.RegisterUser(rt.ctx, application.RegisterUserParams{
		Email:       c.Email,
		DisplayName: c.Name,
		Password:    c.Password,
		IsAdmin:     c.Admin,
	})
	if err != nil {
		return fmt.Errorf("register user: %w", err)
	}
	fmt.Fprintf(rt.stdout, "user %s <%s> id=%s admin=%t\n", user.DisplayName, user.Email, user.ID, user.IsAdmin)
	return nil
}

package drafting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/example/ai-secretary/internal/application"
)

const (
	reminderSystemPrompt = "You are an AI secretary. Draft a professional, concise and neutral reminder email " +
		"for a task approaching its deadline. Start with a line of the form \"Subject: ...\" followed by the body."
	escalationSystemPrompt = "You are an AI secretary. Draft a professional escalation email for an overdue or " +
		"blocked task. Be factual and neutral. Start with a line of the form \"Subject: ...\" followed by the body."

	defaultReminderSubject   = "Task Reminder"
	defaultEscalationSubject = "Task Escalation Notice"
)

// Completer returns the assistant reply for a conversation.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// LLMDrafter drafts reminder and escalation emails with a language model.
type LLMDrafter struct {
	completer Completer
}

// NewLLMDrafter wraps a Completer, typically a *Client.
func NewLLMDrafter(completer Completer) *LLMDrafter {
	return &LLMDrafter{completer: completer}
}

// DraftReminder drafts a reminder for a task approaching its deadline.
func (d *LLMDrafter) DraftReminder(ctx context.Context, req application.DraftRequest) (application.EmailDraft, error) {
	return d.draft(ctx, reminderSystemPrompt, "Draft a reminder email for this task:", req, defaultReminderSubject)
}

// DraftEscalation drafts an escalation for an overdue or blocked task.
func (d *LLMDrafter) DraftEscalation(ctx context.Context, req application.DraftRequest) (application.EmailDraft, error) {
	return d.draft(ctx, escalationSystemPrompt, "Draft an escalation email for this overdue task:", req, defaultEscalationSubject)
}

func (d *LLMDrafter) draft(ctx context.Context, system, lead string, req application.DraftRequest, fallbackSubject string) (application.EmailDraft, error) {
	if d == nil || d.completer == nil {
		return application.EmailDraft{}, application.ErrUnavailable
	}
	reply, err := d.completer.Complete(ctx, []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: lead + "\n" + describeTask(req)},
	})
	if err != nil {
		return application.EmailDraft{}, err
	}
	return parseDraft(reply, fallbackSubject), nil
}

func describeTask(req application.DraftRequest) string {
	task := req.Task
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", task.Title)
	fmt.Fprintf(&b, "Description: %s\n", orDefault(task.Description, "No description"))
	fmt.Fprintf(&b, "Deadline: %s\n", formatDeadline(task.Deadline))
	fmt.Fprintf(&b, "Status: %s\n", task.Status)
	fmt.Fprintf(&b, "Priority: %s\n", task.Priority)
	fmt.Fprintf(&b, "Recipient: %s\n", req.RecipientEmail)
	if !req.Now.IsZero() {
		fmt.Fprintf(&b, "Today: %s\n", req.Now.UTC().Format(time.DateOnly))
	}
	return b.String()
}

// parseDraft splits a leading "Subject:" line from the body. Replies without
// one keep their full text as the body.
func parseDraft(reply, fallbackSubject string) application.EmailDraft {
	text := strings.TrimSpace(reply)
	first, rest, _ := strings.Cut(text, "\n")
	if label, subject, ok := strings.Cut(first, ":"); ok && strings.EqualFold(strings.TrimSpace(label), "subject") {
		if subject = strings.TrimSpace(subject); subject != "" {
			return application.EmailDraft{Subject: subject, Body: strings.TrimSpace(rest)}
		}
	}
	return application.EmailDraft{Subject: fallbackSubject, Body: text}
}

func formatDeadline(deadline *time.Time) string {
	if deadline == nil {
		return "No deadline"
	}
	return deadline.UTC().Format(time.DateOnly)
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

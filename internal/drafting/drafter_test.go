package drafting

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/ai-secretary/internal/application"
)

type completerStub struct {
	reply    string
	err      error
	messages []Message
}

func (c *completerStub) Complete(_ context.Context, messages []Message) (string, error) {
	c.messages = messages
	return c.reply, c.err
}

func sampleRequest() application.DraftRequest {
	deadline := time.Date(2024, 3, 12, 17, 0, 0, 0, time.UTC)
	return application.DraftRequest{
		Task: application.Task{
			ID:       "t-1",
			Title:    "Send board deck",
			Deadline: &deadline,
			Priority: application.TaskPriorityHigh,
			Status:   application.TaskStatusOpen,
		},
		RecipientEmail: "owner@example.com",
		Now:            time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC),
	}
}

func TestParseDraft(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		reply   string
		subject string
		body    string
	}{
		{name: "subject line", reply: "Subject: Deck due tomorrow\n\nHi Ann,\nplease send it.", subject: "Deck due tomorrow", body: "Hi Ann,\nplease send it."},
		{name: "case insensitive label", reply: "SUBJECT:Ping\nBody", subject: "Ping", body: "Body"},
		{name: "no subject", reply: "Hi Ann,\nplease send it.", subject: "Fallback", body: "Hi Ann,\nplease send it."},
		{name: "empty subject", reply: "Subject:   \nBody", subject: "Fallback", body: "Subject:   \nBody"},
		{name: "colon in first line", reply: "Note: urgent\nBody", subject: "Fallback", body: "Note: urgent\nBody"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := parseDraft(tc.reply, "Fallback")
			if got.Subject != tc.subject || got.Body != tc.body {
				t.Fatalf("expected %q/%q, got %q/%q", tc.subject, tc.body, got.Subject, got.Body)
			}
		})
	}
}

func TestLLMDrafter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("prompts with the task details", func(t *testing.T) {
		t.Parallel()
		stub := &completerStub{reply: "Subject: Reminder\nPlease send the deck."}
		draft, err := NewLLMDrafter(stub).DraftReminder(ctx, sampleRequest())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if draft.Subject != "Reminder" || draft.Body != "Please send the deck." {
			t.Fatalf("unexpected draft %+v", draft)
		}
		if len(stub.messages) != 2 || stub.messages[0].Role != "system" {
			t.Fatalf("expected system and user messages, got %+v", stub.messages)
		}
		prompt := stub.messages[1].Content
		for _, want := range []string{"Send board deck", "Deadline: 2024-03-12", "Priority: high", "No description"} {
			if !strings.Contains(prompt, want) {
				t.Errorf("expected prompt to contain %q, got %q", want, prompt)
			}
		}
	})

	t.Run("falls back to the escalation subject", func(t *testing.T) {
		t.Parallel()
		stub := &completerStub{reply: "The deck is two days late."}
		draft, err := NewLLMDrafter(stub).DraftEscalation(ctx, sampleRequest())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if draft.Subject != defaultEscalationSubject {
			t.Fatalf("expected fallback subject, got %q", draft.Subject)
		}
		if !strings.Contains(stub.messages[0].Content, "escalation") {
			t.Fatalf("expected escalation system prompt, got %q", stub.messages[0].Content)
		}
	})

	t.Run("propagates completion errors", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("upstream down")
		if _, err := NewLLMDrafter(&completerStub{err: boom}).DraftReminder(ctx, sampleRequest()); !errors.Is(err, boom) {
			t.Fatalf("expected upstream error, got %v", err)
		}
	})

	t.Run("is unavailable without a completer", func(t *testing.T) {
		t.Parallel()
		if _, err := NewLLMDrafter(nil).DraftReminder(ctx, sampleRequest()); !errors.Is(err, application.ErrUnavailable) {
			t.Fatalf("expected ErrUnavailable, got %v", err)
		}
	})
}

func TestTemplateDrafter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	var drafter application.ReminderDrafter = TemplateDrafter{}

	reminder, err := drafter.DraftReminder(ctx, sampleRequest())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if reminder.Subject != "Reminder: Send board deck is due 2024-03-12" {
		t.Fatalf("unexpected reminder subject %q", reminder.Subject)
	}
	if !strings.Contains(reminder.Body, "Description: No description") {
		t.Fatalf("expected description fallback in body, got %q", reminder.Body)
	}

	req := sampleRequest()
	req.Task.Deadline = nil
	escalation, err := drafter.DraftEscalation(ctx, req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if escalation.Subject != "Escalation: Send board deck is overdue" {
		t.Fatalf("unexpected escalation subject %q", escalation.Subject)
	}
	if !strings.Contains(escalation.Body, "Deadline: No deadline") || !strings.Contains(escalation.Body, "Status: open") {
		t.Fatalf("unexpected escalation body %q", escalation.Body)
	}
}

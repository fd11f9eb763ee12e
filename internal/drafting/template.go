package drafting

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/example/ai-secretary/internal/application"
)

var templateFuncs = template.FuncMap{
	"deadline":  formatDeadline,
	"orDefault": pipedDefault,
}

// pipedDefault takes the fallback first so templates can write
// {{.Field | orDefault "text"}}.
func pipedDefault(fallback, value string) string {
	return orDefault(value, fallback)
}

var (
	reminderSubject = template.Must(template.New("reminder-subject").Funcs(templateFuncs).Parse(
		`Reminder: {{.Task.Title}} is due {{deadline .Task.Deadline}}`))
	reminderBody = template.Must(template.New("reminder-body").Funcs(templateFuncs).Parse(`Hello,

This is a friendly reminder that the following task is due soon.

Title: {{.Task.Title}}
Description: {{.Task.Description | orDefault "No description"}}
Deadline: {{deadline .Task.Deadline}}
Priority: {{.Task.Priority}}

Please let us know if anything is blocking you.

Best regards,
AI Secretary`))

	escalationSubject = template.Must(template.New("escalation-subject").Funcs(templateFuncs).Parse(
		`Escalation: {{.Task.Title}} is overdue`))
	escalationBody = template.Must(template.New("escalation-body").Funcs(templateFuncs).Parse(`Hello,

The following task has passed its deadline and needs attention.

Title: {{.Task.Title}}
Description: {{.Task.Description | orDefault "No description"}}
Deadline: {{deadline .Task.Deadline}}
Status: {{.Task.Status}}
Priority: {{.Task.Priority}}

Please share an updated plan or a new deadline.

Best regards,
AI Secretary`))
)

// TemplateDrafter renders deterministic drafts without calling a model.
type TemplateDrafter struct{}

// DraftReminder renders the reminder template.
func (TemplateDrafter) DraftReminder(_ context.Context, req application.DraftRequest) (application.EmailDraft, error) {
	return render(reminderSubject, reminderBody, req)
}

// DraftEscalation renders the escalation template.
func (TemplateDrafter) DraftEscalation(_ context.Context, req application.DraftRequest) (application.EmailDraft, error) {
	return render(escalationSubject, escalationBody, req)
}

func render(subject, body *template.Template, req application.DraftRequest) (application.EmailDraft, error) {
	var s, b bytes.Buffer
	if err := subject.Execute(&s, req); err != nil {
		return application.EmailDraft{}, fmt.Errorf("render subject: %w", err)
	}
	if err := body.Execute(&b, req); err != nil {
		return application.EmailDraft{}, fmt.Errorf("render body: %w", err)
	}
	return application.EmailDraft{Subject: s.String(), Body: b.String()}, nil
}

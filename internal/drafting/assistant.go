package drafting

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/example/ai-secretary/internal/application"
)

const (
	summarySystemPrompt = "You are an AI secretary. Write a well-formatted professional meeting summary in Markdown " +
		"with the sections Meeting Overview, Attendees, Key Discussion Points, Decisions Made, Action Items and Next Steps."
	actionItemsSystemPrompt = "You are an AI secretary. Extract the action items agreed in a meeting transcript. " +
		"Reply with JSON only, shaped as {\"items\":[{\"description\":\"...\",\"owner\":\"email or name\"," +
		"\"deadline\":\"YYYY-MM-DD\",\"priority\":\"low|medium|high|urgent\"}]}. " +
		"Use an empty string for anything the transcript does not state."
	translateSystemPrompt = "You are a professional translator. Translate the user's text to English, keeping its " +
		"meaning, tone and formatting. If the text is already English, return it unchanged. Reply with the translation only."
)

// LLMAssistant summarizes meetings, extracts action items and translates text
// with a language model.
type LLMAssistant struct {
	completer Completer
}

// NewLLMAssistant wraps a Completer, typically a *Client.
func NewLLMAssistant(completer Completer) *LLMAssistant {
	return &LLMAssistant{completer: completer}
}

// SummarizeMeeting returns a Markdown summary of the transcript.
func (a *LLMAssistant) SummarizeMeeting(ctx context.Context, req application.MinutesRequest) (string, error) {
	return a.complete(ctx, summarySystemPrompt, "Summarize this meeting.\n"+describeMeeting(req))
}

// ExtractActionItems returns the action items the model found in the transcript.
func (a *LLMAssistant) ExtractActionItems(ctx context.Context, req application.MinutesRequest) ([]application.ActionItem, error) {
	reply, err := a.complete(ctx, actionItemsSystemPrompt, "Extract the action items from this meeting.\n"+describeMeeting(req))
	if err != nil {
		return nil, err
	}
	return parseActionItems(reply)
}

// Translate returns text rendered in English.
func (a *LLMAssistant) Translate(ctx context.Context, text string) (string, error) {
	return a.complete(ctx, translateSystemPrompt, text)
}

func (a *LLMAssistant) complete(ctx context.Context, system, user string) (string, error) {
	if a == nil || a.completer == nil {
		return "", application.ErrUnavailable
	}
	reply, err := a.completer.Complete(ctx, []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

func describeMeeting(req application.MinutesRequest) string {
	meeting := req.Meeting
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", meeting.Title)
	if !meeting.Start.IsZero() {
		fmt.Fprintf(&b, "Date: %s\n", meeting.Start.UTC().Format(time.DateOnly))
	}
	if len(meeting.Participants) > 0 {
		fmt.Fprintf(&b, "Participants: %s\n", strings.Join(meeting.Participants, ", "))
	}
	fmt.Fprintf(&b, "Transcript:\n%s\n", req.Transcript)
	return b.String()
}

type extractedItems struct {
	Items []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Owner       string `json:"owner"`
		Deadline    string `json:"deadline"`
		Priority    string `json:"priority"`
	} `json:"items"`
}

// parseActionItems reads the model's JSON reply, tolerating a Markdown code
// fence or prose around the object.
func parseActionItems(reply string) ([]application.ActionItem, error) {
	start, end := strings.Index(reply, "{"), strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("action items reply is not JSON: %q", truncate(reply, 80))
	}
	var decoded extractedItems
	if err := json.Unmarshal([]byte(reply[start:end+1]), &decoded); err != nil {
		return nil, fmt.Errorf("decode action items: %w", err)
	}

	items := make([]application.ActionItem, 0, len(decoded.Items))
	for _, raw := range decoded.Items {
		item := application.ActionItem{
			Title:    stated(raw.Title),
			Deadline: stated(raw.Deadline),
			Priority: stated(raw.Priority),
		}
		description := stated(raw.Description)
		if item.Title == "" {
			item.Title = description
		} else {
			item.Description = description
		}
		if owner := stated(raw.Owner); strings.Contains(owner, "@") {
			item.OwnerEmail = owner
		}
		items = append(items, item)
	}
	return items, nil
}

// stated blanks the placeholders models use for missing values.
func stated(value string) string {
	value = strings.TrimSpace(value)
	switch strings.ToLower(value) {
	case "none", "n/a", "tbd", "unknown", "not specified", "unassigned":
		return ""
	}
	return value
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "..."
}

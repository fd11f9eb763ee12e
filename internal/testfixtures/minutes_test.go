package testfixtures

import (
	"context"
	"errors"
	"testing"

	"github.com/example/ai-secretary/internal/application"
	"github.com/example/ai-secretary/internal/drafting"
)

// cannedCompleter answers every conversation with the same reply.
type cannedCompleter string

func (c cannedCompleter) Complete(context.Context, []drafting.Message) (string, error) {
	return string(c), nil
}

func TestSQLiteServicesExtractedActionItemsBecomeTasks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	harness := NewSQLiteHarness(t)
	factory := NewServiceFactory(WithIDGenerator(NewIDGenerator("min")))

	reviewer := harness.SeedUser(t, NewUser(AsAdmin()))
	assignee := harness.SeedUser(t, NewUser())
	meeting := harness.SeedMeeting(t, NewMeeting(reviewer.ID))

	reply := `{"items":[{"description":"Send the deck","owner":"` + assignee.Email + `","deadline":"2024-03-15"},` +
		`{"description":"Find a venue","owner":"Not specified","deadline":"none"}]}`
	services := factory.NewSQLiteServices(harness, ServicesDeps{
		Assistant: drafting.NewLLMAssistant(cannedCompleter(reply)),
	})

	principal := application.Principal{UserID: reviewer.ID, IsAdmin: true}
	item, err := services.Minutes.ExtractActionItems(ctx, application.GenerateMinutesParams{
		Principal:  principal,
		MeetingID:  meeting.ID,
		Transcript: "Ann: the deck goes out Friday. We still need a venue.",
	})
	if err != nil {
		t.Fatalf("extract action items: %v", err)
	}

	pending, err := services.Reviews.ListPending(ctx, principal)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != item.ID || pending[0].MeetingID != meeting.ID {
		t.Fatalf("expected the action items to wait for review, got %+v", pending)
	}

	result, err := services.Reviews.Approve(ctx, application.ApproveReviewParams{Principal: principal, ReviewID: item.ID})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if len(result.CreatedTaskIDs) != 1 {
		t.Fatalf("expected one task for the owned action item, got %v", result.CreatedTaskIDs)
	}
	task, err := services.Tasks.GetTask(ctx, principal, result.CreatedTaskIDs[0])
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if task.Title != "Send the deck" || task.OwnerID != assignee.ID || task.MeetingID != meeting.ID || task.Deadline == nil {
		t.Fatalf("unexpected task %+v", task)
	}
}

func TestSQLiteServicesMinutesWithoutAssistant(t *testing.T) {
	t.Parallel()

	harness := NewSQLiteHarness(t)
	services := NewServiceFactory().NewSQLiteServices(harness, ServicesDeps{})
	owner := harness.SeedUser(t, NewUser())
	meeting := harness.SeedMeeting(t, NewMeeting(owner.ID))

	_, err := services.Minutes.GenerateSummary(context.Background(), application.GenerateMinutesParams{
		Principal:  application.Principal{UserID: owner.ID},
		MeetingID:  meeting.ID,
		Transcript: "notes",
	})
	if !errors.Is(err, application.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

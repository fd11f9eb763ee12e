package http

import (
	"net/http"
	"testing"

	"github.com/example/ai-secretary/internal/application"
)

func TestReviewHandler_List(t *testing.T) {
	t.Parallel()

	cases := []struct {
		query  string
		status int
		call   string
	}{
		{query: "", status: http.StatusOK, call: "pending"},
		{query: "?state=pending", status: http.StatusOK, call: "pending"},
		{query: "?state=completed", status: http.StatusOK, call: "completed"},
		{query: "?state=archived", status: http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run("state"+tc.query, func(t *testing.T) {
			t.Parallel()
			router, svc := newTestRouter(t)
			rec := doRequest(t, router, http.MethodGet, "/reviews"+tc.query, "user-token", "")
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			if tc.call == "" {
				if len(svc.reviews.calls) != 0 {
					t.Fatalf("expected no service call, got %v", svc.reviews.calls)
				}
				return
			}
			if len(svc.reviews.calls) != 1 || svc.reviews.calls[0] != tc.call {
				t.Fatalf("expected %s, got %v", tc.call, svc.reviews.calls)
			}
		})
	}
}

func TestReviewHandler_Decisions(t *testing.T) {
	t.Parallel()

	pending := application.ReviewItem{
		ID:       "r-1",
		Type:     application.ReviewTypeEmailDraft,
		Status:   application.ReviewStatusEdited,
		Title:    "Reminder",
		Content:  "edited body",
		Metadata: application.ReviewMetadata{TaskID: "t-1", IsReminder: true},
	}

	t.Run("approve forwards edits and notes", func(t *testing.T) {
		t.Parallel()
		router, svc := newTestRouter(t)
		svc.reviews.items = []application.ReviewItem{pending}
		rec := doRequest(t, router, http.MethodPost, "/reviews/r-1/approve", "user-token", `{"edited_content":"edited body","notes":"tightened"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		params := svc.reviews.lastApprove
		if params.ReviewID != "r-1" || params.EditedContent == nil || *params.EditedContent != "edited body" || params.Notes != "tightened" {
			t.Fatalf("unexpected approve params %+v", params)
		}
		body := decodeBody[approveResponse](t, rec)
		if body.Item.Status != application.ReviewStatusEdited || !body.Item.Metadata.IsReminder || body.CreatedTaskIDs == nil {
			t.Fatalf("unexpected approve response %+v", body)
		}
	})

	t.Run("approve accepts an empty body", func(t *testing.T) {
		t.Parallel()
		router, svc := newTestRouter(t)
		svc.reviews.createdIDs = []string{"t-7", "t-8"}
		rec := doRequest(t, router, http.MethodPost, "/reviews/r-1/approve", "user-token", "")
		if rec.Code != http.StatusOK || svc.reviews.lastApprove.EditedContent != nil {
			t.Fatalf("expected plain approval, got %d %+v", rec.Code, svc.reviews.lastApprove)
		}
		if body := decodeBody[approveResponse](t, rec); len(body.CreatedTaskIDs) != 2 {
			t.Fatalf("expected created task ids, got %+v", body.CreatedTaskIDs)
		}
	})

	t.Run("already reviewed items conflict", func(t *testing.T) {
		t.Parallel()
		router, svc := newTestRouter(t)
		svc.reviews.err = application.ErrInvalidState
		rec := doRequest(t, router, http.MethodPost, "/reviews/r-1/reject", "user-token", `{"notes":"no"}`)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		if svc.reviews.lastReject.Notes != "no" {
			t.Fatalf("expected notes forwarded, got %+v", svc.reviews.lastReject)
		}
	})

	t.Run("malformed decision bodies are rejected", func(t *testing.T) {
		t.Parallel()
		router, svc := newTestRouter(t)
		rec := doRequest(t, router, http.MethodPost, "/reviews/r-1/reject", "user-token", `{"notes":`)
		if rec.Code != http.StatusBadRequest || len(svc.reviews.calls) != 0 {
			t.Fatalf("expected 400 without a service call, got %d %v", rec.Code, svc.reviews.calls)
		}
	})

	t.Run("get and delete use the path id", func(t *testing.T) {
		t.Parallel()
		router, svc := newTestRouter(t)
		svc.reviews.items = []application.ReviewItem{pending}
		if rec := doRequest(t, router, http.MethodGet, "/reviews/r-1", "user-token", ""); rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if rec := doRequest(t, router, http.MethodDelete, "/reviews/r-1", "user-token", ""); rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if svc.reviews.lastID != "r-1" {
			t.Fatalf("expected r-1, got %q", svc.reviews.lastID)
		}
	})
}

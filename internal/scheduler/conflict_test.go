package scheduler

import (
	"testing"
	"time"
)

func intPtr(v int) *int {
	return &v
}

func mustUTC(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("failed to parse %q: %v", value, err)
	}
	return parsed
}

func TestOverlaps(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 2, 1, 14, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		startB    time.Time
		durationA *int
		durationB *int
		want      bool
	}{
		{name: "partial overlap", startB: base.Add(30 * time.Minute), durationA: intPtr(60), durationB: intPtr(60), want: true},
		{name: "back to back", startB: base.Add(time.Hour), durationA: intPtr(60), durationB: intPtr(60), want: false},
		{name: "ends exactly when other starts", startB: base.Add(-time.Hour), durationA: intPtr(60), durationB: intPtr(60), want: false},
		{name: "contained", startB: base.Add(10 * time.Minute), durationA: intPtr(90), durationB: intPtr(15), want: true},
		{name: "identical start", startB: base, durationA: intPtr(1), durationB: intPtr(1), want: true},
		{name: "default duration applies", startB: base.Add(59 * time.Minute), durationA: nil, durationB: nil, want: true},
		{name: "default duration boundary", startB: base.Add(60 * time.Minute), durationA: nil, durationB: intPtr(30), want: false},
		{name: "zero duration means default", startB: base.Add(59 * time.Minute), durationA: intPtr(0), durationB: intPtr(30), want: true},
		{name: "negative duration means default", startB: base.Add(60 * time.Minute), durationA: intPtr(-15), durationB: intPtr(30), want: false},
		{name: "far apart", startB: base.Add(5 * time.Hour), durationA: intPtr(60), durationB: intPtr(60), want: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Overlaps(base, tc.durationA, tc.startB, tc.durationB)
			if got != tc.want {
				t.Fatalf("expected overlap %v, got %v", tc.want, got)
			}
			if reverse := Overlaps(tc.startB, tc.durationB, base, tc.durationA); reverse != got {
				t.Fatalf("expected overlap to be symmetric, got %v and %v", got, reverse)
			}
		})
	}
}

func TestOverlapsComparesInstantsAcrossZones(t *testing.T) {
	t.Parallel()

	utc := time.Date(2026, 2, 1, 14, 0, 0, 0, time.UTC)
	tokyo := utc.In(time.FixedZone("JST", 9*60*60)).Add(30 * time.Minute)

	if !Overlaps(utc, nil, tokyo, nil) {
		t.Fatalf("expected meetings in different zones to overlap")
	}
}

func TestFindConflicts(t *testing.T) {
	t.Parallel()

	m1 := Meeting{
		ID:              "m1",
		Title:           "Planning",
		Start:           mustUTC(t, "2026-02-01T14:00:00Z"),
		DurationMinutes: intPtr(60),
		Status:          MeetingStatusScheduled,
	}

	t.Run("overlapping candidate conflicts", func(t *testing.T) {
		t.Parallel()
		got := FindConflicts(mustUTC(t, "2026-02-01T14:30:00Z"), intPtr(60), "", []Meeting{m1})
		if len(got) != 1 || got[0].ID != "m1" {
			t.Fatalf("expected conflict with m1, got %+v", got)
		}
	})

	t.Run("back to back candidate does not conflict", func(t *testing.T) {
		t.Parallel()
		got := FindConflicts(mustUTC(t, "2026-02-01T15:00:00Z"), intPtr(60), "", []Meeting{m1})
		if len(got) != 0 {
			t.Fatalf("expected no conflicts, got %+v", got)
		}
	})

	t.Run("cancelled meetings are ignored", func(t *testing.T) {
		t.Parallel()
		cancelled := m1
		cancelled.Status = MeetingStatusCancelled
		got := FindConflicts(mustUTC(t, "2026-02-01T14:00:00Z"), intPtr(60), "", []Meeting{cancelled})
		if len(got) != 0 {
			t.Fatalf("expected cancelled meeting to be ignored, got %+v", got)
		}
	})

	t.Run("excluded meeting is never reported", func(t *testing.T) {
		t.Parallel()
		got := FindConflicts(m1.Start, m1.DurationMinutes, "m1", []Meeting{m1})
		if len(got) != 0 {
			t.Fatalf("expected excluded meeting to be skipped, got %+v", got)
		}
	})

	t.Run("completed meetings still participate", func(t *testing.T) {
		t.Parallel()
		completed := m1
		completed.Status = MeetingStatusCompleted
		got := FindConflicts(m1.Start, nil, "", []Meeting{completed})
		if len(got) != 1 {
			t.Fatalf("expected completed meeting to conflict, got %+v", got)
		}
	})

	t.Run("empty input yields empty result", func(t *testing.T) {
		t.Parallel()
		got := FindConflicts(m1.Start, nil, "", nil)
		if got == nil || len(got) != 0 {
			t.Fatalf("expected empty non-nil result, got %#v", got)
		}
	})

	t.Run("result keeps input order", func(t *testing.T) {
		t.Parallel()
		meetings := []Meeting{
			{ID: "c", Start: mustUTC(t, "2026-02-01T14:45:00Z"), Status: MeetingStatusScheduled},
			{ID: "a", Start: mustUTC(t, "2026-02-01T13:30:00Z"), Status: MeetingStatusScheduled},
			{ID: "skip", Start: mustUTC(t, "2026-02-01T18:00:00Z"), Status: MeetingStatusScheduled},
			{ID: "b", Start: mustUTC(t, "2026-02-01T14:00:00Z"), Status: MeetingStatusScheduled},
		}
		got := FindConflicts(mustUTC(t, "2026-02-01T14:00:00Z"), intPtr(60), "", meetings)
		want := []string{"c", "a", "b"}
		if len(got) != len(want) {
			t.Fatalf("expected %d conflicts, got %d", len(want), len(got))
		}
		for i, id := range want {
			if got[i].ID != id {
				t.Fatalf("expected conflict %d to be %s, got %s", i, id, got[i].ID)
			}
		}
	})
}

func TestMeetingEnd(t *testing.T) {
	t.Parallel()

	start := mustUTC(t, "2026-02-01T14:00:00Z")
	if got := (Meeting{Start: start}).End(); !got.Equal(start.Add(time.Hour)) {
		t.Fatalf("expected default end one hour later, got %s", got)
	}
	if got := (Meeting{Start: start, DurationMinutes: intPtr(15)}).End(); !got.Equal(start.Add(15 * time.Minute)) {
		t.Fatalf("expected explicit duration to apply, got %s", got)
	}
	if got := (Meeting{Start: start, DurationMinutes: intPtr(0)}).End(); !got.Equal(start.Add(time.Hour)) {
		t.Fatalf("expected a stored zero duration to fall back to one hour, got %s", got)
	}
}

package batch

import (
	"testing"
	"time"

	"github.com/RikitoMorikawa/IPPON-Backend-test-sub001/internal/types"
)

func target(id string, next time.Time) types.ExecutionTarget {
	return types.ExecutionTarget{
		ID:                id,
		ClientID:          "client_1",
		CreatedAt:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		PropertyID:        "prop_1",
		Weekday:           1,
		Cadence:           types.CadenceWeekly,
		AutoGenerate:      true,
		NextExecutionDate: next,
	}
}

func TestSelectDue_WindowBounds(t *testing.T) {
	jst, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("loading Asia/Tokyo: %v", err)
	}
	// Cycle fires at 2024-06-10 02:00 JST; window is (01:00, 02:00].
	now := time.Date(2024, 6, 10, 2, 0, 0, 0, jst)

	tests := []struct {
		name string
		next time.Time
		due  bool
	}{
		{"exactly on now is included", now, true},
		{"inside the window", now.Add(-30 * time.Minute), true},
		{"one second after the lower bound", now.Add(-time.Hour + time.Second), true},
		{"exactly on the lower bound is excluded", now.Add(-time.Hour), false},
		{"before the window", now.Add(-90 * time.Minute), false},
		{"in the future", now.Add(time.Minute), false},
		{"far in the future", now.AddDate(0, 0, 7), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			due := SelectDue(now, []types.ExecutionTarget{target("s1", tc.next)})
			if got := len(due) == 1; got != tc.due {
				t.Errorf("next=%v: due=%v, want %v", tc.next, got, tc.due)
			}
		})
	}
}

func TestSelectDue_ComparesInstantsAcrossZones(t *testing.T) {
	jst, _ := time.LoadLocation("Asia/Tokyo")
	now := time.Date(2024, 6, 10, 2, 0, 0, 0, jst)

	// Same instant expressed in UTC must still be selected.
	utcNext := now.Add(-15 * time.Minute).UTC()
	due := SelectDue(now, []types.ExecutionTarget{target("s1", utcNext)})
	if len(due) != 1 {
		t.Fatalf("expected UTC-expressed instant inside window to be due, got %d", len(due))
	}
}

func TestSelectDue_FiltersMixedSet(t *testing.T) {
	now := time.Date(2024, 6, 10, 2, 0, 0, 0, time.UTC)

	targets := []types.ExecutionTarget{
		target("due_1", now.Add(-10*time.Minute)),
		target("past", now.Add(-2*time.Hour)),
		target("due_2", now),
		target("future", now.Add(time.Hour)),
	}

	due := SelectDue(now, targets)
	if len(due) != 2 {
		t.Fatalf("expected 2 due targets, got %d", len(due))
	}
	if due[0].ID != "due_1" || due[1].ID != "due_2" {
		t.Errorf("unexpected due set: %q, %q", due[0].ID, due[1].ID)
	}
}

func TestSelectDue_EmptyInput(t *testing.T) {
	now := time.Date(2024, 6, 10, 2, 0, 0, 0, time.UTC)
	if due := SelectDue(now, nil); len(due) != 0 {
		t.Errorf("expected no due targets, got %d", len(due))
	}
}

package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func taskWithRecurrence(tag RecurrenceTag, checkedAt *time.Time, completed bool) Task {
	return Task{
		ID:                  "task-1",
		Title:               "Water the plants",
		RecurrenceTag:       tag,
		RecurrenceCheckedAt: checkedAt,
		Completed:           completed,
	}
}

func TestIsCycleSatisfied_CompletedAlwaysWins(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.Local)
	stale := now.Add(-90 * 24 * time.Hour)

	for _, tag := range []RecurrenceTag{RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceBiWeekly} {
		assert.True(t, IsCycleSatisfied(taskWithRecurrence(tag, nil, true), now), "tag %s, nil checkedAt", tag)
		assert.True(t, IsCycleSatisfied(taskWithRecurrence(tag, &stale, true), now), "tag %s, stale checkedAt", tag)
	}
}

func TestIsCycleSatisfied_NoneFollowsCompleted(t *testing.T) {
	now := time.Now()
	checked := now.Add(-time.Minute)

	assert.False(t, IsCycleSatisfied(taskWithRecurrence(RecurrenceNone, nil, false), now))
	// A non-nil checkedAt on a non-recurring task is inert.
	assert.False(t, IsCycleSatisfied(taskWithRecurrence(RecurrenceNone, &checked, false), now))
}

func TestIsCycleSatisfied_MissingCheckFailsOpen(t *testing.T) {
	now := time.Now()
	for _, tag := range []RecurrenceTag{RecurrenceDaily, RecurrenceWeekly, RecurrenceBiWeekly} {
		assert.False(t, IsCycleSatisfied(taskWithRecurrence(tag, nil, false), now), "tag %s", tag)
	}
}

func TestIsCycleSatisfied_DailyUsesCalendarDayNotRollingWindow(t *testing.T) {
	// Checked at 23:59:59 on day D, evaluated at 00:00:01 on D+1:
	// barely two seconds elapsed, but the calendar day changed.
	checked := time.Date(2024, 5, 10, 23, 59, 59, 0, time.Local)
	now := time.Date(2024, 5, 11, 0, 0, 1, 0, time.Local)
	assert.False(t, IsCycleSatisfied(taskWithRecurrence(RecurrenceDaily, &checked, false), now))

	// Checked at 00:00:01, evaluated at 23:59:59 the same day: nearly
	// 24h elapsed, still satisfied.
	checked = time.Date(2024, 5, 10, 0, 0, 1, 0, time.Local)
	now = time.Date(2024, 5, 10, 23, 59, 59, 0, time.Local)
	assert.True(t, IsCycleSatisfied(taskWithRecurrence(RecurrenceDaily, &checked, false), now))
}

func TestIsCycleSatisfied_WeeklyRollingWindow(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	inside := now.Add(-(6*24 + 23) * time.Hour)
	assert.True(t, IsCycleSatisfied(taskWithRecurrence(RecurrenceWeekly, &inside, false), now))

	outside := now.Add(-(7*24 + 1) * time.Hour)
	assert.False(t, IsCycleSatisfied(taskWithRecurrence(RecurrenceWeekly, &outside, false), now))
}

func TestIsCycleSatisfied_BiWeeklyRollingWindow(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	inside := now.Add(-(13*24 + 23) * time.Hour)
	assert.True(t, IsCycleSatisfied(taskWithRecurrence(RecurrenceBiWeekly, &inside, false), now))

	outside := now.Add(-(14*24 + 1) * time.Hour)
	assert.False(t, IsCycleSatisfied(taskWithRecurrence(RecurrenceBiWeekly, &outside, false), now))
}

func TestResolveMarkDone(t *testing.T) {
	tests := []struct {
		name           string
		tag            RecurrenceTag
		completed      bool
		cycleSatisfied bool
		wantAction     DoneAction
		wantSatisfy    bool
	}{
		{"non-recurring toggles completed", RecurrenceNone, false, false, ActionToggleCompleted, false},
		{"completed recurring toggles completed", RecurrenceDaily, true, true, ActionToggleCompleted, false},
		{"unsatisfied cycle satisfies it", RecurrenceDaily, false, false, ActionToggleCycleCheck, true},
		{"satisfied cycle clears it", RecurrenceWeekly, false, true, ActionToggleCycleCheck, false},
		{"bi-weekly unsatisfied", RecurrenceBiWeekly, false, false, ActionToggleCycleCheck, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveMarkDone(tt.tag, tt.completed, tt.cycleSatisfied)
			assert.Equal(t, tt.wantAction, got.Action)
			if got.Action == ActionToggleCycleCheck {
				assert.Equal(t, tt.wantSatisfy, got.Satisfy)
			}
		})
	}
}

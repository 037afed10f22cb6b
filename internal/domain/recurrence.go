package domain

import "time"

const (
	weeklyWindow   = 7 * 24 * time.Hour
	biWeeklyWindow = 14 * 24 * time.Hour
)

// IsCycleSatisfied reports whether a recurring task's current cycle
// is satisfied at now. Pure; no side effects.
//
// Daily uses local calendar-day semantics: a check at 23:59 is stale
// one minute later. Weekly and bi-weekly are rolling windows.
func IsCycleSatisfied(task Task, now time.Time) bool {
	if task.Completed {
		return true
	}
	if task.RecurrenceTag == RecurrenceNone {
		return task.Completed
	}
	if task.RecurrenceCheckedAt == nil {
		return false
	}
	checked := *task.RecurrenceCheckedAt

	switch task.RecurrenceTag {
	case RecurrenceDaily:
		return sameLocalDay(checked, now)
	case RecurrenceWeekly:
		return now.Sub(checked) < weeklyWindow
	case RecurrenceBiWeekly:
		return now.Sub(checked) < biWeeklyWindow
	default:
		return false
	}
}

func sameLocalDay(a, b time.Time) bool {
	al, bl := a.Local(), b.Local()
	ay, am, ad := al.Date()
	by, bm, bd := bl.Date()
	return ay == by && am == bm && ad == bd
}

// DoneAction is what a "mark done" interaction resolves to.
type DoneAction int

const (
	// ActionToggleCompleted flips the definitive completed flag.
	ActionToggleCompleted DoneAction = iota
	// ActionToggleCycleCheck stamps or clears recurrenceCheckedAt and
	// never touches completed.
	ActionToggleCycleCheck
)

// DoneResolution is the resolved mutation for a "mark done"
// interaction. Satisfy is meaningful only for
// ActionToggleCycleCheck: true stamps recurrenceCheckedAt to now,
// false clears it.
type DoneResolution struct {
	Action  DoneAction
	Satisfy bool
}

// ResolveMarkDone decides which mutation a "mark done" interaction
// performs. Non-recurring or already-completed tasks toggle the
// completed flag; otherwise the current cycle check is toggled.
func ResolveMarkDone(tag RecurrenceTag, completed, cycleSatisfied bool) DoneResolution {
	if tag == RecurrenceNone || completed {
		return DoneResolution{Action: ActionToggleCompleted}
	}
	return DoneResolution{Action: ActionToggleCycleCheck, Satisfy: !cycleSatisfied}
}

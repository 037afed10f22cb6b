package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"sidetask/internal/domain"
)

// Controller owns the in-memory task collection. Mutations apply
// optimistically against it, dispatch to the durable store, and are
// reconciled against the store's authoritative response. Responses
// are correlated per task id with a monotonically increasing request
// sequence, never by call order: an older response cannot overwrite
// state a newer request already touched.
//
// On any store failure the controller surfaces a single visible
// error (replacing the previous one) and re-converges by a full
// refresh.
type Controller struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time

	mu         sync.Mutex
	tasks      []domain.Task
	selectedID string
	lastError  string
	seq        map[string]uint64

	deleter *SoftDeleteManager
	edits   *Debouncer
}

// ControllerOptions tunes the controller's timing behavior. Zero
// values fall back to the defaults.
type ControllerOptions struct {
	GraceWindow time.Duration
	SettleDelay time.Duration
	Now         func() time.Time
}

func NewController(store Store, logger *slog.Logger, opts ControllerOptions) *Controller {
	c := &Controller{
		store:  store,
		logger: logger,
		now:    opts.Now,
		seq:    make(map[string]uint64),
		edits:  NewDebouncer(opts.SettleDelay),
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.deleter = NewSoftDeleteManager(opts.GraceWindow, func(task domain.Task) {
		c.finalizeDelete(context.Background(), task)
	})
	return c
}

// Close stops timers without flushing. A pending soft delete is
// abandoned, so the task reappears from the store on next launch; a
// pending debounced edit is lost, matching the settle-or-drop
// contract.
func (c *Controller) Close() {
	c.deleter.Cancel()
	c.edits.Stop()
}

// Tasks returns a copy of the current in-memory collection.
func (c *Controller) Tasks() []domain.Task {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.Task, len(c.tasks))
	copy(out, c.tasks)
	return out
}

// SelectedID returns the currently selected task id, or "".
func (c *Controller) SelectedID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedID
}

// VisibleError returns the single user-visible error message, or "".
func (c *Controller) VisibleError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// Select marks a task as selected. Changing selection does not flush
// a pending debounced edit: the abandoned edit is cancelled and lost.
// Callers wanting full fidelity must invoke FlushEdits first.
func (c *Controller) Select(id string) {
	c.mu.Lock()
	previous := c.selectedID
	if id == "" || c.indexOfLocked(id) >= 0 {
		c.selectedID = id
	}
	changed := c.selectedID != previous
	c.mu.Unlock()

	if changed && previous != "" {
		c.edits.Cancel(previous + "/title")
		c.edits.Cancel(previous + "/note")
	}
}

func (c *Controller) indexOfLocked(id string) int {
	for i := range c.tasks {
		if c.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Controller) nextSeqLocked(id string) uint64 {
	c.seq[id]++
	return c.seq[id]
}

// latestSeq reports whether seq is still the newest request issued
// for id.
func (c *Controller) latestSeqLocked(id string, seq uint64) bool {
	return c.seq[id] == seq
}

// invalidateInFlightLocked makes every outstanding response stale, so
// a refresh's snapshot is not overwritten by older requests landing
// late.
func (c *Controller) invalidateInFlightLocked() {
	for id := range c.seq {
		c.seq[id]++
	}
}

// Refresh re-reads the full collection from the store. Selection is
// preserved when preferredID (or the prior selection) survives,
// otherwise it falls back to the first item or none.
func (c *Controller) Refresh(ctx context.Context, preferredID string) error {
	tasks, err := c.store.List(ctx)
	if err != nil {
		c.mu.Lock()
		c.lastError = "Could not load tasks"
		c.mu.Unlock()
		c.logger.Error("refresh failed", "error", err)
		return &domain.StoreError{Op: "list", Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.tasks = tasks
	c.invalidateInFlightLocked()

	want := preferredID
	if want == "" {
		want = c.selectedID
	}
	switch {
	case want != "" && c.indexOfLocked(want) >= 0:
		c.selectedID = want
	case len(c.tasks) > 0:
		c.selectedID = c.tasks[0].ID
	default:
		c.selectedID = ""
	}

	return nil
}

// fail records the single visible error and re-converges in-memory
// state to store truth.
func (c *Controller) fail(ctx context.Context, op, message string, err error) error {
	c.mu.Lock()
	c.lastError = message
	preferred := c.selectedID
	c.mu.Unlock()

	c.logger.Error("store command failed", "op", op, "error", err)

	if refreshErr := c.Refresh(ctx, preferred); refreshErr != nil {
		c.logger.Error("recovery refresh failed", "op", op, "error", refreshErr)
	}

	return &domain.StoreError{Op: op, Err: err}
}

// applyResponse replaces the in-memory record with the store's
// authoritative copy, unless a newer request for the same id has
// been issued since.
func (c *Controller) applyResponse(id string, seq uint64, record *domain.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.latestSeqLocked(id, seq) {
		return
	}
	if i := c.indexOfLocked(id); i >= 0 {
		c.tasks[i] = *record
	}
}

// Create adds a task optimistically under a provisional id, then
// swaps in the store's record (with its authoritative id and
// timestamps) on confirmation.
func (c *Controller) Create(ctx context.Context, input domain.CreateTaskInput) (*domain.Task, error) {
	title, err := domain.ValidateTitle(input.Title)
	if err != nil {
		return nil, err
	}
	input.Title = title

	now := c.now()
	provisional := domain.Task{
		ID:            "provisional-" + uuid.New().String(),
		Title:         title,
		RecurrenceTag: domain.NormalizeRecurrenceTag(input.RecurrenceTag),
		DueDate:       domain.NormalizeDueDate(input.DueDate),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if input.Note != nil {
		provisional.Note = *input.Note
	}

	c.mu.Lock()
	c.tasks = append([]domain.Task{provisional}, c.tasks...)
	c.selectedID = provisional.ID
	seq := c.nextSeqLocked(provisional.ID)
	c.mu.Unlock()

	record, err := c.store.Create(ctx, input)
	if err != nil {
		return nil, c.fail(ctx, "create", "Could not add task", err)
	}

	c.mu.Lock()
	if c.latestSeqLocked(provisional.ID, seq) {
		if i := c.indexOfLocked(provisional.ID); i >= 0 {
			c.tasks[i] = *record
			if c.selectedID == provisional.ID {
				c.selectedID = record.ID
			}
		}
	}
	c.mu.Unlock()

	return record, nil
}

// Patch applies a partial update optimistically and dispatches it.
func (c *Controller) Patch(ctx context.Context, id string, input domain.UpdateTaskInput) error {
	if input.Title != nil {
		title, err := domain.ValidateTitle(*input.Title)
		if err != nil {
			return err
		}
		input.Title = &title
	}

	c.mu.Lock()
	i := c.indexOfLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}

	t := &c.tasks[i]
	if input.Title != nil {
		t.Title = *input.Title
	}
	if input.RecurrenceTag != nil {
		t.RecurrenceTag = domain.NormalizeRecurrenceTag(input.RecurrenceTag)
		if t.RecurrenceTag == domain.RecurrenceNone {
			t.RecurrenceCheckedAt = nil
		}
	}
	if input.Note != nil {
		t.Note = *input.Note
	}
	if input.Completed != nil {
		t.Completed = *input.Completed
	}
	if input.ClearDueDate {
		t.DueDate = nil
	} else if input.DueDate != nil {
		t.DueDate = domain.NormalizeDueDate(input.DueDate)
	}
	t.UpdatedAt = c.now()
	seq := c.nextSeqLocked(id)
	c.mu.Unlock()

	record, err := c.store.Update(ctx, id, input)
	if err != nil {
		return c.fail(ctx, "update", "Could not save task", err)
	}

	c.applyResponse(id, seq, record)
	return nil
}

// ToggleCompleted flips the definitive completed flag.
func (c *Controller) ToggleCompleted(ctx context.Context, id string) error {
	c.mu.Lock()
	i := c.indexOfLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}
	c.tasks[i].Completed = !c.tasks[i].Completed
	c.tasks[i].UpdatedAt = c.now()
	seq := c.nextSeqLocked(id)
	c.mu.Unlock()

	record, err := c.store.ToggleCompleted(ctx, id)
	if err != nil {
		return c.fail(ctx, "toggle", "Could not update task", err)
	}

	c.applyResponse(id, seq, record)
	return nil
}

// SetCycleCheck marks the current recurrence cycle satisfied
// (stamping recurrenceCheckedAt) or unsatisfied (clearing it). It
// never touches completed.
func (c *Controller) SetCycleCheck(ctx context.Context, id string, satisfied bool) error {
	c.mu.Lock()
	i := c.indexOfLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}
	now := c.now()
	if satisfied {
		c.tasks[i].RecurrenceCheckedAt = &now
	} else {
		c.tasks[i].RecurrenceCheckedAt = nil
	}
	c.tasks[i].UpdatedAt = now
	seq := c.nextSeqLocked(id)
	c.mu.Unlock()

	record, err := c.store.SetCycleCheck(ctx, id, satisfied)
	if err != nil {
		return c.fail(ctx, "cycle-check", "Could not update task", err)
	}

	c.applyResponse(id, seq, record)
	return nil
}

// MarkDone resolves the dual-purpose "done" interaction: toggle the
// completed flag for non-recurring (or already completed) tasks,
// toggle the current cycle check otherwise.
func (c *Controller) MarkDone(ctx context.Context, id string) error {
	c.mu.Lock()
	i := c.indexOfLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}
	t := c.tasks[i]
	c.mu.Unlock()

	satisfied := domain.IsCycleSatisfied(t, c.now())
	resolution := domain.ResolveMarkDone(t.RecurrenceTag, t.Completed, satisfied)

	if resolution.Action == domain.ActionToggleCompleted {
		return c.ToggleCompleted(ctx, id)
	}
	return c.SetCycleCheck(ctx, id, resolution.Satisfy)
}

// EditTitle schedules a debounced title commit. Each keystroke resets
// the settle timer; the patch is dispatched only when the trimmed
// value differs from the last known committed value.
func (c *Controller) EditTitle(id, value string) {
	c.edits.Schedule(id+"/title", func() {
		trimmed := strings.TrimSpace(value)

		c.mu.Lock()
		i := c.indexOfLocked(id)
		unchanged := i < 0 || c.tasks[i].Title == trimmed
		c.mu.Unlock()
		if unchanged {
			return
		}

		if _, err := domain.ValidateTitle(trimmed); err != nil {
			// Validation failures never reach the store; the stale
			// on-screen text simply does not commit.
			c.logger.Warn("dropped invalid title edit", "id", id, "error", err)
			return
		}

		if err := c.Patch(context.Background(), id, domain.UpdateTaskInput{Title: &trimmed}); err != nil {
			c.logger.Error("debounced title commit failed", "id", id, "error", err)
		}
	})
}

// EditNote schedules a debounced note commit.
func (c *Controller) EditNote(id, value string) {
	c.edits.Schedule(id+"/note", func() {
		trimmed := strings.TrimSpace(value)

		c.mu.Lock()
		i := c.indexOfLocked(id)
		unchanged := i < 0 || strings.TrimSpace(c.tasks[i].Note) == trimmed
		c.mu.Unlock()
		if unchanged {
			return
		}

		if err := c.Patch(context.Background(), id, domain.UpdateTaskInput{Note: &value}); err != nil {
			c.logger.Error("debounced note commit failed", "id", id, "error", err)
		}
	})
}

// FlushEdits commits any pending debounced edits for id immediately.
// Callers that switch selection without invoking this lose the
// unsettled edit; that loss is deliberate.
func (c *Controller) FlushEdits(id string) {
	c.edits.Flush(id + "/title")
	c.edits.Flush(id + "/note")
}

// Delete removes the task from the visible collection immediately and
// stages it for soft deletion. The irreversible store delete happens
// when the grace window expires, or sooner if another delete
// supersedes it.
func (c *Controller) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	i := c.indexOfLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}

	task := c.tasks[i]
	c.tasks = append(c.tasks[:i], c.tasks[i+1:]...)
	if c.selectedID == id {
		switch {
		case i < len(c.tasks):
			c.selectedID = c.tasks[i].ID
		case len(c.tasks) > 0:
			c.selectedID = c.tasks[len(c.tasks)-1].ID
		default:
			c.selectedID = ""
		}
	}
	c.mu.Unlock()

	c.deleter.Stage(task, i)
	return nil
}

// Undo restores the pending-delete snapshot, reinserting the task at
// min(originalIndex, current length) and selecting it. After finalize
// it is a no-op.
func (c *Controller) Undo() bool {
	snapshot, ok := c.deleter.Undo()
	if !ok {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// A refresh during the grace window can already have revived the
	// task from the store; reinserting would duplicate it.
	if c.indexOfLocked(snapshot.Task.ID) < 0 {
		i := snapshot.OriginalIndex
		if i > len(c.tasks) {
			i = len(c.tasks)
		}
		c.tasks = append(c.tasks[:i], append([]domain.Task{snapshot.Task}, c.tasks[i:]...)...)
	}
	c.selectedID = snapshot.Task.ID
	return true
}

// FinalizePendingDelete forces the pending delete through without
// waiting for the grace timer.
func (c *Controller) FinalizePendingDelete() bool {
	return c.deleter.FinalizeNow()
}

// finalizeDelete issues the irreversible store delete for a snapshot
// that left the grace window.
func (c *Controller) finalizeDelete(ctx context.Context, task domain.Task) {
	if err := c.store.Delete(ctx, task.ID); err != nil {
		c.fail(ctx, "delete", "Could not delete task", err)
		return
	}
	c.logger.Info("task deleted", "id", task.ID)
}

// Reorder applies a new display order optimistically and persists it.
func (c *Controller) Reorder(ctx context.Context, ids []string) error {
	c.mu.Lock()
	byID := make(map[string]domain.Task, len(c.tasks))
	for _, t := range c.tasks {
		byID[t.ID] = t
	}
	reordered := make([]domain.Task, 0, len(c.tasks))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			reordered = append(reordered, t)
			delete(byID, id)
		}
	}
	// Ids missing from the request keep their relative order at the
	// tail.
	for _, t := range c.tasks {
		if _, ok := byID[t.ID]; ok {
			reordered = append(reordered, t)
		}
	}
	c.tasks = reordered
	c.mu.Unlock()

	if err := c.store.Reorder(ctx, ids); err != nil {
		return c.fail(ctx, "reorder", "Could not reorder tasks", err)
	}
	return nil
}

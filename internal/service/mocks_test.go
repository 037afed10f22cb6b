package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sidetask/internal/domain"
)

// fakeStore is an in-memory Store with failure injection and a
// response gate for exercising out-of-order reconciliation.
type fakeStore struct {
	mu     sync.Mutex
	tasks  []domain.Task
	nextID int

	failing     map[string]error
	listCalls   int
	deletedIDs  []string
	updateCalls int

	// When set, the next Update for gateID applies its write, then
	// blocks its response until the gate channel is closed.
	gateID string
	gate   chan struct{}
}

func newFakeStore(tasks ...domain.Task) *fakeStore {
	return &fakeStore{
		tasks:   tasks,
		failing: make(map[string]error),
	}
}

func (s *fakeStore) failWith(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[op] = err
}

func (s *fakeStore) gateNextUpdate(id string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gateID = id
	s.gate = make(chan struct{})
	return s.gate
}

func (s *fakeStore) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *fakeStore) snapshot(i int) *domain.Task {
	t := s.tasks[i]
	return &t
}

func (s *fakeStore) List(ctx context.Context) ([]domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.listCalls++
	if err := s.failing["list"]; err != nil {
		return nil, err
	}

	out := make([]domain.Task, len(s.tasks))
	copy(out, s.tasks)
	return out, nil
}

func (s *fakeStore) Create(ctx context.Context, input domain.CreateTaskInput) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failing["create"]; err != nil {
		return nil, err
	}

	s.nextID++
	now := time.Now()
	t := domain.Task{
		ID:            fmt.Sprintf("store-%d", s.nextID),
		Title:         input.Title,
		RecurrenceTag: domain.NormalizeRecurrenceTag(input.RecurrenceTag),
		DueDate:       domain.NormalizeDueDate(input.DueDate),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if input.Note != nil {
		t.Note = *input.Note
	}

	s.tasks = append([]domain.Task{t}, s.tasks...)
	return s.snapshot(0), nil
}

func (s *fakeStore) Update(ctx context.Context, id string, input domain.UpdateTaskInput) (*domain.Task, error) {
	s.mu.Lock()

	s.updateCalls++
	if err := s.failing["update"]; err != nil {
		s.mu.Unlock()
		return nil, err
	}

	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}

	t := &s.tasks[i]
	if input.Title != nil {
		t.Title = *input.Title
	}
	if input.Note != nil {
		t.Note = *input.Note
	}
	if input.Completed != nil {
		t.Completed = *input.Completed
	}
	if input.RecurrenceTag != nil {
		t.RecurrenceTag = domain.NormalizeRecurrenceTag(input.RecurrenceTag)
	}
	if input.ClearDueDate {
		t.DueDate = nil
	} else if input.DueDate != nil {
		t.DueDate = domain.NormalizeDueDate(input.DueDate)
	}
	t.UpdatedAt = time.Now()
	record := s.snapshot(i)

	var gate chan struct{}
	if s.gate != nil && s.gateID == id {
		gate = s.gate
		s.gate = nil
	}
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return record, nil
}

func (s *fakeStore) ToggleCompleted(ctx context.Context, id string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failing["toggle"]; err != nil {
		return nil, err
	}

	i := s.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}

	s.tasks[i].Completed = !s.tasks[i].Completed
	s.tasks[i].UpdatedAt = time.Now()
	return s.snapshot(i), nil
}

func (s *fakeStore) SetCycleCheck(ctx context.Context, id string, satisfied bool) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failing["cycle"]; err != nil {
		return nil, err
	}

	i := s.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}

	now := time.Now()
	if satisfied {
		s.tasks[i].RecurrenceCheckedAt = &now
	} else {
		s.tasks[i].RecurrenceCheckedAt = nil
	}
	s.tasks[i].UpdatedAt = now
	return s.snapshot(i), nil
}

func (s *fakeStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failing["delete"]; err != nil {
		return err
	}

	s.deletedIDs = append(s.deletedIDs, id)
	if i := s.indexOf(id); i >= 0 {
		s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	}
	return nil
}

func (s *fakeStore) Reorder(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failing["reorder"]; err != nil {
		return err
	}

	byID := make(map[string]domain.Task, len(s.tasks))
	for _, t := range s.tasks {
		byID[t.ID] = t
	}
	reordered := make([]domain.Task, 0, len(s.tasks))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			reordered = append(reordered, t)
			delete(byID, id)
		}
	}
	for _, t := range s.tasks {
		if _, ok := byID[t.ID]; ok {
			reordered = append(reordered, t)
		}
	}
	s.tasks = reordered
	return nil
}

func (s *fakeStore) deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.deletedIDs))
	copy(out, s.deletedIDs)
	return out
}

func (s *fakeStore) has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(id) >= 0
}

func (s *fakeStore) lists() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls
}

func (s *fakeStore) updates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateCalls
}

// fakeLegacySource backs the migration coordinator tests.
type fakeLegacySource struct {
	records  []domain.LegacyTask
	loadErr  error
	cleared  bool
	clearErr error
}

func (f *fakeLegacySource) Load() ([]domain.LegacyTask, error) {
	return f.records, f.loadErr
}

func (f *fakeLegacySource) Clear() error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.cleared = true
	return nil
}

// fakeMigrator returns a canned result or error.
type fakeMigrator struct {
	result *domain.MigrationResult
	err    error
	calls  int
}

func (f *fakeMigrator) MigrateLegacy(ctx context.Context, records []domain.LegacyTask) (*domain.MigrationResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

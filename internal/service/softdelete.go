package service

import (
	"sync"
	"time"

	"sidetask/internal/domain"
)

// DefaultGraceWindow is the delay between a delete intent and its
// irreversible finalize.
const DefaultGraceWindow = 5 * time.Second

// DeletedSnapshot holds the one task that can still be undone.
type DeletedSnapshot struct {
	Task          domain.Task
	OriginalIndex int
}

type pendingDelete struct {
	snapshot DeletedSnapshot
	timer    *time.Timer
	gen      uint64
}

// SoftDeleteManager defers irreversible deletion by a fixed grace
// window. At most one snapshot is pending at a time: staging a second
// delete finalizes the first immediately, skipping its remaining
// grace period. Finalize runs at most once per snapshot.
type SoftDeleteManager struct {
	mu       sync.Mutex
	grace    time.Duration
	finalize func(domain.Task)
	pending  *pendingDelete
	gen      uint64
}

// NewSoftDeleteManager creates a manager. finalize is invoked outside
// the manager's lock, exactly once per snapshot that reaches the
// deleted state.
func NewSoftDeleteManager(grace time.Duration, finalize func(domain.Task)) *SoftDeleteManager {
	if grace <= 0 {
		grace = DefaultGraceWindow
	}
	return &SoftDeleteManager{grace: grace, finalize: finalize}
}

// Stage captures a snapshot and starts its grace timer. An existing
// pending snapshot is finalized first.
func (m *SoftDeleteManager) Stage(task domain.Task, originalIndex int) {
	m.mu.Lock()
	superseded := m.takeLocked()

	m.gen++
	gen := m.gen
	m.pending = &pendingDelete{
		snapshot: DeletedSnapshot{Task: task, OriginalIndex: originalIndex},
		gen:      gen,
		timer: time.AfterFunc(m.grace, func() {
			m.expire(gen)
		}),
	}
	m.mu.Unlock()

	if superseded != nil {
		m.finalize(superseded.snapshot.Task)
	}
}

func (m *SoftDeleteManager) expire(gen uint64) {
	m.mu.Lock()
	if m.pending == nil || m.pending.gen != gen {
		// A cancelled or superseded timer must not fire its delete.
		m.mu.Unlock()
		return
	}
	taken := m.takeLocked()
	m.mu.Unlock()

	m.finalize(taken.snapshot.Task)
}

// Undo cancels the grace timer and returns the snapshot for
// reinsertion. After finalize has occurred it reports ok=false and
// does nothing.
func (m *SoftDeleteManager) Undo() (DeletedSnapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	taken := m.takeLocked()
	if taken == nil {
		return DeletedSnapshot{}, false
	}
	return taken.snapshot, true
}

// FinalizeNow finalizes the pending snapshot without waiting for the
// grace timer. Reports whether a snapshot was pending.
func (m *SoftDeleteManager) FinalizeNow() bool {
	m.mu.Lock()
	taken := m.takeLocked()
	m.mu.Unlock()

	if taken == nil {
		return false
	}
	m.finalize(taken.snapshot.Task)
	return true
}

// Cancel drops the pending snapshot without finalizing it. Used on
// shutdown: a delete that never reached finalize stays in the store
// and reappears on next launch.
func (m *SoftDeleteManager) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.takeLocked()
}

// takeLocked detaches the pending snapshot and stops its timer.
// Detaching under the lock is what guarantees at-most-once finalize.
func (m *SoftDeleteManager) takeLocked() *pendingDelete {
	taken := m.pending
	if taken == nil {
		return nil
	}
	taken.timer.Stop()
	m.pending = nil
	return taken
}

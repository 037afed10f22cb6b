package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"sidetask/internal/domain"
)

const (
	migrationKey   = "legacy_migration_done"
	windowPrefsKey = "window_prefs_json"
	uiPrefsKey     = "ui_prefs_json"
)

// SQLiteStore is the durable store. It is the only writer of task
// ids and timestamps; every mutation returns the authoritative
// record with updatedAt bumped by the store.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database file and
// ensures the schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection sidesteps SQLITE_BUSY between the pooled
	// handles database/sql would otherwise hand out.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS todos (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			recurrence_tag TEXT NOT NULL DEFAULT 'none',
			recurrence_checked_at TEXT NULL,
			note TEXT NOT NULL DEFAULT '',
			completed INTEGER NOT NULL DEFAULT 0,
			due_date TEXT NULL,
			sort_order INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS app_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_todos_sort_order ON todos(sort_order);
		CREATE INDEX IF NOT EXISTS idx_todos_completed_sort ON todos(completed, sort_order);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	// Databases created before recurrence support lack these columns.
	for _, alter := range []string{
		`ALTER TABLE todos ADD COLUMN recurrence_tag TEXT NOT NULL DEFAULT 'none'`,
		`ALTER TABLE todos ADD COLUMN recurrence_checked_at TEXT NULL`,
	} {
		if _, err := s.db.Exec(alter); err != nil {
			if !strings.Contains(err.Error(), "duplicate column name") {
				return fmt.Errorf("ensure schema: %w", err)
			}
		}
	}

	return nil
}

const taskColumns = `id, title, recurrence_tag, recurrence_checked_at, note, completed, due_date, sort_order, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var t domain.Task
	var checkedAt, dueDate sql.NullString
	var completed int64
	var createdAt, updatedAt string

	err := row.Scan(&t.ID, &t.Title, &t.RecurrenceTag, &checkedAt, &t.Note,
		&completed, &dueDate, &t.SortOrder, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	t.Completed = completed != 0
	if dueDate.Valid {
		t.DueDate = &dueDate.String
	}
	if checkedAt.Valid {
		if parsed, err := time.Parse(time.RFC3339Nano, checkedAt.String); err == nil {
			t.RecurrenceCheckedAt = &parsed
		}
	}
	t.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	t.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)

	return &t, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func toDBBool(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

// List returns all tasks in display order.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM todos ORDER BY sort_order ASC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return tasks, nil
}

// Get retrieves a single task by id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM todos WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return t, nil
}

// Create inserts a new task at the top of the list and returns the
// authoritative record.
func (s *SQLiteStore) Create(ctx context.Context, input domain.CreateTaskInput) (*domain.Task, error) {
	title, err := domain.ValidateTitle(input.Title)
	if err != nil {
		return nil, err
	}

	var minSort sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MIN(sort_order) FROM todos`).Scan(&minSort); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	sortOrder := minSort.Int64 - 1

	now := time.Now()
	t := domain.Task{
		ID:            uuid.New().String(),
		Title:         title,
		RecurrenceTag: domain.NormalizeRecurrenceTag(input.RecurrenceTag),
		Completed:     false,
		DueDate:       domain.NormalizeDueDate(input.DueDate),
		CreatedAt:     now,
		UpdatedAt:     now,
		SortOrder:     sortOrder,
	}
	if input.Note != nil {
		t.Note = *input.Note
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO todos (`+taskColumns+`) VALUES (?, ?, ?, NULL, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.RecurrenceTag, t.Note, toDBBool(t.Completed), t.DueDate,
		t.SortOrder, formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	return s.Get(ctx, t.ID)
}

// Update applies a partial patch and returns the authoritative
// record.
func (s *SQLiteStore) Update(ctx context.Context, id string, input domain.UpdateTaskInput) (*domain.Task, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *existing
	if input.Title != nil {
		title, err := domain.ValidateTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		updated.Title = title
	}
	if input.RecurrenceTag != nil {
		updated.RecurrenceTag = domain.NormalizeRecurrenceTag(input.RecurrenceTag)
		if updated.RecurrenceTag == domain.RecurrenceNone {
			updated.RecurrenceCheckedAt = nil
		}
	}
	if input.Note != nil {
		updated.Note = *input.Note
	}
	if input.Completed != nil {
		updated.Completed = *input.Completed
	}
	if input.ClearDueDate {
		updated.DueDate = nil
	} else if input.DueDate != nil {
		updated.DueDate = domain.NormalizeDueDate(input.DueDate)
	}
	updated.UpdatedAt = time.Now()

	var checkedAt *string
	if updated.RecurrenceCheckedAt != nil {
		v := formatTime(*updated.RecurrenceCheckedAt)
		checkedAt = &v
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE todos SET title = ?, recurrence_tag = ?, recurrence_checked_at = ?, note = ?,
		 completed = ?, due_date = ?, updated_at = ? WHERE id = ?`,
		updated.Title, updated.RecurrenceTag, checkedAt, updated.Note,
		toDBBool(updated.Completed), updated.DueDate, formatTime(updated.UpdatedAt), id)
	if err != nil {
		return nil, fmt.Errorf("update task %s: %w", id, err)
	}

	return s.Get(ctx, id)
}

// ToggleCompleted flips the completed flag and returns the
// authoritative record.
func (s *SQLiteStore) ToggleCompleted(ctx context.Context, id string) (*domain.Task, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	_, err = s.db.ExecContext(ctx,
		`UPDATE todos SET completed = ?, updated_at = ? WHERE id = ?`,
		toDBBool(!existing.Completed), formatTime(now), id)
	if err != nil {
		return nil, fmt.Errorf("toggle task %s: %w", id, err)
	}

	return s.Get(ctx, id)
}

// SetCycleCheck stamps recurrenceCheckedAt to now (satisfied=true) or
// clears it (satisfied=false). Inert for non-recurring tasks: the
// column is written but never interpreted when the tag is none.
func (s *SQLiteStore) SetCycleCheck(ctx context.Context, id string, satisfied bool) (*domain.Task, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	now := time.Now()
	var checkedAt *string
	if satisfied {
		v := formatTime(now)
		checkedAt = &v
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE todos SET recurrence_checked_at = ?, updated_at = ? WHERE id = ?`,
		checkedAt, formatTime(now), id)
	if err != nil {
		return nil, fmt.Errorf("set cycle check %s: %w", id, err)
	}

	return s.Get(ctx, id)
}

// Delete removes a task permanently. Deleting an unknown id is not an
// error.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

// Reorder rewrites sort_order to match the given id sequence.
func (s *SQLiteStore) Reorder(ctx context.Context, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("reorder tasks: %w", err)
	}
	defer tx.Rollback()

	now := formatTime(time.Now())
	for index, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`UPDATE todos SET sort_order = ?, updated_at = ? WHERE id = ?`,
			int64(index), now, id); err != nil {
			return fmt.Errorf("reorder tasks: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("reorder tasks: %w", err)
	}
	return nil
}

// MigrateLegacy transfers legacy records into the store exactly once.
// A persisted marker makes repeated calls no-ops regardless of
// payload; rows colliding on id are skipped.
func (s *SQLiteStore) MigrateLegacy(ctx context.Context, records []domain.LegacyTask) (*domain.MigrationResult, error) {
	done, err := s.getMeta(ctx, migrationKey)
	if err != nil {
		return nil, err
	}
	if done == "true" {
		return &domain.MigrationResult{MigratedCount: 0, AlreadyMigrated: true}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("migrate legacy: %w", err)
	}
	defer tx.Rollback()

	var minSort sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MIN(sort_order) FROM todos`).Scan(&minSort); err != nil {
		return nil, fmt.Errorf("migrate legacy: %w", err)
	}
	nextSort := minSort.Int64 - int64(len(records))

	migrated := 0
	for _, legacy := range records {
		title := strings.TrimSpace(legacy.Title)
		if title == "" {
			continue
		}

		id := strings.TrimSpace(legacy.ID)
		if id == "" {
			id = uuid.New().String()
		}

		createdAt := strings.TrimSpace(legacy.CreatedAt)
		if createdAt == "" {
			createdAt = formatTime(time.Now())
		}
		updatedAt := strings.TrimSpace(legacy.UpdatedAt)
		if updatedAt == "" {
			updatedAt = createdAt
		}

		var checkedAt *string
		if legacy.RecurrenceCheckedAt != nil && strings.TrimSpace(*legacy.RecurrenceCheckedAt) != "" {
			checkedAt = legacy.RecurrenceCheckedAt
		}

		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO todos (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, title, domain.NormalizeRecurrenceTag(legacy.RecurrenceTag), checkedAt,
			legacy.Note, toDBBool(legacy.Completed), domain.NormalizeDueDate(legacy.DueDate),
			nextSort, createdAt, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("migrate legacy: %w", err)
		}

		if inserted, _ := res.RowsAffected(); inserted > 0 {
			migrated++
			nextSort++
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO app_meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		migrationKey, "true"); err != nil {
		return nil, fmt.Errorf("migrate legacy: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("migrate legacy: %w", err)
	}

	return &domain.MigrationResult{MigratedCount: migrated, AlreadyMigrated: false}, nil
}

func (s *SQLiteStore) getMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM app_meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get meta %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) setMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO app_meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("set meta %s: %w", key, err)
	}
	return nil
}

// GetWindowPrefs returns persisted window prefs, or defaults when
// none have been saved.
func (s *SQLiteStore) GetWindowPrefs(ctx context.Context) (domain.WindowPrefs, error) {
	prefs := domain.DefaultWindowPrefs()
	raw, err := s.getMeta(ctx, windowPrefsKey)
	if err != nil || raw == "" {
		return prefs, err
	}
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return domain.DefaultWindowPrefs(), fmt.Errorf("decode window prefs: %w", err)
	}
	return prefs, nil
}

func (s *SQLiteStore) SaveWindowPrefs(ctx context.Context, prefs domain.WindowPrefs) error {
	raw, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encode window prefs: %w", err)
	}
	return s.setMeta(ctx, windowPrefsKey, string(raw))
}

// GetUIPrefs returns persisted UI prefs, or defaults when none have
// been saved.
func (s *SQLiteStore) GetUIPrefs(ctx context.Context) (domain.UIPrefs, error) {
	prefs := domain.DefaultUIPrefs()
	raw, err := s.getMeta(ctx, uiPrefsKey)
	if err != nil || raw == "" {
		return prefs, err
	}
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return domain.DefaultUIPrefs(), fmt.Errorf("decode ui prefs: %w", err)
	}
	return prefs, nil
}

func (s *SQLiteStore) SaveUIPrefs(ctx context.Context, prefs domain.UIPrefs) error {
	raw, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encode ui prefs: %w", err)
	}
	return s.setMeta(ctx, uiPrefsKey, string(raw))
}

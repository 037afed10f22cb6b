package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

type RecurrenceTag string

const (
	RecurrenceNone     RecurrenceTag = "none"
	RecurrenceDaily    RecurrenceTag = "daily"
	RecurrenceWeekly   RecurrenceTag = "weekly"
	RecurrenceBiWeekly RecurrenceTag = "bi-weekly"
)

// MaxTitleLength bounds task titles in characters, not bytes.
const MaxTitleLength = 160

// Task is the core entity. The durable store is the only writer of
// ID, CreatedAt and UpdatedAt; clients treat store-returned records
// as authoritative.
type Task struct {
	ID                  string        `json:"id"`
	Title               string        `json:"title"`
	Note                string        `json:"note"`
	RecurrenceTag       RecurrenceTag `json:"recurrenceTag"`
	RecurrenceCheckedAt *time.Time    `json:"recurrenceCheckedAt,omitempty"`
	Completed           bool          `json:"completed"`
	DueDate             *string       `json:"dueDate,omitempty"`
	CreatedAt           time.Time     `json:"createdAt"`
	UpdatedAt           time.Time     `json:"updatedAt"`

	// SortOrder is the list position maintained by the store. Lower
	// sorts first; new tasks are prepended.
	SortOrder int64 `json:"-"`
}

type CreateTaskInput struct {
	Title         string  `json:"title"`
	RecurrenceTag *string `json:"recurrenceTag,omitempty"`
	Note          *string `json:"note,omitempty"`
	DueDate       *string `json:"dueDate,omitempty"`
}

// UpdateTaskInput is a partial patch; nil fields are left untouched.
// DueDate alone cannot distinguish "absent" from "clear", so
// ClearDueDate marks an explicit clear.
type UpdateTaskInput struct {
	Title         *string `json:"title,omitempty"`
	RecurrenceTag *string `json:"recurrenceTag,omitempty"`
	Note          *string `json:"note,omitempty"`
	Completed     *bool   `json:"completed,omitempty"`
	DueDate       *string `json:"dueDate,omitempty"`
	ClearDueDate  bool    `json:"clearDueDate,omitempty"`
}

// LegacyTask is the shape of records in the deprecated storage
// location. Fields the old format never wrote are normalized during
// migration.
type LegacyTask struct {
	ID                  string  `json:"id"`
	Title               string  `json:"title"`
	RecurrenceTag       *string `json:"recurrenceTag,omitempty"`
	RecurrenceCheckedAt *string `json:"recurrenceCheckedAt,omitempty"`
	Note                string  `json:"note"`
	Completed           bool    `json:"completed"`
	DueDate             *string `json:"dueDate,omitempty"`
	CreatedAt           string  `json:"createdAt"`
	UpdatedAt           string  `json:"updatedAt"`
}

// MigrationResult tells the caller whether the legacy source may be
// safely discarded.
type MigrationResult struct {
	MigratedCount   int  `json:"migratedCount"`
	AlreadyMigrated bool `json:"alreadyMigrated"`
}

// ValidateTitle trims and checks the title bound. Returns the trimmed
// title or a *ValidationError.
func ValidateTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", &ValidationError{Field: "title", Reason: "title cannot be empty"}
	}
	if utf8.RuneCountInString(trimmed) > MaxTitleLength {
		return "", &ValidationError{Field: "title", Reason: "title exceeds 160 characters"}
	}
	return trimmed, nil
}

// NormalizeRecurrenceTag maps unknown or absent tags to none.
func NormalizeRecurrenceTag(value *string) RecurrenceTag {
	if value == nil {
		return RecurrenceNone
	}
	switch RecurrenceTag(strings.TrimSpace(*value)) {
	case RecurrenceDaily:
		return RecurrenceDaily
	case RecurrenceWeekly:
		return RecurrenceWeekly
	case RecurrenceBiWeekly:
		return RecurrenceBiWeekly
	default:
		return RecurrenceNone
	}
}

// NormalizeDueDate trims the calendar date and collapses empty input
// to nil.
func NormalizeDueDate(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

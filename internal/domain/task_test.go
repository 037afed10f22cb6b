package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTitle(t *testing.T) {
	trimmed, err := ValidateTitle("  Buy milk  ")
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", trimmed)

	_, err = ValidateTitle("   ")
	assert.Error(t, err)
	assert.True(t, IsValidation(err))

	_, err = ValidateTitle(strings.Repeat("x", MaxTitleLength+1))
	assert.Error(t, err)
	assert.True(t, IsValidation(err))

	// The bound counts characters, not bytes.
	wide, err := ValidateTitle(strings.Repeat("ü", MaxTitleLength))
	require.NoError(t, err)
	assert.Equal(t, MaxTitleLength, len([]rune(wide)))
}

func TestNormalizeRecurrenceTag(t *testing.T) {
	strPtr := func(s string) *string { return &s }

	assert.Equal(t, RecurrenceNone, NormalizeRecurrenceTag(nil))
	assert.Equal(t, RecurrenceDaily, NormalizeRecurrenceTag(strPtr("daily")))
	assert.Equal(t, RecurrenceWeekly, NormalizeRecurrenceTag(strPtr(" weekly ")))
	assert.Equal(t, RecurrenceBiWeekly, NormalizeRecurrenceTag(strPtr("bi-weekly")))
	assert.Equal(t, RecurrenceNone, NormalizeRecurrenceTag(strPtr("fortnightly")))
	assert.Equal(t, RecurrenceNone, NormalizeRecurrenceTag(strPtr("")))
}

func TestNormalizeDueDate(t *testing.T) {
	strPtr := func(s string) *string { return &s }

	assert.Nil(t, NormalizeDueDate(nil))
	assert.Nil(t, NormalizeDueDate(strPtr("   ")))

	got := NormalizeDueDate(strPtr(" 2024-05-01 "))
	require.NotNil(t, got)
	assert.Equal(t, "2024-05-01", *got)
}

package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthArithmetic(t *testing.T) {
	m, err := ParseMonth("2024-11")
	require.NoError(t, err)

	assert.Equal(t, "2024-12", m.Next().String())
	assert.Equal(t, "2025-01", m.AddMonths(2).String())
	assert.Equal(t, "2023-11", m.AddMonths(-12).String())
	assert.True(t, m.Before(m.Next()))
	assert.False(t, m.Before(m))
}

func TestMonthOf_TruncatesEndOfMonth(t *testing.T) {
	// 31 janvier + 1 mois ne doit pas sauter février
	jan31 := time.Date(2024, 1, 31, 22, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-02", MonthOf(jan31).Next().String())
}

func TestMonthsBetween_Inclusive(t *testing.T) {
	from, _ := ParseMonth("2024-01")
	to, _ := ParseMonth("2024-03")

	months, err := MonthsBetween(from, to)
	require.NoError(t, err)
	require.Len(t, months, 3)
	assert.Equal(t, "2024-01", months[0].String())
	assert.Equal(t, "2024-02", months[1].String())
	assert.Equal(t, "2024-03", months[2].String())

	_, err = MonthsBetween(to, from)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestMonthWindow(t *testing.T) {
	from, _ := ParseMonth("2024-10")
	months := MonthWindow(from, 6)
	require.Len(t, months, 6)
	assert.Equal(t, "2025-03", months[5].String())
	assert.Nil(t, MonthWindow(from, 0))
}

func TestMonthRange_HalfOpen(t *testing.T) {
	m, _ := ParseMonth("2024-02")
	r := m.Range()

	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), r.Start())
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), r.End())
}

func TestParseMonth_Invalid(t *testing.T) {
	_, err := ParseMonth("2024/01")
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestNewDateRange_RejectsInverted(t *testing.T) {
	now := time.Now()
	_, err := NewDateRange(now, now.Add(-time.Hour))
	assert.Error(t, err)
}

func TestTrailingMonths(t *testing.T) {
	until := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	r := TrailingMonths(until, 6)

	assert.Equal(t, time.Date(2023, 12, 15, 0, 0, 0, 0, time.UTC), r.Start())
	assert.Equal(t, time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC), r.End())
}

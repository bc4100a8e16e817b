package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaysBetween(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2025, 8, d, 0, 0, 0, 0, time.UTC)
	}

	assert.Equal(t, 0, DaysBetween(day(10), day(10)))
	assert.Equal(t, 5, DaysBetween(day(10), day(15)))
	assert.Equal(t, -5, DaysBetween(day(15), day(10)))

	// Time-of-day is ignored; only calendar days count.
	morning := time.Date(2025, 8, 10, 8, 0, 0, 0, time.UTC)
	night := time.Date(2025, 8, 11, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysBetween(morning, night))
}

func TestBeginningOfMonth(t *testing.T) {
	in := time.Date(2025, 8, 28, 17, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), BeginningOfMonth(in))
}

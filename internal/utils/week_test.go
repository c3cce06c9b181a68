package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekStart_MondayBoundary(t *testing.T) {
	want := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)

	cases := map[string]time.Time{
		"monday midnight": time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC),
		"wednesday noon":  time.Date(2026, 10, 14, 12, 30, 0, 0, time.UTC),
		"sunday late":     time.Date(2026, 10, 18, 23, 59, 59, 0, time.UTC),
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			assert.True(t, want.Equal(WeekStart(in, time.UTC)))
		})
	}

	next := WeekStart(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), time.UTC)
	assert.True(t, want.AddDate(0, 0, 7).Equal(next))
}

func TestWeekStart_UsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)

	// Sunday 20:00 UTC is already Monday 05:00 in Tokyo.
	in := time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC)
	got := WeekStart(in, tokyo)

	assert.Equal(t, time.UTC, got.Location())
	assert.True(t, time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC).Equal(got))
	assert.True(t, time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC).Equal(WeekStart(in, nil)))
}

func TestGenerateJoinCode(t *testing.T) {
	code, err := GenerateJoinCode()
	require.NoError(t, err)
	assert.Len(t, code, 4)
	assert.Equal(t, code, NormalizeJoinCode(" "+code+" "))
	assert.Equal(t, "AB2C", NormalizeJoinCode("ab2c"))
}

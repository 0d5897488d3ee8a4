package lc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGTFSDuration(t *testing.T) {
	d, err := parseGTFSDuration("08:05:30")
	require.NoError(t, err)
	assert.Equal(t, 8*time.Hour+5*time.Minute+30*time.Second, d)

	// Seconds are optional.
	d, err = parseGTFSDuration("08:05")
	require.NoError(t, err)
	assert.Equal(t, 8*time.Hour+5*time.Minute, d)

	// Hours past midnight of the service day.
	d, err = parseGTFSDuration("25:00:00")
	require.NoError(t, err)
	assert.Equal(t, 25*time.Hour, d)

	_, err = parseGTFSDuration("junk")
	assert.Error(t, err)
}

func TestScheduledTimeCrossesMidnight(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sec, err := scheduledTime(day, "25:30:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 1, 30, 0, 0, time.UTC).Unix(), sec)
}

func TestShiftDuration24h(t *testing.T) {
	s, ok := shiftDuration24h("01:15:00")
	require.True(t, ok)
	assert.Equal(t, "25:15:00", s)

	_, ok = shiftDuration24h("bogus")
	assert.False(t, ok)
}

func TestPreviousServiceDate(t *testing.T) {
	d, err := previousServiceDate("20240101", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "20231231", d)
}

package lc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkedtransit/gtfsrt2lc/gtfs"
	"github.com/linkedtransit/gtfsrt2lc/gtfsrt"
)

var testDay = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// fiveStops is a trip over S1..S5 departing every 5 minutes from 08:00,
// arriving one minute before each departure.
func fiveStops() []gtfs.StopTime {
	mk := func(id string, seq int, arr, dep string) gtfs.StopTime {
		return gtfs.StopTime{TripID: "t1", StopID: id, StopSequence: seq, ArrivalTime: arr, DepartureTime: dep}
	}
	return []gtfs.StopTime{
		mk("S1", 1, "07:59:00", "08:00:00"),
		mk("S2", 2, "08:04:00", "08:05:00"),
		mk("S3", 3, "08:09:00", "08:10:00"),
		mk("S4", 4, "08:14:00", "08:15:00"),
		mk("S5", 5, "08:19:00", "08:20:00"),
	}
}

func clock(t *testing.T, s string) int64 {
	sec, err := scheduledTime(testDay, s)
	require.NoError(t, err)
	return sec
}

func TestCompleteUpdatesFillsUncoveredStops(t *testing.T) {
	static := fiveStops()
	live := []gtfsrt.StopTimeUpdate{
		{StopID: "S3", Departure: &gtfsrt.TimeEvent{Delay: 120, HasDelay: true}},
	}

	completed := completeUpdates(static, live, testDay, clock(t, "08:00:00"))
	require.Len(t, completed, 5)

	// First stop: departure only, zero delay.
	assert.Nil(t, completed[0].Arrival)
	require.NotNil(t, completed[0].Departure)
	assert.Equal(t, int64(0), completed[0].Departure.Delay)
	assert.Equal(t, clock(t, "08:00:00"), completed[0].Departure.Time)

	// Uncovered stop before the live one: zero delay on both sides.
	require.NotNil(t, completed[1].Arrival)
	require.NotNil(t, completed[1].Departure)
	assert.Equal(t, int64(0), completed[1].Arrival.Delay)
	assert.Equal(t, int64(0), completed[1].Departure.Delay)

	// The live stop: departure pushed 120s, arrival inherited from the
	// previous stop's zero delay.
	assert.Equal(t, int64(0), completed[2].Arrival.Delay)
	assert.Equal(t, int64(120), completed[2].Departure.Delay)
	assert.Equal(t, clock(t, "08:10:00")+120, completed[2].Departure.Time)

	// Stops after the live one inherit its departure delay.
	assert.Equal(t, int64(120), completed[3].Arrival.Delay)
	assert.Equal(t, int64(120), completed[3].Departure.Delay)

	// Last stop: arrival only.
	require.NotNil(t, completed[4].Arrival)
	assert.Nil(t, completed[4].Departure)
	assert.Equal(t, int64(120), completed[4].Arrival.Delay)
	assert.Equal(t, clock(t, "08:19:00")+120, completed[4].Arrival.Time)
}

func TestCompleteUpdatesPropagatesAcrossSkippedStop(t *testing.T) {
	static := fiveStops()
	live := []gtfsrt.StopTimeUpdate{
		{StopID: "S2", Departure: &gtfsrt.TimeEvent{Delay: 60, HasDelay: true}},
		{StopID: "S4", Departure: &gtfsrt.TimeEvent{Delay: 180, HasDelay: true}},
	}

	completed := completeUpdates(static, live, testDay, clock(t, "08:00:00"))
	require.Len(t, completed, 5)

	// S3 was not covered: both sides take S2's departure delay.
	assert.Equal(t, "S3", completed[2].StopID)
	assert.Equal(t, int64(60), completed[2].Arrival.Delay)
	assert.Equal(t, int64(60), completed[2].Departure.Delay)
}

func TestCompleteUpdatesStopSequenceDisambiguatesLoops(t *testing.T) {
	// A circular trip visiting stop A twice.
	static := []gtfs.StopTime{
		{TripID: "loop", StopID: "A", StopSequence: 1, ArrivalTime: "09:00:00", DepartureTime: "09:00:00"},
		{TripID: "loop", StopID: "B", StopSequence: 2, ArrivalTime: "09:10:00", DepartureTime: "09:10:00"},
		{TripID: "loop", StopID: "A", StopSequence: 3, ArrivalTime: "09:20:00", DepartureTime: "09:20:00"},
	}
	live := []gtfsrt.StopTimeUpdate{
		{StopID: "A", StopSequence: 3, HasStopSequence: true,
			Arrival: &gtfsrt.TimeEvent{Delay: 300, HasDelay: true}},
	}

	completed := completeUpdates(static, live, testDay, clock(t, "09:00:00"))
	require.Len(t, completed, 3)

	// The delayed visit is the second one; the first pass through A stays
	// on schedule.
	assert.Equal(t, int64(0), completed[0].Departure.Delay)
	assert.Equal(t, int64(300), completed[2].Arrival.Delay)
}

func TestCompleteUpdatesSkipsForeignStops(t *testing.T) {
	static := fiveStops()
	// A joined train reports a stop that is not part of this static trip.
	live := []gtfsrt.StopTimeUpdate{
		{StopID: "X9", Departure: &gtfsrt.TimeEvent{Delay: 600, HasDelay: true}},
		{StopID: "S2", Departure: &gtfsrt.TimeEvent{Delay: 60, HasDelay: true}},
	}

	completed := completeUpdates(static, live, testDay, clock(t, "08:00:00"))
	require.Len(t, completed, 5)

	for _, cu := range completed {
		assert.NotEqual(t, "X9", cu.StopID)
	}
	assert.Equal(t, int64(60), completed[1].Departure.Delay)
	// X9's delay must not leak into the filled stops.
	assert.Equal(t, int64(60), completed[2].Arrival.Delay)
}

func TestCompleteUpdatesNoLiveCoverage(t *testing.T) {
	completed := completeUpdates(fiveStops(), nil, testDay, clock(t, "08:00:00"))
	assert.Empty(t, completed)
}

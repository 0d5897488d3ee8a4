package lc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkedtransit/gtfsrt2lc/gtfs"
	"github.com/linkedtransit/gtfsrt2lc/gtfsrt"
)

func TestNormalizeEvent(t *testing.T) {
	sched := clock(t, "08:05:00")

	// Delay derived from the absolute time.
	ev := normalizeEvent(&gtfsrt.TimeEvent{Time: sched + 90, HasTime: true}, sched)
	require.NotNil(t, ev)
	assert.Equal(t, int64(90), ev.Delay)

	// Absolute time derived from the delay.
	ev = normalizeEvent(&gtfsrt.TimeEvent{Delay: -30, HasDelay: true}, sched)
	require.NotNil(t, ev)
	assert.Equal(t, sched-30, ev.Time)

	// A zero time with no delay carries no information.
	assert.Nil(t, normalizeEvent(&gtfsrt.TimeEvent{Time: 0, HasTime: true}, sched))
	assert.Nil(t, normalizeEvent(nil, sched))
}

func TestCheckUpdateFillsDepartureFromArrival(t *testing.T) {
	static := fiveStops()
	live := &gtfsrt.StopTimeUpdate{
		StopID:  "S2",
		Arrival: &gtfsrt.TimeEvent{Delay: 45, HasDelay: true},
	}
	prev := &CompletedUpdate{StopID: "S1", Departure: &Event{Delay: 45, Time: clock(t, "08:00:00") + 45}}

	cu := checkUpdate(live, prev, &static[1], 1, 5, testDay, clock(t, "08:00:00"))
	require.NotNil(t, cu.Departure)
	assert.Equal(t, int64(45), cu.Departure.Delay)
	assert.Equal(t, clock(t, "08:05:00")+45, cu.Departure.Time)
}

func TestCheckUpdateStopIDDefaultsFromStatic(t *testing.T) {
	static := fiveStops()
	live := &gtfsrt.StopTimeUpdate{
		StopSequence: 2, HasStopSequence: true,
		Departure: &gtfsrt.TimeEvent{Delay: 0, HasDelay: true},
	}
	cu := checkUpdate(live, nil, &static[1], 1, 5, testDay, clock(t, "08:00:00"))
	assert.Equal(t, "S2", cu.StopID)
}

func TestCheckUpdateConflictInThePastAmendsPrevious(t *testing.T) {
	static := fiveStops()
	// The previous stop predicted a 5 minute delay, but this stop already
	// departed on time. The observed departure wins and the previous
	// departure is corrected.
	prev := &CompletedUpdate{StopID: "S1", Departure: &Event{Delay: 300, Time: clock(t, "08:00:00") + 300}}
	live := &gtfsrt.StopTimeUpdate{
		StopID:    "S2",
		Departure: &gtfsrt.TimeEvent{Delay: 0, HasDelay: true},
	}
	snapshot := clock(t, "09:00:00") // well after the departure

	cu := checkUpdate(live, prev, &static[1], 1, 5, testDay, snapshot)
	require.NotNil(t, cu.Arrival)
	assert.Equal(t, int64(0), cu.Arrival.Delay)
	assert.Equal(t, clock(t, "08:04:00"), cu.Arrival.Time)
	assert.Equal(t, int64(0), prev.Departure.Delay)
	assert.Equal(t, clock(t, "08:00:00"), prev.Departure.Time)
}

func TestCheckUpdateConflictInTheFutureTrustsPrevious(t *testing.T) {
	static := fiveStops()
	prev := &CompletedUpdate{StopID: "S1", Departure: &Event{Delay: 300, Time: clock(t, "08:00:00") + 300}}
	live := &gtfsrt.StopTimeUpdate{
		StopID:    "S2",
		Departure: &gtfsrt.TimeEvent{Delay: 0, HasDelay: true},
	}
	snapshot := clock(t, "07:00:00") // all of it still a prediction

	cu := checkUpdate(live, prev, &static[1], 1, 5, testDay, snapshot)
	require.NotNil(t, cu.Arrival)
	assert.Equal(t, int64(300), cu.Arrival.Delay)
	require.NotNil(t, cu.Departure)
	assert.Equal(t, int64(300), cu.Departure.Delay)
	assert.Equal(t, int64(300), prev.Departure.Delay)
}

func TestReconcileIdempotent(t *testing.T) {
	static := fiveStops()
	schedArr := clock(t, "08:04:00")
	schedDep := clock(t, "08:05:00")
	prev := &CompletedUpdate{StopID: "S1", Departure: &Event{Delay: 60, Time: clock(t, "08:00:00") + 60}}
	cu := &CompletedUpdate{
		StopID:    static[1].StopID,
		Arrival:   &Event{Delay: 60, Time: schedArr + 60},
		Departure: &Event{Delay: 60, Time: schedDep + 60},
	}
	want := *cu

	reconcile(cu, prev, schedArr, schedDep, 1, 5, clock(t, "08:00:00"))
	assert.Equal(t, want.Arrival, cu.Arrival)
	assert.Equal(t, want.Departure, cu.Departure)

	reconcile(cu, prev, schedArr, schedDep, 1, 5, clock(t, "08:00:00"))
	assert.Equal(t, want.Arrival, cu.Arrival)
	assert.Equal(t, want.Departure, cu.Departure)
}

func TestCheckUpdateBadScheduleIsBestEffort(t *testing.T) {
	bad := gtfs.StopTime{TripID: "t1", StopID: "S2", StopSequence: 2, ArrivalTime: "junk", DepartureTime: "junk"}
	live := &gtfsrt.StopTimeUpdate{
		StopID:    "S2",
		Departure: &gtfsrt.TimeEvent{Time: 1700000000, HasTime: true},
	}
	cu := checkUpdate(live, nil, &bad, 1, 5, testDay, 0)
	require.NotNil(t, cu.Departure)
	assert.Equal(t, int64(1700000000), cu.Departure.Time)
	assert.Nil(t, cu.Arrival)
}

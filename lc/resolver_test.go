package lc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkedtransit/gtfsrt2lc/gtfsrt"
)

func TestDeduceTripByStartTime(t *testing.T) {
	engine := testEngine(t, Options{Deduce: true})
	ev := &gtfsrt.TripUpdateEvent{
		RouteID:        "R1",
		StartTime:      "08:00:00",
		StartDate:      "20240101",
		DirectionID:    0,
		HasDirectionID: true,
	}

	trip, date, start, err := engine.deduceTrip(ev)
	require.NoError(t, err)
	assert.Equal(t, "t1", trip.TripID)
	assert.Equal(t, "20240101", date)
	assert.Equal(t, "08:00:00", start)
}

func TestDeduceTripDirectionFilter(t *testing.T) {
	engine := testEngine(t, Options{Deduce: true})
	ev := &gtfsrt.TripUpdateEvent{
		RouteID:        "R1",
		StartTime:      "08:00:00",
		StartDate:      "20240101",
		DirectionID:    1,
		HasDirectionID: true,
	}

	trip, _, _, err := engine.deduceTrip(ev)
	require.NoError(t, err)
	assert.Equal(t, "t2", trip.TripID)
}

func TestDeduceTripDayRollover(t *testing.T) {
	// The producer reports 01:00 on the 2nd for a trip whose schedule says
	// 25:00 of the previous service day.
	engine := testEngine(t, Options{Deduce: true})
	ev := &gtfsrt.TripUpdateEvent{
		RouteID:        "R1",
		StartTime:      "01:00:00",
		StartDate:      "20240102",
		DirectionID:    0,
		HasDirectionID: true,
	}

	trip, date, start, err := engine.deduceTrip(ev)
	require.NoError(t, err)
	assert.Equal(t, "tn", trip.TripID)
	assert.Equal(t, "20240101", date)
	assert.Equal(t, "25:00:00", start)
	assert.Equal(t, "25:00:00", trip.StartTime)
}

func TestDeduceTripUnknownRoute(t *testing.T) {
	engine := testEngine(t, Options{Deduce: true})
	ev := &gtfsrt.TripUpdateEvent{RouteID: "R9", StartTime: "08:00:00", StartDate: "20240101"}

	_, _, _, err := engine.deduceTrip(ev)
	assert.ErrorIs(t, err, ErrNoTripsForRoute)
}

func TestDeduceTripServiceException(t *testing.T) {
	engine := testEngine(t, Options{Deduce: true})

	// January 8th is a Monday but s1 is removed by a calendar exception.
	_, _, _, err := engine.deduceTrip(&gtfsrt.TripUpdateEvent{
		RouteID: "R1", StartTime: "08:00:00", StartDate: "20240108",
		DirectionID: 0, HasDirectionID: true,
	})
	assert.Error(t, err)

	// January 5th is a Friday outside s2's weekday pattern, but an
	// exception adds it.
	trip, date, _, err := engine.deduceTrip(&gtfsrt.TripUpdateEvent{
		RouteID: "R1", StartTime: "11:00:00", StartDate: "20240105",
		DirectionID: 0, HasDirectionID: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "t5", trip.TripID)
	assert.Equal(t, "20240105", date)
}

func TestDeduceTripInfersDateFromClock(t *testing.T) {
	engine := testEngine(t, Options{Deduce: true})
	ev := &gtfsrt.TripUpdateEvent{
		RouteID: "R1", StartTime: "09:00:00",
		DirectionID: 0, HasDirectionID: true,
	}

	trip, date, _, err := engine.deduceTrip(ev)
	require.NoError(t, err)
	assert.Equal(t, "t3", trip.TripID)
	assert.Equal(t, "20240101", date)
}

func TestDeduceTripRequiresStartTime(t *testing.T) {
	engine := testEngine(t, Options{Deduce: true})
	_, _, _, err := engine.deduceTrip(&gtfsrt.TripUpdateEvent{RouteID: "R1"})
	assert.Error(t, err)
}

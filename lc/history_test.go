package lc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkedtransit/gtfsrt2lc/gtfs"
)

func testConnection() Connection {
	dep := time.Date(2024, 1, 1, 8, 2, 0, 0, time.UTC)
	return Connection{
		Type:            TypeConnection,
		DepartureStopID: "S1",
		ArrivalStopID:   "S2",
		DepartureTime:   dep,
		ArrivalTime:     dep.Add(4 * time.Minute),
		DepartureDelay:  120,
		ArrivalDelay:    120,
		PickupType:      PolicyRegular,
		DropOffType:     PolicyRegular,
	}
}

func TestHistoryFirstObservationChanges(t *testing.T) {
	h := NewHistory(gtfs.NewMemStore())
	c := testConnection()
	route := &gtfs.Route{RouteID: "R1", LongName: "First -- Last"}
	trip := &gtfs.Trip{TripID: "t1", ShortName: "IC 101"}

	changed, err := h.Observe(&c, route, trip, "20240101", "08:00:00")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = h.Observe(&c, route, trip, "20240101", "08:00:00")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestHistoryKeysOnScheduledTimes(t *testing.T) {
	h := NewHistory(gtfs.NewMemStore())
	route := &gtfs.Route{RouteID: "R1", LongName: "First -- Last"}
	trip := &gtfs.Trip{TripID: "t1", ShortName: "IC 101"}

	c := testConnection()
	_, err := h.Observe(&c, route, trip, "20240101", "08:00:00")
	require.NoError(t, err)

	// Same scheduled connection, delay grew: live time moves with the
	// delay, the signature must not.
	later := testConnection()
	later.DepartureDelay = 300
	later.ArrivalDelay = 300
	later.DepartureTime = later.DepartureTime.Add(3 * time.Minute)
	later.ArrivalTime = later.ArrivalTime.Add(3 * time.Minute)

	changed, err := h.Observe(&later, route, trip, "20240101", "08:00:00")
	require.NoError(t, err)
	assert.True(t, changed, "a delay change must be emitted")

	changed, err = h.Observe(&later, route, trip, "20240101", "08:00:00")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestHistoryKeysOnTripStartTime(t *testing.T) {
	h := NewHistory(gtfs.NewMemStore())
	c := testConnection()
	route := &gtfs.Route{RouteID: "R1"}
	trip := &gtfs.Trip{TripID: "t1"}

	_, err := h.Observe(&c, route, trip, "20240101", "08:00:00")
	require.NoError(t, err)

	// A later run of the same trip pattern is a distinct connection even
	// when its live times happen to coincide.
	changed, err := h.Observe(&c, route, trip, "20240101", "09:00:00")
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestHistoryPerServiceDate(t *testing.T) {
	h := NewHistory(gtfs.NewMemStore())
	c := testConnection()
	route := &gtfs.Route{RouteID: "R1"}
	trip := &gtfs.Trip{TripID: "t1"}

	changed, err := h.Observe(&c, route, trip, "20240101", "08:00:00")
	require.NoError(t, err)
	assert.True(t, changed)

	// The same schedule on another service date is a distinct observation.
	changed, err = h.Observe(&c, route, trip, "20240108", "08:00:00")
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestHistoryTypeChange(t *testing.T) {
	h := NewHistory(gtfs.NewMemStore())
	c := testConnection()
	route := &gtfs.Route{RouteID: "R1"}
	trip := &gtfs.Trip{TripID: "t1"}

	_, err := h.Observe(&c, route, trip, "20240101", "08:00:00")
	require.NoError(t, err)

	c.Type = TypeCancelledConnection
	changed, err := h.Observe(&c, route, trip, "20240101", "08:00:00")
	require.NoError(t, err)
	assert.True(t, changed, "a cancellation must be emitted")
}

package gtfs

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrMissingStaticFile is returned when a required file of the static feed
// is absent from the archive.
var ErrMissingStaticFile = errors.New("missing static GTFS file")

// Index exposes the static feed as keyed lookups. Records are held by the
// configured Store; the two derived indexes (trips grouped by route, first
// stop time per trip) are small and always kept in memory. An Index is
// read-only after loading and safe for concurrent use.
type Index struct {
	store        Store
	tripsByRoute map[string][]string
	firstStops   map[string]StopTime
	hasCalendar  bool
}

// NewIndex creates an empty index backed by store. Most callers should use
// one of the Load constructors in loader.go instead.
func NewIndex(store Store) *Index {
	return &Index{
		store:        store,
		tripsByRoute: map[string][]string{},
		firstStops:   map[string]StopTime{},
	}
}

// Store returns the backing store, shared with the history filter when both
// are configured on the same database.
func (g *Index) Store() Store { return g.store }

// HasCalendar reports whether calendar data was present in the feed. Trip
// identity deduction is impossible without it.
func (g *Index) HasCalendar() bool { return g.hasCalendar }

func (g *Index) getJSON(bucket, key string, out any) (bool, error) {
	raw, ok, err := g.store.Get(bucket, key)
	if err != nil || !ok {
		return false, err
	}
	return true, json.Unmarshal(raw, out)
}

// Route returns the routes.txt record for routeID.
func (g *Index) Route(routeID string) (*Route, bool, error) {
	var r Route
	ok, err := g.getJSON(BucketRoutes, routeID, &r)
	if !ok || err != nil {
		return nil, false, err
	}
	return &r, true, nil
}

// Trip returns the trips.txt record for tripID.
func (g *Index) Trip(tripID string) (*Trip, bool, error) {
	var t Trip
	ok, err := g.getJSON(BucketTrips, tripID, &t)
	if !ok || err != nil {
		return nil, false, err
	}
	return &t, true, nil
}

// Stop returns the stops.txt record for stopID.
func (g *Index) Stop(stopID string) (*Stop, bool, error) {
	var s Stop
	ok, err := g.getJSON(BucketStops, stopID, &s)
	if !ok || err != nil {
		return nil, false, err
	}
	return &s, true, nil
}

// StopTimes returns the stop_times of tripID ordered by ascending
// stop_sequence.
func (g *Index) StopTimes(tripID string) ([]StopTime, bool, error) {
	var st []StopTime
	ok, err := g.getJSON(BucketStopTimes, tripID, &st)
	if !ok || err != nil {
		return nil, false, err
	}
	return st, true, nil
}

// TripsForRoute returns the ids of all trips operating routeID.
func (g *Index) TripsForRoute(routeID string) []string {
	return g.tripsByRoute[routeID]
}

// FirstStopTime returns the first scheduled stop of tripID.
func (g *Index) FirstStopTime(tripID string) (StopTime, bool) {
	st, ok := g.firstStops[tripID]
	return st, ok
}

// ServiceRunsOn reports whether serviceID is active on date (YYYYMMDD).
// A service runs when date falls inside [start_date, end_date] with the
// matching weekday bit set, unless a calendar exception removes it; an
// exception of type 1 adds service regardless of the weekday pattern or
// date range.
func (g *Index) ServiceRunsOn(serviceID, date string) (bool, error) {
	var exc CalendarDate
	if ok, err := g.getJSON(BucketCalendarDates, serviceID+"|"+date, &exc); err != nil {
		return false, err
	} else if ok {
		return exc.ExceptionType == 1, nil
	}

	var cal Calendar
	ok, err := g.getJSON(BucketCalendars, serviceID, &cal)
	if err != nil || !ok {
		return false, err
	}
	if date < cal.StartDate || date > cal.EndDate {
		return false, nil
	}
	day, err := time.Parse("20060102", date)
	if err != nil {
		return false, err
	}
	return cal.Weekday[int(day.Weekday())], nil
}

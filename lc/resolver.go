package lc

import (
	"errors"
	"fmt"
	"log"

	"github.com/linkedtransit/gtfsrt2lc/gtfs"
	"github.com/linkedtransit/gtfsrt2lc/gtfsrt"
)

// ErrNoTripsForRoute is returned by trip identity deduction when the static
// feed has no trips for the update's route. Per-trip recoverable: the
// update is dropped, the batch continues.
var ErrNoTripsForRoute = errors.New("no trips found for route")

// deduceTrip identifies a trip the feed did not name explicitly, from its
// route, nominal start time, service date and direction. It returns the
// matched trip together with the (possibly corrected) service date and
// start time: some producers report a trip that started before midnight
// with the wall-clock time of the current service day, so a start time
// matching the static first departure shifted by +24h identifies the trip
// of the previous service day.
func (e *Engine) deduceTrip(ev *gtfsrt.TripUpdateEvent) (*gtfs.Trip, string, string, error) {
	if !e.idx.HasCalendar() {
		return nil, "", "", errors.New("trip deduction requires calendar data")
	}
	if ev.StartTime == "" {
		return nil, "", "", errors.New("trip update carries neither trip_id nor start_time")
	}

	tripIDs := e.idx.TripsForRoute(ev.RouteID)
	if len(tripIDs) == 0 {
		return nil, "", "", fmt.Errorf("route %s: %w", ev.RouteID, ErrNoTripsForRoute)
	}
	shifted, hasShifted := shiftDuration24h(ev.StartTime)

	var (
		match     *gtfs.Trip
		matchDate string
		matchTime string
	)
	for _, tripID := range tripIDs {
		trip, ok, err := e.idx.Trip(tripID)
		if err != nil {
			return nil, "", "", err
		}
		if !ok {
			continue
		}
		if ev.HasDirectionID && trip.DirectionID != ev.DirectionID {
			continue
		}
		first, ok := e.idx.FirstStopTime(tripID)
		if !ok {
			continue
		}

		startTime := ""
		dayShift := 0
		switch {
		case first.DepartureTime == ev.StartTime:
			startTime = ev.StartTime
		case hasShifted && first.DepartureTime == shifted:
			startTime = shifted
			dayShift = -1
		default:
			continue
		}

		date, err := e.candidateDate(ev.StartDate, dayShift)
		if err != nil {
			return nil, "", "", err
		}
		active, err := e.serviceActiveNear(trip.ServiceID, date, ev.StartDate == "")
		if err != nil {
			return nil, "", "", err
		}
		if active != "" {
			if match != nil {
				log.Printf("warn: ambiguous trip identity for route %s: %s and %s both match, keeping %s",
					ev.RouteID, match.TripID, trip.TripID, trip.TripID)
			}
			t := *trip
			t.StartTime = startTime
			match, matchDate, matchTime = &t, active, startTime
		}
	}
	if match == nil {
		return nil, "", "", fmt.Errorf("could not identify trip of route %s starting at %s (direction %d)",
			ev.RouteID, ev.StartTime, ev.DirectionID)
	}
	return match, matchDate, matchTime, nil
}

// candidateDate applies the day shift of a +24h corrected start time to the
// feed's start date. An empty start date stays empty; the nearest-weekday
// search resolves it later.
func (e *Engine) candidateDate(startDate string, dayShift int) (string, error) {
	if startDate == "" || dayShift == 0 {
		return startDate, nil
	}
	return previousServiceDate(startDate, e.loc)
}

// serviceActiveNear returns the date the service is active on, or "" when
// it is not. With inferDate set the feed gave no start date and the closest
// plausible service day is searched: today, then yesterday (overnight trips
// usually started the previous day), then tomorrow.
func (e *Engine) serviceActiveNear(serviceID, date string, inferDate bool) (string, error) {
	if !inferDate {
		ok, err := e.idx.ServiceRunsOn(serviceID, date)
		if err != nil || !ok {
			return "", err
		}
		return date, nil
	}
	now := e.now().In(e.loc)
	for _, shift := range []int{0, -1, 1} {
		d := now.AddDate(0, 0, shift).Format("20060102")
		ok, err := e.idx.ServiceRunsOn(serviceID, d)
		if err != nil {
			return "", err
		}
		if ok {
			return d, nil
		}
	}
	return "", nil
}

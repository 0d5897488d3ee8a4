package lc

import (
	"log"
	"time"

	"github.com/linkedtransit/gtfsrt2lc/gtfs"
	"github.com/linkedtransit/gtfsrt2lc/gtfsrt"
	"github.com/linkedtransit/gtfsrt2lc/uritemplate"
)

// buildConnections walks the completed updates in adjacent pairs and emits
// one connection per pair: departure side from the first update of the
// pair, arrival side from the second. A failure while building one pair
// drops that pair only.
func (e *Engine) buildConnections(ev *gtfsrt.TripUpdateEvent, trip *gtfs.Trip, route *gtfs.Route,
	staticStops []gtfs.StopTime, completed []*CompletedUpdate, tripStart time.Time) []Connection {

	connType := TypeConnection
	if ev.Canceled() {
		connType = TypeCancelledConnection
	}

	firstIdx := findIndex(completed[0].StopID, staticStops)
	conns := make([]Connection, 0, len(completed)-1)
	for j := 0; j < len(completed)-1; j++ {
		cu, next := completed[j], completed[j+1]
		if cu.Departure == nil || next.Arrival == nil {
			log.Printf("warn: incomplete update pair %s -> %s for trip %s, skipping connection",
				cu.StopID, next.StopID, trip.TripID)
			continue
		}

		c := Connection{
			Type:            connType,
			DepartureTime:   time.Unix(cu.Departure.Time, 0).UTC(),
			ArrivalTime:     time.Unix(next.Arrival.Time, 0).UTC(),
			DepartureDelay:  cu.Departure.Delay,
			ArrivalDelay:    next.Arrival.Delay,
			Direction:       trip.Headsign,
			TripID:          trip.TripID,
			RouteID:         trip.RouteID,
			DepartureStopID: cu.StopID,
			ArrivalStopID:   next.StopID,
			PickupType:      policy(cu.ScheduleRelationship, stopTimeAt(staticStops, firstIdx+j, cu.StopID).PickupType),
			DropOffType:     policy(next.ScheduleRelationship, stopTimeAt(staticStops, firstIdx+j+1, next.StopID).DropOffType),
		}
		if err := e.resolveURIs(&c, trip, route, tripStart); err != nil {
			log.Printf("warn: error building connection %s -> %s for trip %s: %v",
				cu.StopID, next.StopID, trip.TripID, err)
			continue
		}
		conns = append(conns, c)
	}
	return conns
}

// stopTimeAt returns the static stop time describing stopID. The completed
// updates stay in static order with one entry per static stop from the
// first covered one, so the positional guess is normally right; a stop id
// lookup backs it up so a mismatch can never yield another stop's
// pickup/drop-off policy.
func stopTimeAt(staticStops []gtfs.StopTime, idx int, stopID string) *gtfs.StopTime {
	if idx >= 0 && idx < len(staticStops) && staticStops[idx].StopID == stopID {
		return &staticStops[idx]
	}
	if i := findIndex(stopID, staticStops); i >= 0 {
		return &staticStops[i]
	}
	return &gtfs.StopTime{}
}

// policy maps the live schedule relationship of a stop and its static
// pickup or drop-off type to the GTFS vocabulary term.
func policy(liveRel int32, staticType int) string {
	if liveRel == gtfsrt.StopSkipped {
		return PolicyNotAvailable
	}
	switch staticType {
	case 1:
		return PolicyNotAvailable
	case 2:
		return PolicyMustPhone
	case 3:
		return PolicyMustCoordinateWithDriver
	default:
		return PolicyRegular
	}
}

func (e *Engine) resolveURIs(c *Connection, trip *gtfs.Trip, route *gtfs.Route, tripStart time.Time) error {
	depStop, _, err := e.idx.Stop(c.DepartureStopID)
	if err != nil {
		return err
	}
	if depStop == nil {
		depStop = &gtfs.Stop{StopID: c.DepartureStopID}
	}
	arrStop, _, err := e.idx.Stop(c.ArrivalStopID)
	if err != nil {
		return err
	}
	if arrStop == nil {
		arrStop = &gtfs.Stop{StopID: c.ArrivalStopID}
	}

	ctx := uritemplate.Context{
		Trip:          trip,
		Route:         route,
		StartTime:     tripStart,
		DepartureStop: c.DepartureStopID,
		ArrivalStop:   c.ArrivalStopID,
		DepartureTime: c.DepartureTime,
		ArrivalTime:   c.ArrivalTime,
	}

	ctx.Stop = depStop
	if c.DepartureStop, err = e.templates.Expand(e.templates.Stop, &ctx); err != nil {
		return err
	}
	ctx.Stop = arrStop
	if c.ArrivalStop, err = e.templates.Expand(e.templates.Stop, &ctx); err != nil {
		return err
	}
	ctx.Stop = nil
	if c.Route, err = e.templates.Expand(e.templates.Route, &ctx); err != nil {
		return err
	}
	if c.Trip, err = e.templates.Expand(e.templates.Trip, &ctx); err != nil {
		return err
	}
	if c.ID, err = e.templates.Expand(e.templates.Connection, &ctx); err != nil {
		return err
	}
	return nil
}

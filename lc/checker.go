package lc

import (
	"log"
	"time"

	"github.com/linkedtransit/gtfsrt2lc/gtfs"
	"github.com/linkedtransit/gtfsrt2lc/gtfsrt"
)

// checkUpdate turns a live stop update into a CompletedUpdate: it fills in
// missing arrival/departure sub-fields from the static schedule and the
// surrounding updates, and corrects chronological inconsistencies between
// this stop and the previous one. prev may be amended in place when the
// conflict resolution decides the previous departure was the wrong value.
// Best-effort: on malformed static times the partially reconciled update is
// returned as-is and the connection builder tolerates the missing fields.
func checkUpdate(live *gtfsrt.StopTimeUpdate, prev *CompletedUpdate, static *gtfs.StopTime, staticIndex, staticLength int, serviceDay time.Time, snapshot int64) *CompletedUpdate {
	cu := &CompletedUpdate{StopID: live.StopID, ScheduleRelationship: live.ScheduleRelationship}
	// The stop id may be absent in GTFS-RT v2.0 when the stop sequence is
	// given instead.
	if cu.StopID == "" {
		cu.StopID = static.StopID
	}

	schedArr, errA := scheduledTime(serviceDay, static.ArrivalTime)
	schedDep, errD := scheduledTime(serviceDay, static.DepartureTime)
	if errA != nil || errD != nil {
		log.Printf("warn: unparseable scheduled times for trip %s stop %s (arrival %q, departure %q)",
			static.TripID, static.StopID, static.ArrivalTime, static.DepartureTime)
		cu.Arrival = rawEvent(live.Arrival)
		cu.Departure = rawEvent(live.Departure)
		return cu
	}

	cu.Arrival = normalizeEvent(live.Arrival, schedArr)
	cu.Departure = normalizeEvent(live.Departure, schedDep)

	reconcile(cu, prev, schedArr, schedDep, staticIndex, staticLength, snapshot)
	return cu
}

// normalizeEvent completes an arrival or departure sub-record: a missing
// delay is derived from the absolute time against the schedule, a missing
// (or zero) absolute time from the schedule plus the delay.
func normalizeEvent(te *gtfsrt.TimeEvent, sched int64) *Event {
	if te == nil {
		return nil
	}
	switch {
	case te.HasTime && te.Time != 0 && te.HasDelay:
		return &Event{Delay: te.Delay, Time: te.Time}
	case te.HasTime && te.Time != 0:
		return &Event{Delay: te.Time - sched, Time: te.Time}
	case te.HasDelay:
		return &Event{Delay: te.Delay, Time: sched + te.Delay}
	default:
		return nil
	}
}

func rawEvent(te *gtfsrt.TimeEvent) *Event {
	if te == nil {
		return nil
	}
	return &Event{Delay: te.Delay, Time: te.Time}
}

// reconcile applies the completion and consistency rules to an update whose
// present sub-fields are already normalized. Running it again on a
// consistent update changes nothing.
func reconcile(cu, prev *CompletedUpdate, schedArr, schedDep int64, staticIndex, staticLength int, snapshot int64) {
	// A missing departure inherits the arrival delay at this stop, except at
	// the last stop of the trip which has no departure at all.
	if cu.Departure == nil && staticIndex != staticLength-1 {
		if cu.Arrival != nil {
			cu.Departure = &Event{Delay: cu.Arrival.Delay, Time: schedDep + cu.Arrival.Delay}
		} else {
			cu.Departure = &Event{Delay: 0, Time: schedDep}
		}
	}

	// A missing arrival inherits the departure delay of the previous stop,
	// unless that would put the arrival after this stop's departure.
	if cu.Arrival == nil && staticIndex != 0 {
		var prevDelay int64
		if prev != nil && prev.Departure != nil {
			prevDelay = prev.Departure.Delay
		}
		candidate := &Event{Delay: prevDelay, Time: schedArr + prevDelay}
		switch {
		case cu.Departure == nil || candidate.Time <= cu.Departure.Time:
			cu.Arrival = candidate
		case cu.Departure.Time < snapshot:
			// The departure already happened: its delay is a fact, the
			// previous stop's delay was a prediction. Trust the fact and
			// correct the previous departure to match.
			cu.Arrival = &Event{Delay: cu.Departure.Delay, Time: schedArr + cu.Departure.Delay}
			amendDeparture(prev, cu.Departure.Delay)
		default:
			// Still a prediction: trust the previous stop instead.
			cu.Arrival = candidate
			cu.Departure = &Event{Delay: prevDelay, Time: schedDep + prevDelay}
		}
	}

	// Residual inconsistency with the previous stop.
	if prev != nil && prev.Departure != nil && cu.Arrival != nil && prev.Departure.Time > cu.Arrival.Time {
		d := prev.Departure.Delay
		cu.Arrival = &Event{Delay: d, Time: schedArr + d}
		if cu.Departure != nil && cu.Arrival.Time > cu.Departure.Time {
			cu.Departure = &Event{Delay: d, Time: schedDep + d}
		}
	}
}

// amendDeparture rewrites the departure of an already emitted update with a
// new delay, keeping its scheduled time.
func amendDeparture(prev *CompletedUpdate, delay int64) {
	if prev == nil || prev.Departure == nil {
		return
	}
	sched := prev.Departure.Time - prev.Departure.Delay
	prev.Departure = &Event{Delay: delay, Time: sched + delay}
}

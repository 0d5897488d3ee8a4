package lc

import (
	"log"
	"time"

	"github.com/linkedtransit/gtfsrt2lc/gtfs"
	"github.com/linkedtransit/gtfsrt2lc/gtfsrt"
)

// completeUpdates merges the static ordered stop sequence of a trip with the
// sparse live update list into one reconciled sequence, in static order.
//
// Some operators only provide delays for some of the stops of a trip.
// According to the GTFS-RT spec, a stop without an update takes the delay of
// the closest preceding stop that has one, so gaps after the first consumed
// update are filled by propagating the previous departure delay. Static
// stops before the first live update are emitted with zero delay. Live
// updates whose stop cannot be located in the static sequence belong to a
// joining or splitting service and are skipped.
func completeUpdates(staticStops []gtfs.StopTime, liveStops []gtfsrt.StopTimeUpdate, serviceDay time.Time, snapshot int64) []*CompletedUpdate {
	completed := []*CompletedUpdate{}
	liveIndex := 0

	for i := 0; i < len(staticStops); i++ {
		staticStop := staticStops[i].StopID

		var live *gtfsrt.StopTimeUpdate
		if liveIndex < len(liveStops) {
			live = &liveStops[liveIndex]
		}

		if live != nil && matchesStatic(live, &staticStops[i]) {
			cu := checkUpdate(live, lastUpdate(completed), &staticStops[i], i, len(staticStops), serviceDay, snapshot)
			completed = append(completed, cu)
			liveIndex++
			continue
		}

		if live != nil && !locatable(live, staticStops) {
			// Not part of this static trip (joined/split trains): drop the
			// live update and look at this static stop again.
			liveIndex++
			i--
			continue
		}

		if live == nil && len(completed) == 0 {
			// Nothing to reconcile against.
			continue
		}

		prevDelay := int64(0)
		if prev := lastUpdate(completed); prev != nil && prev.Departure != nil {
			prevDelay = prev.Departure.Delay
		}
		cu, err := fillerUpdate(&staticStops[i], i, len(staticStops), serviceDay, prevDelay)
		if err != nil {
			log.Printf("warn: skipping stop %s of trip %s: %v", staticStop, staticStops[i].TripID, err)
			continue
		}
		completed = append(completed, cu)
	}

	return completed
}

// fillerUpdate synthesizes the update for a static stop the feed did not
// cover, applying delay uniformly to the scheduled times. The first stop of
// a trip gets only a departure and the last only an arrival.
func fillerUpdate(st *gtfs.StopTime, staticIndex, staticLength int, serviceDay time.Time, delay int64) (*CompletedUpdate, error) {
	cu := &CompletedUpdate{StopID: st.StopID}
	if staticIndex != 0 {
		arr, err := scheduledTime(serviceDay, st.ArrivalTime)
		if err != nil {
			return nil, err
		}
		cu.Arrival = &Event{Delay: delay, Time: arr + delay}
	}
	if staticIndex != staticLength-1 {
		dep, err := scheduledTime(serviceDay, st.DepartureTime)
		if err != nil {
			return nil, err
		}
		cu.Departure = &Event{Delay: delay, Time: dep + delay}
	}
	return cu, nil
}

// matchesStatic reports whether a live update targets this static stop. The
// stop sequence is authoritative when present: it disambiguates trips
// visiting the same stop more than once.
func matchesStatic(live *gtfsrt.StopTimeUpdate, st *gtfs.StopTime) bool {
	if live.HasStopSequence {
		return live.StopSequence == st.StopSequence
	}
	return live.StopID != "" && live.StopID == st.StopID
}

// locatable reports whether the live update's target exists anywhere in the
// static sequence.
func locatable(live *gtfsrt.StopTimeUpdate, staticStops []gtfs.StopTime) bool {
	if live.HasStopSequence {
		return findStopBySequence(live.StopSequence, staticStops) != nil
	}
	return findIndex(live.StopID, staticStops) >= 0
}

func lastUpdate(completed []*CompletedUpdate) *CompletedUpdate {
	if len(completed) == 0 {
		return nil
	}
	return completed[len(completed)-1]
}

func findStopBySequence(stopSequence int, staticStops []gtfs.StopTime) *gtfs.StopTime {
	for i := range staticStops {
		if staticStops[i].StopSequence == stopSequence {
			return &staticStops[i]
		}
	}
	return nil
}

func findIndex(stopID string, staticStops []gtfs.StopTime) int {
	for i := range staticStops {
		if staticStops[i].StopID == stopID {
			return i
		}
	}
	return -1
}

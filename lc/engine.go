package lc

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/linkedtransit/gtfsrt2lc/gtfs"
	"github.com/linkedtransit/gtfsrt2lc/gtfsrt"
	"github.com/linkedtransit/gtfsrt2lc/uritemplate"
)

// Metrics receives counters from the engine. The zero dependency is a
// no-op; the metrics package provides a Prometheus-backed implementation.
type Metrics interface {
	TripProcessed()
	TripSkipped()
	ConnectionEmitted(cancelled bool)
	ConnectionSuppressed()
	BatchDone(d time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) TripProcessed()          {}
func (nopMetrics) TripSkipped()            {}
func (nopMetrics) ConnectionEmitted(bool)  {}
func (nopMetrics) ConnectionSuppressed()   {}
func (nopMetrics) BatchDone(time.Duration) {}

// Options configure an Engine.
type Options struct {
	// Templates resolve the URIs of emitted connections. Required.
	Templates *uritemplate.Set
	// History, when set, suppresses connections whose delays and type did
	// not change since the last observation for the same service date.
	History *History
	// Deduce enables trip identity deduction for updates without a trip_id.
	Deduce bool
	// Location anchors service days; nil means the local time zone.
	Location *time.Location
	// Metrics receives engine counters; nil means none are kept.
	Metrics Metrics
	// Now is the clock used for service date inference; nil means time.Now.
	// Swapped in tests.
	Now func() time.Time
}

// Engine reconciles one decoded feed snapshot against the static index and
// produces the connection stream. It only reads the index and is safe for
// concurrent use.
type Engine struct {
	idx       *gtfs.Index
	templates *uritemplate.Set
	history   *History
	deduce    bool
	loc       *time.Location
	metrics   Metrics
	now       func() time.Time
}

// NewEngine creates an engine over a loaded static index.
func NewEngine(idx *gtfs.Index, opts Options) (*Engine, error) {
	if opts.Templates == nil {
		return nil, fmt.Errorf("engine requires URI templates")
	}
	if opts.Deduce && !idx.HasCalendar() {
		return nil, fmt.Errorf("trip deduction requested but the static feed has no calendar")
	}
	e := &Engine{
		idx:       idx,
		templates: opts.Templates,
		history:   opts.History,
		deduce:    opts.Deduce,
		loc:       opts.Location,
		metrics:   opts.Metrics,
		now:       opts.Now,
	}
	if e.loc == nil {
		e.loc = time.Local
	}
	if e.metrics == nil {
		e.metrics = nopMetrics{}
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e, nil
}

// Process fans out every trip update of the snapshot to its own goroutine
// and streams the resulting connections. No ordering across trips is
// guaranteed. The channel closes once every entity has settled; a single
// trip's failure is logged and does not fail the batch. Sends respect ctx,
// so a cancelled consumer stops production.
func (e *Engine) Process(ctx context.Context, feed *gtfsrt.Feed) <-chan Connection {
	out := make(chan Connection)
	started := time.Now()

	go func() {
		defer close(out)
		var wg sync.WaitGroup
		for i := range feed.Updates {
			wg.Add(1)
			go func(ev *gtfsrt.TripUpdateEvent) {
				defer wg.Done()
				conns, err := e.processTrip(ev, feed.Timestamp)
				if err != nil {
					log.Printf("warn: dropping trip update (trip %q route %q): %v", ev.TripID, ev.RouteID, err)
					e.metrics.TripSkipped()
					return
				}
				e.metrics.TripProcessed()
				for _, c := range conns {
					select {
					case out <- c:
						e.metrics.ConnectionEmitted(c.Type == TypeCancelledConnection)
					case <-ctx.Done():
						return
					}
				}
			}(&feed.Updates[i])
		}
		wg.Wait()
		e.metrics.BatchDone(time.Since(started))
	}()

	return out
}

// processTrip reconciles one trip update into its connections.
func (e *Engine) processTrip(ev *gtfsrt.TripUpdateEvent, snapshot int64) ([]Connection, error) {
	tripID := ev.TripID
	serviceDate := ev.StartDate
	startTime := ev.StartTime

	// Deduction only runs when the feed omitted the trip id.
	if tripID == "" {
		if !e.deduce {
			return nil, fmt.Errorf("no trip_id and deduction is disabled")
		}
		trip, date, start, err := e.deduceTrip(ev)
		if err != nil {
			return nil, err
		}
		tripID, serviceDate, startTime = trip.TripID, date, start
	}

	trip, ok, err := e.idx.Trip(tripID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no data found in GTFS source for trip %s", tripID)
	}
	staticStops, ok, err := e.idx.StopTimes(tripID)
	if err != nil {
		return nil, err
	}
	if !ok || len(staticStops) < 2 {
		return nil, fmt.Errorf("insufficient stop times for trip %s", tripID)
	}

	if serviceDate == "" {
		serviceDate, err = e.inferServiceDate(trip.ServiceID)
		if err != nil {
			return nil, err
		}
	}
	serviceDay, err := ParseServiceDay(serviceDate, e.loc)
	if err != nil {
		return nil, err
	}

	if startTime == "" {
		startTime = staticStops[0].DepartureTime
	}
	startDur, err := parseGTFSDuration(startTime)
	if err != nil {
		return nil, err
	}
	tripStart := serviceDay.Add(startDur)

	route, _, err := e.idx.Route(trip.RouteID)
	if err != nil {
		return nil, err
	}
	if route == nil {
		route = &gtfs.Route{RouteID: trip.RouteID}
	}

	completed := completeUpdates(staticStops, ev.StopTimeUpdates, serviceDay, snapshot)
	if len(completed) < 2 {
		return nil, nil
	}
	conns := e.buildConnections(ev, trip, route, staticStops, completed, tripStart)

	if e.history != nil {
		kept := conns[:0]
		for i := range conns {
			changed, err := e.history.Observe(&conns[i], route, trip, serviceDate, startTime)
			if err != nil {
				return nil, err
			}
			if changed {
				kept = append(kept, conns[i])
			} else {
				e.metrics.ConnectionSuppressed()
			}
		}
		conns = kept
	}
	return conns, nil
}

// inferServiceDate finds the closest service day of the trip's calendar
// when the feed gave none.
func (e *Engine) inferServiceDate(serviceID string) (string, error) {
	if !e.idx.HasCalendar() {
		return "", fmt.Errorf("no start_date in feed and no calendar in static data")
	}
	d, err := e.serviceActiveNear(serviceID, "", true)
	if err != nil {
		return "", err
	}
	if d == "" {
		return "", fmt.Errorf("service %s not active on any day near now", serviceID)
	}
	return d, nil
}

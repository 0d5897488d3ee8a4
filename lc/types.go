package lc

import (
	"time"
)

// Event is the reconciled arrival or departure at a stop: an absolute epoch
// time plus the delay (seconds) against the static schedule.
type Event struct {
	Delay int64 `json:"delay"`
	Time  int64 `json:"time"`
}

// CompletedUpdate is one fully reconciled stop of a trip. After the
// consistency checker runs, both Arrival and Departure are set, except that
// the update for the first static stop of a trip has only a departure and
// the one for the last static stop only an arrival.
type CompletedUpdate struct {
	StopID               string
	Arrival              *Event
	Departure            *Event
	ScheduleRelationship int32
}

// ConnectionType distinguishes running from cancelled connections.
type ConnectionType string

const (
	TypeConnection          ConnectionType = "Connection"
	TypeCancelledConnection ConnectionType = "CancelledConnection"
)

// Pickup and drop-off policies in GTFS vocabulary terms.
const (
	PolicyRegular                  = "gtfs:Regular"
	PolicyNotAvailable             = "gtfs:NotAvailable"
	PolicyMustPhone                = "gtfs:MustPhone"
	PolicyMustCoordinateWithDriver = "gtfs:MustCoordinateWithDriver"
)

// Connection is one atomic hop between two consecutive stops of a trip,
// enriched with resolved URIs, absolute times and delays. Connections are
// ephemeral: one per adjacent pair of completed updates per feed snapshot.
type Connection struct {
	ID   string
	Type ConnectionType

	DepartureStop string // resolved stop URI
	ArrivalStop   string // resolved stop URI
	DepartureTime time.Time
	ArrivalTime   time.Time

	DepartureDelay int64
	ArrivalDelay   int64

	Trip      string // resolved trip URI
	Route     string // resolved route URI
	Direction string // trip headsign

	PickupType  string
	DropOffType string

	// Raw identifiers, kept for the differential history signature and
	// for metrics. Serializers only use the URIs above.
	TripID          string
	RouteID         string
	DepartureStopID string
	ArrivalStopID   string
}

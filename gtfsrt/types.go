package gtfsrt

// TimeEvent is the arrival or departure part of a stop time update. Either
// the absolute time or the delay (or both) may be present.
type TimeEvent struct {
	Time     int64
	HasTime  bool
	Delay    int64
	HasDelay bool
}

// StopTimeUpdate is one per-stop entry of a trip update. At least one of
// StopID / StopSequence is expected so the aligner can locate the static
// counterpart.
type StopTimeUpdate struct {
	StopID               string
	StopSequence         int
	HasStopSequence      bool
	Arrival              *TimeEvent
	Departure            *TimeEvent
	ScheduleRelationship int32
}

// Schedule relationship values carried through from the wire format.
const (
	TripScheduled int32 = 0
	TripCanceled  int32 = 3

	StopScheduled int32 = 0
	StopSkipped   int32 = 1
	StopNoData    int32 = 2
)

// TripUpdateEvent is one trip update entity of a feed snapshot. TripID may
// be empty, in which case the trip has to be identified from RouteID,
// StartTime, StartDate and DirectionID.
type TripUpdateEvent struct {
	TripID               string
	RouteID              string
	DirectionID          int
	HasDirectionID       bool
	StartTime            string
	StartDate            string
	ScheduleRelationship int32
	IsDeleted            bool
	Timestamp            int64
	StopTimeUpdates      []StopTimeUpdate
}

// Canceled reports whether the whole trip is flagged as not running.
func (e *TripUpdateEvent) Canceled() bool {
	return e.IsDeleted || e.ScheduleRelationship == TripCanceled
}

// Feed is a decoded trip updates snapshot.
type Feed struct {
	// Timestamp is the feed header timestamp (epoch seconds), the moment
	// the snapshot was produced.
	Timestamp int64
	Updates   []TripUpdateEvent
}

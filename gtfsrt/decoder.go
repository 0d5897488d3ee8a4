package gtfsrt

import (
	"fmt"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// DecodeJSON renders a binary FeedMessage as JSON, entities of all kinds
// included.
func DecodeJSON(raw []byte) ([]byte, error) {
	var msg gtfsrtpb.FeedMessage
	if err := proto.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("decoding GTFS-RT feed: %w", err)
	}
	return protojson.Marshal(&msg)
}

// Decode parses a binary GTFS-RT FeedMessage into a normalized Feed. Only
// trip update entities are kept; vehicle positions and alerts are ignored.
func Decode(raw []byte) (*Feed, error) {
	var msg gtfsrtpb.FeedMessage
	if err := proto.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("decoding GTFS-RT feed: %w", err)
	}

	feed := &Feed{Timestamp: time.Now().Unix()}
	if msg.Header != nil && msg.Header.Timestamp != nil {
		feed.Timestamp = int64(msg.Header.GetTimestamp())
	}

	for _, e := range msg.Entity {
		tu := e.GetTripUpdate()
		if tu == nil {
			continue
		}
		trip := tu.GetTrip()
		ev := TripUpdateEvent{
			TripID:    trip.GetTripId(),
			RouteID:   trip.GetRouteId(),
			StartTime: trip.GetStartTime(),
			StartDate: trip.GetStartDate(),
			IsDeleted: e.GetIsDeleted(),
			Timestamp: feed.Timestamp,
		}
		if trip != nil && trip.DirectionId != nil {
			ev.DirectionID = int(trip.GetDirectionId())
			ev.HasDirectionID = true
		}
		if trip != nil && trip.ScheduleRelationship != nil {
			ev.ScheduleRelationship = int32(trip.GetScheduleRelationship())
		}
		if tu.Timestamp != nil {
			ev.Timestamp = int64(tu.GetTimestamp())
		}

		for _, stu := range tu.GetStopTimeUpdate() {
			u := StopTimeUpdate{StopID: stu.GetStopId()}
			if stu.StopSequence != nil {
				u.StopSequence = int(stu.GetStopSequence())
				u.HasStopSequence = true
			}
			if stu.ScheduleRelationship != nil {
				u.ScheduleRelationship = int32(stu.GetScheduleRelationship())
			}
			u.Arrival = timeEvent(stu.GetArrival())
			u.Departure = timeEvent(stu.GetDeparture())
			ev.StopTimeUpdates = append(ev.StopTimeUpdates, u)
		}
		feed.Updates = append(feed.Updates, ev)
	}
	return feed, nil
}

func timeEvent(ste *gtfsrtpb.TripUpdate_StopTimeEvent) *TimeEvent {
	if ste == nil {
		return nil
	}
	te := &TimeEvent{}
	if ste.Time != nil {
		te.Time = ste.GetTime()
		te.HasTime = true
	}
	if ste.Delay != nil {
		te.Delay = int64(ste.GetDelay())
		te.HasDelay = true
	}
	return te
}

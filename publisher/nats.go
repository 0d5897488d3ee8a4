// Package publisher pushes serialized connections to a NATS subject so
// downstream Linked Connections servers can consume the stream without
// polling.
package publisher

import (
	"encoding/json"
	"log"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/linkedtransit/gtfsrt2lc/lc"
)

// Metrics receives publish counters. May be nil.
type Metrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	NATSSetConnected(connected bool)
}

// NATSPublisher publishes one JSON message per connection on
// <subject>.<route>.<trip>.
type NATSPublisher struct {
	nc      *nats.Conn
	subject string
	metrics Metrics
}

func NewNATSPublisher(url, subject string, m Metrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("gtfsrt2lc"),
		nats.DisconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			log.Printf("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats closed")
		}),
	)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	return &NATSPublisher{nc: nc, subject: subject, metrics: m}, nil
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		p.nc.Close()
	}
}

// connectionMessage is the NATS payload, carrying the resolved URIs plus
// the raw GTFS identifiers for subject-based filtering on the consumer
// side.
type connectionMessage struct {
	ID             string `json:"@id"`
	Type           string `json:"@type"`
	DepartureStop  string `json:"departureStop"`
	ArrivalStop    string `json:"arrivalStop"`
	DepartureTime  int64  `json:"departureTime"`
	ArrivalTime    int64  `json:"arrivalTime"`
	DepartureDelay int64  `json:"departureDelay"`
	ArrivalDelay   int64  `json:"arrivalDelay"`
	Direction      string `json:"direction"`
	Trip           string `json:"trip"`
	Route          string `json:"route"`
	TripID         string `json:"tripId"`
	RouteID        string `json:"routeId"`
}

// Publish sends one connection. Publish errors are counted and returned;
// callers usually log and move on, NATS reconnects on its own.
func (p *NATSPublisher) Publish(c *lc.Connection) error {
	subject := p.subject + "." + subjectToken(c.RouteID) + "." + subjectToken(c.TripID)
	b, err := json.Marshal(connectionMessage{
		ID:             c.ID,
		Type:           string(c.Type),
		DepartureStop:  c.DepartureStop,
		ArrivalStop:    c.ArrivalStop,
		DepartureTime:  c.DepartureTime.Unix(),
		ArrivalTime:    c.ArrivalTime.Unix(),
		DepartureDelay: c.DepartureDelay,
		ArrivalDelay:   c.ArrivalDelay,
		Direction:      c.Direction,
		Trip:           c.Trip,
		Route:          c.Route,
		TripID:         c.TripID,
		RouteID:        c.RouteID,
	})
	if err != nil {
		return err
	}
	if err := p.nc.Publish(subject, b); err != nil {
		if p.metrics != nil {
			p.metrics.NATSPublishErrInc()
		}
		return err
	}
	if p.metrics != nil {
		p.metrics.NATSPublishedInc()
	}
	return nil
}

// subjectToken sanitizes an id for use inside a NATS subject.
func subjectToken(id string) string {
	if id == "" {
		return "unknown"
	}
	r := strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_")
	return r.Replace(id)
}

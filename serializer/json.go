package serializer

import (
	"encoding/json"
	"io"

	"github.com/linkedtransit/gtfsrt2lc/lc"
)

// connectionJSON is the plain JSON rendition of a connection, one object
// per line.
type connectionJSON struct {
	ID             string `json:"@id"`
	Type           string `json:"@type"`
	DepartureStop  string `json:"departureStop"`
	ArrivalStop    string `json:"arrivalStop"`
	DepartureTime  string `json:"departureTime"`
	ArrivalTime    string `json:"arrivalTime"`
	DepartureDelay int64  `json:"departureDelay"`
	ArrivalDelay   int64  `json:"arrivalDelay"`
	Direction      string `json:"direction"`
	Trip           string `json:"trip"`
	Route          string `json:"route"`
	PickupType     string `json:"gtfs:pickupType"`
	DropOffType    string `json:"gtfs:dropOffType"`
}

func toJSON(c *lc.Connection) connectionJSON {
	return connectionJSON{
		ID:             c.ID,
		Type:           string(c.Type),
		DepartureStop:  c.DepartureStop,
		ArrivalStop:    c.ArrivalStop,
		DepartureTime:  c.DepartureTime.UTC().Format(isoTime),
		ArrivalTime:    c.ArrivalTime.UTC().Format(isoTime),
		DepartureDelay: c.DepartureDelay,
		ArrivalDelay:   c.ArrivalDelay,
		Direction:      c.Direction,
		Trip:           c.Trip,
		Route:          c.Route,
		PickupType:     c.PickupType,
		DropOffType:    c.DropOffType,
	}
}

type jsonWriter struct {
	enc *json.Encoder
}

func newJSONWriter(w io.Writer) *jsonWriter {
	return &jsonWriter{enc: json.NewEncoder(w)}
}

func (j *jsonWriter) Write(c *lc.Connection) error {
	return j.enc.Encode(toJSON(c))
}

func (j *jsonWriter) Close() error { return nil }

// jsonldContext is streamed once before the first connection. The term
// definitions pin the Linked Connections and GTFS vocabularies so the
// per-connection objects stay compact.
const jsonldContext = `{"@context":{"xsd":"http://www.w3.org/2001/XMLSchema#","lc":"http://semweb.mmlab.be/ns/linkedconnections#","gtfs":"http://vocab.gtfs.org/terms#","Connection":"lc:Connection","CancelledConnection":"lc:CancelledConnection","departureStop":{"@type":"@id","@id":"lc:departureStop"},"arrivalStop":{"@type":"@id","@id":"lc:arrivalStop"},"departureTime":{"@id":"lc:departureTime","@type":"xsd:dateTime"},"arrivalTime":{"@id":"lc:arrivalTime","@type":"xsd:dateTime"},"departureDelay":{"@id":"lc:departureDelay","@type":"xsd:integer"},"arrivalDelay":{"@id":"lc:arrivalDelay","@type":"xsd:integer"},"direction":{"@id":"gtfs:headsign","@type":"xsd:string"},"gtfs:trip":{"@type":"@id"},"gtfs:route":{"@type":"@id"}}}`

// connectionJSONLD mirrors connectionJSON with the trip and route moved
// into the gtfs: namespace. Pickup and drop-off stay out of the compacted
// form, matching the plain JSON-LD profile of a connections page.
type connectionJSONLD struct {
	ID             string `json:"@id"`
	Type           string `json:"@type"`
	DepartureStop  string `json:"departureStop"`
	ArrivalStop    string `json:"arrivalStop"`
	DepartureTime  string `json:"departureTime"`
	ArrivalTime    string `json:"arrivalTime"`
	DepartureDelay int64  `json:"departureDelay"`
	ArrivalDelay   int64  `json:"arrivalDelay"`
	Direction      string `json:"direction"`
	Trip           string `json:"gtfs:trip"`
	Route          string `json:"gtfs:route"`
}

type jsonldWriter struct {
	w       io.Writer
	enc     *json.Encoder
	started bool
}

func newJSONLDWriter(w io.Writer) *jsonldWriter {
	return &jsonldWriter{w: w, enc: json.NewEncoder(w)}
}

func (j *jsonldWriter) Write(c *lc.Connection) error {
	if !j.started {
		j.started = true
		if _, err := io.WriteString(j.w, jsonldContext+"\n"); err != nil {
			return err
		}
	}
	return j.enc.Encode(connectionJSONLD{
		ID:             c.ID,
		Type:           string(c.Type),
		DepartureStop:  c.DepartureStop,
		ArrivalStop:    c.ArrivalStop,
		DepartureTime:  c.DepartureTime.UTC().Format(isoTime),
		ArrivalTime:    c.ArrivalTime.UTC().Format(isoTime),
		DepartureDelay: c.DepartureDelay,
		ArrivalDelay:   c.ArrivalDelay,
		Direction:      c.Direction,
		Trip:           c.Trip,
		Route:          c.Route,
	})
}

func (j *jsonldWriter) Close() error { return nil }

package serializer

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/linkedtransit/gtfsrt2lc/lc"
)

var csvHeader = []string{
	"id", "departureStop", "departureTime", "departureDelay",
	"arrivalStop", "arrivalTime", "arrivalDelay",
	"direction", "trip", "route",
}

type csvWriter struct {
	w       *csv.Writer
	started bool
}

func newCSVWriter(w io.Writer) *csvWriter {
	return &csvWriter{w: csv.NewWriter(w)}
}

func (c *csvWriter) Write(conn *lc.Connection) error {
	if !c.started {
		c.started = true
		if err := c.w.Write(csvHeader); err != nil {
			return err
		}
	}
	return c.w.Write([]string{
		conn.ID,
		conn.DepartureStop,
		conn.DepartureTime.UTC().Format(isoTime),
		strconv.FormatInt(conn.DepartureDelay, 10),
		conn.ArrivalStop,
		conn.ArrivalTime.UTC().Format(isoTime),
		strconv.FormatInt(conn.ArrivalDelay, 10),
		conn.Direction,
		conn.Trip,
		conn.Route,
	})
}

func (c *csvWriter) Close() error {
	c.w.Flush()
	return c.w.Error()
}

// Package serializer renders the connection stream into the supported
// output formats. Every writer is streaming: connections go out as they
// arrive, prefixed by a header (CSV columns, JSON-LD context, Turtle
// prefixes) on the first write.
package serializer

import (
	"fmt"
	"io"

	"github.com/linkedtransit/gtfsrt2lc/lc"
)

// Output formats.
const (
	FormatJSON     = "json"
	FormatJSONLD   = "jsonld"
	FormatCSV      = "csv"
	FormatNTriples = "ntriples"
	FormatTurtle   = "turtle"
)

// Writer serializes connections one at a time. Close flushes buffered
// output; it does not close the underlying io.Writer.
type Writer interface {
	Write(c *lc.Connection) error
	Close() error
}

// New returns a writer for the named format.
func New(format string, w io.Writer) (Writer, error) {
	switch format {
	case FormatJSON:
		return newJSONWriter(w), nil
	case FormatJSONLD:
		return newJSONLDWriter(w), nil
	case FormatCSV:
		return newCSVWriter(w), nil
	case FormatNTriples:
		return newTriplesWriter(w, false), nil
	case FormatTurtle:
		return newTriplesWriter(w, true), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// Drain writes every connection of the stream and closes the writer.
func Drain(w Writer, conns <-chan lc.Connection) error {
	for c := range conns {
		if err := w.Write(&c); err != nil {
			return err
		}
	}
	return w.Close()
}

// isoTime renders a time the way the rest of the Linked Connections
// ecosystem expects it, UTC with millisecond precision.
const isoTime = "2006-01-02T15:04:05.000Z"

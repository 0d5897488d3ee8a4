package serializer

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/linkedtransit/gtfsrt2lc/lc"
)

// RDF namespaces used by the triple writers.
const (
	nsRDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	nsLC   = "http://semweb.mmlab.be/ns/linkedconnections#"
	nsGTFS = "http://vocab.gtfs.org/terms#"
	nsXSD  = "http://www.w3.org/2001/XMLSchema#"
)

var turtlePrefixes = "@prefix rdf: <" + nsRDF + ">.\n" +
	"@prefix lc: <" + nsLC + ">.\n" +
	"@prefix gtfs: <" + nsGTFS + ">.\n" +
	"@prefix xsd: <" + nsXSD + ">.\n\n"

// triplesWriter emits one triple per line. In Turtle mode it streams the
// prefix block first and uses prefixed names; otherwise it writes plain
// N-Triples with full IRIs.
type triplesWriter struct {
	w       *bufio.Writer
	turtle  bool
	started bool
}

func newTriplesWriter(w io.Writer, turtle bool) *triplesWriter {
	return &triplesWriter{w: bufio.NewWriter(w), turtle: turtle}
}

func (t *triplesWriter) Write(c *lc.Connection) error {
	if t.turtle && !t.started {
		t.started = true
		if _, err := t.w.WriteString(turtlePrefixes); err != nil {
			return err
		}
	}

	connClass := "Connection"
	if c.Type == lc.TypeCancelledConnection {
		connClass = "CancelledConnection"
	}
	dep := c.DepartureTime.UTC().Format(isoTime)
	arr := c.ArrivalTime.UTC().Format(isoTime)

	t.node(c.ID, t.name("rdf", "type"), t.iri(nsLC, "lc", connClass))
	t.node(c.ID, t.name("lc", "departureStop"), t.ref(c.DepartureStop))
	t.node(c.ID, t.name("lc", "arrivalStop"), t.ref(c.ArrivalStop))
	t.node(c.ID, t.name("lc", "departureTime"), t.typed(dep, "dateTime"))
	t.node(c.ID, t.name("lc", "arrivalTime"), t.typed(arr, "dateTime"))
	t.node(c.ID, t.name("lc", "departureDelay"), t.typed(fmt.Sprint(c.DepartureDelay), "integer"))
	t.node(c.ID, t.name("lc", "arrivalDelay"), t.typed(fmt.Sprint(c.ArrivalDelay), "integer"))
	t.node(c.ID, t.name("gtfs", "headsign"), t.typed(c.Direction, "string"))
	t.node(c.ID, t.name("gtfs", "trip"), t.ref(c.Trip))
	t.node(c.ID, t.name("gtfs", "route"), t.ref(c.Route))

	return t.w.Flush()
}

func (t *triplesWriter) Close() error {
	return t.w.Flush()
}

func (t *triplesWriter) node(subject, predicate, object string) {
	fmt.Fprintf(t.w, "%s %s %s.\n", t.ref(subject), predicate, object)
}

// name renders a predicate, prefixed in Turtle and as a full IRI in
// N-Triples.
func (t *triplesWriter) name(prefix, local string) string {
	if t.turtle {
		return prefix + ":" + local
	}
	switch prefix {
	case "rdf":
		return "<" + nsRDF + local + ">"
	case "lc":
		return "<" + nsLC + local + ">"
	default:
		return "<" + nsGTFS + local + ">"
	}
}

func (t *triplesWriter) iri(ns, prefix, local string) string {
	if t.turtle {
		return prefix + ":" + local
	}
	return "<" + ns + local + ">"
}

func (t *triplesWriter) ref(iri string) string {
	if strings.HasPrefix(iri, "<") {
		return iri
	}
	return "<" + iri + ">"
}

func (t *triplesWriter) typed(value, xsdType string) string {
	lit := `"` + escapeLiteral(value) + `"`
	if t.turtle {
		return lit + "^^xsd:" + xsdType
	}
	return lit + "^^<" + nsXSD + xsdType + ">"
}

func escapeLiteral(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`)
	return r.Replace(s)
}

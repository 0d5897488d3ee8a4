// Package uritemplate produces stable Linked Connections identifiers from
// URI templates with named placeholders (RFC 6570 style), resolved against
// the trip, route, stop and connection being serialized. Placeholder
// namespaces are trips.*, routes.*, stops.* and connection.*; date-valued
// fields take a format suffix, e.g. {connection.departureTime(yyyyMMdd)}.
package uritemplate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/linkedtransit/gtfsrt2lc/gtfs"
)

// Definition is the template configuration, one template per entity kind.
// Resolve optionally overrides how single placeholders are computed; the
// transforms are a fixed set of named functions, deliberately not a
// scripting hook.
type Definition struct {
	Stop       string             `yaml:"stop" json:"stop"`
	Route      string             `yaml:"route" json:"route"`
	Trip       string             `yaml:"trip" json:"trip"`
	Connection string             `yaml:"connection" json:"connection"`
	Resolve    map[string]Resolve `yaml:"resolve" json:"resolve"`
}

// Resolve redirects a placeholder to another source attribute and pipes the
// value through the named transforms, in order.
type Resolve struct {
	Source     string   `yaml:"source" json:"source"`
	Transforms []string `yaml:"transforms" json:"transforms"`
}

// Context carries the entities a template draws its values from. Stop is
// the departure or arrival stop the enclosing template is being resolved
// for; it is nil for route, trip and connection templates.
type Context struct {
	Trip      *gtfs.Trip
	Route     *gtfs.Route
	Stop      *gtfs.Stop
	StartTime time.Time

	DepartureStop string
	ArrivalStop   string
	DepartureTime time.Time
	ArrivalTime   time.Time
}

// Template is one parsed URI template.
type Template struct {
	raw  string
	vars []string
}

var placeholderRe = regexp.MustCompile(`\{([^{}]+)\}`)

// New parses a template string.
func New(raw string) (*Template, error) {
	if raw == "" {
		return nil, fmt.Errorf("empty URI template")
	}
	t := &Template{raw: raw}
	for _, m := range placeholderRe.FindAllStringSubmatch(raw, -1) {
		t.vars = append(t.vars, m[1])
	}
	return t, nil
}

// Set holds the four templates of a feed configuration.
type Set struct {
	Stop       *Template
	Route      *Template
	Trip       *Template
	Connection *Template
	resolve    map[string]Resolve
}

// NewSet parses all templates of a definition.
func NewSet(def Definition) (*Set, error) {
	s := &Set{resolve: def.Resolve}
	var err error
	if s.Stop, err = New(def.Stop); err != nil {
		return nil, fmt.Errorf("stop template: %w", err)
	}
	if s.Route, err = New(def.Route); err != nil {
		return nil, fmt.Errorf("route template: %w", err)
	}
	if s.Trip, err = New(def.Trip); err != nil {
		return nil, fmt.Errorf("trip template: %w", err)
	}
	if s.Connection, err = New(def.Connection); err != nil {
		return nil, fmt.Errorf("connection template: %w", err)
	}
	for name, rule := range def.Resolve {
		for _, tr := range rule.Transforms {
			if transforms[tr] == nil {
				return nil, fmt.Errorf("resolve rule %s: unknown transform %q", name, tr)
			}
		}
	}
	return s, nil
}

// Expand fills a template's placeholders from ctx.
func (s *Set) Expand(t *Template, ctx *Context) (string, error) {
	out := t.raw
	for _, v := range t.vars {
		val, err := s.resolveVar(v, ctx)
		if err != nil {
			return "", err
		}
		out = strings.Replace(out, "{"+v+"}", val, 1)
	}
	return out, nil
}

func (s *Set) resolveVar(name string, ctx *Context) (string, error) {
	if rule, ok := s.resolve[name]; ok {
		val, err := resolveValue(rule.Source, ctx)
		if err != nil {
			return "", err
		}
		for _, tr := range rule.Transforms {
			val = transforms[tr](val)
		}
		return val, nil
	}
	return resolveValue(name, ctx)
}

func resolveValue(param string, ctx *Context) (string, error) {
	source, attr, ok := strings.Cut(param, ".")
	if !ok {
		return "", fmt.Errorf("placeholder %q has no namespace", param)
	}
	attr, format := splitDateFormat(attr)

	switch source {
	case "trips":
		if ctx.Trip == nil {
			return "", fmt.Errorf("placeholder %q: no trip in context", param)
		}
		if attr == "startTime" {
			return formatDate(ctx.StartTime, format), nil
		}
		return tripAttr(ctx.Trip, attr, param)
	case "routes":
		if ctx.Route == nil {
			return "", fmt.Errorf("placeholder %q: no route in context", param)
		}
		return routeAttr(ctx.Route, attr, param)
	case "stops":
		if ctx.Stop == nil {
			return "", fmt.Errorf("placeholder %q: no stop in context", param)
		}
		return stopAttr(ctx.Stop, attr, param)
	case "connection":
		switch attr {
		case "departureStop":
			return ctx.DepartureStop, nil
		case "arrivalStop":
			return ctx.ArrivalStop, nil
		case "departureTime":
			return formatDate(ctx.DepartureTime, format), nil
		case "arrivalTime":
			return formatDate(ctx.ArrivalTime, format), nil
		}
	}
	return "", fmt.Errorf("unresolvable placeholder %q", param)
}

func tripAttr(t *gtfs.Trip, attr, param string) (string, error) {
	switch attr {
	case "trip_id":
		return t.TripID, nil
	case "route_id":
		return t.RouteID, nil
	case "service_id":
		return t.ServiceID, nil
	case "trip_headsign":
		return t.Headsign, nil
	case "trip_short_name":
		return t.ShortName, nil
	case "direction_id":
		return strconv.Itoa(t.DirectionID), nil
	case "block_id":
		return t.BlockID, nil
	}
	return "", fmt.Errorf("unresolvable placeholder %q", param)
}

func routeAttr(r *gtfs.Route, attr, param string) (string, error) {
	switch attr {
	case "route_id":
		return r.RouteID, nil
	case "agency_id":
		return r.AgencyID, nil
	case "route_short_name":
		return r.ShortName, nil
	case "route_long_name":
		// Route long names usually separate endpoints with --; it is no
		// longer 1995 and we can use UTF-8.
		return strings.ReplaceAll(r.LongName, "--", "–"), nil
	case "route_type":
		return strconv.Itoa(r.RouteType), nil
	}
	return "", fmt.Errorf("unresolvable placeholder %q", param)
}

func stopAttr(s *gtfs.Stop, attr, param string) (string, error) {
	switch attr {
	case "stop_id":
		return s.StopID, nil
	case "stop_code":
		return s.Code, nil
	case "stop_name":
		return s.Name, nil
	case "stop_lat":
		return strconv.FormatFloat(s.Lat, 'f', -1, 64), nil
	case "stop_lon":
		return strconv.FormatFloat(s.Lon, 'f', -1, 64), nil
	}
	return "", fmt.Errorf("unresolvable placeholder %q", param)
}

// splitDateFormat separates the "(format)" suffix from an attribute name.
func splitDateFormat(attr string) (string, string) {
	open := strings.Index(attr, "(")
	if open < 0 || !strings.HasSuffix(attr, ")") {
		return attr, ""
	}
	return attr[:open], attr[open+1 : len(attr)-1]
}

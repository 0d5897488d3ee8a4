package config

import "github.com/linkedtransit/gtfsrt2lc/uritemplate"

// StaticConfig describes the GTFS static feed, a local zip or an HTTP URL.
type StaticConfig struct {
	Source  string            `yaml:"source" validate:"required"`
	Headers map[string]string `yaml:"headers"`
	// Grep restricts the static index to the trips present in the
	// realtime feed, cutting memory for large feeds.
	Grep bool `yaml:"grep"`
	// Deduce enables trip identity deduction, which needs calendar data.
	Deduce bool `yaml:"deduce"`
}

// RealtimeConfig describes the GTFS-Realtime trip updates feed.
type RealtimeConfig struct {
	Source         string            `yaml:"source" validate:"required"`
	Headers        map[string]string `yaml:"headers"`
	PollIntervalMS int               `yaml:"pollIntervalMS" validate:"gte=0"`
	TimeoutMS      int               `yaml:"timeoutMS" validate:"gte=0"`
}

// StoreConfig selects the backend of the static index and the history.
type StoreConfig struct {
	Kind string `yaml:"kind" validate:"omitempty,oneof=mem sqlite"`
	Path string `yaml:"path"`
}

// HistoryConfig enables differential output.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// OutputConfig selects the serialization format.
type OutputConfig struct {
	Format string `yaml:"format" validate:"omitempty,oneof=json jsonld csv ntriples turtle"`
}

// MonitoringConfig exposes health and Prometheus metrics when Addr is set.
type MonitoringConfig struct {
	Addr string `yaml:"addr"`
}

// NATSConfig enables the NATS sink when URL is set.
type NATSConfig struct {
	URL     string `yaml:"url" validate:"omitempty,uri"`
	Subject string `yaml:"subject"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	Static     StaticConfig           `yaml:"static" validate:"required"`
	Realtime   RealtimeConfig         `yaml:"realtime" validate:"required"`
	Templates  uritemplate.Definition `yaml:"uriTemplates"`
	Store      StoreConfig            `yaml:"store"`
	History    HistoryConfig          `yaml:"history"`
	Output     OutputConfig           `yaml:"output"`
	Monitoring MonitoringConfig       `yaml:"monitoring"`
	NATS       NATSConfig             `yaml:"nats"`
	// TimeZone anchors service days, e.g. "Europe/Brussels". Empty means
	// the process local zone.
	TimeZone string `yaml:"timeZone"`
}

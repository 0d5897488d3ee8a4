// Package gtfsrt fetches and decodes a GTFS-Realtime trip updates feed into
// the normalized event structures the reconciliation engine works with.
package gtfsrt

// Package gtfs loads a static GTFS feed into keyed, read-only indexes
// (routes, trips, stops, ordered stop_times, calendars) that the connection
// reconciliation engine consumes. Records live behind a pluggable Store so
// large feeds can be indexed on disk instead of in memory.
package gtfs

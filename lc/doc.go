// Package lc is the reconciliation engine: it aligns sparse GTFS-Realtime
// stop updates against the complete static stop sequence of each trip,
// infers missing delay and time values, corrects chronological
// inconsistencies, and emits one Connection per adjacent pair of stops.
package lc

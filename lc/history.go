package lc

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/linkedtransit/gtfsrt2lc/gtfs"
)

// History remembers the last emitted state of every connection and filters
// out repeats. Connections are identified structurally, not by URI, so the
// filter keeps working across template changes. State is kept per service
// date: the same scheduled connection on different days is two entries.
type History struct {
	store gtfs.Store
	mu    sync.Mutex
}

type historyRecord struct {
	DepartureDelay int64          `json:"departureDelay"`
	ArrivalDelay   int64          `json:"arrivalDelay"`
	Type           ConnectionType `json:"type"`
	PickupType     string         `json:"pickupType"`
	DropOffType    string         `json:"dropOffType"`
}

// NewHistory creates a history filter over a store. Pass a SQLite-backed
// store to keep the filter state across restarts.
func NewHistory(store gtfs.Store) *History {
	return &History{store: store}
}

// Observe records the connection and reports whether it differs from the
// last observation of the same connection on the same service date. The
// first observation always counts as changed.
func (h *History) Observe(c *Connection, route *gtfs.Route, trip *gtfs.Trip, serviceDate, startTime string) (bool, error) {
	sig := signature(c, route, trip, startTime)
	now := historyRecord{
		DepartureDelay: c.DepartureDelay,
		ArrivalDelay:   c.ArrivalDelay,
		Type:           c.Type,
		PickupType:     c.PickupType,
		DropOffType:    c.DropOffType,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	raw, ok, err := h.store.Get(gtfs.BucketHistory, sig)
	if err != nil {
		return false, fmt.Errorf("history read: %w", err)
	}
	days := map[string]historyRecord{}
	if ok {
		if err := json.Unmarshal(raw, &days); err != nil {
			return false, fmt.Errorf("history decode: %w", err)
		}
		if prev, seen := days[serviceDate]; seen && prev == now {
			return false, nil
		}
	}
	days[serviceDate] = now
	raw, err = json.Marshal(days)
	if err != nil {
		return false, err
	}
	if err := h.store.Put(gtfs.BucketHistory, sig, raw); err != nil {
		return false, fmt.Errorf("history write: %w", err)
	}
	return true, nil
}

// signature identifies a connection by its schedule-level attributes. The
// scheduled times (observed time minus delay) stay constant across
// snapshots while the live times drift, so the key is stable for the
// lifetime of the static feed.
func signature(c *Connection, route *gtfs.Route, trip *gtfs.Trip, startTime string) string {
	schedDep := c.DepartureTime.Unix() - c.DepartureDelay
	schedArr := c.ArrivalTime.Unix() - c.ArrivalDelay
	parts := []string{
		route.LongName,
		trip.ShortName,
		trip.Headsign,
		startTime,
		c.DepartureStopID,
		strconv.FormatInt(schedDep, 10),
		c.ArrivalStopID,
		strconv.FormatInt(schedArr, 10),
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "/")))
	return hex.EncodeToString(sum[:])
}

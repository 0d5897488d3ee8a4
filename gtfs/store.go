package gtfs

import (
	"sync"
)

// Store is a bucketed key-value store holding serialized index records. The
// index and the differential history filter are written against this
// interface only; whether records live in memory or on disk is a runtime
// choice.
type Store interface {
	Get(bucket, key string) ([]byte, bool, error)
	Put(bucket, key string, value []byte) error
	// ForEach visits every entry of a bucket. Iteration stops when fn
	// returns a non-nil error, which is returned as-is.
	ForEach(bucket string, fn func(key string, value []byte) error) error
	Close() error
}

// Bucket names used by the static index and the history filter.
const (
	BucketRoutes        = "routes"
	BucketTrips         = "trips"
	BucketStops         = "stops"
	BucketStopTimes     = "stop_times"
	BucketCalendars     = "calendar"
	BucketCalendarDates = "calendar_dates"
	BucketHistory       = "history"
)

// MemStore keeps all records in process memory. Reads and writes are
// serialized per store, which gives the read-your-writes guarantee the
// history filter needs under concurrent per-trip processing.
type MemStore struct {
	mu      sync.RWMutex
	buckets map[string]map[string][]byte
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{buckets: map[string]map[string][]byte{}}
}

func (s *MemStore) Get(bucket, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.buckets[bucket]
	if !ok {
		return nil, false, nil
	}
	v, ok := b[key]
	return v, ok, nil
}

func (s *MemStore) Put(bucket, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.buckets[bucket]
	if !ok {
		b = map[string][]byte{}
		s.buckets[bucket] = b
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	b[key] = cp
	return nil
}

func (s *MemStore) ForEach(bucket string, fn func(key string, value []byte) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, v := range s.buckets[bucket] {
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemStore) Close() error { return nil }

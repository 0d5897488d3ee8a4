package gtfs

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"compress/gzip"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
)

// LoadOptions control what gets indexed while consuming the static feed.
type LoadOptions struct {
	// Store receives the indexed records. Nil means a fresh MemStore.
	Store Store
	// Trips, when non-nil, restricts trips.txt and stop_times.txt indexing
	// to the listed trip ids. Useful to keep big feeds manageable when the
	// realtime feed names its trips explicitly.
	Trips []string
	// Deduce requires calendar data so that trips without an explicit
	// trip_id in the realtime feed can be identified.
	Deduce bool
}

// NewIndexFromURL downloads a static GTFS archive and indexes it. headers
// are added to the request, e.g. for API keys.
func NewIndexFromURL(url string, headers map[string]string, opts LoadOptions) (*Index, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("request %s failed with HTTP response code %d", url, resp.StatusCode)
	}
	body, err := decodedBody(resp)
	if err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	return NewIndexFromBytes(raw, opts)
}

// NewIndexFromFile indexes a static GTFS archive from the local filesystem.
func NewIndexFromFile(path string, opts LoadOptions) (*Index, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewIndexFromBytes(raw, opts)
}

// NewIndexFromBytes indexes a static GTFS archive held in memory.
func NewIndexFromBytes(raw []byte, opts LoadOptions) (*Index, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, err
	}
	store := opts.Store
	if store == nil {
		store = NewMemStore()
	}
	g := NewIndex(store)

	files := map[string]*zip.File{}
	for _, f := range zr.File {
		files[strings.ToLower(f.Name)] = f
	}
	for _, required := range []string{"routes.txt", "trips.txt", "stops.txt", "stop_times.txt"} {
		if files[required] == nil {
			return nil, fmt.Errorf("%s: %w", required, ErrMissingStaticFile)
		}
	}
	if opts.Deduce && files["calendar.txt"] == nil {
		return nil, fmt.Errorf("calendar.txt (required for trip deduction): %w", ErrMissingStaticFile)
	}

	var tripFilter map[string]struct{}
	if opts.Trips != nil {
		tripFilter = make(map[string]struct{}, len(opts.Trips))
		for _, id := range opts.Trips {
			tripFilter[id] = struct{}{}
		}
	}

	loader := &indexLoader{index: g, tripFilter: tripFilter, stopTimes: map[string][]StopTime{}}
	consumers := []struct {
		name    string
		consume func([][]string) error
	}{
		{"routes.txt", loader.consumeRoutes},
		{"trips.txt", loader.consumeTrips},
		{"stops.txt", loader.consumeStops},
		{"stop_times.txt", loader.consumeStopTimes},
		{"calendar.txt", loader.consumeCalendar},
		{"calendar_dates.txt", loader.consumeCalendarDates},
	}
	for _, c := range consumers {
		name, consume := c.name, c.consume
		f := files[name]
		if f == nil {
			continue
		}
		rec, err := readCSV(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if err := consume(rec); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	if err := loader.finish(); err != nil {
		return nil, err
	}
	return g, nil
}

func decodedBody(resp *http.Response) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(resp.Body)
	case "deflate":
		return flate.NewReader(resp.Body), nil
	default:
		return resp.Body, nil
	}
}

type indexLoader struct {
	index      *Index
	tripFilter map[string]struct{}
	stopTimes  map[string][]StopTime
}

func (l *indexLoader) wantTrip(tripID string) bool {
	if l.tripFilter == nil {
		return true
	}
	_, ok := l.tripFilter[tripID]
	return ok
}

func (l *indexLoader) put(bucket, key string, rec any) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return l.index.store.Put(bucket, key, raw)
}

func (l *indexLoader) consumeRoutes(rec [][]string) error {
	cols := columnIndex(rec[0])
	for _, row := range rec[1:] {
		id := cols.get(row, "route_id")
		if id == "" {
			continue
		}
		if err := l.put(BucketRoutes, id, Route{
			RouteID:   id,
			AgencyID:  cols.get(row, "agency_id"),
			ShortName: cols.get(row, "route_short_name"),
			LongName:  cols.get(row, "route_long_name"),
			RouteType: cols.getInt(row, "route_type"),
		}); err != nil {
			return err
		}
	}
	return nil
}

func (l *indexLoader) consumeTrips(rec [][]string) error {
	cols := columnIndex(rec[0])
	for _, row := range rec[1:] {
		id := cols.get(row, "trip_id")
		if id == "" || !l.wantTrip(id) {
			continue
		}
		t := Trip{
			TripID:      id,
			RouteID:     cols.get(row, "route_id"),
			ServiceID:   cols.get(row, "service_id"),
			Headsign:    cols.get(row, "trip_headsign"),
			ShortName:   cols.get(row, "trip_short_name"),
			DirectionID: cols.getInt(row, "direction_id"),
			BlockID:     cols.get(row, "block_id"),
		}
		if err := l.put(BucketTrips, id, t); err != nil {
			return err
		}
		l.index.tripsByRoute[t.RouteID] = append(l.index.tripsByRoute[t.RouteID], id)
	}
	return nil
}

func (l *indexLoader) consumeStops(rec [][]string) error {
	cols := columnIndex(rec[0])
	for _, row := range rec[1:] {
		id := cols.get(row, "stop_id")
		if id == "" {
			continue
		}
		lat, _ := strconv.ParseFloat(cols.get(row, "stop_lat"), 64)
		lon, _ := strconv.ParseFloat(cols.get(row, "stop_lon"), 64)
		if err := l.put(BucketStops, id, Stop{
			StopID: id,
			Code:   cols.get(row, "stop_code"),
			Name:   cols.get(row, "stop_name"),
			Lat:    lat,
			Lon:    lon,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (l *indexLoader) consumeStopTimes(rec [][]string) error {
	cols := columnIndex(rec[0])
	for _, row := range rec[1:] {
		tripID := cols.get(row, "trip_id")
		if tripID == "" || !l.wantTrip(tripID) {
			continue
		}
		l.stopTimes[tripID] = append(l.stopTimes[tripID], StopTime{
			TripID:        tripID,
			StopID:        cols.get(row, "stop_id"),
			StopSequence:  cols.getInt(row, "stop_sequence"),
			ArrivalTime:   cols.get(row, "arrival_time"),
			DepartureTime: cols.get(row, "departure_time"),
			PickupType:    cols.getInt(row, "pickup_type"),
			DropOffType:   cols.getInt(row, "drop_off_type"),
		})
	}
	return nil
}

var weekdayColumns = [7]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

func (l *indexLoader) consumeCalendar(rec [][]string) error {
	cols := columnIndex(rec[0])
	for _, row := range rec[1:] {
		id := cols.get(row, "service_id")
		if id == "" {
			continue
		}
		cal := Calendar{
			ServiceID: id,
			StartDate: cols.get(row, "start_date"),
			EndDate:   cols.get(row, "end_date"),
		}
		for i, day := range weekdayColumns {
			cal.Weekday[i] = cols.get(row, day) == "1"
		}
		if err := l.put(BucketCalendars, id, cal); err != nil {
			return err
		}
	}
	l.index.hasCalendar = true
	return nil
}

func (l *indexLoader) consumeCalendarDates(rec [][]string) error {
	cols := columnIndex(rec[0])
	for _, row := range rec[1:] {
		id := cols.get(row, "service_id")
		date := cols.get(row, "date")
		if id == "" || date == "" {
			continue
		}
		if err := l.put(BucketCalendarDates, id+"|"+date, CalendarDate{
			ServiceID:     id,
			Date:          date,
			ExceptionType: cols.getInt(row, "exception_type"),
		}); err != nil {
			return err
		}
	}
	return nil
}

// finish sorts the buffered stop_times per trip and writes them out, and
// records the first stop of every trip for the deduction index.
func (l *indexLoader) finish() error {
	for tripID, st := range l.stopTimes {
		sort.SliceStable(st, func(i, j int) bool { return st[i].StopSequence < st[j].StopSequence })
		if err := l.put(BucketStopTimes, tripID, st); err != nil {
			return err
		}
		l.index.firstStops[tripID] = st[0]
	}
	l.stopTimes = nil
	return nil
}

type columns map[string]int

func columnIndex(head []string) columns {
	c := make(columns, len(head))
	for i, h := range head {
		h = strings.TrimPrefix(strings.TrimSpace(h), "\uFEFF")
		c[strings.ToLower(h)] = i
	}
	return c
}

func (c columns) get(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (c columns) getInt(row []string, name string) int {
	n, err := strconv.Atoi(c.get(row, name))
	if err != nil {
		return 0
	}
	return n
}

func readCSV(f *zip.File) ([][]string, error) {
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1
	csvr.LazyQuotes = true
	rec, err := csvr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rec) == 0 {
		return nil, fmt.Errorf("%s is empty", f.Name)
	}
	return rec, nil
}

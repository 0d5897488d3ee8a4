package gtfs

// Route is one row of routes.txt.
type Route struct {
	RouteID   string `json:"route_id"`
	AgencyID  string `json:"agency_id"`
	ShortName string `json:"route_short_name"`
	LongName  string `json:"route_long_name"`
	RouteType int    `json:"route_type"`
}

// Trip is one row of trips.txt.
type Trip struct {
	TripID      string `json:"trip_id"`
	RouteID     string `json:"route_id"`
	ServiceID   string `json:"service_id"`
	Headsign    string `json:"trip_headsign"`
	ShortName   string `json:"trip_short_name"`
	DirectionID int    `json:"direction_id"`
	BlockID     string `json:"block_id"`
	// StartTime is only set on trips returned by identity deduction when the
	// feed's nominal start time had to be corrected by +24h.
	StartTime string `json:"start_time,omitempty"`
}

// Stop is one row of stops.txt.
type Stop struct {
	StopID string  `json:"stop_id"`
	Code   string  `json:"stop_code"`
	Name   string  `json:"stop_name"`
	Lat    float64 `json:"stop_lat"`
	Lon    float64 `json:"stop_lon"`
}

// StopTime is one row of stop_times.txt. ArrivalTime and DepartureTime are
// wall-clock-of-day strings and may exceed 24:00:00 for trips that run past
// midnight of their service day.
type StopTime struct {
	TripID        string `json:"trip_id"`
	StopID        string `json:"stop_id"`
	StopSequence  int    `json:"stop_sequence"`
	ArrivalTime   string `json:"arrival_time"`
	DepartureTime string `json:"departure_time"`
	PickupType    int    `json:"pickup_type"`
	DropOffType   int    `json:"drop_off_type"`
}

// Calendar is one row of calendar.txt. Weekday holds the monday..sunday
// bits indexed by time.Weekday (Sunday = 0).
type Calendar struct {
	ServiceID string  `json:"service_id"`
	Weekday   [7]bool `json:"weekday"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
}

// CalendarDate is one row of calendar_dates.txt. ExceptionType 1 adds
// service on Date, 2 removes it.
type CalendarDate struct {
	ServiceID     string `json:"service_id"`
	Date          string `json:"date"`
	ExceptionType int    `json:"exception_type"`
}

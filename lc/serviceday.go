package lc

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseServiceDay converts a GTFS service date (YYYYMMDD) into midnight of
// that day in loc. All "seconds since midnight of the service day" times of
// a trip are anchored to this moment.
func ParseServiceDay(yyyymmdd string, loc *time.Location) (time.Time, error) {
	if len(yyyymmdd) != 8 {
		return time.Time{}, fmt.Errorf("invalid service date %q", yyyymmdd)
	}
	day, err := time.ParseInLocation("20060102", yyyymmdd, loc)
	if err != nil {
		return time.Time{}, err
	}
	return day, nil
}

// parseGTFSDuration parses a wall-clock-of-day string into a duration since
// midnight of the service day. Hours may exceed 24 for trips running past
// midnight. Durations missing the seconds part (12:00 instead of 12:00:00)
// are accepted.
func parseGTFSDuration(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return 0, fmt.Errorf("invalid GTFS duration %q", s)
	}
	hours, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid GTFS duration %q", s)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid GTFS duration %q", s)
	}
	seconds := 0
	if len(parts) > 2 && parts[2] != "" {
		if seconds, err = strconv.Atoi(parts[2]); err != nil {
			return 0, fmt.Errorf("invalid GTFS duration %q", s)
		}
	}
	return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second, nil
}

// scheduledTime anchors a wall-clock-of-day string to the service day and
// returns epoch seconds.
func scheduledTime(serviceDay time.Time, clock string) (int64, error) {
	d, err := parseGTFSDuration(clock)
	if err != nil {
		return 0, err
	}
	return serviceDay.Add(d).Unix(), nil
}

// shiftDuration24h returns the duration string with 24 hours added, the
// form some producers should have used for trips that started the previous
// service day (e.g. 08:00:00 -> 32:00:00).
func shiftDuration24h(s string) (string, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return "", false
	}
	hours, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%02d:%s", hours+24, parts[1]), true
}

// previousServiceDate returns the YYYYMMDD date one day before date.
func previousServiceDate(date string, loc *time.Location) (string, error) {
	day, err := ParseServiceDay(date, loc)
	if err != nil {
		return "", err
	}
	return day.AddDate(0, 0, -1).Format("20060102"), nil
}

package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

// String formats the clock as a 24-hour HH:MM value.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Add returns c shifted by minutes, wrapped onto a single day.
func (c Clock) Add(minutes int) Clock {
	total := (c.Hour*60 + c.Minute + minutes) % (24 * 60)
	if total < 0 {
		total += 24 * 60
	}
	return Clock{Hour: total / 60, Minute: total % 60}
}

// ParseClock extracts the first time token from line. A PM designator moves
// 1-11 into the afternoon and AM maps 12 to midnight; without a designator
// the hour is taken as written.
func ParseClock(line string) (Clock, bool) {
	m := reTime.FindString(line)
	if m == "" {
		return Clock{}, false
	}
	upper := strings.ToUpper(m)
	pm := strings.HasSuffix(upper, "PM")
	am := strings.HasSuffix(upper, "AM")
	hm := strings.TrimSpace(reMeridiem.ReplaceAllString(m, ""))

	h, mm, ok := strings.Cut(hm, ":")
	if !ok {
		return Clock{}, false
	}
	hour, err := strconv.Atoi(h)
	if err != nil {
		return Clock{}, false
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return Clock{}, false
	}
	switch {
	case pm && hour < 12:
		hour += 12
	case am && hour == 12:
		hour = 0
	}
	return Clock{Hour: hour, Minute: minute}, true
}

// CanonicalTime returns the first time token of line as HH:MM, 24-hour.
func CanonicalTime(line string) (string, bool) {
	c, ok := ParseClock(line)
	if !ok {
		return "", false
	}
	return c.String(), true
}

// EndTime derives an end time from a canonical start and a duration in
// minutes. It reports false when either value does not parse.
func EndTime(start, duration string) (string, bool) {
	c, ok := ParseClock(start)
	if !ok {
		return "", false
	}
	mins, err := strconv.Atoi(strings.TrimSpace(duration))
	if err != nil {
		return "", false
	}
	return c.Add(mins).String(), true
}

package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
)

const DateLayout = "2006-01-02"

// TimeOfDayPattern accepts 24-hour HH:MM with an optional leading zero on the hour.
var TimeOfDayPattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):([0-5][0-9])$`)

// TimeOfDay is a wall-clock time expressed in minutes after midnight.
type TimeOfDay int

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// String renders the canonical zero-padded HH:MM form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Kitchen renders a 12-hour label such as "8 AM" or "5:30 PM".
func (t TimeOfDay) Kitchen() string {
	h := t.Hour()
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	if h%12 == 0 {
		h = 12
	} else {
		h %= 12
	}
	if t.Minute() == 0 {
		return fmt.Sprintf("%d %s", h, suffix)
	}
	return fmt.Sprintf("%d:%02d %s", h, t.Minute(), suffix)
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	m := TimeOfDayPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, httperr.New(
			httperr.KindMalformedInput,
			"invalid_time",
			fmt.Sprintf("time data %q does not match format HH:MM", s),
		)
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	return NewTimeOfDay(h, mm), nil
}

// MustTimeOfDay is ParseTimeOfDay for literals known to be valid.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseDate parses a YYYY-MM-DD calendar date at midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, httperr.New(
			httperr.KindMalformedInput,
			"invalid_date",
			fmt.Sprintf("time data %q does not match format YYYY-MM-DD", s),
		)
	}
	return d, nil
}

// At places a time of day on the given calendar date.
func At(date time.Time, t TimeOfDay) time.Time {
	return time.Date(
		date.Year(), date.Month(), date.Day(),
		t.Hour(), t.Minute(), 0, 0,
		date.Location(),
	)
}

// ParseDateTime combines a YYYY-MM-DD date and an HH:MM time in loc.
func ParseDateTime(date, clock string, loc *time.Location) (time.Time, error) {
	d, err := ParseDate(date, loc)
	if err != nil {
		return time.Time{}, err
	}
	t, err := ParseTimeOfDay(clock)
	if err != nil {
		return time.Time{}, err
	}
	return At(d, t), nil
}

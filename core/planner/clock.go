package planner

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
)

var (
	ErrInvalidTimeFormat   = errors.New("time must be formatted as HH:MM (24-hour)")
	ErrNonPositiveDuration = errors.New("end time must be after start time")

	// all wall-clock arithmetic happens on this day
	refDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// Clock is a wall-clock time of day with minute precision.
type Clock struct {
	hour, minute int
}

// ParseClock parses a 24-hour "HH:MM" value.
func ParseClock(s string) (Clock, error) {
	if !core.IsClock(s) {
		return Clock{}, errors.Wrapf(ErrInvalidTimeFormat, "parsing %q", s)
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Clock{}, errors.Wrapf(ErrInvalidTimeFormat, "parsing %q", s)
	}
	return Clock{hour: t.Hour(), minute: t.Minute()}, nil
}

func (c Clock) Minutes() int { return c.hour*60 + c.minute }

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.hour, c.minute) }

func (c Clock) time() time.Time {
	return refDate.Add(time.Duration(c.hour)*time.Hour + time.Duration(c.minute)*time.Minute)
}

// DurationMinutes returns the whole minutes elapsed between two same-day wall-clock values.
func DurationMinutes(start, end string) (int, error) {
	s, err := ParseClock(start)
	if err != nil {
		return 0, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return 0, err
	}
	mins := int(e.time().Sub(s.time()) / time.Minute)
	if mins <= 0 {
		return 0, ErrNonPositiveDuration
	}
	return mins, nil
}

package services

import (
	"fmt"
	"time"
)

// DueDate is a caller-supplied due date. DateOnly marks values given as a
// calendar day, which are pinned to the start of that day in the actor's
// timezone.
type DueDate struct {
	Time     time.Time
	DateOnly bool
}

// ParseDueDate accepts "2006-01-02" or an RFC 3339 timestamp.
func ParseDueDate(s string) (DueDate, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return DueDate{Time: t, DateOnly: true}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return DueDate{}, fmt.Errorf("invalid due date %q: %w", s, err)
	}
	return DueDate{Time: t}, nil
}

func (d DueDate) resolve(loc *time.Location) time.Time {
	if d.DateOnly {
		y, m, day := d.Time.Date()
		return time.Date(y, m, day, 0, 0, 0, 0, loc)
	}
	return d.Time
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// dayWindow returns [start, end) of the day offset days after now's day in loc.
// AddDate keeps the bounds on local midnight across DST changes.
func dayWindow(now time.Time, loc *time.Location, offset int) (time.Time, time.Time) {
	start := startOfDay(now, loc).AddDate(0, 0, offset)
	return start, start.AddDate(0, 0, 1)
}

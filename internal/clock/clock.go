package clock

import "time"

const DayFormat = "2006-01-02"

// Clock supplies "today" and the weekday name in the system's configured time
// zone. Resolution and reset both key off these values, so they must come from
// one place.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

func New(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.Local
	}
	return &Clock{loc: loc, now: time.Now}
}

// NewAt returns a clock with a fixed now function, for tests.
func NewAt(now func() time.Time, loc *time.Location) *Clock {
	if loc == nil {
		loc = time.Local
	}
	return &Clock{loc: loc, now: now}
}

func (c *Clock) Now() time.Time {
	return c.now().In(c.loc)
}

// Today returns the current calendar day as YYYY-MM-DD.
func (c *Clock) Today() string {
	return c.Now().Format(DayFormat)
}

// Weekday returns the English weekday name for today, e.g. "Monday".
func (c *Clock) Weekday() string {
	return c.Now().Weekday().String()
}

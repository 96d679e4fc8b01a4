package timeutil

import "time"

const defaultZone = "Africa/Johannesburg"

// Clock reports the current time in the business time zone used for invoice
// numbers and invoice dates.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock resolves zone, falling back to a fixed UTC+2 zone when the tz
// database is not available on the host.
func NewClock(zone string) Clock {
	if zone == "" {
		zone = defaultZone
	}
	return Clock{loc: loadLocation(zone), now: time.Now}
}

// FixedClock always reports t. Used by tests and by repair tooling.
func FixedClock(t time.Time) Clock {
	return Clock{loc: t.Location(), now: func() time.Time { return t }}
}

func loadLocation(zone string) *time.Location {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return time.FixedZone(zone, 2*60*60)
	}
	return loc
}

// Now returns the current time in the clock's location.
func (c Clock) Now() time.Time {
	if c.now == nil {
		return time.Now()
	}
	if c.loc == nil {
		return c.now()
	}
	return c.now().In(c.loc)
}

// Location returns the clock's location instance.
func (c Clock) Location() *time.Location {
	if c.loc == nil {
		return time.Local
	}
	return c.loc
}

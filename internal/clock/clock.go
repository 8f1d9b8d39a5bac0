// Package clock keeps the station's notion of wall time. The ground link
// sets it; the host clock only supplies the rate.
package clock

import "time"

// Clock is a settable clock expressed as an offset from a base time source.
type Clock struct {
	base   func() time.Time
	offset time.Duration
	loc    *time.Location
}

// New creates a clock following base. A nil base uses time.Now.
func New(base func() time.Time, loc *time.Location) *Clock {
	if base == nil {
		base = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &Clock{base: base, loc: loc}
}

// Now returns the station time.
func (c *Clock) Now() time.Time {
	return c.base().Add(c.offset).In(c.loc)
}

// Set moves the station time to the given Unix seconds.
func (c *Clock) Set(unix uint32) {
	c.offset = time.Unix(int64(unix), 0).Sub(c.base())
}

// Unix returns the station time as Unix seconds.
func (c *Clock) Unix() uint32 {
	return uint32(c.Now().Unix())
}

// SecondsOfDay returns seconds since local midnight of t.
func SecondsOfDay(t time.Time) uint32 {
	h, m, s := t.Clock()
	return uint32(h*3600 + m*60 + s)
}

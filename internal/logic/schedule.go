package logic

// SecondsPerDay bounds schedule times.
const SecondsPerDay = 86400

// IsDay reports whether tod (seconds since midnight) falls in the half-open
// window [day, night). The window wraps midnight when day > night.
// day == night is an empty window: always night.
func IsDay(tod, day, night uint32) bool {
	switch {
	case day == night:
		return false
	case day < night:
		return tod >= day && tod < night
	default:
		return tod >= day || tod < night
	}
}

// LightDecision is the scheduled lighting state.
type LightDecision struct {
	Day   bool
	Level uint8
}

// Scheduler turns the day/night window into light levels.
type Scheduler struct {
	dayLevel   uint8
	nightLevel uint8
	last       LightDecision
	decided    bool
}

// NewScheduler creates a scheduler with the given levels.
func NewScheduler(dayLevel, nightLevel uint8) *Scheduler {
	return &Scheduler{dayLevel: dayLevel, nightLevel: nightLevel}
}

// Tick computes the decision for tod. While auto is off there is no
// decision and the next enabled tick always reports a change.
// The bool result reports whether the decision differs from the last one.
func (s *Scheduler) Tick(tod, day, night uint32, auto bool) (LightDecision, bool) {
	if !auto {
		s.decided = false
		return LightDecision{}, false
	}

	d := LightDecision{Day: IsDay(tod, day, night), Level: s.nightLevel}
	if d.Day {
		d.Level = s.dayLevel
	}

	changed := !s.decided || d != s.last
	s.last = d
	s.decided = true
	return d, changed
}

// Last returns the last decision and whether there is one.
func (s *Scheduler) Last() (LightDecision, bool) {
	return s.last, s.decided
}

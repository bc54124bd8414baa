package quota

import "time"

// dayFormat is the canonical textual form of a quota window.
const dayFormat = "2006-01-02"

// Day identifies a quota window: one calendar day at the UTC boundary.
// All instances derive the same Day for the same instant, so there is no
// clock-skew-induced double window.
type Day string

// DayOf returns the quota window containing t. The instant is converted
// to UTC before the calendar day is taken.
func DayOf(t time.Time) Day {
	return Day(t.UTC().Format(dayFormat))
}

// Today returns the current quota window.
func Today() Day {
	return DayOf(time.Now())
}

// String returns the window in YYYY-MM-DD form.
func (d Day) String() string {
	return string(d)
}

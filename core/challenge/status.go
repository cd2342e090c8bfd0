package challenge

import "time"

type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusActive   Status = "active"
	StatusEnded    Status = "ended"
)

func (s Status) Valid() bool {
	return s == StatusUpcoming || s == StatusActive || s == StatusEnded
}

// StatusAt classifies a challenge running from start to end (both inclusive) at now.
func StatusAt(now, start, end time.Time) Status {
	switch {
	case now.Before(start):
		return StatusUpcoming
	case now.After(end):
		return StatusEnded
	default:
		return StatusActive
	}
}

// MonthWindow returns the first and the last instant of a calendar month in UTC.
func MonthWindow(year int, month time.Month) (start, end time.Time) {
	start = time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}

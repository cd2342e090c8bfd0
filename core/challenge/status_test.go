package challenge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusAt(t *testing.T) {
	start := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.October, 31, 23, 59, 59, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want Status
	}{
		{name: "long before", now: start.AddDate(0, -1, 0), want: StatusUpcoming},
		{name: "just before start", now: start.Add(-time.Nanosecond), want: StatusUpcoming},
		{name: "at start", now: start, want: StatusActive},
		{name: "middle", now: start.AddDate(0, 0, 15), want: StatusActive},
		{name: "at end", now: end, want: StatusActive},
		{name: "just after end", now: end.Add(time.Nanosecond), want: StatusEnded},
		{name: "long after", now: end.AddDate(1, 0, 0), want: StatusEnded},
		{name: "other timezone", now: start.In(time.FixedZone("CST", 8*3600)), want: StatusActive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusAt(tt.now, start, end))
		})
	}
}

func TestStatusAtSingleInstant(t *testing.T) {
	at := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, StatusActive, StatusAt(at, at, at))
	assert.Equal(t, StatusUpcoming, StatusAt(at.Add(-time.Second), at, at))
	assert.Equal(t, StatusEnded, StatusAt(at.Add(time.Second), at, at))
}

func TestMonthWindow(t *testing.T) {
	tests := []struct {
		name      string
		year      int
		month     time.Month
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "october",
			year:      2026,
			month:     time.October,
			wantStart: time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, time.October, 31, 23, 59, 59, 999999999, time.UTC),
		},
		{
			name:      "leap february",
			year:      2028,
			month:     time.February,
			wantStart: time.Date(2028, time.February, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2028, time.February, 29, 23, 59, 59, 999999999, time.UTC),
		},
		{
			name:      "december",
			year:      2026,
			month:     time.December,
			wantStart: time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, time.December, 31, 23, 59, 59, 999999999, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := MonthWindow(tt.year, tt.month)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
			assert.Equal(t, StatusActive, StatusAt(start, start, end))
			assert.Equal(t, StatusEnded, StatusAt(end.Add(time.Nanosecond), start, end))
		})
	}
}

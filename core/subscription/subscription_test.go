package subscription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHasPaidAccess(t *testing.T) {
	now := time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		sub  Subscription
		want bool
	}{
		{name: "free", sub: Subscription{Plan: PlanFree, Status: StatusActive}, want: false},
		{name: "unknown plan", sub: Subscription{Plan: "gold", Status: StatusActive}, want: false},
		{name: "active monthly", sub: Subscription{Plan: PlanMonthly, Status: StatusActive, RenewsAt: now.AddDate(0, 0, 10)}, want: true},
		{name: "active yearly", sub: Subscription{Plan: PlanYearly, Status: StatusActive, RenewsAt: now.AddDate(0, 6, 0)}, want: true},
		{name: "canceled before renewal", sub: Subscription{Plan: PlanMonthly, Status: StatusCanceled, RenewsAt: now.Add(time.Hour)}, want: true},
		{name: "canceled at renewal", sub: Subscription{Plan: PlanMonthly, Status: StatusCanceled, RenewsAt: now}, want: false},
		{name: "canceled after renewal", sub: Subscription{Plan: PlanYearly, Status: StatusCanceled, RenewsAt: now.Add(-time.Hour)}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sub.HasPaidAccess(now))
		})
	}
}

func TestPlanRenewal(t *testing.T) {
	from := time.Date(2026, time.January, 31, 9, 0, 0, 0, time.UTC)

	free, _ := PlanByID(PlanFree)
	assert.True(t, free.Renewal(from).IsZero())
	assert.False(t, free.Paid())

	monthly, _ := PlanByID(PlanMonthly)
	assert.Equal(t, from.AddDate(0, 1, 0), monthly.Renewal(from))
	assert.True(t, monthly.Paid())

	yearly, _ := PlanByID(PlanYearly)
	assert.Equal(t, time.Date(2027, time.January, 31, 9, 0, 0, 0, time.UTC), yearly.Renewal(from))

	_, ok := PlanByID("lifetime")
	assert.False(t, ok)
}

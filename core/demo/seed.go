package demo

import (
	"time"

	"github.com/nuvatw/nuva-club/core/challenge"
	"github.com/nuvatw/nuva-club/core/subscription"
)

// Seed builds the state a fresh demo session starts from. Challenges are laid out around now:
// last month's has ended, this month's is active and next month's is upcoming.
func Seed(sessionID string, now time.Time) State {
	now = now.UTC()
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	window := func(offset int) (time.Time, time.Time) {
		m := month.AddDate(0, offset, 0)
		return challenge.MonthWindow(m.Year(), m.Month())
	}
	prevStart, prevEnd := window(-1)
	curStart, curEnd := window(0)
	nextStart, nextEnd := window(1)

	s := State{
		SessionID: sessionID,
		Profile: Profile{
			ID:       "demo-vava",
			Name:     "Demo Vava",
			Username: "demo_vava",
			Bio:      "Exploring the club.",
			Level:    1,
			Role:     "vava",
		},
		Plan: subscription.PlanFree,
		Courses: []Course{
			{ID: "course-1", Title: "What is AI?", Level: 1, Lessons: []Lesson{
				{ID: "lesson-1-1", Title: "A short history"},
				{ID: "lesson-1-2", Title: "Models and data"},
				{ID: "lesson-1-3", Title: "Everyday AI"},
			}},
			{ID: "course-2", Title: "Prompting basics", Level: 2, Lessons: []Lesson{
				{ID: "lesson-2-1", Title: "Clear instructions"},
				{ID: "lesson-2-2", Title: "Giving examples"},
			}},
			{ID: "course-3", Title: "Building with AI tools", Level: 4, Premium: true, Lessons: []Lesson{
				{ID: "lesson-3-1", Title: "Choosing a tool"},
				{ID: "lesson-3-2", Title: "Your first workflow"},
			}},
		},
		Challenges: []Challenge{
			{ID: "challenge-prev", Title: "Write a poem with AI", StartDate: prevStart, EndDate: prevEnd},
			{ID: "challenge-cur", Title: "Automate one chore", StartDate: curStart, EndDate: curEnd},
			{ID: "challenge-next", Title: "Teach AI to a friend", StartDate: nextStart, EndDate: nextEnd},
		},
		Posts: []Post{
			{
				ID:         "post-seed-1",
				AuthorID:   "demo-nunu",
				AuthorName: "Coach Nunu",
				Content:    "Welcome to the club! Share what you built this week.",
				Fires:      3,
				CreatedAt:  now.Add(-48 * time.Hour),
			},
		},
		Messages: []Message{
			{ID: "message-seed-1", From: "demo-nunu", To: "demo-vava", Content: "Hi! I'm your coach. Ask me anything.", CreatedAt: now.Add(-24 * time.Hour)},
		},
		Notifications: []Notification{
			{ID: "notification-seed-1", Title: "Coach Nunu is now your coach", CreatedAt: now.Add(-24 * time.Hour)},
			{ID: "notification-seed-2", Title: "A new challenge starts next month", CreatedAt: now.Add(-time.Hour)},
		},
		Events: []Event{
			{ID: "event-1", Title: "Monthly meetup", StartsAt: now.Add(7 * 24 * time.Hour), Capacity: 30, Going: 12},
			{ID: "event-2", Title: "Office hours", StartsAt: now.Add(3 * 24 * time.Hour), Capacity: 2, Going: 2},
		},
		UpdatedAt: now,
	}
	return s
}

// Package demo simulates the club for visitors without an account.
// A session's State only changes through Reduce; the Store serializes actions per session.
package demo

import (
	"time"

	"github.com/nuvatw/nuva-club/core/challenge"
)

type State struct {
	SessionID     string         `json:"session_id"`
	LoggedIn      bool           `json:"logged_in"`
	Profile       Profile        `json:"profile"`
	Plan          string         `json:"plan"`
	Courses       []Course       `json:"courses"`
	Challenges    []Challenge    `json:"challenges"`
	Posts         []Post         `json:"posts"`
	Messages      []Message      `json:"messages"`
	Notifications []Notification `json:"notifications"`
	Events        []Event        `json:"events"`
	NextID        int            `json:"next_id"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type Profile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Bio      string `json:"bio"`
	Level    int    `json:"level"`
	Role     string `json:"role"`
}

type Course struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Level   int      `json:"level"`
	Premium bool     `json:"premium"`
	Lessons []Lesson `json:"lessons"`
}

// Percent is the share of completed lessons.
func (c Course) Percent() int {
	if len(c.Lessons) == 0 {
		return 0
	}
	var done int
	for _, l := range c.Lessons {
		if l.Completed {
			done++
		}
	}
	return done * 100 / len(c.Lessons)
}

type Lesson struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

type Challenge struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	StartDate time.Time        `json:"start_date"`
	EndDate   time.Time        `json:"end_date"`
	Joined    bool             `json:"joined"`
	Status    challenge.Status `json:"status"`
}

type Post struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	Fires      int       `json:"fires"`
	Fired      bool      `json:"fired"`
	Comments   []Comment `json:"comments"`
	CreatedAt  time.Time `json:"created_at"`
}

type Comment struct {
	ID         string    `json:"id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

type Message struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

type Event struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	StartsAt time.Time `json:"starts_at"`
	Capacity int       `json:"capacity"`
	Going    int       `json:"going"`
	MyStatus string    `json:"my_status,omitempty"`
}

// WithStatuses returns s with the challenge statuses computed at now.
func (s State) WithStatuses(now time.Time) State {
	chs := make([]Challenge, len(s.Challenges))
	for i, ch := range s.Challenges {
		ch.Status = challenge.StatusAt(now, ch.StartDate, ch.EndDate)
		chs[i] = ch
	}
	s.Challenges = chs
	return s
}

func (s State) UnreadCount() int {
	var n int
	for _, nt := range s.Notifications {
		if !nt.Read {
			n++
		}
	}
	return n
}

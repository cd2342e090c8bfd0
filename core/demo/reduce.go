package demo

import (
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/nuvatw/nuva-club/core"
	"github.com/nuvatw/nuva-club/core/challenge"
	"github.com/nuvatw/nuva-club/core/event"
	"github.com/nuvatw/nuva-club/core/subscription"
	"github.com/nuvatw/nuva-club/core/user"
)

// Action types
const (
	ActionLogin                = "login"
	ActionLogout               = "logout"
	ActionUpdateProfile        = "update_profile"
	ActionCompleteLesson       = "complete_lesson"
	ActionJoinChallenge        = "join_challenge"
	ActionLeaveChallenge       = "leave_challenge"
	ActionCreatePost           = "create_post"
	ActionFirePost             = "fire_post"
	ActionAddComment           = "add_comment"
	ActionSendMessage          = "send_message"
	ActionMarkNotificationRead = "mark_notification_read"
	ActionSwitchPlan           = "switch_plan"
	ActionRSVPEvent            = "rsvp_event"
	ActionReset                = "reset"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrLoggedOut     = errors.New("log in to do this")
	ErrEmptyContent  = errors.New("content cannot be empty")
)

// Action is a demo state transition. At is the instant the action happened.
type Action struct {
	Type     string    `json:"type" validate:"required"`
	At       time.Time `json:"-"`
	Name     string    `json:"name,omitempty"`
	Username string    `json:"username,omitempty"`
	Bio      *string   `json:"bio,omitempty"`
	TargetID string    `json:"target_id,omitempty"`
	Content  string    `json:"content,omitempty"`
	To       string    `json:"to,omitempty"`
	Plan     string    `json:"plan,omitempty"`
	Status   string    `json:"status,omitempty"`
}

// Reduce returns the state following a. The input state is left untouched.
func Reduce(s State, a Action) (State, error) {
	if a.At.IsZero() {
		a.At = core.NowFunc()
	}
	a.Content = core.CleanString(a.Content)

	switch a.Type {
	case ActionReset:
		return Seed(s.SessionID, a.At), nil
	case ActionLogin:
		s.LoggedIn = true
	case ActionLogout:
		s.LoggedIn = false
	default:
		if !s.LoggedIn {
			if !isKnown(a.Type) {
				return s, errors.Wrap(ErrUnknownAction, a.Type)
			}
			return s, ErrLoggedOut
		}
	}

	var err error
	switch a.Type {
	case ActionLogin, ActionLogout:
	case ActionUpdateProfile:
		s, err = updateProfile(s, a)
	case ActionCompleteLesson:
		s, err = completeLesson(s, a)
	case ActionJoinChallenge:
		s, err = setJoined(s, a, true)
	case ActionLeaveChallenge:
		s, err = setJoined(s, a, false)
	case ActionCreatePost:
		s, err = createPost(s, a)
	case ActionFirePost:
		s, err = firePost(s, a)
	case ActionAddComment:
		s, err = addComment(s, a)
	case ActionSendMessage:
		s, err = sendMessage(s, a)
	case ActionMarkNotificationRead:
		s, err = markRead(s, a)
	case ActionSwitchPlan:
		s, err = switchPlan(s, a)
	case ActionRSVPEvent:
		s, err = rsvp(s, a)
	default:
		return s, errors.Wrap(ErrUnknownAction, a.Type)
	}
	if err != nil {
		return s, err
	}
	s.UpdatedAt = a.At
	return s, nil
}

func isKnown(typ string) bool {
	switch typ {
	case ActionLogin, ActionLogout, ActionUpdateProfile, ActionCompleteLesson, ActionJoinChallenge,
		ActionLeaveChallenge, ActionCreatePost, ActionFirePost, ActionAddComment, ActionSendMessage,
		ActionMarkNotificationRead, ActionSwitchPlan, ActionRSVPEvent, ActionReset:
		return true
	}
	return false
}

func (s *State) nextID(prefix string) string {
	s.NextID++
	return prefix + "-" + strconv.Itoa(s.NextID)
}

func notFound(what, id string) error {
	return core.NewNotFoundError(fmt.Sprintf("%s %q", what, id))
}

func updateProfile(s State, a Action) (State, error) {
	p := s.Profile
	if name := core.CleanString(a.Name); name != "" {
		p.Name = name
	}
	if a.Username != "" {
		uname := core.CleanString(a.Username, true)
		if !user.ValidUsername(uname) {
			return s, core.NewFieldError("username", "username is not valid")
		}
		p.Username = uname
	}
	if a.Bio != nil {
		p.Bio = core.CleanString(*a.Bio)
	}
	s.Profile = p
	return s, nil
}

func completeLesson(s State, a Action) (State, error) {
	for ci, c := range s.Courses {
		for li, l := range c.Lessons {
			if l.ID != a.TargetID {
				continue
			}
			if c.Premium && s.Plan == subscription.PlanFree {
				return s, core.NewPermissionError("upgrade your plan to take this course")
			}
			lessons := append([]Lesson(nil), c.Lessons...)
			lessons[li].Completed = true
			courses := append([]Course(nil), s.Courses...)
			courses[ci].Lessons = lessons
			s.Courses = courses
			return s, nil
		}
	}
	return s, notFound("lesson", a.TargetID)
}

func setJoined(s State, a Action, joined bool) (State, error) {
	for i, ch := range s.Challenges {
		if ch.ID != a.TargetID {
			continue
		}
		if challenge.StatusAt(a.At, ch.StartDate, ch.EndDate) == challenge.StatusEnded {
			return s, core.NewValidationError(challenge.ErrEnded)
		}
		chs := append([]Challenge(nil), s.Challenges...)
		chs[i].Joined = joined
		s.Challenges = chs
		return s, nil
	}
	return s, notFound("challenge", a.TargetID)
}

func createPost(s State, a Action) (State, error) {
	if a.Content == "" {
		return s, core.NewFieldError("content", ErrEmptyContent.Error())
	}
	p := Post{
		ID:         s.nextID("post"),
		AuthorID:   s.Profile.ID,
		AuthorName: s.Profile.Name,
		Content:    a.Content,
		CreatedAt:  a.At,
	}
	s.Posts = append([]Post{p}, s.Posts...)
	return s, nil
}

func postIndex(s State, id string) int {
	for i, p := range s.Posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func firePost(s State, a Action) (State, error) {
	i := postIndex(s, a.TargetID)
	if i < 0 {
		return s, notFound("post", a.TargetID)
	}
	posts := append([]Post(nil), s.Posts...)
	p := posts[i]
	if p.Fired {
		p.Fires--
	} else {
		p.Fires++
	}
	p.Fired = !p.Fired
	posts[i] = p
	s.Posts = posts
	return s, nil
}

func addComment(s State, a Action) (State, error) {
	if a.Content == "" {
		return s, core.NewFieldError("content", ErrEmptyContent.Error())
	}
	i := postIndex(s, a.TargetID)
	if i < 0 {
		return s, notFound("post", a.TargetID)
	}
	c := Comment{ID: s.nextID("comment"), AuthorName: s.Profile.Name, Content: a.Content, CreatedAt: a.At}
	posts := append([]Post(nil), s.Posts...)
	posts[i].Comments = append(append([]Comment(nil), posts[i].Comments...), c)
	s.Posts = posts
	return s, nil
}

func sendMessage(s State, a Action) (State, error) {
	if a.Content == "" {
		return s, core.NewFieldError("content", ErrEmptyContent.Error())
	}
	to := core.CleanString(a.To)
	if to == "" {
		return s, core.NewFieldError("to", "recipient is required")
	}
	if to == s.Profile.ID {
		return s, core.NewFieldError("to", "you cannot message yourself")
	}
	m := Message{ID: s.nextID("message"), From: s.Profile.ID, To: to, Content: a.Content, CreatedAt: a.At}
	s.Messages = append(append([]Message(nil), s.Messages...), m)
	return s, nil
}

func markRead(s State, a Action) (State, error) {
	for i, n := range s.Notifications {
		if n.ID != a.TargetID {
			continue
		}
		ns := append([]Notification(nil), s.Notifications...)
		ns[i].Read = true
		s.Notifications = ns
		return s, nil
	}
	return s, notFound("notification", a.TargetID)
}

func switchPlan(s State, a Action) (State, error) {
	if _, ok := subscription.PlanByID(a.Plan); !ok {
		return s, core.NewValidationError(subscription.ErrUnknownPlan)
	}
	s.Plan = a.Plan
	return s, nil
}

func rsvp(s State, a Action) (State, error) {
	switch a.Status {
	case event.RSVPGoing, event.RSVPMaybe, event.RSVPDeclined:
	default:
		return s, core.NewFieldError("status", "status must be one of going, maybe, declined")
	}
	for i, e := range s.Events {
		if e.ID != a.TargetID {
			continue
		}
		wasGoing := e.MyStatus == event.RSVPGoing
		if a.Status == event.RSVPGoing && !wasGoing && e.Capacity > 0 && e.Going >= e.Capacity {
			return s, core.NewValidationError(event.ErrFull)
		}
		switch {
		case a.Status == event.RSVPGoing && !wasGoing:
			e.Going++
		case a.Status != event.RSVPGoing && wasGoing:
			e.Going--
		}
		e.MyStatus = a.Status
		evs := append([]Event(nil), s.Events...)
		evs[i] = e
		s.Events = evs
		return s, nil
	}
	return s, notFound("event", a.TargetID)
}

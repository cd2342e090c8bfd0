package demo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuvatw/nuva-club/core"
	"github.com/nuvatw/nuva-club/core/challenge"
	"github.com/nuvatw/nuva-club/core/subscription"
)

var demoNow = time.Date(2026, time.October, 16, 9, 30, 0, 0, time.UTC)

func loggedIn() State {
	s := Seed("sess", demoNow)
	s.LoggedIn = true
	return s
}

func TestSeedChallengeStatuses(t *testing.T) {
	s := Seed("sess", demoNow).WithStatuses(demoNow)
	require.Len(t, s.Challenges, 3)
	assert.Equal(t, challenge.StatusEnded, s.Challenges[0].Status)
	assert.Equal(t, challenge.StatusActive, s.Challenges[1].Status)
	assert.Equal(t, challenge.StatusUpcoming, s.Challenges[2].Status)
}

func TestReduce(t *testing.T) {
	bio := "  I like robots  "

	tests := []struct {
		name    string
		state   State
		action  Action
		wantErr bool
		check   func(t *testing.T, s State)
	}{
		{
			name:   "login",
			state:  Seed("sess", demoNow),
			action: Action{Type: ActionLogin},
			check: func(t *testing.T, s State) {
				assert.True(t, s.LoggedIn)
			},
		},
		{
			name:   "logout",
			state:  loggedIn(),
			action: Action{Type: ActionLogout},
			check: func(t *testing.T, s State) {
				assert.False(t, s.LoggedIn)
			},
		},
		{
			name:    "logged out",
			state:   Seed("sess", demoNow),
			action:  Action{Type: ActionCreatePost, Content: "hello"},
			wantErr: true,
		},
		{
			name:    "unknown action",
			state:   loggedIn(),
			action:  Action{Type: "explode"},
			wantErr: true,
		},
		{
			name:   "update profile",
			state:  loggedIn(),
			action: Action{Type: ActionUpdateProfile, Name: " Ada ", Username: "Ada_L", Bio: &bio},
			check: func(t *testing.T, s State) {
				assert.Equal(t, "Ada", s.Profile.Name)
				assert.Equal(t, "ada_l", s.Profile.Username)
				assert.Equal(t, "I like robots", s.Profile.Bio)
			},
		},
		{
			name:    "update profile reserved username",
			state:   loggedIn(),
			action:  Action{Type: ActionUpdateProfile, Username: "admin"},
			wantErr: true,
		},
		{
			name:   "complete lesson",
			state:  loggedIn(),
			action: Action{Type: ActionCompleteLesson, TargetID: "lesson-1-2"},
			check: func(t *testing.T, s State) {
				assert.True(t, s.Courses[0].Lessons[1].Completed)
				assert.Equal(t, 33, s.Courses[0].Percent())
			},
		},
		{
			name:    "complete premium lesson on free plan",
			state:   loggedIn(),
			action:  Action{Type: ActionCompleteLesson, TargetID: "lesson-3-1"},
			wantErr: true,
		},
		{
			name:    "complete unknown lesson",
			state:   loggedIn(),
			action:  Action{Type: ActionCompleteLesson, TargetID: "nope"},
			wantErr: true,
		},
		{
			name:   "join active challenge",
			state:  loggedIn(),
			action: Action{Type: ActionJoinChallenge, TargetID: "challenge-cur"},
			check: func(t *testing.T, s State) {
				assert.True(t, s.Challenges[1].Joined)
			},
		},
		{
			name:    "join ended challenge",
			state:   loggedIn(),
			action:  Action{Type: ActionJoinChallenge, TargetID: "challenge-prev"},
			wantErr: true,
		},
		{
			name: "leave challenge",
			state: func() State {
				s := loggedIn()
				s.Challenges[2].Joined = true
				return s
			}(),
			action: Action{Type: ActionLeaveChallenge, TargetID: "challenge-next"},
			check: func(t *testing.T, s State) {
				assert.False(t, s.Challenges[2].Joined)
			},
		},
		{
			name:   "create post",
			state:  loggedIn(),
			action: Action{Type: ActionCreatePost, Content: " my first post "},
			check: func(t *testing.T, s State) {
				require.Len(t, s.Posts, 2)
				assert.Equal(t, "post-1", s.Posts[0].ID)
				assert.Equal(t, "my first post", s.Posts[0].Content)
				assert.Equal(t, "demo-vava", s.Posts[0].AuthorID)
				assert.Equal(t, 1, s.NextID)
			},
		},
		{
			name:    "create empty post",
			state:   loggedIn(),
			action:  Action{Type: ActionCreatePost, Content: "   "},
			wantErr: true,
		},
		{
			name:   "fire post",
			state:  loggedIn(),
			action: Action{Type: ActionFirePost, TargetID: "post-seed-1"},
			check: func(t *testing.T, s State) {
				assert.True(t, s.Posts[0].Fired)
				assert.Equal(t, 4, s.Posts[0].Fires)
			},
		},
		{
			name:   "add comment",
			state:  loggedIn(),
			action: Action{Type: ActionAddComment, TargetID: "post-seed-1", Content: "thanks!"},
			check: func(t *testing.T, s State) {
				require.Len(t, s.Posts[0].Comments, 1)
				assert.Equal(t, "comment-1", s.Posts[0].Comments[0].ID)
			},
		},
		{
			name:   "send message",
			state:  loggedIn(),
			action: Action{Type: ActionSendMessage, To: "demo-nunu", Content: "hello coach"},
			check: func(t *testing.T, s State) {
				require.Len(t, s.Messages, 2)
				assert.Equal(t, "demo-vava", s.Messages[1].From)
			},
		},
		{
			name:    "message self",
			state:   loggedIn(),
			action:  Action{Type: ActionSendMessage, To: "demo-vava", Content: "me"},
			wantErr: true,
		},
		{
			name:   "mark notification read",
			state:  loggedIn(),
			action: Action{Type: ActionMarkNotificationRead, TargetID: "notification-seed-2"},
			check: func(t *testing.T, s State) {
				assert.Equal(t, 1, s.UnreadCount())
			},
		},
		{
			name:   "switch plan",
			state:  loggedIn(),
			action: Action{Type: ActionSwitchPlan, Plan: subscription.PlanYearly},
			check: func(t *testing.T, s State) {
				assert.Equal(t, subscription.PlanYearly, s.Plan)
			},
		},
		{
			name:    "switch unknown plan",
			state:   loggedIn(),
			action:  Action{Type: ActionSwitchPlan, Plan: "lifetime"},
			wantErr: true,
		},
		{
			name:   "rsvp going",
			state:  loggedIn(),
			action: Action{Type: ActionRSVPEvent, TargetID: "event-1", Status: "going"},
			check: func(t *testing.T, s State) {
				assert.Equal(t, 13, s.Events[0].Going)
				assert.Equal(t, "going", s.Events[0].MyStatus)
			},
		},
		{
			name:    "rsvp going full event",
			state:   loggedIn(),
			action:  Action{Type: ActionRSVPEvent, TargetID: "event-2", Status: "going"},
			wantErr: true,
		},
		{
			name:   "rsvp maybe full event",
			state:  loggedIn(),
			action: Action{Type: ActionRSVPEvent, TargetID: "event-2", Status: "maybe"},
			check: func(t *testing.T, s State) {
				assert.Equal(t, 2, s.Events[1].Going)
			},
		},
		{
			name: "reset",
			state: func() State {
				s := loggedIn()
				s.Plan = subscription.PlanMonthly
				s.NextID = 7
				return s
			}(),
			action: Action{Type: ActionReset},
			check: func(t *testing.T, s State) {
				assert.Equal(t, "sess", s.SessionID)
				assert.Equal(t, subscription.PlanFree, s.Plan)
				assert.Zero(t, s.NextID)
				assert.False(t, s.LoggedIn)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.action.At = demoNow
			got, err := Reduce(tt.state, tt.action)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, got)
			}
		})
	}
}

func TestReduceLeavesInputUntouched(t *testing.T) {
	s := loggedIn()
	actions := []Action{
		{Type: ActionCompleteLesson, TargetID: "lesson-1-1"},
		{Type: ActionFirePost, TargetID: "post-seed-1"},
		{Type: ActionAddComment, TargetID: "post-seed-1", Content: "nice"},
		{Type: ActionJoinChallenge, TargetID: "challenge-cur"},
		{Type: ActionMarkNotificationRead, TargetID: "notification-seed-1"},
		{Type: ActionRSVPEvent, TargetID: "event-1", Status: "going"},
	}
	for _, a := range actions {
		a.At = demoNow
		_, err := Reduce(s, a)
		require.NoError(t, err, a.Type)
	}

	assert.Equal(t, loggedIn(), s)
}

func TestStoreDispatch(t *testing.T) {
	origNow := core.NowFunc
	core.NowFunc = func() time.Time { return demoNow }
	defer func() { core.NowFunc = origNow }()

	ctx := context.Background()
	st := NewStore(NewMemoryPersister())

	s, err := st.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, s.SessionID)

	_, err = st.Dispatch(ctx, s.SessionID, Action{Type: ActionCreatePost, Content: "nope"})
	assert.ErrorIs(t, err, ErrLoggedOut)

	_, err = st.Dispatch(ctx, s.SessionID, Action{Type: ActionLogin})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := st.Dispatch(ctx, s.SessionID, Action{Type: ActionCreatePost, Content: "hi"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := st.Get(ctx, s.SessionID)
	require.NoError(t, err)
	assert.Len(t, got.Posts, 21)
	assert.Equal(t, 20, got.NextID)

	_, err = st.Get(ctx, "missing")
	assert.True(t, core.IsNotFound(err))

	require.NoError(t, st.Delete(ctx, s.SessionID))
	_, err = st.Dispatch(ctx, s.SessionID, Action{Type: ActionLogout})
	assert.True(t, core.IsNotFound(err))
}

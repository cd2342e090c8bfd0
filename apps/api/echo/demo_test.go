package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuvatw/nuva-club/core/challenge"
	"github.com/nuvatw/nuva-club/core/demo"
	"github.com/nuvatw/nuva-club/core/subscription"
)

func Test_demoApi(t *testing.T) {
	app := setup(t)

	var s demo.State
	rec := app.do(t, http.MethodPost, "/v1/demo/sessions", "", nil, &s)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotEmpty(t, s.SessionID)
	assert.False(t, s.LoggedIn)
	require.Len(t, s.Challenges, 3)
	assert.Equal(t, challenge.StatusEnded, s.Challenges[0].Status)
	assert.Equal(t, challenge.StatusActive, s.Challenges[1].Status)
	assert.Equal(t, challenge.StatusUpcoming, s.Challenges[2].Status)

	path := "/v1/demo/sessions/" + s.SessionID
	actions := path + "/actions"

	tests := []httpTest{
		{
			name: "logged out", method: http.MethodPost, path: actions,
			body:     marchallObj(t, demo.Action{Type: demo.ActionCreatePost, Content: "hi"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: demo.ErrLoggedOut.Error()}),
		},
		{
			name: "unknown action", method: http.MethodPost, path: actions,
			body:     marchallObj(t, demo.Action{Type: "dance"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "dance: unknown action"}),
		},
		{
			name: "missing type", method: http.MethodPost, path: actions,
			body: marchallObj(t, demo.Action{}), wantCode: http.StatusBadRequest,
		},
		{name: "unknown session", path: "/v1/demo/sessions/missing", wantCode: http.StatusNotFound},
	}
	runHTTPTests(t, app, tests)

	dispatch := func(t *testing.T, a demo.Action) demo.State {
		t.Helper()
		var got demo.State
		rec := app.do(t, http.MethodPost, actions, "", a, &got)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		return got
	}

	s = dispatch(t, demo.Action{Type: demo.ActionLogin})
	assert.True(t, s.LoggedIn)

	s = dispatch(t, demo.Action{Type: demo.ActionCreatePost, Content: " Hello club "})
	require.Len(t, s.Posts, 2)
	assert.Equal(t, "Hello club", s.Posts[0].Content)

	s = dispatch(t, demo.Action{Type: demo.ActionFirePost, TargetID: "post-seed-1"})
	assert.Equal(t, 4, s.Posts[1].Fires)
	assert.True(t, s.Posts[1].Fired)

	s = dispatch(t, demo.Action{Type: demo.ActionJoinChallenge, TargetID: "challenge-cur"})
	assert.True(t, s.Challenges[1].Joined)

	// failed actions leave the session untouched
	rec = app.do(t, http.MethodPost, actions, "", demo.Action{Type: demo.ActionJoinChallenge, TargetID: "challenge-prev"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = app.do(t, http.MethodPost, actions, "", demo.Action{Type: demo.ActionCompleteLesson, TargetID: "lesson-3-1"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = app.do(t, http.MethodPost, actions, "", demo.Action{Type: demo.ActionRSVPEvent, TargetID: "event-2", Status: "going"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s = dispatch(t, demo.Action{Type: demo.ActionSwitchPlan, Plan: subscription.PlanMonthly})
	assert.Equal(t, subscription.PlanMonthly, s.Plan)
	s = dispatch(t, demo.Action{Type: demo.ActionCompleteLesson, TargetID: "lesson-3-1"})
	assert.Equal(t, 50, s.Courses[2].Percent())

	var stored demo.State
	rec = app.do(t, http.MethodGet, path, "", nil, &stored)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, s.Posts, stored.Posts)
	assert.Equal(t, s.Plan, stored.Plan)

	s = dispatch(t, demo.Action{Type: demo.ActionReset})
	assert.False(t, s.LoggedIn)
	assert.Len(t, s.Posts, 1)

	rec = app.do(t, http.MethodDelete, path, "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = app.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

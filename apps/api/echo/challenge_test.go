package echoapi_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/nuvatw/nuva-club/apps/api/echo"
	"github.com/nuvatw/nuva-club/core/challenge"
	"github.com/nuvatw/nuva-club/core/user"
)

func Test_challengeApi(t *testing.T) {
	app := setup(t)
	guardian := app.createUser(t, "Guard", "guard", user.RoleGuardian)
	vava := app.createUser(t, "Student", "student", user.RoleVava)
	guardToken := app.token(t, guardian)
	vavaToken := app.token(t, vava)

	now := time.Now().UTC()
	create := func(t *testing.T, nc challenge.NewChallenge) challenge.Challenge {
		t.Helper()
		var ch challenge.Challenge
		rec := app.do(t, http.MethodPost, "/v1/challenges", guardToken, nc, &ch)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		return ch
	}

	active := create(t, challenge.NewChallenge{Title: "Prompt a poem", StartDate: now.Add(-24 * time.Hour), EndDate: now.Add(24 * time.Hour)})
	upcoming := create(t, challenge.NewChallenge{Title: "Build a bot", StartDate: now.Add(48 * time.Hour), EndDate: now.Add(72 * time.Hour)})
	ended := create(t, challenge.NewChallenge{Title: "New year", Month: "2020-01"})

	assert.Equal(t, challenge.StatusActive, active.Status)
	assert.Equal(t, challenge.StatusUpcoming, upcoming.Status)
	assert.Equal(t, challenge.StatusEnded, ended.Status)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), ended.StartDate.UTC())

	tests := []httpTest{
		{
			name: "unknown status", path: "/v1/challenges?status=active,bogus", token: vavaToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"status": "unknown status: bogus"}),
		},
		{
			name: "vava cannot create", method: http.MethodPost, path: "/v1/challenges", token: vavaToken,
			body:     marchallObj(t, challenge.NewChallenge{Title: "Mine", Month: "2026-10"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermission),
		},
		{
			name: "end before start", method: http.MethodPost, path: "/v1/challenges", token: guardToken,
			body:     marchallObj(t, challenge.NewChallenge{Title: "Backwards", StartDate: now, EndDate: now.Add(-time.Hour)}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"end_date": challenge.ErrEndBeforeDate.Error()}),
		},
		{
			name: "join ended", method: http.MethodPost, path: "/v1/challenges/" + ended.ID + "/join", token: vavaToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: challenge.ErrEnded.Error()}),
		},
		{
			name: "leave without joining", method: http.MethodPost, path: "/v1/challenges/" + active.ID + "/leave", token: vavaToken,
			wantCode: http.StatusNotFound,
		},
		{name: "unknown challenge", path: "/v1/challenges/missing", token: vavaToken, wantCode: http.StatusNotFound},
	}
	runHTTPTests(t, app, tests)

	var chs []challenge.Challenge
	rec := app.do(t, http.MethodGet, "/v1/challenges?status=active,upcoming", vavaToken, nil, &chs)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, chs, 2)
	assert.Equal(t, upcoming.ID, chs[0].ID)
	assert.Equal(t, active.ID, chs[1].ID)

	rec = app.do(t, http.MethodGet, "/v1/challenges", vavaToken, nil, &chs)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, chs, 3)

	// join, complete, leave
	var joined challenge.Challenge
	rec = app.do(t, http.MethodPost, "/v1/challenges/"+active.ID+"/join", vavaToken, nil, &joined)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, joined.Joined)
	assert.Equal(t, 1, joined.ParticipantCount)

	rec = app.do(t, http.MethodPost, "/v1/challenges/"+active.ID+"/join", vavaToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var p challenge.Participant
	rec = app.do(t, http.MethodPost, "/v1/challenges/"+active.ID+"/complete", vavaToken,
		echoapi.CompleteChallengeRequest{Submission: " roses are red "}, &p)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "roses are red", p.Submission)
	assert.True(t, p.Completed())

	var ps []challenge.Participant
	rec = app.do(t, http.MethodGet, "/v1/challenges/"+active.ID+"/participants", vavaToken, nil, &ps)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, ps, 1)
	assert.Equal(t, vava.ID, ps[0].User.ID)
	assert.Equal(t, "student", ps[0].User.Username)

	// upcoming challenges can be joined but not completed
	rec = app.do(t, http.MethodPost, "/v1/challenges/"+upcoming.ID+"/join", vavaToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = app.do(t, http.MethodPost, "/v1/challenges/"+upcoming.ID+"/complete", vavaToken, echoapi.CompleteChallengeRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), challenge.ErrNotActive.Error())

	var left challenge.Challenge
	rec = app.do(t, http.MethodPost, "/v1/challenges/"+upcoming.ID+"/leave", vavaToken, nil, &left)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, left.Joined)
	assert.Equal(t, 0, left.ParticipantCount)

	// guardian edits
	var updated challenge.Challenge
	past := now.Add(-time.Hour)
	rec = app.do(t, http.MethodPatch, "/v1/challenges/"+upcoming.ID, guardToken,
		challenge.UpdateChallenge{StartDate: &past}, &updated)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, challenge.StatusActive, updated.Status)

	rec = app.do(t, http.MethodDelete, "/v1/challenges/"+ended.ID, guardToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = app.do(t, http.MethodGet, "/v1/challenges/"+ended.ID, vavaToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

package echoapi_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/nuvatw/nuva-club/apps/api/echo"
	"github.com/nuvatw/nuva-club/core/course"
	"github.com/nuvatw/nuva-club/core/subscription"
	"github.com/nuvatw/nuva-club/core/user"
)

func Test_userApi_signupAndLogin(t *testing.T) {
	app := setup(t)

	signup := user.Signup{
		Name:            "New Bie",
		Username:        "NewBie",
		Email:           "newbie@example.com",
		Password:        testPassword,
		PasswordConfirm: testPassword,
	}

	var res echoapi.SignupResponse
	rec := app.do(t, http.MethodPost, "/v1/users/signup", "", signup, &res)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "newbie", res.User.Username)
	assert.Equal(t, []string{user.RoleVava}, res.User.Roles)
	assert.Equal(t, user.MinLevel, res.User.Level)

	outbox := app.mailSvc.Outbox()
	require.Len(t, outbox, 1)
	assert.Equal(t, "Welcome to Nuva Club", outbox[0].Subject)
	assert.Equal(t, "newbie@example.com", outbox[0].To[0].Address)

	// signup starts the free plan
	var sub subscription.Subscription
	rec = app.do(t, http.MethodGet, "/v1/subscription", res.Token, nil, &sub)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, subscription.PlanFree, sub.Plan)
	assert.False(t, sub.StartedAt.IsZero())

	tests := []httpTest{
		{
			name: "duplicate username", method: http.MethodPost, path: "/v1/users/signup",
			body:     marchallObj(t, signup),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": user.ErrUsernameExists.Error()}),
		},
		{
			name: "mistyped email", method: http.MethodPost, path: "/v1/users/signup",
			body: marchallObj(t, user.Signup{
				Name: "Ann", Username: "ann", Email: "ann@gmial.com", Password: testPassword, PasswordConfirm: testPassword,
			}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "did you mean ann@gmail.com?"}),
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/users/login",
			body:     marchallObj(t, echoapi.LoginRequest{Username: "newbie", Password: "nope"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, errAuthentication),
		},
		{
			name: "unknown user", method: http.MethodPost, path: "/v1/users/login",
			body:     marchallObj(t, echoapi.LoginRequest{Username: "ghost", Password: testPassword}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, errAuthentication),
		},
	}
	runHTTPTests(t, app, tests)

	var login echoapi.LoginResponse
	rec = app.do(t, http.MethodPost, "/v1/users/login", "", echoapi.LoginRequest{Username: "NEWBIE@example.com", Password: testPassword}, &login)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, login.Token)

	var me user.User
	rec = app.do(t, http.MethodGet, "/v1/me", login.Token, nil, &me)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, res.User.ID, me.ID)
	assert.False(t, me.LastLogin.IsZero())
}

func Test_userApi_publicChecks(t *testing.T) {
	app := setup(t)
	app.createUser(t, "Taken", "taken")

	tests := []struct {
		uname string
		want  user.Availability
	}{
		{uname: "fresh_one", want: user.Availability{Username: "fresh_one", Available: true}},
		{uname: "Taken", want: user.Availability{Username: "taken", Reason: "this username is already taken"}},
		{uname: "admin", want: user.Availability{Username: "admin", Reason: "this username is reserved"}},
		{uname: "1abc", want: user.Availability{
			Username: "1abc",
			Reason:   "usernames are 3 to 30 lowercase letters, digits or underscores and start with a letter",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.uname, func(t *testing.T) {
			var got user.Availability
			rec := app.do(t, http.MethodGet, "/v1/users/username-available?username="+tt.uname, "", nil, &got)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, got)
		})
	}

	var check echoapi.EmailCheckResponse
	rec := app.do(t, http.MethodPost, "/v1/users/check-email", "", echoapi.EmailCheckRequest{Email: "Joe@Hotmial.com"}, &check)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "joe@hotmail.com", check.Suggestion)

	rec = app.do(t, http.MethodPost, "/v1/users/check-email", "", echoapi.EmailCheckRequest{Email: "joe@example.com"}, &check)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, check.Suggestion)
}

func Test_userApi_guardianRoutes(t *testing.T) {
	app := setup(t)
	guardian := app.createUser(t, "Guard", "guard", user.RoleGuardian)
	nunu := app.createUser(t, "Coach", "coach", user.RoleNunu)
	vava := app.createUser(t, "Student", "student", user.RoleVava)

	guardToken := app.token(t, guardian)
	vavaToken := app.token(t, vava)

	tests := []httpTest{
		{name: "auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "guardian required", path: "/v1/users", token: vavaToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermission)},
		{name: "nunu not allowed", path: "/v1/users", token: app.token(t, nunu), wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermission)},
		{name: "roles", path: "/v1/users/roles", token: guardToken, wantCode: http.StatusOK, wantData: marchallObj(t, user.Roles)},
		{name: "own profile", path: "/v1/users/" + vava.ID, token: vavaToken, wantCode: http.StatusOK},
		{name: "other profile hidden", path: "/v1/users/" + nunu.ID, token: vavaToken, wantCode: http.StatusNotFound},
		{name: "guardian sees all", path: "/v1/users/" + nunu.ID, token: guardToken, wantCode: http.StatusOK},
		{
			name: "cannot delete self", method: http.MethodDelete, path: "/v1/users/" + guardian.ID, token: guardToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermission),
		},
	}
	runHTTPTests(t, app, tests)

	var users []user.User
	rec := app.do(t, http.MethodGet, "/v1/users?role="+user.RoleNunu, guardToken, nil, &users)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, users, 1)
	assert.Equal(t, nunu.ID, users[0].ID)

	var created user.User
	rec = app.do(t, http.MethodPost, "/v1/users", guardToken, user.NewUser{
		Name: "Fresh", Username: "fresh", Email: "fresh@example.com",
		Password: testPassword, PasswordConfirm: testPassword,
	}, &created)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, []string{user.RoleVava}, created.Roles)

	rec = app.do(t, http.MethodDelete, "/v1/users/"+created.ID, guardToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = app.do(t, http.MethodGet, "/v1/users/"+created.ID, guardToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_userApi_profile(t *testing.T) {
	app := setup(t)
	vava := app.createUser(t, "Student", "student", user.RoleVava)
	token := app.token(t, vava)

	var updated user.User
	rec := app.do(t, http.MethodPatch, "/v1/me", token, map[string]string{"name": "  Star Student ", "bio": "learning AI"}, &updated)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Star Student", updated.Name)
	assert.Equal(t, "learning AI", updated.Bio)
	assert.Equal(t, "student", updated.Username)

	var nav user.Navigation
	rec = app.do(t, http.MethodGet, "/v1/me/navigation", token, nil, &nav)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "vava", nav.Role)
	assert.NotEmpty(t, nav.Items)

	// avatar upload
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("avatar", "Me.PNG")
	require.NoError(t, err)
	_, err = fw.Write([]byte("png bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/me/avatar", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"avatar_url":"http://media.test/avatars/`+vava.ID+"/")
	assert.Contains(t, rec.Body.String(), `.png"`)

	// no file
	req, rec = newAuthRequest(http.MethodPost, "/v1/me/avatar", token)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func Test_userApi_placement(t *testing.T) {
	app := setup(t)
	vava := app.createUser(t, "Student", "student", user.RoleVava)
	token := app.token(t, vava)

	var questions []course.Question
	rec := app.do(t, http.MethodGet, "/v1/placement/questions", token, nil, &questions)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, questions, 12)
	assert.Equal(t, "q1", questions[0].ID)

	answers := map[string]int{"q1": 1, "q2": 1, "q3": 0, "q4": 1, "q5": 2, "q6": 1}
	var res course.PlacementResult
	rec = app.do(t, http.MethodPost, "/v1/placement/submit", token, course.PlacementSubmission{Answers: answers}, &res)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, course.PlacementResult{Correct: 6, Total: 12, Level: 6}, res)

	var me user.User
	app.do(t, http.MethodGet, "/v1/me", token, nil, &me)
	assert.Equal(t, 6, me.Level)

	rec = app.do(t, http.MethodPost, "/v1/placement/submit", token, course.PlacementSubmission{Answers: map[string]int{"q1": 9}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "answers.q1"))
}

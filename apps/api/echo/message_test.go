package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/nuvatw/nuva-club/apps/api/echo"
	"github.com/nuvatw/nuva-club/core/message"
	"github.com/nuvatw/nuva-club/core/notification"
	"github.com/nuvatw/nuva-club/core/user"
)

func Test_messageApi(t *testing.T) {
	app := setup(t)
	ann := app.createUser(t, "Ann", "ann", user.RoleVava)
	bob := app.createUser(t, "Bob", "bob", user.RoleNunu)
	cat := app.createUser(t, "Cat", "cat", user.RoleVava)
	annToken := app.token(t, ann)
	bobToken := app.token(t, bob)

	tests := []httpTest{
		{
			name: "to self", method: http.MethodPost, path: "/v1/messages", token: annToken,
			body:     marchallObj(t, message.NewMessage{RecipientID: ann.ID, Content: "hi me"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"recipient_id": message.ErrSelfMessage.Error()}),
		},
		{
			name: "unknown recipient", method: http.MethodPost, path: "/v1/messages", token: annToken,
			body:     marchallObj(t, message.NewMessage{RecipientID: "missing", Content: "hello?"}),
			wantCode: http.StatusNotFound,
		},
		{
			name: "empty content", method: http.MethodPost, path: "/v1/messages", token: annToken,
			body:     marchallObj(t, message.NewMessage{RecipientID: bob.ID, Content: " "}),
			wantCode: http.StatusBadRequest,
		},
		{name: "auth required", path: "/v1/messages", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
	}
	runHTTPTests(t, app, tests)

	var m message.Message
	rec := app.do(t, http.MethodPost, "/v1/messages", annToken, message.NewMessage{RecipientID: bob.ID, Content: "Can you review my prompt?"}, &m)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, ann.ID, m.Sender.ID)
	assert.Equal(t, "bob", m.Recipient.Username)
	assert.True(t, m.ReadAt.IsZero())

	rec = app.do(t, http.MethodPost, "/v1/messages", annToken, message.NewMessage{RecipientID: bob.ID, Content: "It is about agents."})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = app.do(t, http.MethodPost, "/v1/messages", app.token(t, cat), message.NewMessage{RecipientID: bob.ID, Content: "Hi coach"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var count echoapi.CountResponse
	rec = app.do(t, http.MethodGet, "/v1/messages/unread-count", bobToken, nil, &count)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, count.Count)

	var ns []notification.Notification
	rec = app.do(t, http.MethodGet, "/v1/notifications", bobToken, nil, &ns)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, ns, 3)
	assert.Equal(t, notification.KindMessage, ns[0].Kind)

	var inbox []message.Conversation
	rec = app.do(t, http.MethodGet, "/v1/messages", bobToken, nil, &inbox)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, inbox, 2)
	unread := map[string]int{}
	for _, c := range inbox {
		unread[c.Partner.ID] = c.UnreadCount
	}
	assert.Equal(t, map[string]int{ann.ID: 2, cat.ID: 1}, unread)

	var convo []message.Message
	rec = app.do(t, http.MethodGet, "/v1/messages/"+ann.ID, bobToken, nil, &convo)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, convo, 2)

	rec = app.do(t, http.MethodPost, "/v1/messages/"+ann.ID+"/read", bobToken, nil, &count)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, count.Count)

	rec = app.do(t, http.MethodGet, "/v1/messages/unread-count", bobToken, nil, &count)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, count.Count)

	// the sender's side is never unread
	rec = app.do(t, http.MethodGet, "/v1/messages", annToken, nil, &inbox)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, inbox, 1)
	assert.Equal(t, bob.ID, inbox[0].Partner.ID)
	assert.Equal(t, 0, inbox[0].UnreadCount)
}

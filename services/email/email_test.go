package emailsvc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/mail"
	"strings"
	"sync"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuvatw/nuva-club/core"
	appfs "github.com/nuvatw/nuva-club/fs"
)

func welcomeMessage() *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{{Name: "Ada", Address: "ada@example.com"}},
		Subject:      "Welcome",
		TemplateName: "welcome",
		TemplateData: map[string]interface{}{"Name": "Ada", "Level": 1},
	}
}

func TestConsoleService(t *testing.T) {
	require.NoError(t, core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, true))
	conf := core.NewTestConfig()

	var out bytes.Buffer
	svc := NewConsoleService(conf, &out, core.NopLogger())
	attached := welcomeMessage()
	require.NoError(t, attached.Attach(strings.NewReader("a,b\n1,2\n"), "report.csv", "text/csv"))

	svc.SendMessages(
		welcomeMessage(),
		attached,
		&core.EmailMessage{Subject: "nobody"},
		&core.EmailMessage{To: []mail.Address{{Address: "x@example.com"}}, TemplateName: "missing"},
	)
	svc.Wait()

	sent := svc.Outbox()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[0].TextContent, "Hi Ada")
	assert.Contains(t, sent[0].TextContent, conf.FrontendBaseURL+"/placement")
	assert.NotEmpty(t, sent[0].HTMLContent)

	printed := out.String()
	assert.Contains(t, printed, "Subject: [Nuva Club] Welcome")
	assert.Contains(t, printed, "To: \"Ada\" <ada@example.com>")
	assert.Contains(t, printed, "multipart/mixed")
	assert.Contains(t, printed, "filename=report.csv")

	svc.Reset()
	assert.Empty(t, svc.Outbox())
}

func TestConsoleServiceMock(t *testing.T) {
	require.NoError(t, core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, true))
	svc := NewConsoleServiceMock(core.NewTestConfig())
	svc.SendMessages(&core.EmailMessage{To: []mail.Address{{Address: "ada@example.com"}}, Subject: "Hi", BodyStr: "plain"})

	sent := svc.Outbox()
	require.Len(t, sent, 1)
	assert.Equal(t, "plain", sent[0].TextContent)
	assert.Empty(t, sent[0].HTMLContent)
}

func TestSendgridService(t *testing.T) {
	require.NoError(t, core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, true))
	conf := core.NewTestConfig()
	conf.SendgridApiKey = "SG.test"

	var (
		wg   sync.WaitGroup
		reqs []rest.Request
		mu   sync.Mutex
	)
	svc := NewSendgridService(conf, core.NopLogger())
	svc.api = func(req rest.Request) (*rest.Response, error) {
		defer wg.Done()
		mu.Lock()
		reqs = append(reqs, req)
		mu.Unlock()
		return &rest.Response{StatusCode: http.StatusAccepted}, nil
	}

	wg.Add(1)
	svc.SendMessages(welcomeMessage())
	wg.Wait()

	require.Len(t, reqs, 1)
	req := reqs[0]
	assert.Equal(t, rest.Method(http.MethodPost), req.Method)
	assert.Equal(t, "Bearer SG.test", req.Headers["Authorization"])

	var body struct {
		From struct {
			Email string `json:"email"`
		} `json:"from"`
		Personalizations []struct {
			Subject string `json:"subject"`
			To      []struct {
				Email string `json:"email"`
			} `json:"to"`
		} `json:"personalizations"`
		Content []struct {
			Type string `json:"type"`
		} `json:"content"`
	}
	require.NoError(t, json.Unmarshal(req.Body, &body))
	assert.Equal(t, "noreply@localhost", body.From.Email)
	require.Len(t, body.Personalizations, 1)
	assert.Equal(t, "[Nuva Club] Welcome", body.Personalizations[0].Subject)
	assert.Equal(t, "ada@example.com", body.Personalizations[0].To[0].Email)
	assert.Len(t, body.Content, 2)
}

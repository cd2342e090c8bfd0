package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuvatw/nuva-club/apps/api/di"
	echoapi "github.com/nuvatw/nuva-club/apps/api/echo"
	"github.com/nuvatw/nuva-club/core"
	"github.com/nuvatw/nuva-club/core/user"
	appfs "github.com/nuvatw/nuva-club/fs"
	emailsvc "github.com/nuvatw/nuva-club/services/email"
	"github.com/nuvatw/nuva-club/storage/cache"
	"github.com/nuvatw/nuva-club/storage/database/sqlxrepos"
	"github.com/nuvatw/nuva-club/storage/media"
	testutil "github.com/nuvatw/nuva-club/tests"
)

const testPassword = "Xy7!kq#Lm2"

var (
	errMissingToken   = httpErr{Error: "missing or malformed jwt"}
	errPermission     = httpErr{Error: "permission denied"}
	errAuthentication = httpErr{Error: "authentication failed"}
)

type testApp struct {
	echoapi.Server
	conf    *core.Config
	deps    *echoapi.Deps
	usrRepo user.Repository
	mailSvc *emailsvc.ConsoleService
}

func setup(t *testing.T) *testApp {
	t.Helper()

	conf := core.NewTestConfig()
	conf.Media.LocalDir = t.TempDir()
	conf.Media.BaseURL = "http://media.test"
	require.NoError(t, core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, true))

	// set up DB & repos
	db := testutil.PrepareDB(t)
	store, err := media.NewLocal(conf.Media)
	require.NoError(t, err)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	deps := di.NewDeps(conf, di.Infra{
		DB:     db,
		Cache:  cache.NewMemory(),
		Media:  store,
		Mail:   mailSvc,
		Logger: core.NopLogger(),
	})

	// set up server
	return &testApp{
		Server:  echoapi.NewServer(conf, nil, deps),
		conf:    conf,
		deps:    deps,
		usrRepo: sqlxrepos.NewUserRepository(db),
		mailSvc: mailSvc,
	}
}

func (app *testApp) createUser(t *testing.T, name, uname string, roles ...string) user.User {
	return testutil.CreateUser(t, app.usrRepo, name, uname, uname+"@example.com", testPassword, roles, true)
}

func (app *testApp) token(t *testing.T, usr user.User) string {
	token, err := echoapi.GenerateToken(app.conf, echoapi.GetUserClaims(app.conf, usr))
	if err != nil {
		t.Fatalf("token() failed: %v", err)
	}
	return token
}

// do sends a JSON request and decodes the response body into dest when given.
func (app *testApp) do(t *testing.T, method, path, token string, body interface{}, dest ...interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var data []byte
	if body != nil {
		data = marchallObj(t, body)
	}
	req, rec := newAuthRequest(method, path, token, data)
	app.ServeHTTP(rec, req)
	if len(dest) > 0 && rec.Code < 300 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest[0]), rec.Body.String())
	}
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app *testApp, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestServer_home(t *testing.T) {
	app := setup(t)

	req, rec := newRequest(http.MethodGet, "/")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Nuva Club API!", rec.Body.String())

	req, rec = newRequest(http.MethodGet, "/metrics")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "nuva_http_requests_total")
}

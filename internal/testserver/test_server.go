// Package testserver runs the full HTTP stack against an in-memory SQLite
// database for end-to-end tests.
package testserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/rateroom/internal/domain/access"
	"github.com/rpggio/rateroom/internal/domain/activity"
	"github.com/rpggio/rateroom/internal/domain/session"
	"github.com/rpggio/rateroom/internal/mcp"
	"github.com/rpggio/rateroom/internal/sqlite"
	"github.com/rpggio/rateroom/internal/transport"
	"github.com/stretchr/testify/require"
)

// HostPassword is the password accepted by every test server.
const HostPassword = "host-secret"

// AutomationActor may advance sessions without the host token.
const AutomationActor = "Stream Bot"

type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	Sessions *session.Service
	Token    string
	t        *testing.T
}

func New(t *testing.T) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), nil)
	accessSvc := access.NewService(sqlite.NewTokenRepository(db), HostPassword, time.Hour, nil)
	sessionSvc := session.NewService(sqlite.NewSessionRepository(db), activitySvc, session.Settings{
		AuthorizedActors:          []string{AutomationActor},
		LiveTTL:                   time.Hour,
		DefaultExpectedAttendance: 10,
		DefaultTimer:              60,
	}, nil)

	mcpServer := mcp.NewServer(mcp.Config{
		Services:      mcp.Services{Sessions: sessionSvc, Activity: activitySvc},
		Verifier:      accessSvc,
		AuthEnabled:   true,
		TransportMode: "http",
	})
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		nil,
	)

	router := transport.NewServer(
		transport.Services{Sessions: sessionSvc, Access: accessSvc, Activity: activitySvc},
		transport.AuthMiddleware(accessSvc),
		nil,
	)
	router.Handle("/mcp", mcpHandler)
	router.Handle("/mcp/*", mcpHandler)
	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		DB:       db,
		Sessions: sessionSvc,
		t:        t,
	}

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	var grant access.Grant
	ts.MustDo(http.MethodPost, "/api/login", "", map[string]string{"password": HostPassword}, http.StatusOK, &grant)
	ts.Token = grant.Value

	return ts
}

// Do sends a JSON request and returns the status and raw body.
func (ts *TestServer) Do(method, path, token string, body any) (int, []byte) {
	ts.t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, ts.Server.URL+path, reader)
	require.NoError(ts.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Server.Client().Do(req)
	require.NoError(ts.t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(ts.t, err)
	return resp.StatusCode, data
}

// MustDo sends a request, requires wantStatus and decodes the body into out
// when out is non-nil.
func (ts *TestServer) MustDo(method, path, token string, body any, wantStatus int, out any) {
	ts.t.Helper()

	status, data := ts.Do(method, path, token, body)
	require.Equal(ts.t, wantStatus, status, "%s %s: %s", method, path, data)
	if out != nil {
		require.NoError(ts.t, json.Unmarshal(data, out), string(data))
	}
}

// Host sends a request with the host token.
func (ts *TestServer) Host(method, path string, body any, wantStatus int, out any) {
	ts.t.Helper()
	ts.MustDo(method, path, ts.Token, body, wantStatus, out)
}

// Voter sends a request without credentials.
func (ts *TestServer) Voter(method, path string, body any, wantStatus int, out any) {
	ts.t.Helper()
	ts.MustDo(method, path, "", body, wantStatus, out)
}

// MCPClient connects an MCP client over streamable HTTP. An empty token
// connects without credentials.
func (ts *TestServer) MCPClient(token string) *sdkmcp.ClientSession {
	ts.t.Helper()

	httpClient := ts.Server.Client()
	if token != "" {
		httpClient = &http.Client{Transport: bearerTransport{token: token, base: ts.Server.Client().Transport}}
	}
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "testserver", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ts.t.Context(), &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.Server.URL + "/mcp",
		HTTPClient: httpClient,
	}, nil)
	require.NoError(ts.t, err)
	ts.t.Cleanup(func() { _ = cs.Close() })
	return cs
}

type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (b bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+b.token)
	base := b.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

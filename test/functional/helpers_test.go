//go:build functional

// Package functional provides functional tests for the todo REST API and
// its WebSocket change feed, exercised over real HTTP against a file
// backed store.
package functional

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/todoapi-example/internal/auth"
	"github.com/vyrodovalexey/todoapi-example/internal/config"
	"github.com/vyrodovalexey/todoapi-example/internal/server"
	"github.com/vyrodovalexey/todoapi-example/internal/service"
	"github.com/vyrodovalexey/todoapi-example/internal/store"
)

// Test credentials matching the default allow-list.
const (
	TestUser     = "admin"
	TestPassword = "admin123"
)

// Default test configuration values.
const (
	DefaultRequestTimeout = 5 * time.Second
)

// TestServer wraps an in-process server listening on a real port.
type TestServer struct {
	Server  *server.Server
	BaseURL string
	Client  *http.Client
	dataDir string
	httpSrv *httptest.Server
}

// NewTestServer starts a server over a file store in a fresh temp
// directory. When authenticated is false the auth middleware is absent.
func NewTestServer(t *testing.T, authenticated bool) *TestServer {
	t.Helper()
	return newTestServerWithDir(t, authenticated, t.TempDir())
}

// newTestServerWithDir starts a server whose data file lives in dataDir,
// so a second server can be pointed at the same collection.
func newTestServerWithDir(t *testing.T, authenticated bool, dataDir string) *TestServer {
	t.Helper()

	cfg := &config.Config{
		ServerPort:      8080,
		LogLevel:        "error",
		ShutdownTimeout: 5 * time.Second,
		MetricsEnabled:  false,
		AuthMode:        "basic",
		BasicAuthUsers:  TestUser + ":" + TestPassword,
		DataFile:        filepath.Join(dataDir, "todos.json"),
	}

	logger := zap.NewNop()
	todoStore := store.NewFileStore(cfg.DataFile, logger)
	svc := service.New(todoStore, logger)

	var authenticator auth.Authenticator
	if authenticated {
		a, err := auth.NewBasicAuthenticator(cfg.BasicAuthUsers)
		if err != nil {
			t.Fatalf("NewBasicAuthenticator() unexpected error: %v", err)
		}
		authenticator = a
	}

	srv := server.New(cfg, logger, svc, authenticator)
	httpSrv := httptest.NewServer(srv.Router())
	t.Cleanup(httpSrv.Close)

	return &TestServer{
		Server:  srv,
		BaseURL: httpSrv.URL,
		Client:  &http.Client{Timeout: DefaultRequestTimeout},
		dataDir: dataDir,
		httpSrv: httpSrv,
	}
}

// DataDir returns the directory holding the server's data file.
func (ts *TestServer) DataDir() string {
	return ts.dataDir
}

// requestOptions controls how doRequest builds the request.
type requestOptions struct {
	username string
	password string
	noAuth   bool
}

// withCredentials overrides the default test credentials.
func withCredentials(username, password string) func(*requestOptions) {
	return func(o *requestOptions) {
		o.username = username
		o.password = password
	}
}

// withoutAuth sends the request without an Authorization header.
func withoutAuth() func(*requestOptions) {
	return func(o *requestOptions) {
		o.noAuth = true
	}
}

// doRequest performs an HTTP request against the test server and returns
// the status code and response body. Requests carry the default test
// credentials unless overridden.
func (ts *TestServer) doRequest(
	t *testing.T,
	method, path string,
	body any,
	opts ...func(*requestOptions),
) (int, []byte) {
	t.Helper()

	options := requestOptions{
		username: TestUser,
		password: TestPassword,
	}
	for _, opt := range opts {
		opt(&options)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.BaseURL+path, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !options.noAuth {
		req.SetBasicAuth(options.username, options.password)
	}

	resp, err := ts.Client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response body: %v", err)
	}

	return resp.StatusCode, data
}

// mustUnmarshal decodes JSON into out, failing the test on error.
func mustUnmarshal(t *testing.T, data []byte, out any) {
	t.Helper()
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("parsing response %s: %v", data, err)
	}
}

// readDataFile returns the raw content of the server's data file.
func (ts *TestServer) readDataFile(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(ts.dataDir, "todos.json"))
	if err != nil {
		t.Fatalf("reading data file: %v", err)
	}
	return data
}

//go:build e2e

package e2e_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

// Environment variable names for E2E test configuration.
const (
	EnvServerURL = "INTEGRATION_SERVER_URL"
	EnvBasicUser = "INTEGRATION_BASIC_USER"
	EnvBasicPass = "INTEGRATION_BASIC_PASS"
)

// Default configuration values.
const (
	DefaultServerURL = "http://localhost:8080"
	DefaultBasicUser = "admin"
	DefaultBasicPass = "admin123"
	DefaultTimeout   = 15 * time.Second
)

// getEnvOrDefault returns the value of the environment variable
// identified by key, or defaultVal if the variable is not set.
func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// e2eServerURL returns the base URL of the server under test.
func e2eServerURL() string {
	return getEnvOrDefault(EnvServerURL, DefaultServerURL)
}

// skipIfServerUnavailable checks whether the server is reachable
// and skips the test if it is not.
func skipIfServerUnavailable(t *testing.T) {
	t.Helper()

	base := e2eServerURL()
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(base + "/health")
	if err != nil {
		t.Skipf("Server unavailable at %s: %v", base, err)
	}
	resp.Body.Close()
}

// newHTTPClient returns an *http.Client with a sensible timeout.
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// errorResponse represents an error response from the API.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// todoResponse represents a todo returned by the API.
type todoResponse struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Done        bool   `json:"done"`
}

// todoPageResponse represents a paginated listing.
type todoPageResponse struct {
	Page       int            `json:"page"`
	Size       int            `json:"size"`
	Total      int            `json:"total"`
	TotalPages int            `json:"total_pages"`
	Items      []todoResponse `json:"items"`
}

// createTodoRequest is the payload for creating a todo.
type createTodoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Done        bool   `json:"done,omitempty"`
}

// updateTodoRequest is the payload for updating a todo.
type updateTodoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Done        bool   `json:"done"`
}

// doRequest performs an HTTP request and returns status code and body.
func doRequest(
	t *testing.T,
	client *http.Client,
	method, url string,
	body io.Reader,
	headers map[string]string,
) (int, []byte) {
	t.Helper()

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Request %s %s failed: %v", method, url, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}

	return resp.StatusCode, respBody
}

// buildAuthHeaders returns a header map populated with HTTP Basic
// credentials from environment variables, falling back to the default
// test credentials.
func buildAuthHeaders(t *testing.T) map[string]string {
	t.Helper()

	user := getEnvOrDefault(EnvBasicUser, DefaultBasicUser)
	pass := getEnvOrDefault(EnvBasicPass, DefaultBasicPass)
	creds := base64.StdEncoding.EncodeToString(
		[]byte(user + ":" + pass),
	)

	return map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Basic " + creds,
	}
}

// createTodo is a helper that creates a todo and returns its parsed
// response. It fails the test on error.
func createTodo(
	t *testing.T,
	client *http.Client,
	base string,
	headers map[string]string,
	todo createTodoRequest,
) todoResponse {
	t.Helper()

	payload, _ := json.Marshal(todo)
	status, body := doRequest(
		t, client, http.MethodPost,
		base+"/todos",
		bytes.NewReader(payload), headers,
	)

	if status != http.StatusCreated {
		t.Fatalf(
			"createTodo: expected 201, got %d. Body: %s",
			status, body,
		)
	}

	var created todoResponse
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("createTodo: failed to parse response: %v", err)
	}

	return created
}

// deleteTodo is a helper that deletes a todo by ID.
func deleteTodo(
	t *testing.T,
	client *http.Client,
	url string,
	headers map[string]string,
) {
	t.Helper()

	status, body := doRequest(
		t, client, http.MethodDelete, url, nil, headers,
	)
	if status != http.StatusOK {
		t.Fatalf(
			"deleteTodo: expected 200, got %d. Body: %s",
			status, body,
		)
	}
}

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// TestContext holds per-scenario state: the HTTP client, the last response,
// and values remembered across steps (response IDs, erasure tokens).
type TestContext struct {
	baseURL  string
	adminKey string
	client   *http.Client

	lastStatus int
	lastBody   []byte
	lastJSON   map[string]any

	// Remembered captures values steps want to reuse later in a scenario,
	// keyed by name ("response_id", "erasure_token", ...).
	Remembered map[string]string
}

// NewTestContext builds a context pointing at the server under test.
// FORMPULSE_E2E_URL selects the target; FORMPULSE_E2E_ADMIN_KEY unlocks the
// admin surface for erasure scenarios.
func NewTestContext() *TestContext {
	return &TestContext{
		baseURL:    strings.TrimRight(os.Getenv("FORMPULSE_E2E_URL"), "/"),
		adminKey:   os.Getenv("FORMPULSE_E2E_ADMIN_KEY"),
		client:     &http.Client{Timeout: 15 * time.Second},
		Remembered: make(map[string]string),
	}
}

// Reset clears response state between scenarios.
func (tc *TestContext) Reset() {
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.lastJSON = nil
	tc.Remembered = make(map[string]string)
}

// AdminKey returns the configured admin bearer key.
func (tc *TestContext) AdminKey() string {
	return tc.adminKey
}

// Remember stores a named value for later steps in the same scenario.
func (tc *TestContext) Remember(key, value string) {
	tc.Remembered[key] = value
}

// Recall returns a value stored earlier in the scenario.
func (tc *TestContext) Recall(key string) (string, error) {
	value, ok := tc.Remembered[key]
	if !ok {
		return "", fmt.Errorf("nothing remembered under %q", key)
	}
	return value, nil
}

// POST sends a JSON body and records the response.
func (tc *TestContext) POST(path string, body any, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(http.MethodPost, tc.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return tc.do(req)
}

// GET fetches a path and records the response.
func (tc *TestContext) GET(path string, headers map[string]string) error {
	req, err := http.NewRequest(http.MethodGet, tc.baseURL+path, nil)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return tc.do(req)
}

// DELETE issues a delete and records the response.
func (tc *TestContext) DELETE(path string, headers map[string]string) error {
	req, err := http.NewRequest(http.MethodDelete, tc.baseURL+path, nil)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return tc.do(req)
}

func (tc *TestContext) do(req *http.Request) error {
	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	tc.lastJSON = nil
	if len(tc.lastBody) > 0 {
		var parsed map[string]any
		if json.Unmarshal(tc.lastBody, &parsed) == nil {
			tc.lastJSON = parsed
		}
	}
	return nil
}

// LastStatus returns the status code of the most recent response.
func (tc *TestContext) LastStatus() int {
	return tc.lastStatus
}

// LastBody returns the raw body of the most recent response.
func (tc *TestContext) LastBody() string {
	return string(tc.lastBody)
}

// GetResponseField reads a top-level field from the last JSON response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	if tc.lastJSON == nil {
		return nil, fmt.Errorf("last response is not a JSON object: %q", tc.lastBody)
	}
	value, ok := tc.lastJSON[field]
	if !ok {
		return nil, fmt.Errorf("field %q not present in response: %q", field, tc.lastBody)
	}
	return value, nil
}

// ResponseContains reports whether the last JSON response has the field.
func (tc *TestContext) ResponseContains(field string) bool {
	if tc.lastJSON == nil {
		return false
	}
	_, ok := tc.lastJSON[field]
	return ok
}

// package testing contains shared testing utilities
package testing

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites int, target io.Writer) *LimitedWriter {
	return &LimitedWriter{maxWrites: maxWrites, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// Request is a request captured by [Recorder].
type Request struct {
	Method string
	Path   string
	Query  string
	Body   string
	Cookie string
	Auth   string
}

// Recorder captures requests made to an httptest server.
type Recorder struct {
	mu       sync.Mutex
	requests []Request
}

// Record stores r, reading its body.
func (rec *Recorder) Record(r *http.Request) Request {
	body, _ := io.ReadAll(r.Body)
	req := Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Body:   string(body),
		Auth:   r.Header.Get("Authorization"),
	}
	if c, err := r.Cookie("auth_token"); err == nil {
		req.Cookie = c.Value
	}

	rec.mu.Lock()
	rec.requests = append(rec.requests, req)
	rec.mu.Unlock()
	return req
}

// Requests returns a copy of the captured requests.
func (rec *Recorder) Requests() []Request {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return append([]Request(nil), rec.requests...)
}

// Count returns how many requests matched method and path.
func (rec *Recorder) Count(method, path string) int {
	n := 0
	for _, r := range rec.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Route is a canned response keyed by "METHOD /path".
type Route struct {
	Status int
	Body   any
}

// NewBackend starts an httptest server answering routes with JSON and recording every request.
//
// Unknown routes answer 404.
func NewBackend(t *testing.T, routes map[string]Route) (*httptest.Server, *Recorder) {
	t.Helper()
	rec := &Recorder{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.Record(r)

		route, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		status := route.Status
		if status == 0 {
			status = http.StatusOK
		}
		if route.Body == nil {
			w.WriteHeader(status)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if raw, ok := route.Body.(string); ok {
			io.WriteString(w, raw)
			return
		}
		json.NewEncoder(w).Encode(route.Body)
	}))
	t.Cleanup(server.Close)
	return server, rec
}

// WSURL converts an httptest server URL into its ws:// form.
func WSURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// Upgrader accepts any origin.
var Upgrader = websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"agilboard/internal/config"
)

// StubResponse is what a stubbed upstream route answers.
type StubResponse struct {
	Status int
	Body   string
	Delay  time.Duration
}

// JSON is a 200 response with the given body.
func JSON(body string) StubResponse {
	return StubResponse{Status: http.StatusOK, Body: body}
}

// Status is an empty response with the given status code.
func Status(code int) StubResponse {
	return StubResponse{Status: code}
}

// UpstreamStub runs fake user and problem services. Every route starts out healthy and
// empty; tests override the routes they care about.
type UpstreamStub struct {
	Users    *httptest.Server
	Problems *httptest.Server

	mu     sync.Mutex
	routes map[string]StubResponse
	bodies map[string]string
	hits   map[string]int
}

// NewUpstreamStub starts both fake services and closes them when the test ends.
func NewUpstreamStub(t *testing.T) *UpstreamStub {
	t.Helper()
	s := &UpstreamStub{
		routes: map[string]StubResponse{
			"users GET /users":                 JSON(`[]`),
			"users GET /techniciens/available": JSON(`[]`),
			"users GET /health":                JSON(`{"status":"ok"}`),
			"problems GET /problems":           JSON(`[]`),
			"problems GET /problems/stats":     JSON(`{}`),
			"problems GET /problems/recent":    JSON(`[]`),
			"problems GET /health":             JSON(`{"status":"ok"}`),
		},
		bodies: map[string]string{},
		hits:   map[string]int{},
	}
	s.Users = httptest.NewServer(s.handler("users"))
	s.Problems = httptest.NewServer(s.handler("problems"))
	t.Cleanup(func() {
		s.Users.Close()
		s.Problems.Close()
	})
	return s
}

// SetUsers overrides a user service route, e.g. SetUsers("GET /users", JSON(`[...]`)).
func (s *UpstreamStub) SetUsers(route string, resp StubResponse) {
	s.set("users "+route, resp)
}

// SetProblems overrides a problem service route.
func (s *UpstreamStub) SetProblems(route string, resp StubResponse) {
	s.set("problems "+route, resp)
}

// DownUsers makes every user service route answer 503.
func (s *UpstreamStub) DownUsers() { s.down("users") }

// DownProblems makes every problem service route answer 503.
func (s *UpstreamStub) DownProblems() { s.down("problems") }

// Hits returns how often a route was called, e.g. Hits("problems GET /problems").
func (s *UpstreamStub) Hits(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[key]
}

// LastBody returns the last request body received on a route.
func (s *UpstreamStub) LastBody(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bodies[key]
}

// Config points an upstream configuration at the stub.
func (s *UpstreamStub) Config() config.UpstreamConfig {
	cfg := config.Default().Upstream
	cfg.UserServiceURL = s.Users.URL
	cfg.ProblemServiceURL = s.Problems.URL
	return cfg
}

func (s *UpstreamStub) set(key string, resp StubResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[key] = resp
}

func (s *UpstreamStub) down(service string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[service+" *"] = Status(http.StatusServiceUnavailable)
}

func (s *UpstreamStub) handler(service string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := service + " " + r.Method + " " + r.URL.Path
		body, _ := io.ReadAll(r.Body)

		s.mu.Lock()
		s.hits[key]++
		if len(body) > 0 {
			s.bodies[key] = string(body)
		}
		resp, ok := s.routes[service+" *"]
		if !ok {
			resp, ok = s.routes[key]
		}
		s.mu.Unlock()

		if !ok {
			http.NotFound(w, r)
			return
		}
		if resp.Delay > 0 {
			select {
			case <-time.After(resp.Delay):
			case <-r.Context().Done():
				return
			}
		}
		if resp.Body != "" {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(resp.Status)
		_, _ = io.WriteString(w, resp.Body)
	}
}

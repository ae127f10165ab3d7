package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agilboard/internal/config"
	"agilboard/internal/infrastructure"
)

func testConfig(usersURL, problemsURL string) config.UpstreamConfig {
	cfg := config.Default().Upstream
	cfg.UserServiceURL = usersURL
	cfg.ProblemServiceURL = problemsURL
	return cfg
}

func newTestClient(t *testing.T, users, problems http.Handler) *Client {
	t.Helper()
	usersURL, problemsURL := "http://127.0.0.1:1", "http://127.0.0.1:1"
	if users != nil {
		srv := httptest.NewServer(users)
		t.Cleanup(srv.Close)
		usersURL = srv.URL
	}
	if problems != nil {
		srv := httptest.NewServer(problems)
		t.Cleanup(srv.Close)
		problemsURL = srv.URL
	}
	return NewClient(testConfig(usersURL, problemsURL), infrastructure.NewLogger(io.Discard, nil))
}

func jsonBody(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
}

func TestFetchUsers(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		wantLen   int
		wantErr   bool
		checkUser func(*testing.T, []User)
	}{
		{
			name:    "string and numeric ids",
			handler: jsonBody(`[{"id":"u1","name":"Ali","role":"chef","isAvailable":true},{"id":7,"name":"Sara"}]`),
			wantLen: 2,
			checkUser: func(t *testing.T, users []User) {
				assert.Equal(t, "u1", users[0].ID.Key())
				assert.Equal(t, "7", users[1].ID.Key())
				assert.Nil(t, users[1].Role)
				assert.Nil(t, users[1].IsAvailable)
			},
		},
		{
			name:    "non-object elements are dropped",
			handler: jsonBody(`[{"id":"u1"}, 42, "text", null, {"id":{"nested":true}}, {"id":"u2","isAvailable":"yes"}]`),
			wantLen: 3,
			checkUser: func(t *testing.T, users []User) {
				assert.Nil(t, users[1].ID, "unusable id counts as absent")
				assert.Equal(t, "u2", users[2].ID.Key())
				require.NotNil(t, users[2].IsAvailable)
				assert.True(t, *users[2].IsAvailable)
			},
		},
		{
			name:    "non-list body yields empty list",
			handler: jsonBody(`{"users":[]}`),
			wantLen: 0,
		},
		{
			name: "server error is unavailable",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			wantErr: true,
		},
		{
			name:    "invalid json is unavailable",
			handler: jsonBody(`[{"id":`),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Get("/users", tt.handler)
			client := newTestClient(t, r, nil)

			users, err := client.FetchUsers(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrUpstreamUnavailable)
				return
			}
			require.NoError(t, err)
			assert.Len(t, users, tt.wantLen)
			assert.NotNil(t, users)
			if tt.checkUser != nil {
				tt.checkUser(t, users)
			}
		})
	}
}

func TestFetchUsers_ConnectionRefused(t *testing.T) {
	client := newTestClient(t, nil, nil)

	_, err := client.FetchUsers(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)

	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, UserService, unavailable.Service)
	assert.Equal(t, "GET /users", unavailable.Call)
	assert.Contains(t, err.Error(), "user service unavailable")
}

func TestFetch_RespectsTimeout(t *testing.T) {
	release := make(chan struct{})

	r := chi.NewRouter()
	r.Get("/problems", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	srv := httptest.NewServer(r)
	defer srv.Close()
	defer close(release)

	cfg := testConfig("http://127.0.0.1:1", srv.URL)
	cfg.ProblemsTimeout = 50 * time.Millisecond
	client := NewClient(cfg, infrastructure.NewLogger(io.Discard, nil))

	start := time.Now()
	_, err := client.FetchProblems(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrUpstreamUnavailable))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestFetchProblems_KeepsRawCreatedAt(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/problems", jsonBody(`[
		{"id":1,"status":"waiting","createdAt":{"_seconds":1700000000,"_nanoseconds":0},"chefId":"u1"},
		{"id":"p2","createdAt":"2024-01-02T10:00:00Z"}
	]`))
	client := newTestClient(t, nil, r)

	problems, err := client.FetchProblems(context.Background())
	require.NoError(t, err)
	require.Len(t, problems, 2)

	assert.JSONEq(t, `{"_seconds":1700000000,"_nanoseconds":0}`, string(problems[0].CreatedAt))
	assert.Equal(t, "u1", problems[0].ChefID.Key())
	assert.Nil(t, problems[1].AssignedTechnician)
	assert.Nil(t, problems[1].Status)
}

func TestFetchRecentProblems_ObjectsOnly(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/problems/recent", jsonBody(`[{"id":1,"extra":{"a":1}}, "nope", {"id":2}]`))
	client := newTestClient(t, nil, r)

	recent, err := client.FetchRecentProblems(context.Background())
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.JSONEq(t, `{"id":1,"extra":{"a":1}}`, string(recent[0]))
}

func TestFetchProblemStats(t *testing.T) {
	t.Run("mapping", func(t *testing.T) {
		r := chi.NewRouter()
		r.Get("/problems/stats", jsonBody(`{"current":4,"previous":9}`))
		client := newTestClient(t, nil, r)

		stats, err := client.FetchProblemStats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, map[string]int{"current": 4, "previous": 9}, stats)
	})

	t.Run("wrong shape", func(t *testing.T) {
		r := chi.NewRouter()
		r.Get("/problems/stats", jsonBody(`[1,2]`))
		client := newTestClient(t, nil, r)

		_, err := client.FetchProblemStats(context.Background())
		assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	})
}

func TestProbe(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/health", jsonBody(`{"ok":true}`))
	down := chi.NewRouter()
	down.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	client := newTestClient(t, r, down)

	up, err := client.ProbeUsers(context.Background())
	require.NoError(t, err)
	assert.True(t, up)

	up, err = client.ProbeProblems(context.Background())
	require.NoError(t, err)
	assert.False(t, up)
}

func TestProbe_Unreachable(t *testing.T) {
	client := newTestClient(t, nil, nil)

	up, err := client.ProbeUsers(context.Background())
	require.NoError(t, err)
	assert.False(t, up)
}

func TestProbe_InvalidURL(t *testing.T) {
	cfg := testConfig("http://[::1", "http://127.0.0.1:1")
	client := NewClient(cfg, infrastructure.NewLogger(io.Discard, nil))

	_, err := client.ProbeUsers(context.Background())
	assert.Error(t, err)
}

func TestGetProblem(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/problems/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch chi.URLParam(r, "id") {
		case "p1":
			jsonBody(`{"id":"p1","type":"electric","chefId":3}`)(w, r)
		case "broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	})
	client := newTestClient(t, nil, r)

	p, err := client.GetProblem(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID.Key())
	assert.Equal(t, "3", p.ChefID.Key())

	_, err = client.GetProblem(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrUpstreamUnavailable)

	_, err = client.GetProblem(context.Background(), "broken")
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestAssignAndStatusRelay(t *testing.T) {
	var gotAssign, gotStatus map[string]any
	r := chi.NewRouter()
	r.Put("/problems/{id}/assign", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotAssign))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		jsonBody(`{"id":"p1","assignedTechnician":"auto"}`)(w, r)
	})
	r.Put("/problems/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotStatus))
		w.WriteHeader(http.StatusNoContent)
	})
	client := newTestClient(t, nil, r)

	tech := NewID("auto")
	relay, err := client.AssignProblem(context.Background(), "p1", AssignRequest{TechnicianID: &tech})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, relay.StatusCode)
	assert.JSONEq(t, `{"id":"p1","assignedTechnician":"auto"}`, string(relay.Body))
	assert.Equal(t, "auto", gotAssign["technicianId"])

	relay, err = client.UpdateProblemStatus(context.Background(), "p1", StatusRequest{Status: "solved"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, relay.StatusCode)
	assert.Nil(t, relay.Body)
	assert.Equal(t, "solved", gotStatus["status"])
}

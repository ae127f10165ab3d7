// Package upstream is the typed HTTP client for the user and problem services.
//
// Every call derives its own deadline from the configured timeouts, runs inside a client span
// and records its outcome on the upstream metrics. Failures are returned as
// *UnavailableError values; deciding whether a failure is fatal is left to the caller.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"agilboard/internal/config"
	"agilboard/internal/infrastructure"
)

const (
	UserService    = "user service"
	ProblemService = "problem service"

	maxBodyBytes = 8 << 20
)

type target struct {
	name    string
	baseURL string
}

// Client talks to both upstream services.
type Client struct {
	users    target
	problems target
	timeouts config.UpstreamConfig

	httpClient *http.Client
	tracer     trace.Tracer
	metrics    *infrastructure.BusinessMetrics
	logger     *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the instrumented default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMetrics records call outcomes on m.
func WithMetrics(m *infrastructure.BusinessMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTracer sets the tracer used for call spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// NewClient builds a client for the services located by cfg.
func NewClient(cfg config.UpstreamConfig, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		users:    target{name: UserService, baseURL: strings.TrimRight(cfg.UserServiceURL, "/")},
		problems: target{name: ProblemService, baseURL: strings.TrimRight(cfg.ProblemServiceURL, "/")},
		timeouts: cfg,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		tracer: otel.Tracer(infrastructure.MeterName),
		logger: infrastructure.WithComponent(logger, "upstream"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchUsers lists every user from GET /users.
func (c *Client) FetchUsers(ctx context.Context) ([]User, error) {
	return fetchList[User](ctx, c, c.users, "/users", c.timeouts.UsersTimeout)
}

// FetchAvailableTechnicians lists technicians from GET /techniciens/available.
func (c *Client) FetchAvailableTechnicians(ctx context.Context) ([]User, error) {
	return fetchList[User](ctx, c, c.users, "/techniciens/available", c.timeouts.UsersTimeout)
}

// FetchProblems lists every problem from GET /problems.
func (c *Client) FetchProblems(ctx context.Context) ([]Problem, error) {
	return fetchList[Problem](ctx, c, c.problems, "/problems", c.timeouts.ProblemsTimeout)
}

// FetchRecentProblems returns the objects from GET /problems/recent verbatim.
func (c *Client) FetchRecentProblems(ctx context.Context) ([]json.RawMessage, error) {
	return fetchList[json.RawMessage](ctx, c, c.problems, "/problems/recent", c.timeouts.StatsTimeout)
}

// FetchProblemStats returns the month comparison mapping from GET /problems/stats.
func (c *Client) FetchProblemStats(ctx context.Context) (map[string]int, error) {
	call := "GET /problems/stats"
	status, body, err := c.do(ctx, c.problems, http.MethodGet, "/problems/stats", "/problems/stats", nil, c.timeouts.StatsTimeout)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, &UnavailableError{Service: c.problems.name, Call: call, StatusCode: status}
	}

	stats := map[string]int{}
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, &UnavailableError{Service: c.problems.name, Call: call, Err: fmt.Errorf("decode stats: %w", err)}
	}
	return stats, nil
}

// ProbeUsers reports whether the user service answers GET /health with 200.
func (c *Client) ProbeUsers(ctx context.Context) (bool, error) {
	return c.probe(ctx, c.users)
}

// ProbeProblems reports whether the problem service answers GET /health with 200.
func (c *Client) ProbeProblems(ctx context.Context) (bool, error) {
	return c.probe(ctx, c.problems)
}

// probe only returns an error when the request itself cannot be built. Transport failures
// and non-200 answers are reported as down.
func (c *Client) probe(ctx context.Context, t target) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/health", nil)
	if err != nil {
		return false, fmt.Errorf("build %s health request: %w", t.name, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "health probe failed",
			slog.String("service", t.name),
			slog.String("error", err.Error()))
		return false, nil
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	return resp.StatusCode == http.StatusOK, nil
}

func fetchList[T any](ctx context.Context, c *Client, t target, path string, timeout time.Duration) ([]T, error) {
	call := http.MethodGet + " " + path
	status, body, err := c.do(ctx, t, http.MethodGet, path, path, nil, timeout)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, &UnavailableError{Service: t.name, Call: call, StatusCode: status}
	}

	res, err := decodeList[T](body)
	if err != nil {
		return nil, &UnavailableError{Service: t.name, Call: call, Err: err}
	}
	if res.NotAList {
		c.logger.WarnContext(ctx, "unexpected list format, using empty list",
			slog.String("service", t.name),
			slog.String("call", call))
	}
	if res.Malformed > 0 {
		c.logger.DebugContext(ctx, "dropped malformed records",
			slog.String("service", t.name),
			slog.String("call", call),
			slog.Int("dropped", res.Malformed),
			slog.Int("kept", len(res.Items)))
	}
	return res.Items, nil
}

// do performs one request under its own timeout and returns the status and the fully read
// body. The response body is closed before returning.
// route labels spans and metrics so per-ID paths do not fan out into separate series.
func (c *Client) do(ctx context.Context, t target, method, path, route string, payload any, timeout time.Duration) (int, []byte, error) {
	call := method + " " + route

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "upstream "+call,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("upstream.service", t.name),
			attribute.String("upstream.call", call),
		))
	defer span.End()

	start := time.Now()
	status, body, err := c.roundTrip(ctx, t, method, path, payload)

	outcome := "ok"
	if err != nil || !isSuccess(status) {
		outcome = "error"
	}
	c.metrics.RecordUpstreamCall(ctx, t.name, call, outcome, time.Since(start))
	span.SetAttributes(attribute.Int("http.response.status_code", status))

	if err != nil {
		infrastructure.RecordError(ctx, err)
		return 0, nil, &UnavailableError{Service: t.name, Call: call, Err: err}
	}
	return status, body, nil
}

func (c *Client) roundTrip(ctx context.Context, t target, method, path string, payload any) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

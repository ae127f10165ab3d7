package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// GetProblem fetches one problem from GET /problems/{id}. A 404 answer yields ErrNotFound.
func (c *Client) GetProblem(ctx context.Context, id string) (*Problem, error) {
	route := "/problems/{id}"
	status, body, err := c.do(ctx, c.problems, http.MethodGet, problemPath(id, ""), route, nil, c.timeouts.ProblemsTimeout)
	if err != nil {
		return nil, err
	}
	if err := c.checkStatus(status, http.MethodGet+" "+route, id); err != nil {
		return nil, err
	}

	if !isObject(body) {
		return nil, &UnavailableError{Service: c.problems.name, Call: http.MethodGet + " " + route,
			Err: fmt.Errorf("problem %s: response is not a JSON object", id)}
	}
	var p Problem
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, &UnavailableError{Service: c.problems.name, Call: http.MethodGet + " " + route,
			Err: fmt.Errorf("decode problem %s: %w", id, err)}
	}
	return &p, nil
}

// AssignProblem forwards an assignment to PUT /problems/{id}/assign.
func (c *Client) AssignProblem(ctx context.Context, id string, req AssignRequest) (*Relay, error) {
	return c.relay(ctx, id, "/assign", req)
}

// UpdateProblemStatus forwards a status change to PUT /problems/{id}/status.
func (c *Client) UpdateProblemStatus(ctx context.Context, id string, req StatusRequest) (*Relay, error) {
	return c.relay(ctx, id, "/status", req)
}

func (c *Client) relay(ctx context.Context, id, suffix string, payload any) (*Relay, error) {
	route := "/problems/{id}" + suffix
	status, body, err := c.do(ctx, c.problems, http.MethodPut, problemPath(id, suffix), route, payload, c.timeouts.ProblemsTimeout)
	if err != nil {
		return nil, err
	}
	if err := c.checkStatus(status, http.MethodPut+" "+route, id); err != nil {
		return nil, err
	}

	relay := &Relay{StatusCode: status}
	if len(body) > 0 && json.Valid(body) {
		relay.Body = body
	}
	return relay, nil
}

func (c *Client) checkStatus(status int, call, id string) error {
	switch {
	case isSuccess(status):
		return nil
	case status == http.StatusNotFound:
		return fmt.Errorf("problem %s: %w", id, ErrNotFound)
	default:
		return &UnavailableError{Service: c.problems.name, Call: call, StatusCode: status}
	}
}

func problemPath(id, suffix string) string {
	return "/problems/" + url.PathEscape(id) + suffix
}

package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"agilboard/internal/notification"
	"agilboard/internal/shared/testutil"
	"agilboard/internal/upstream"
)

const (
	usersJSON = `[
		{"id":"u1","name":"Ali Ben Salah","role":"chef","isAvailable":false},
		{"id":2,"name":"Sara","role":"technicien","isAvailable":true},
		{"id":"u3","role":"technicien","isAvailable":true},
		{"name":"No Id","role":"admin"}
	]`

	problemsJSON = `[
		{"id":"p1","description":"Pump leak","type":"mechanical","status":"Waiting","createdAt":"2024-03-01T10:00:00Z","assignedTechnician":2,"priority":"high","chefId":"u1"},
		{"id":17,"type":"electrical","status":"solved","assignedTechnician":"ghost","chefId":"nobody"},
		{"status":"archived","createdAt":{"_seconds":1700000000,"_nanoseconds":0}},
		"not an object"
	]`

	oddUsersJSON = `[
		{"id":"u1","name":"Amira","role":"chef","isAvailable":true},
		{"id":"u2","name":"Karim","role":"technicien","isAvailable":"yes"}
	]`

	oddProblemsJSON = `[
		{"id":"p1","status":"waiting","priority":3,"type":7,"chefId":"u1"},
		{"id":"p2","status":"solved","chefId":"u2"}
	]`
)

// newStubbedClient returns an upstream client wired to a fresh stub.
func newStubbedClient(t *testing.T) (*testutil.UpstreamStub, *upstream.Client) {
	t.Helper()
	stub := testutil.NewUpstreamStub(t)
	logger, _ := testutil.NewTestLogger(t)
	return stub, upstream.NewClient(stub.Config(), logger)
}

// MockMailer is a mock for the Mailer interface
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, subject, html string) (*notification.DeliveryReceipt, error) {
	args := m.Called(ctx, to, subject, html)
	receipt, _ := args.Get(0).(*notification.DeliveryReceipt)
	return receipt, args.Error(1)
}

// stubProber answers probes with fixed values.
type stubProber struct {
	usersUp, problemsUp   bool
	usersErr, problemsErr error
}

func (p stubProber) ProbeUsers(context.Context) (bool, error) { return p.usersUp, p.usersErr }

func (p stubProber) ProbeProblems(context.Context) (bool, error) { return p.problemsUp, p.problemsErr }

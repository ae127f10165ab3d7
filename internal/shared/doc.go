// Package shared holds helpers used by more than one package's tests.
//
// The testutil subpackage provides:
//
//   - BufferedSlogHandler and NewTestLogger, which capture slog records so tests can assert
//     on log level, message and attributes.
//   - UpstreamStub, a pair of httptest servers standing in for the user and problem
//     services. Routes default to healthy empty answers and can be overridden per test.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    stub := testutil.NewUpstreamStub(t)
//	    stub.SetUsers("GET /users", testutil.JSON(`[{"id":"u1","name":"Ali"}]`))
//	    client := upstream.NewClient(stub.Config(), logger)
//	}
//
// Nothing here may import business packages other than config.
package shared

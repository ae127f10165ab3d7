// Package services implements the aggregation layer behind the dashboard API.
//
// # Fan-out
//
// Every request fans out to the user and problem services through a single join loop:
//
//	err := fanout(ctx, logger,
//	    fanoutCall{name: "users", required: true, run: fetchUsers},
//	    fanoutCall{name: "problems", run: fetchProblems, fallback: clearProblems},
//	)
//
// All calls run concurrently on an errgroup.Group and the loop waits for every one of them.
// A failing call never cancels its siblings. A required failure is returned as is, so an
// upstream.ErrUpstreamUnavailable stays matchable for the handlers. A best-effort failure is
// logged at Warn and replaced by the call's fallback value.
//
// # Joining
//
// A UserIndex is built from the user list of the current request and discarded with it.
// Problems reference users by ID; unresolved chefs read "Unknown Chef" and unresolved
// technicians "Unassigned".
//
// # Available Services
//
//	- ProblemService: flattened problem list, single problem, assignment and status relay
//	- DashboardService: user and problem statistics plus coarse source flags
//	- HealthService: upstream probes for /health
//	- NotificationService: raw and templated email through the mail gateway
//	- ExportService: dashboard snapshot as an XLSX workbook
//
// # Testing
//
// Services depend on the UpstreamClient, Prober and Mailer interfaces. Tests run the real
// upstream client against testutil.UpstreamStub, or mock the mailer with testify/mock.
package services

// Package http implements the HTTP handlers of the dashboard aggregator. Handlers are a thin
// layer over the services package: they decode and validate the request, call one service
// method and render the result.
//
// # Routes
//
//	GET  /                          dashboard page
//	GET  /problems                  problem list page
//	GET  /map                       map page
//	GET  /static/*                  embedded assets
//	GET  /api/problems              joined problem list
//	GET  /api/problems/export       joined problem list as CSV
//	GET  /api/problems/{id}         one joined problem
//	PUT  /api/problems/{id}/assign  forwarded to the problem service
//	PUT  /api/problems/{id}/status  forwarded to the problem service
//	GET  /api/dashboard             dashboard snapshot
//	GET  /api/dashboard/export      dashboard snapshot as XLSX
//	POST /send-email/               raw HTML email
//	POST /notify/email              templated notification email
//	GET  /health                    upstream liveness, always 200
//	GET  /ws/dashboard              live dashboard stream
//
// # Error Handling
//
// Every failure is answered by the ErrorHandler of the errors package with an RFC 7807
// problem document:
//
//	{
//	    "type": "/errors/upstream-unavailable",
//	    "title": "Bad Gateway",
//	    "status": 502,
//	    "detail": "user service unavailable: GET /users: connection refused",
//	    "instance": "/api/problems",
//	    "trace_id": "5f0c..."
//	}
//
// Services return sentinel and typed errors; serviceError keeps the ones with an HTTP
// meaning and turns everything else into a 500 with a fixed detail.
package http

// Package app wires the dashboard aggregator together and manages its lifecycle.
//
// # Initialization Flow
//
// NewApplication takes an already loaded configuration and logger and:
//
//	1. Initializes OpenTelemetry and the business metrics
//	2. Builds the upstream client for the user and problem services
//	3. Creates the problem, dashboard, export, notification and health services
//	4. Creates the dashboard stream hub and its poller
//	5. Sets up the chi router, middleware and handlers
//	6. Configures the HTTP server
//
// # Usage
//
//	cfg, _ := config.Load()
//	logger, _ := infrastructure.InitializeLogger(cfg.Logging)
//	application, err := app.NewApplication(cfg, logger, webFS)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// # Graceful Shutdown
//
// Run returns on SIGINT, SIGTERM or cancellation of its context. Stop then drains
// in-flight requests within Server.ShutdownTimeout, stops the poller, closes every
// stream client and flushes telemetry.
//
// # Error Handling
//
// All initialization errors are returned to the caller. The package never calls
// os.Exit, leaving the exit code to the command.
package app

package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"agilboard/internal/config"
	apierrors "agilboard/internal/errors"
	"agilboard/internal/infrastructure"
	customMiddleware "agilboard/internal/middleware"
	"agilboard/internal/notification"
	"agilboard/internal/services"
	handlers "agilboard/internal/transport/http"
	"agilboard/internal/upstream"
	ws "agilboard/internal/websocket"
)

const AppName = "Agil Management System"

var (
	// Version is overridden at build time with -ldflags "-X agilboard/internal/app.Version=..."
	Version = "1.0.0"
	// BuildTime is set at compile time
	BuildTime = "unknown"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	ErrorHandler  *apierrors.ErrorHandler
	Upstream      *upstream.Client
	Services      *ServiceContainer
	WebSocketHub  *ws.Hub
	Poller        *ws.Poller
	WebFS         fs.FS

	listener   net.Listener
	stopPoller context.CancelFunc
	pollerDone chan struct{}
	serveErr   error
	mu         sync.Mutex
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Problems     *services.ProblemService
	Dashboard    *services.DashboardService
	Export       *services.ExportService
	Notification *services.NotificationService
	Health       *services.HealthService
}

// NewApplication wires every component from cfg. webFS must contain templates/ and static/.
func NewApplication(cfg *config.Config, logger *slog.Logger, webFS fs.FS) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.String("build_time", BuildTime))

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, Version, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		ErrorHandler:  apierrors.NewErrorHandler(logger, false),
		WebFS:         webFS,
	}

	app.initializeServices()

	if err := app.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}

	app.createServer()

	return app, nil
}

// initializeServices builds the upstream client, the services on top of it and the dashboard stream.
func (a *Application) initializeServices() {
	a.Upstream = upstream.NewClient(a.Config.Upstream, a.Logger,
		upstream.WithMetrics(a.Metrics),
		upstream.WithTracer(a.OTelProviders.Tracer),
	)

	gateway := notification.NewGateway(a.Config.Mail, a.Logger)
	if !gateway.Configured() {
		a.Logger.Warn("SendGrid API key not configured, email endpoints will answer 400")
	}

	dashboard := services.NewDashboardService(a.Upstream, a.Logger)

	a.Services = &ServiceContainer{
		Problems:     services.NewProblemService(a.Upstream, a.Logger),
		Dashboard:    dashboard,
		Export:       services.NewExportService(dashboard, a.Logger),
		Notification: services.NewNotificationService(gateway, a.Metrics, a.Logger),
		Health:       services.NewHealthService(a.Upstream, a.Logger),
	}

	a.WebSocketHub = ws.NewHub(a.Logger, a.Metrics)
	a.Poller = ws.NewPoller(a.WebSocketHub, dashboard, a.Config.Stream.Interval, a.Logger)
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	// only middleware that leaves the ResponseWriter alone runs ahead of the websocket upgrade
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.With(customMiddleware.Recoverer(a.ErrorHandler)).
		Handle("/ws/dashboard", handlers.NewWebSocketHandler(a.WebSocketHub, a.Config.Stream, a.Logger, a.ErrorHandler))

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	var routeErr error
	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → SecurityHeaders → CORS → RateLimiter
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.ErrorHandler))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.CORS(a.getCORSConfig()))

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
				a.ErrorHandler,
			).Handler)
		}

		a.setupAPIRoutes(r)
		routeErr = a.setupHTMLRoutes(r)

		r.NotFound(a.ErrorHandler.NotFound)
		r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)
	})
	if routeErr != nil {
		return routeErr
	}

	a.Router = r
	return nil
}

// setupAPIRoutes configures the JSON endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	healthHandler := handlers.NewHealthHandler(a.Services.Health, Version, a.Logger)
	notificationHandler := handlers.NewNotificationHandler(a.Services.Notification, a.Logger, a.ErrorHandler)

	r.Get("/health", healthHandler.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Compress(5))

		r.Get("/version", healthHandler.Version)
		r.Mount("/problems", handlers.NewProblemHandler(a.Services.Problems, a.Logger, a.ErrorHandler).Routes())
		r.Mount("/dashboard", handlers.NewDashboardHandler(a.Services.Dashboard, a.Services.Export, a.Logger, a.ErrorHandler).Routes())
	})

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.ContentTypeValidator("application/json"))
		r.Post("/send-email/", notificationHandler.SendEmail)
		r.Post("/notify/email", notificationHandler.NotifyEmail)
	})
}

// setupHTMLRoutes mounts the page shells and their static assets
func (a *Application) setupHTMLRoutes(r chi.Router) error {
	if a.WebFS == nil {
		a.Logger.Warn("No web assets embedded, page routes disabled")
		return nil
	}

	pages, err := handlers.NewPageHandler(a.WebFS, Version, a.Logger, a.ErrorHandler)
	if err != nil {
		return fmt.Errorf("failed to load page templates: %w", err)
	}
	pages.Register(r)
	return nil
}

// getCORSConfig returns CORS configuration from the security section
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Requested-With",
			customMiddleware.RequestIDHeader,
		},
		ExposedHeaders: []string{customMiddleware.RequestIDHeader},
		MaxAge:         300,
		Logger:         a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(a.Logger.Handler(), slog.LevelWarn),
	}
}

// Addr returns the address the server is listening on, or the configured one before Start.
func (a *Application) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener != nil {
		return a.listener.Addr().String()
	}
	return a.Server.Addr
}

// Start binds the listener and launches the server, hub and dashboard poller.
// A serve failure after Start returns calls cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	a.mu.Lock()
	a.listener = ln
	a.mu.Unlock()

	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.String("address", ln.Addr().String()),
		slog.String("user_service", a.Config.Upstream.UserServiceURL),
		slog.String("problem_service", a.Config.Upstream.ProblemServiceURL))

	a.WebSocketHub.Start()

	pollCtx, stopPoller := context.WithCancel(context.WithoutCancel(ctx))
	a.stopPoller = stopPoller
	a.pollerDone = make(chan struct{})
	go func() {
		defer close(a.pollerDone)
		a.Poller.Run(pollCtx)
	}()

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			a.mu.Lock()
			a.serveErr = err
			a.mu.Unlock()
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", ln.Addr().(*net.TCPAddr).Port)))

	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	if a.stopPoller != nil {
		a.stopPoller()
		<-a.pollerDone
	}
	a.WebSocketHub.Stop()

	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run runs the application until ctx ends, SIGINT or SIGTERM arrives, or the server fails.
func (a *Application) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.Info("Received shutdown signal")

	stopErr := a.Stop(context.Background())

	a.mu.Lock()
	defer a.mu.Unlock()
	return errors.Join(a.serveErr, stopErr)
}

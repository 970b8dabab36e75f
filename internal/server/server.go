package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"deployhub/internal/chart"
	"deployhub/internal/feed"
	"deployhub/internal/metrics"
	"deployhub/internal/notify"
	"deployhub/pkg/templates"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	// HTTP server timeouts
	HTTPReadTimeout  = 10 * time.Second
	HTTPWriteTimeout = 10 * time.Second
	HTTPIdleTimeout  = 60 * time.Second

	// Request timeout for middleware
	RequestTimeout = 60 * time.Second

	// Rate limiting - requests per minute
	GlobalRateLimit = 600 // Global rate limit per minute
	ActionRateLimit = 60  // Notification actions per minute
)

// Server represents the HTTP server
type Server struct {
	Feed          *feed.Feed
	Notifications *notify.Center
	Metrics       *metrics.Collector
	Logger        *slog.Logger
	ChartSize     chart.Size
	TestMode      bool

	now  func() time.Time
	page *templates.Page

	mu         sync.RWMutex
	loaded     bool
	httpServer *http.Server
}

// NewServer creates a new server instance. The dashboard template is parsed
// up front so a broken override fails at startup rather than per request.
func NewServer(f *feed.Feed, center *notify.Center, collector *metrics.Collector, logger *slog.Logger, testMode bool) (*Server, error) {
	s := &Server{
		Feed:          f,
		Notifications: center,
		Metrics:       collector,
		Logger:        logger,
		ChartSize:     chart.DefaultSize,
		TestMode:      testMode,
		now:           time.Now,
	}

	page, err := templates.Load(templates.Dashboard, template.FuncMap{
		"percent": percent,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard template: %w", err)
	}
	s.page = page

	return s, nil
}

// SetLoaded marks the initial record load as complete
func (s *Server) SetLoaded(loaded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loaded = loaded
}

// Loaded reports whether the initial record load has completed
func (s *Server) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.loaded
}

// Router creates and configures the HTTP router
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(RequestTimeout))

	// Logging middleware
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				elapsed := time.Since(start)
				s.Logger.Info("http_request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"duration_ms", elapsed.Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()))

				if s.Metrics != nil {
					route := "unmatched"
					if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
						route = rctx.RoutePattern()
					}
					s.Metrics.ObserveRequest(r.Method, route, ww.Status(), elapsed)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	})

	// Rate limiting middleware (only if not in test mode)
	if !s.TestMode {
		r.Use(NewRateLimitMiddleware(GlobalRateLimit, s.Logger))
	}

	// Notification actions share one budget across the API and form routes
	var actionLimit func(http.Handler) http.Handler
	if !s.TestMode {
		actionLimit = NewActionRateLimitMiddleware(ActionRateLimit, s.Logger)
	}

	// Routes
	r.Get("/", s.HandleDashboard)
	r.Get("/health", s.HandleHealth)
	r.Get("/metrics", s.HandleMetrics)
	r.Get("/chart.svg", s.HandleChartSVG)

	r.Route("/api", func(r chi.Router) {
		r.Get("/deployments", s.HandleDeployments)
		r.Get("/deployments/{id}", s.HandleDeployment)
		r.Get("/stats", s.HandleStats)
		r.Get("/chart", s.HandleChart)
		r.Get("/notifications", s.HandleNotifications)

		r.Group(func(r chi.Router) {
			if actionLimit != nil {
				r.Use(actionLimit)
			}
			r.Post("/notifications/read-all", s.HandleMarkAllRead)
			r.Post("/notifications/{id}/read", s.HandleMarkRead)
		})
	})

	// Form variants used by the HTML dashboard
	r.Group(func(r chi.Router) {
		if actionLimit != nil {
			r.Use(actionLimit)
		}
		r.Post("/notifications/read-all", s.HandleMarkAllReadForm)
		r.Post("/notifications/{id}/read", s.HandleMarkReadForm)
	})

	return r
}

// Start starts the HTTP server. It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start(addr string) error {
	s.Logger.Info("Starting server", "addr", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  HTTPReadTimeout,
		WriteTimeout: HTTPWriteTimeout,
		IdleTimeout:  HTTPIdleTimeout,
	}

	s.mu.Lock()
	s.httpServer = server
	s.mu.Unlock()

	return server.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server, waiting for active requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	server := s.httpServer
	s.mu.RUnlock()

	if server == nil {
		return nil
	}
	if err := server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

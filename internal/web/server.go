package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/vbonduro/clientes/internal/metrics"
	"github.com/vbonduro/clientes/internal/service"
)

const defaultMaxUploadSize = 10 << 20

// pinger reports database reachability for /health.
type pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the HTTP surface. Zero values fall back to defaults.
type Options struct {
	AllowedOrigin  string
	MaxUploadSize  int64
	RateLimit      rate.Limit
	RateBurst      int
	Metrics        metrics.Recorder
	MetricsHandler http.Handler
}

type Server struct {
	service       *service.CustomerService
	health        pinger
	router        chi.Router
	limiter       *RateLimiter
	maxUploadSize int64
	logger        *slog.Logger
}

func NewServer(svc *service.CustomerService, health pinger, opts Options, logger *slog.Logger) *Server {
	if opts.AllowedOrigin == "" {
		opts.AllowedOrigin = "http://localhost:4200"
	}
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = defaultMaxUploadSize
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Noop{}
	}

	s := &Server{
		service:       svc,
		health:        health,
		router:        chi.NewRouter(),
		maxUploadSize: opts.MaxUploadSize,
		logger:        logger,
	}
	if opts.RateLimit > 0 {
		s.limiter = NewRateLimiter(opts.RateLimit, opts.RateBurst, 5*time.Minute)
	}
	s.registerRoutes(opts)
	return s
}

func (s *Server) registerRoutes(opts Options) {
	r := s.router
	r.Use(
		requestLogger(s.logger),
		recordMetrics(opts.Metrics),
		recoverer(s.logger),
		cors(opts.AllowedOrigin),
		securityHeaders,
	)

	r.Get("/health", s.handleHealth)
	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.Middleware)
		}
		r.Get("/clientes", s.handleListCustomers)
		r.Get("/clientes/page/{page}", s.handleListCustomersPage)
		r.Get("/clientes/{id}", s.handleGetCustomer)
		r.Post("/clientes", s.handleCreateCustomer)
		r.Put("/clientes/{id}", s.handleUpdateCustomer)
		r.Delete("/clientes/{id}", s.handleDeleteCustomer)
		r.Post("/clientes/upload", s.handleUploadPhoto)
		r.Get("/uploads/img/{nombreFoto}", s.handleGetPhoto)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe blocks until ctx is cancelled, then drains in-flight
// requests for up to ten seconds.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	return err
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

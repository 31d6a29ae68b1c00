package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/headline-goat/variant-goat/internal/experiment"
	"github.com/headline-goat/variant-goat/internal/store"
)

type Options struct {
	Port int
	// Token protects the management API. A random one is generated when empty.
	Token string
	// TokenFile, when set, receives the token so the CLI can show it.
	TokenFile string
	// Gatherer backs /metrics. The endpoint is not mounted when nil.
	Gatherer prometheus.Gatherer
	Logger   zerolog.Logger
}

type Server struct {
	engine    *experiment.Engine
	store     store.Store
	port      int
	token     string
	tokenFile string
	router    chi.Router
	logger    zerolog.Logger
	startTime time.Time
}

func New(engine *experiment.Engine, s store.Store, opts Options) *Server {
	token := opts.Token
	if token == "" {
		token = generateToken()
	}

	srv := &Server{
		engine:    engine,
		store:     s,
		port:      opts.Port,
		token:     token,
		tokenFile: opts.TokenFile,
		router:    chi.NewRouter(),
		logger:    opts.Logger,
		startTime: time.Now(),
	}

	srv.setupRoutes(opts.Gatherer)
	return srv
}

func (s *Server) setupRoutes(gatherer prometheus.Gatherer) {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	// Public endpoints
	r.Get("/health", s.handleHealth)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		// Visitor-facing, called from browsers on other origins
		r.Group(func(r chi.Router) {
			r.Use(corsMiddleware)
			r.Options("/assign", noContent)
			r.Options("/convert", noContent)
			r.Post("/assign", s.handleAssign)
			r.Post("/convert", s.handleConvert)
		})

		// Management endpoints (protected)
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Post("/projects/{projectID}/tests", s.handleCreateTest)
			r.Get("/projects/{projectID}/tests", s.handleListTests)
			r.Get("/tests/{testID}", s.handleGetTest)
			r.Delete("/tests/{testID}", s.handleDeleteTest)
			r.Post("/tests/{testID}/{action:start|pause|stop}", s.handleTransition)
			r.Put("/tests/{testID}/weights", s.handleUpdateWeights)
			r.Get("/tests/{testID}/results", s.handleResults)
		})
	})
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	// Write token to file for the token command
	if s.tokenFile != "" {
		if err := os.WriteFile(s.tokenFile, []byte(s.token), 0600); err != nil {
			s.logger.Warn().Err(err).Str("path", s.tokenFile).Msg("failed to write token file")
		}
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Int("port", s.port).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func (s *Server) Token() string {
	return s.token
}

func (s *Server) StartTime() time.Time {
	return s.startTime
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// requestLogger logs one line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		s.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func generateToken() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		panic(fmt.Sprintf("failed to generate token: %v", err))
	}
	return hex.EncodeToString(bytes)
}

package http

import (
	"context"
	"net/http"
	"time"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/m-mizutani/goerr/v2"

	"github.com/fairmed-lab/fairmed/pkg/domain/model"
	"github.com/fairmed-lab/fairmed/pkg/usecase"
	"github.com/fairmed-lab/fairmed/pkg/utils/errutil"
	"github.com/fairmed-lab/fairmed/pkg/utils/logging"
)

// DefaultMaxBodyBytes caps request bodies; every valid request is a few bytes
const DefaultMaxBodyBytes int64 = 1 << 20

// AnalysisUseCase is the set of operations served over HTTP
type AnalysisUseCase interface {
	Health(ctx context.Context) *model.HealthStatus
	Analyze(ctx context.Context, input usecase.AnalyzeInput) (*model.AnalysisResult, error)
	Mitigate(ctx context.Context, input usecase.MitigateInput) (*model.AnalysisResult, error)
	ListScenarios(ctx context.Context) []*model.ScenarioSummary
}

type Server struct {
	router       *chi.Mux
	analysisUC   AnalysisUseCase
	corsOrigins  []string
	maxBodyBytes int64
	enableSentry bool
}

type Options func(*Server)

// WithCORSOrigins sets the origins allowed to call the API from a browser
func WithCORSOrigins(origins []string) Options {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

func WithMaxBodyBytes(n int64) Options {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithSentry attaches a Sentry hub to every request and reports panics
func WithSentry(enabled bool) Options {
	return func(s *Server) {
		s.enableSentry = enabled
	}
}

func New(analysisUC AnalysisUseCase, opts ...Options) (*Server, error) {
	if analysisUC == nil {
		return nil, goerr.New("analysis use case is required")
	}

	r := chi.NewRouter()

	s := &Server{
		router:       r,
		analysisUC:   analysisUC,
		corsOrigins:  []string{"*"},
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(requestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)
	if s.enableSentry {
		r.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler(s.analysisUC))
		r.Get("/scenarios", scenariosHandler(s.analysisUC))
		r.Post("/analyze", analyzeHandler(s.analysisUC, s.maxBodyBytes))
		r.Post("/mitigate", mitigateHandler(s.analysisUC, s.maxBodyBytes))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errutil.HandleHTTP(r.Context(), w, goerr.New("route not found", goerr.V("path", r.URL.Path)),
			http.StatusNotFound, codeNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		errutil.HandleHTTP(r.Context(), w, goerr.New("method not allowed", goerr.V("method", r.Method)),
			http.StatusMethodNotAllowed, codeMethodNotAllowed)
	})

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.From(r.Context()).Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"contentproc/internal/cache"
	"contentproc/internal/config"
	"contentproc/internal/core"
	"contentproc/internal/orchestrator"
	"contentproc/internal/questions"
	"contentproc/internal/search"
)

// ArticleStore is the lookup the HTTP layer needs to resolve a blog
// URL to an article id for /questions/by-url; satisfied by
// internal/store.Store.
type ArticleStore interface {
	GetByURL(ctx context.Context, url string) (*core.Article, error)
}

// ProcessingPipeline is the boundary the HTTP layer drives for the two
// /processing endpoints; satisfied by internal/pipeline.Orchestrator.
type ProcessingPipeline interface {
	Process(ctx context.Context, targetURL string, forceRefresh bool) (*core.ProcessingResult, error)
}

// Handlers bundles every collaborator the HTTP layer calls into.
type Handlers struct {
	pipeline      ProcessingPipeline
	articles      ArticleStore
	questionStore search.QuestionStore
	search        *search.Service
	questionGen   *questions.Generator
	llm           *orchestrator.LLMOrchestrator
	embed         *orchestrator.EmbeddingOrchestrator
	jobs          *jobRegistry
}

// Dependencies is the composition-root input for New: every concrete
// collaborator the process wires together at startup, handed to the
// HTTP layer as immutable references per §9's single-composition-root
// pattern.
type Dependencies struct {
	Pipeline      ProcessingPipeline
	Articles      ArticleStore
	QuestionStore search.QuestionStore
	Search        *search.Service
	QuestionGen   *questions.Generator
	LLM           *orchestrator.LLMOrchestrator
	Embed         *orchestrator.EmbeddingOrchestrator
	Cache         cache.Cache
	KeyValidator  KeyValidator
	CORS          config.CORSConfig
}

// Server wraps the chi router and *http.Server, grounded on the
// teacher's internal/server.Server composition (router + http.Server +
// middleware-then-routes setup).
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	cache      cache.Cache
}

func New(addr string, deps Dependencies) *Server {
	h := &Handlers{
		pipeline: deps.Pipeline, articles: deps.Articles, questionStore: deps.QuestionStore,
		search: deps.Search, questionGen: deps.QuestionGen, llm: deps.LLM, embed: deps.Embed,
		jobs: newJobRegistry(),
	}
	validator := deps.KeyValidator
	if validator == nil {
		validator = StaticKeyValidator{}
	}

	s := &Server{router: chi.NewRouter(), cache: deps.Cache}
	s.setupMiddleware(deps.CORS)
	s.setupRoutes(h, validator)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware(corsCfg config.CORSConfig) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	if corsCfg.Enabled {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   corsCfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-API-Key"},
			ExposedHeaders:   []string{"Link", "Retry-After"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
}

func (s *Server) setupRoutes(h *Handlers, validator KeyValidator) {
	limiters := newLimiterRegistry()

	s.router.Group(func(r chi.Router) {
		r.Use(limiters.rateLimit(categoryHealth))
		r.Get("/health", h.handleHealth)
		r.Get("/health/ready", h.handleHealthReady(s.cache))
		r.Get("/health/live", h.handleHealthLive)
	})

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(requireScope(validator, "write"), limiters.rateLimit(categoryWrite))
			r.Post("/processing/process", h.handleProcess)
			r.Post("/processing/process-async", h.handleProcessAsync)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireScope(validator, "read"), limiters.rateLimit(categoryRead))
			r.Get("/questions/by-url", h.handleQuestionsByURL)
			r.Get("/questions/{id}", h.handleQuestionByID)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireScope(validator, "read"), limiters.rateLimit(categorySimilarity))
			r.Post("/search/similar", h.handleSearchSimilar)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireScope(validator, "write"), limiters.rateLimit(categoryAIGen))
			r.Post("/qa/answer", h.handleQAAnswer)
			r.Post("/generate/questions", h.handleGenerateQuestions)
			r.Post("/embeddings/generate", h.handleEmbedGenerate)
			r.Post("/embeddings/generate-batch", h.handleEmbedGenerateBatch)
		})
	})
}

// Start runs the HTTP server until it errors or is shut down.
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/romajiapi/internal/config"
	"github.com/dgallion1/romajiapi/internal/news"
	"github.com/dgallion1/romajiapi/internal/pipeline"
	"github.com/dgallion1/romajiapi/internal/romaji"
	"github.com/dgallion1/romajiapi/internal/translate"
)

// Version is reported by GET /.
const Version = "1.3.0"

// Romanizer is the transliteration surface of romaji.Converter.
type Romanizer interface {
	Romaji(ctx context.Context, text string) (string, error)
	RomajiHTML(ctx context.Context, doc string) (string, error)
	FuriganaHTML(ctx context.Context, doc string) (string, error)
	Slug(ctx context.Context, text string) (string, error)
	Tokenize(ctx context.Context, text string, withParticles bool) ([]string, error)
	TransformLine(ctx context.Context, line string) (romaji.Line, error)
	TransformText(ctx context.Context, text string) ([]romaji.Line, error)
}

// Translator is the surface of translate.Translator used by handlers.
type Translator interface {
	Text(ctx context.Context, text, target, source string) (string, error)
	Array(ctx context.Context, texts []string, target, source string) ([]string, error)
}

// NewsSource lists recent articles.
type NewsSource interface {
	Search(ctx context.Context) ([]news.Article, error)
}

// JobQueue accepts document jobs.
type JobQueue interface {
	Submit(job *pipeline.Job) error
	GetJob(id string) *pipeline.Job
	QueueDepth() int
}

// Deps are the collaborators behind the routes. Stats may be nil.
type Deps struct {
	Romaji     Romanizer
	Translator Translator
	News       NewsSource
	Jobs       JobQueue
	Stats      *translate.Stats
}

// Server is the HTTP API server for romajiapi.
type Server struct {
	router  chi.Router
	deps    Deps
	limiter *RateLimiter
	log     *slog.Logger
	cfg     config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) (*Server, error) {
	limiter, err := NewRateLimiter(cfg.RateAuthPerSecond, cfg.RateAnonPerMinute, 10000)
	if err != nil {
		return nil, err
	}
	s := &Server{
		deps:    deps,
		limiter: limiter,
		log:     log,
		cfg:     cfg,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(s.cfg.AuthenticationKey))
		r.Use(s.limiter.Middleware)

		r.Get("/", s.handleHome)

		// Open to anonymous clients with small payloads.
		r.Group(func(r chi.Router) {
			r.Use(FreePayloadLimit(s.cfg.FreePayloadLimit))

			r.Post("/romaji", s.handleRomaji)
			r.Post("/furigana", s.handleFurigana)
			r.Post("/slug", s.handleSlug)
			r.Post("/tokenizer", s.handleTokenizer)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth)

			r.Get("/get-news", s.handleNews)
			r.Post("/transform-text", s.handleTransformText)
			r.Get("/translate", s.handleTranslate)
			r.Post("/translate-array", s.handleTranslateArray)

			r.Post("/api/jobs", s.handleSubmitJob)
			r.Post("/api/jobs/batch", s.handleBatchSubmit)
			r.Get("/api/jobs/{jobID}", s.handleJobStatus)
			r.Get("/api/stats/translate", s.handleTranslateStats)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"version": Version})
}

// Package server exposes the poster operations over HTTP.
//
// Endpoints (each also mounted under /api):
//
//	POST     /generate-preview  random scene, generation only (session)
//	POST     /publish-preview   publish a reviewed image (session)
//	POST     /publish           generate and publish with options (session)
//	GET|POST /cron/publish      scheduled full cycle (CRON_SECRET bearer)
//	POST     /generate          direct prompt generation, optional async (session)
//	GET      /ping              liveness
//
// Every gated endpoint checks method, then caller, then configuration.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/fpang/lora-autoposter/internal/auth"
	"github.com/fpang/lora-autoposter/internal/config"
	"github.com/fpang/lora-autoposter/internal/instagram"
	"github.com/fpang/lora-autoposter/internal/poster"
)

// Poster is the orchestration surface. *poster.Service satisfies it.
type Poster interface {
	Preview(ctx context.Context) (*poster.PreviewResult, error)
	PublishPreview(ctx context.Context, imageURL, caption string) (*instagram.Result, error)
	RunCycle(ctx context.Context, in poster.CycleInput) (*poster.CycleReport, error)
	GenerateDirect(ctx context.Context, req poster.DirectRequest) (*poster.DirectResult, error)
}

// SessionVerifier resolves the signed-in user. *auth.StackVerifier satisfies it.
type SessionVerifier interface {
	Verify(ctx context.Context, r *http.Request) (*auth.User, error)
}

// Server holds the handlers' dependencies.
type Server struct {
	cfg      *config.Config
	poster   Poster
	sessions SessionVerifier
	limiter  *rate.Limiter
}

// New creates a Server. A positive cfg.PublishRatePerHour limits how often
// the publishing endpoints may run.
func New(cfg *config.Config, p Poster, sessions SessionVerifier) *Server {
	s := &Server{cfg: cfg, poster: p, sessions: sessions}
	if cfg.PublishRatePerHour > 0 {
		s.limiter = rate.NewLimiter(rate.Every(time.Hour/time.Duration(cfg.PublishRatePerHour)), 1)
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, withObservability, middleware.Recoverer, withCORS(s.cfg.CORSOrigins))
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpError(w, http.StatusNotFound, "Not found")
	})

	s.routes(r)
	r.Route("/api", s.routes)
	return r
}

func (s *Server) routes(r chi.Router) {
	r.HandleFunc("/ping", allowMethods(s.handlePing, http.MethodGet, http.MethodHead))
	r.HandleFunc("/generate-preview", allowMethods(s.handleGeneratePreview, http.MethodPost))
	r.HandleFunc("/publish-preview", allowMethods(s.handlePublishPreview, http.MethodPost))
	r.HandleFunc("/publish", allowMethods(s.handlePublish, http.MethodPost))
	r.HandleFunc("/cron/publish", allowMethods(s.handleCron, http.MethodGet, http.MethodPost))
	r.HandleFunc("/generate", allowMethods(s.handleGenerate, http.MethodPost))
}

// requireSession writes a 401 and returns false when r has no valid session.
func (s *Server) requireSession(w http.ResponseWriter, r *http.Request) bool {
	user, err := s.sessions.Verify(r.Context(), r)
	if err != nil {
		log.Info().Err(err).Str("path", r.URL.Path).Msg("Unauthorized request")
		httpError(w, http.StatusUnauthorized, "Unauthorized")
		return false
	}
	log.Debug().Str("userId", user.ID).Str("path", r.URL.Path).Msg("Session accepted")
	return true
}

// requireConfig writes a 500 with the first missing requirement.
func requireConfig(w http.ResponseWriter, checks ...func() error) bool {
	for _, check := range checks {
		if err := check(); err != nil {
			log.Error().Err(err).Msg("Missing configuration")
			httpError(w, http.StatusInternalServerError, err.Error())
			return false
		}
	}
	return true
}

// allowPublish applies the publish rate limit, writing a 429 when exceeded.
func (s *Server) allowPublish(w http.ResponseWriter) bool {
	if s.limiter == nil || s.limiter.Allow() {
		return true
	}
	log.Warn().Msg("Publish rate limit exceeded")
	httpError(w, http.StatusTooManyRequests, "Too many publish requests, try again later")
	return false
}

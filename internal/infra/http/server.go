package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"telegram-channel-bot/internal/config"
	"telegram-channel-bot/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

type Deps struct {
	Dispatch usecase.DispatchUseCase
	Subs     usecase.SubscriptionUseCase
	Stats    usecase.StatsUseCase
	Webhook  http.Handler // nil in polling mode
}

// Server exposes health, metrics, the Telegram webhook and the admin API.
type Server struct {
	deps   Deps
	auth   *AuthManager
	log    *zerolog.Logger
	now    func() time.Time
	server *http.Server
}

func NewServer(cfg *config.Config, deps Deps, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "HTTPServer").Logger()
	s := &Server{
		deps: deps,
		auth: NewAuthManager(cfg.HTTP.AdminJWTSecret, 0),
		log:  &l,
		now:  time.Now,
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           s.routes(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes(cfg *config.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(traceID, recoverer(s.log))

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	if s.deps.Webhook != nil {
		r.Post(cfg.Bot.WebhookPath, s.deps.Webhook.ServeHTTP)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(requestLog(s.log), timeout(cfg.NetworkTimeout()), adminOnly(s.auth, s.log))
		r.Post("/posts", s.handleSchedulePost)
		r.Get("/posts/due", s.handleListDue)
		r.Post("/users/{tgID}/premium", s.handleGrantPremium)
		r.Post("/users/{tgID}/plan", s.handleActivatePlan)
		r.Get("/stats", s.handleStats)
	})

	origins := cfg.HTTP.CORSOrigins
	if len(origins) == 0 {
		return r
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(r)
}

func (s *Server) Handler() http.Handler { return s.server.Handler }

// Start blocks until the server stops. A graceful shutdown returns nil.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

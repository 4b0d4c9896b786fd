package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"telegram-tiktok-checker/internal/infra/metrics"
	"telegram-tiktok-checker/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Pinger is the slice of a backing store the health check needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the admin-facing HTTP surface: health, Prometheus metrics and a
// small JSON API over the check history and usage stats.
type Server struct {
	statsUC usecase.StatsUseCase
	checkUC usecase.CheckUseCase
	apiKey  string
	auth    *AuthManager
	pg      Pinger
	redis   Pinger
	log     *zerolog.Logger
}

func NewServer(
	statsUC usecase.StatsUseCase,
	checkUC usecase.CheckUseCase,
	apiKey string,
	auth *AuthManager,
	pg Pinger,
	redis Pinger,
	logger *zerolog.Logger,
) *Server {
	webLog := logger.With().Str("component", "AdminWeb").Logger()
	return &Server{
		statsUC: statsUC,
		checkUC: checkUC,
		apiKey:  apiKey,
		auth:    auth,
		pg:      pg,
		redis:   redis,
		log:     &webLog,
	}
}

// Routes builds the full admin router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Post("/auth/login", s.handleLogin)
		api.Post("/auth/logout", s.handleLogout)

		api.Group(func(priv chi.Router) {
			priv.Use(s.authMiddleware)
			priv.Get("/stats", statsHandler(s.statsUC))
			priv.Get("/checks/{username}", checkGetHandler(s.checkUC))
			priv.Post("/checks", checkCreateHandler(s.checkUC))
		})
	})
	return r
}

// requestLogger emits one structured line per request and feeds the admin
// request counter. Scrapes of /metrics are left out to keep both quiet.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		metrics.IncAdminRequest(route, strconv.Itoa(ww.Status()))
		s.log.Info().
			Str("method", r.Method).
			Str("route", route).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("admin request")
	})
}

// authMiddleware admits requests carrying a valid admin session token.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.auth == nil {
			s.log.Error().Msg("admin auth is not configured")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type loginRequest struct {
	Key string `json:"key"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// handleLogin exchanges the static admin API key for a signed session token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.apiKey == "" || s.auth == nil {
		s.log.Error().Msg("admin API key is not configured")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Key), []byte(s.apiKey)) != 1 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	token, err := s.auth.Mint(w)
	if err != nil {
		s.log.Error().Err(err).Msg("token mint failed")
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresIn: int(s.auth.TTL().Seconds()),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if s.auth != nil {
		s.auth.Clear(w)
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleHealthz reports liveness of the process and its two backing stores.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := map[string]string{"status": "ok", "postgres": "up", "redis": "up"}

	if s.pg != nil {
		if err := s.pg.Ping(ctx); err != nil {
			s.log.Error().Err(err).Msg("postgres health check failed")
			body["postgres"] = "down"
		}
	}
	if s.redis != nil {
		if err := s.redis.Ping(ctx); err != nil {
			s.log.Error().Err(err).Msg("redis health check failed")
			body["redis"] = "down"
		}
	}
	if body["postgres"] == "down" || body["redis"] == "down" {
		body["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, body)
}

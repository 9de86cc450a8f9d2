package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"github.com/playlog/internal/config"
	"github.com/playlog/internal/domain"
	"github.com/playlog/internal/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PlayAPI is the play use case surface
type PlayAPI interface {
	List(ctx context.Context) ([]domain.Play, error)
	Get(ctx context.Context, id string) (*domain.Play, error)
	Create(ctx context.Context, in domain.NewPlay) (string, error)
}

// CollectionAPI is the collection and metadata use case surface
type CollectionAPI interface {
	Page(ctx context.Context, page, limit int) (domain.CollectionPage, error)
	Add(ctx context.Context, externalID int) error
	Sync(ctx context.Context) (domain.SyncResult, error)
	Search(ctx context.Context, query string) ([]domain.GameSearchResult, error)
	Lookup(ctx context.Context, id int) (*domain.GameMetadata, error)
}

// StatsAPI is the statistics use case surface
type StatsAPI interface {
	Overview(ctx context.Context) (domain.OverviewStats, error)
	Games(ctx context.Context) ([]domain.GamePlayCount, error)
	Game(ctx context.Context, slug string) (*domain.GameStats, error)
	Players(ctx context.Context) ([]domain.PlayerStats, error)
	Player(ctx context.Context, name string) (*domain.PlayerStats, error)
}

// Handler provides HTTP handlers for the play tracker API
type Handler struct {
	plays      PlayAPI
	collection CollectionAPI
	stats      StatsAPI
	hub        *websocket.Hub
	upgrader   *websocket.Upgrader
	auth       *Authenticator
	server     *config.ServerConfig
	checks     []readinessCheck
	logger     *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	plays PlayAPI,
	collection CollectionAPI,
	stats StatsAPI,
	hub *websocket.Hub,
	cfg *config.Config,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		plays:      plays,
		collection: collection,
		stats:      stats,
		hub:        hub,
		upgrader:   websocket.NewUpgrader(cfg.Server.AllowedOrigins),
		auth:       NewAuthenticator(&cfg.Auth),
		server:     &cfg.Server,
		logger:     logger,
	}
}

// Pinger reports whether a backing service is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

type readinessCheck struct {
	name   string
	pinger Pinger
}

// AddReadinessCheck makes /ready depend on p answering its ping
func (h *Handler) AddReadinessCheck(name string, p Pinger) {
	h.checks = append(h.checks, readinessCheck{name: name, pinger: p})
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)
	r.Handle("/metrics", promhttp.Handler())

	if h.hub != nil {
		r.Get("/ws", h.HandleWebSocket)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.auth.Middleware(h.writeError))

		r.Route("/plays", func(r chi.Router) {
			r.Get("/", h.ListPlays)
			r.Post("/", h.CreatePlay)
			r.Get("/{playID}", h.GetPlay)
		})

		r.Route("/my-games", func(r chi.Router) {
			r.Get("/", h.ListCollection)
			r.Post("/", h.AddGame)
			r.With(h.syncLimiter()).Post("/sync", h.SyncCollection)
		})

		r.Route("/stats", func(r chi.Router) {
			r.Get("/", h.GetOverview)
			r.Get("/games", h.GetGameCounts)
			r.Get("/games/{slug}", h.GetGameStats)
			r.Get("/players", h.GetPlayers)
			r.Get("/players/{name}", h.GetPlayerStats)
		})

		r.Route("/bgg", func(r chi.Router) {
			r.Get("/search", h.SearchGames)
			r.Get("/game", h.LookupGame)
		})

		if h.hub != nil {
			r.Get("/ws/stats", h.GetWebSocketStats)
		}
	})

	return r
}

// syncLimiter throttles collection syncs per client IP
func (h *Handler) syncLimiter() func(http.Handler) http.Handler {
	if h.server.SyncRateLimit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		h.server.SyncRateLimit,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			h.writeError(w, http.StatusTooManyRequests, errors.New("too many sync requests"))
		}),
	)
}

// requestLogger logs each request once it completes
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeCreated writes a 201 JSON response
func (h *Handler) writeCreated(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusCreated, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// writeServiceError maps a use case error to a response. Anything not
// recognized is logged and reported as an internal error.
func (h *Handler) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case domain.IsNotFoundError(err):
		h.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrInvalidPlay),
		errors.Is(err, domain.ErrInvalidGameID),
		errors.Is(err, domain.ErrInvalidRequest):
		h.writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrDuplicateGame):
		h.writeError(w, http.StatusConflict, err)
	default:
		h.logger.Error("request failed", "operation", op, "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
	}
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.upgrader.ServeWs(h.hub, h.logger, w, r)
}

// GetWebSocketStats returns WebSocket connection statistics
func (h *Handler) GetWebSocketStats(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]interface{}{
		"total_connections": h.hub.GetTotalConnections(),
		"subscribers": map[string]int{
			websocket.TopicPlays:      h.hub.GetSubscriberCount(websocket.TopicPlays),
			websocket.TopicCollection: h.hub.GetSubscriberCount(websocket.TopicCollection),
		},
	})
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// ReadyCheck pings every registered dependency and reports 503 if any fails
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := make(map[string]string, len(h.checks)+1)
	ready := true
	for _, c := range h.checks {
		if err := c.pinger.Ping(ctx); err != nil {
			h.logger.Warn("readiness check failed", "check", c.name, "error", err)
			status[c.name] = "unavailable"
			ready = false
			continue
		}
		status[c.name] = "ok"
	}

	if !ready {
		status["status"] = "not ready"
		h.writeJSON(w, http.StatusServiceUnavailable, APIResponse{
			Success: false,
			Data:    status,
			Error:   "dependency unavailable",
		})
		return
	}
	status["status"] = "ready"
	h.writeSuccess(w, status)
}

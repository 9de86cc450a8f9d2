package handler

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/playlog/internal/domain"
)

// pathParam returns the decoded URL parameter key. chi matches against
// RawPath when the request carries one, and only then is the value still
// escaped.
func pathParam(r *http.Request, key string) (string, error) {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v, nil
	}
	return url.PathUnescape(v)
}

// GetOverview returns totals across all plays
func (h *Handler) GetOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.stats.Overview(r.Context())
	if err != nil {
		h.writeServiceError(w, "stats overview", err)
		return
	}
	h.writeSuccess(w, overview)
}

// GetGameCounts returns play counts per game
func (h *Handler) GetGameCounts(w http.ResponseWriter, r *http.Request) {
	games, err := h.stats.Games(r.Context())
	if err != nil {
		h.writeServiceError(w, "game counts", err)
		return
	}
	h.writeSuccess(w, games)
}

// GetGameStats returns stats for one game by slug
func (h *Handler) GetGameStats(w http.ResponseWriter, r *http.Request) {
	slug, err := pathParam(r, "slug")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	game, err := h.stats.Game(r.Context(), slug)
	if err != nil {
		h.writeServiceError(w, "game stats", err)
		return
	}
	h.writeSuccess(w, game)
}

// GetPlayers returns every player's results
func (h *Handler) GetPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.stats.Players(r.Context())
	if err != nil {
		h.writeServiceError(w, "player stats", err)
		return
	}
	h.writeSuccess(w, players)
}

// GetPlayerStats returns one player's results
func (h *Handler) GetPlayerStats(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "name")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	player, err := h.stats.Player(r.Context(), name)
	if err != nil {
		h.writeServiceError(w, "player stats", err)
		return
	}
	h.writeSuccess(w, player)
}

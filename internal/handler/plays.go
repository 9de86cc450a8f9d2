package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/playlog/internal/domain"
	"github.com/playlog/internal/metrics"
)

// ListPlays returns all plays, newest first
func (h *Handler) ListPlays(w http.ResponseWriter, r *http.Request) {
	plays, err := h.plays.List(r.Context())
	if err != nil {
		h.writeServiceError(w, "list plays", err)
		return
	}
	h.writeSuccess(w, plays)
}

// GetPlay returns a play by id
func (h *Handler) GetPlay(w http.ResponseWriter, r *http.Request) {
	play, err := h.plays.Get(r.Context(), chi.URLParam(r, "playID"))
	if err != nil {
		h.writeServiceError(w, "get play", err)
		return
	}
	h.writeSuccess(w, play)
}

// CreatePlay records a play on behalf of the authenticated user
func (h *Handler) CreatePlay(w http.ResponseWriter, r *http.Request) {
	var in domain.NewPlay
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	email, ok := IdentityFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, domain.ErrUnauthorized)
		return
	}
	in.CreatedBy = email

	id, err := h.plays.Create(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, "create play", err)
		return
	}

	metrics.PlaysCreated.WithLabelValues("http").Inc()
	h.writeCreated(w, map[string]string{"play_id": id})
}

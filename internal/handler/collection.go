package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/playlog/internal/domain"
)

// addGameRequest is the body of POST /my-games
type addGameRequest struct {
	BGGID int `json:"bgg_id"`
}

// queryInt reads an optional integer query parameter
func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.ErrInvalidRequest
	}
	return n, nil
}

// ListCollection returns one page of the collection
func (h *Handler) ListCollection(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.collection.Page(r.Context(), page, limit)
	if err != nil {
		h.writeServiceError(w, "list collection", err)
		return
	}
	h.writeSuccess(w, result)
}

// AddGame adds a game to the collection by its BoardGameGeek id
func (h *Handler) AddGame(w http.ResponseWriter, r *http.Request) {
	var req addGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	if err := h.collection.Add(r.Context(), req.BGGID); err != nil {
		h.writeServiceError(w, "add game", err)
		return
	}
	h.writeCreated(w, map[string]int{"bgg_id": req.BGGID})
}

// SyncCollection refreshes the collection's metadata
func (h *Handler) SyncCollection(w http.ResponseWriter, r *http.Request) {
	result, err := h.collection.Sync(r.Context())
	if err != nil {
		h.writeServiceError(w, "sync collection", err)
		return
	}
	h.writeSuccess(w, result)
}

// SearchGames queries the metadata provider by name
func (h *Handler) SearchGames(w http.ResponseWriter, r *http.Request) {
	results, err := h.collection.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeProviderError(w, "search games", err)
		return
	}
	h.writeSuccess(w, results)
}

// LookupGame fetches one game's metadata
func (h *Handler) LookupGame(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidGameID)
		return
	}

	game, err := h.collection.Lookup(r.Context(), id)
	if err != nil {
		h.writeProviderError(w, "lookup game", err)
		return
	}
	h.writeSuccess(w, game)
}

// writeProviderError reports metadata provider failures as 502
func (h *Handler) writeProviderError(w http.ResponseWriter, op string, err error) {
	if domain.IsNotFoundError(err) || errors.Is(err, domain.ErrInvalidGameID) {
		h.writeServiceError(w, op, err)
		return
	}
	h.logger.Warn("metadata provider failed", "operation", op, "error", err)
	h.writeError(w, http.StatusBadGateway, errors.New("metadata provider unavailable"))
}

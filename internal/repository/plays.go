package repository

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/playlog/internal/cache"
	"github.com/playlog/internal/domain"
	"github.com/playlog/internal/tabular"
)

// PlayRepository reads and records plays. Each play is stored as one row per
// player; reads fold the rows back into plays.
type PlayRepository struct {
	store  tabular.Store
	cache  cache.Cache
	logger *slog.Logger
	now    func() time.Time
	newID  func() (string, error)
}

// NewPlayRepository creates a play repository
func NewPlayRepository(store tabular.Store, c cache.Cache, logger *slog.Logger) *PlayRepository {
	return &PlayRepository{
		store:  store,
		cache:  c,
		logger: logger,
		now:    time.Now,
		newID:  newPlayID,
	}
}

// newPlayID returns a UUIDv7, whose string form sorts by creation time
func newPlayID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generating play id: %w", err)
	}
	return id.String(), nil
}

// List returns all plays, most recently created first
func (r *PlayRepository) List(ctx context.Context) ([]domain.Play, error) {
	return readThrough(ctx, r.cache, cache.KeyPlays, r.logger, r.load)
}

func (r *PlayRepository) load(ctx context.Context) ([]domain.Play, error) {
	rows, err := r.store.ReadRange(ctx, tabular.Plays)
	if err != nil {
		return nil, fmt.Errorf("reading plays: %w", err)
	}

	var parsed []playRow
	skipped := 0
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		pr, ok := parsePlayRow(row)
		if !ok {
			if id := strings.TrimSpace(tabular.Cell(row, colPlayID)); id != "" {
				r.logger.Warn("skipped play row with invalid position",
					"play_id", id,
					"row", i+1,
					"position", tabular.Cell(row, colPosition),
				)
			}
			skipped++
			continue
		}
		parsed = append(parsed, pr)
	}
	if skipped > 0 {
		r.logger.Debug("skipped unusable play rows", "count", skipped)
	}

	return groupPlays(parsed), nil
}

// groupPlays folds player rows into plays. Play-level fields come from the
// first row seen for each play id.
func groupPlays(rows []playRow) []domain.Play {
	index := make(map[string]int)
	plays := make([]domain.Play, 0)

	for _, row := range rows {
		i, ok := index[row.PlayID]
		if !ok {
			i = len(plays)
			index[row.PlayID] = i
			plays = append(plays, domain.Play{
				ID:         row.PlayID,
				Date:       row.Date,
				Game:       row.Game,
				MetadataID: row.MetadataID,
				CreatedBy:  row.CreatedBy,
				CreatedAt:  row.CreatedAt,
			})
		}
		plays[i].Players = append(plays[i].Players, domain.PlayerResult{
			Position: row.Position,
			Name:     row.PlayerName,
			Score:    row.Score,
		})
	}

	for i := range plays {
		slices.SortStableFunc(plays[i].Players, func(a, b domain.PlayerResult) int {
			return cmp.Compare(a.Position, b.Position)
		})
	}
	slices.SortStableFunc(plays, func(a, b domain.Play) int {
		return cmp.Compare(b.CreatedAt, a.CreatedAt)
	})

	return plays
}

// Get returns the play with the given id, or domain.ErrPlayNotFound
func (r *PlayRepository) Get(ctx context.Context, id string) (*domain.Play, error) {
	plays, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range plays {
		if plays[i].ID == id {
			return &plays[i], nil
		}
	}
	return nil, domain.ErrPlayNotFound
}

// Create stores a play as one row per player, in a single append, and
// returns its new id. Players are ranked in the order given. The input is
// expected to be validated.
func (r *PlayRepository) Create(ctx context.Context, in domain.NewPlay) (string, error) {
	id, err := r.newID()
	if err != nil {
		return "", err
	}
	createdAt := r.now().UTC().Format(createdAtLayout)
	metadataID := formatOptionalInt(in.MetadataID)

	rows := make([][]string, 0, len(in.Players))
	for i, p := range in.Players {
		rows = append(rows, []string{
			id,
			in.Date,
			in.Game,
			metadataID,
			in.CreatedBy,
			createdAt,
			strconv.Itoa(i + 1),
			p.Name,
			formatOptionalFloat(p.Score),
		})
	}

	if err := r.store.AppendRows(ctx, tabular.Plays, rows); err != nil {
		return "", fmt.Errorf("appending play rows: %w", err)
	}

	invalidate(ctx, r.cache, cache.KeyPlays, r.logger)
	r.logger.Info("play recorded", "play_id", id, "game", in.Game, "players", len(rows))
	return id, nil
}

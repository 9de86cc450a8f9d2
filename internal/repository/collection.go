package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/playlog/internal/cache"
	"github.com/playlog/internal/domain"
	"github.com/playlog/internal/metrics"
	"github.com/playlog/internal/tabular"
)

// MetadataLookup fetches a game's metadata by external id. A game the
// provider does not know yields domain.ErrGameNotFound.
type MetadataLookup interface {
	Lookup(ctx context.Context, id int) (*domain.GameMetadata, error)
}

// CollectionRepository reads and maintains the user's game collection
type CollectionRepository struct {
	store    tabular.Store
	cache    cache.Cache
	provider MetadataLookup
	pacer    Pacer
	logger   *slog.Logger
}

// NewCollectionRepository creates a collection repository
func NewCollectionRepository(
	store tabular.Store,
	c cache.Cache,
	provider MetadataLookup,
	pacer Pacer,
	logger *slog.Logger,
) *CollectionRepository {
	return &CollectionRepository{
		store:    store,
		cache:    c,
		provider: provider,
		pacer:    pacer,
		logger:   logger,
	}
}

// List returns the collection in stored order
func (r *CollectionRepository) List(ctx context.Context) ([]domain.CollectionItem, error) {
	return readThrough(ctx, r.cache, cache.KeyCollection, r.logger, r.load)
}

func (r *CollectionRepository) load(ctx context.Context) ([]domain.CollectionItem, error) {
	rows, err := r.store.ReadRange(ctx, tabular.Collection)
	if err != nil {
		return nil, fmt.Errorf("reading collection: %w", err)
	}

	items := make([]domain.CollectionItem, 0, len(rows))
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		item, ok := parseCollectionRow(row)
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func parseCollectionRow(row []string) (domain.CollectionItem, bool) {
	id, ok := parsePositiveInt(tabular.Cell(row, colExternalID))
	if !ok {
		return domain.CollectionItem{}, false
	}

	name := strings.TrimSpace(tabular.Cell(row, colName))
	if name == "" {
		name = fmt.Sprintf("Game %d", id)
	}

	return domain.CollectionItem{
		ExternalID:   id,
		Name:         name,
		Year:         optionalInt(tabular.Cell(row, colYear)),
		ImageURL:     strings.TrimSpace(tabular.Cell(row, colImageURL)),
		ThumbnailURL: strings.TrimSpace(tabular.Cell(row, colThumbnailURL)),
	}, true
}

// Page returns one window of the collection. The page number is clamped
// into the valid range.
func (r *CollectionRepository) Page(ctx context.Context, page, pageSize int) (domain.CollectionPage, error) {
	items, err := r.List(ctx)
	if err != nil {
		return domain.CollectionPage{}, err
	}
	return paginate(items, page, pageSize), nil
}

func paginate(items []domain.CollectionItem, page, pageSize int) domain.CollectionPage {
	if pageSize < 1 {
		pageSize = 1
	}
	total := len(items)
	totalPages := max(1, (total+pageSize-1)/pageSize)
	page = min(max(page, 1), totalPages)

	start := min((page-1)*pageSize, total)
	end := min(start+pageSize, total)

	window := make([]domain.CollectionItem, end-start)
	copy(window, items[start:end])

	return domain.CollectionPage{
		Items:      window,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// Add appends a collection entry carrying only its external id. Metadata is
// filled in by the next sync.
func (r *CollectionRepository) Add(ctx context.Context, externalID int) error {
	row := idOnlyRow(externalID)
	if err := r.store.AppendRows(ctx, tabular.Collection, [][]string{row}); err != nil {
		return fmt.Errorf("appending collection row: %w", err)
	}

	invalidate(ctx, r.cache, cache.KeyCollection, r.logger)
	r.logger.Info("game added to collection", "bgg_id", externalID)
	return nil
}

// Sync refreshes the metadata of every collection entry, one provider call
// at a time, then rewrites the whole table. Entries the provider fails on
// are written back with their id only and counted as errors. Unknown games
// are written back the same way without being counted.
func (r *CollectionRepository) Sync(ctx context.Context) (domain.SyncResult, error) {
	start := time.Now()
	var result domain.SyncResult

	items, err := r.List(ctx)
	if err != nil {
		return result, err
	}

	rows := make([][]string, 0, len(items)+1)
	rows = append(rows, tabular.Collection.Header)

	for _, item := range items {
		if err := r.pacer.Wait(ctx); err != nil {
			return result, fmt.Errorf("collection sync interrupted: %w", err)
		}

		meta, err := r.provider.Lookup(ctx, item.ExternalID)
		if meta == nil && err == nil {
			err = domain.ErrGameNotFound
		}

		switch {
		case err == nil:
			rows = append(rows, metadataRow(item.ExternalID, meta))
			result.Synced++
			metrics.SyncItems.WithLabelValues("synced").Inc()
		case errors.Is(err, domain.ErrGameNotFound):
			rows = append(rows, idOnlyRow(item.ExternalID))
			metrics.SyncItems.WithLabelValues("not_found").Inc()
			r.logger.Warn("game unknown to provider", "bgg_id", item.ExternalID)
		default:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, fmt.Errorf("collection sync interrupted: %w", ctxErr)
			}
			rows = append(rows, idOnlyRow(item.ExternalID))
			result.Errors++
			metrics.SyncItems.WithLabelValues("error").Inc()
			r.logger.Warn("game metadata lookup failed", "bgg_id", item.ExternalID, "error", err)
		}
	}

	if err := r.store.OverwriteRange(ctx, tabular.Collection, rows); err != nil {
		return result, fmt.Errorf("writing synced collection: %w", err)
	}

	invalidate(ctx, r.cache, cache.KeyCollection, r.logger)
	metrics.SyncDuration.Observe(time.Since(start).Seconds())
	r.logger.Info("collection synced",
		"synced", result.Synced,
		"errors", result.Errors,
		"items", len(items),
		"duration", time.Since(start),
	)
	return result, nil
}

func idOnlyRow(id int) []string {
	return []string{strconv.Itoa(id), "", "", "", ""}
}

func metadataRow(id int, m *domain.GameMetadata) []string {
	return []string{
		strconv.Itoa(id),
		m.Name,
		formatOptionalInt(m.Year),
		m.ImageURL,
		m.ThumbnailURL,
	}
}

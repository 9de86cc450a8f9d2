package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/playlog/internal/config"
	"github.com/playlog/internal/domain"
)

// CollectionStore persists the game collection
type CollectionStore interface {
	List(ctx context.Context) ([]domain.CollectionItem, error)
	Page(ctx context.Context, page, pageSize int) (domain.CollectionPage, error)
	Add(ctx context.Context, externalID int) error
	Sync(ctx context.Context) (domain.SyncResult, error)
}

// GameMetadataProvider searches and looks up game metadata
type GameMetadataProvider interface {
	Search(ctx context.Context, query string) ([]domain.GameSearchResult, error)
	Lookup(ctx context.Context, id int) (*domain.GameMetadata, error)
}

// CollectionService implements the collection use cases
type CollectionService struct {
	store    CollectionStore
	provider GameMetadataProvider
	config   *config.CollectionConfig
	notifier Notifier
	logger   *slog.Logger
}

// NewCollectionService creates a collection service
func NewCollectionService(
	store CollectionStore,
	provider GameMetadataProvider,
	cfg *config.CollectionConfig,
	notifier Notifier,
	logger *slog.Logger,
) *CollectionService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &CollectionService{
		store:    store,
		provider: provider,
		config:   cfg,
		notifier: notifier,
		logger:   logger,
	}
}

// List returns the whole collection
func (s *CollectionService) List(ctx context.Context) ([]domain.CollectionItem, error) {
	return s.store.List(ctx)
}

// Page returns one page of the collection. A missing limit uses the default
// and limits are capped at the configured maximum.
func (s *CollectionService) Page(ctx context.Context, page, limit int) (domain.CollectionPage, error) {
	if limit <= 0 {
		limit = s.config.DefaultLimit
	}
	limit = min(limit, s.config.MaxLimit)
	return s.store.Page(ctx, page, limit)
}

// Add puts a game into the collection by its BoardGameGeek id. Ids already
// in the collection are rejected.
func (s *CollectionService) Add(ctx context.Context, externalID int) error {
	if externalID < 1 {
		return fmt.Errorf("%w: %d", domain.ErrInvalidGameID, externalID)
	}

	items, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("checking collection: %w", err)
	}
	if slices.ContainsFunc(items, func(it domain.CollectionItem) bool { return it.ExternalID == externalID }) {
		return fmt.Errorf("%w: %d", domain.ErrDuplicateGame, externalID)
	}

	if err := s.store.Add(ctx, externalID); err != nil {
		return err
	}

	s.notifier.CollectionChanged(domain.CollectionEvent{Action: "added", BGGID: externalID})
	return nil
}

// Sync refreshes metadata for the whole collection
func (s *CollectionService) Sync(ctx context.Context) (domain.SyncResult, error) {
	result, err := s.store.Sync(ctx)
	if err != nil {
		return result, fmt.Errorf("syncing collection: %w", err)
	}

	s.notifier.CollectionChanged(domain.CollectionEvent{
		Action: "synced",
		Synced: result.Synced,
		Errors: result.Errors,
	})
	return result, nil
}

// Search queries the metadata provider
func (s *CollectionService) Search(ctx context.Context, query string) ([]domain.GameSearchResult, error) {
	return s.provider.Search(ctx, query)
}

// Lookup fetches one game from the metadata provider
func (s *CollectionService) Lookup(ctx context.Context, id int) (*domain.GameMetadata, error) {
	if id < 1 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidGameID, id)
	}
	return s.provider.Lookup(ctx, id)
}

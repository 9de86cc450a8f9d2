package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/playlog/internal/domain"
	"golang.org/x/sync/errgroup"
)

// PlayStore persists plays
type PlayStore interface {
	List(ctx context.Context) ([]domain.Play, error)
	Get(ctx context.Context, id string) (*domain.Play, error)
	Create(ctx context.Context, in domain.NewPlay) (string, error)
}

// CollectionLister lists the game collection
type CollectionLister interface {
	List(ctx context.Context) ([]domain.CollectionItem, error)
}

// PlayService implements the play use cases
type PlayService struct {
	plays      PlayStore
	collection CollectionLister
	notifier   Notifier
	logger     *slog.Logger
}

// NewPlayService creates a play service
func NewPlayService(plays PlayStore, collection CollectionLister, notifier Notifier, logger *slog.Logger) *PlayService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &PlayService{
		plays:      plays,
		collection: collection,
		notifier:   notifier,
		logger:     logger,
	}
}

// List returns all plays, newest first, each carrying the image of its game
// from the collection when one is known
func (s *PlayService) List(ctx context.Context) ([]domain.Play, error) {
	var (
		plays []domain.Play
		items []domain.CollectionItem
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		plays, err = s.plays.List(gctx)
		if err != nil {
			return fmt.Errorf("listing plays: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		items, err = s.collection.List(gctx)
		if err != nil {
			return fmt.Errorf("listing collection: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	images := imagesByID(items)
	for i := range plays {
		enrich(&plays[i], images)
	}
	return plays, nil
}

// Get returns one enriched play, or domain.ErrPlayNotFound
func (s *PlayService) Get(ctx context.Context, id string) (*domain.Play, error) {
	play, err := s.plays.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	items, err := s.collection.List(ctx)
	if err != nil {
		// The play itself is still useful without its image
		s.logger.Warn("collection unavailable for play enrichment", "play_id", id, "error", err)
		return play, nil
	}
	enrich(play, imagesByID(items))
	return play, nil
}

// Create validates and records a play, returning its id. Names are trimmed
// and players with blank names are dropped before validation.
func (s *PlayService) Create(ctx context.Context, in domain.NewPlay) (string, error) {
	in = normalizePlay(in)
	if err := validateStruct(in, domain.ErrInvalidPlay); err != nil {
		return "", err
	}

	id, err := s.plays.Create(ctx, in)
	if err != nil {
		return "", fmt.Errorf("creating play: %w", err)
	}

	s.notifier.PlaysChanged(domain.PlayCreatedEvent{PlayID: id, Game: in.Game})
	return id, nil
}

func normalizePlay(in domain.NewPlay) domain.NewPlay {
	out := domain.NewPlay{
		Date:       strings.TrimSpace(in.Date),
		Game:       strings.TrimSpace(in.Game),
		MetadataID: in.MetadataID,
		CreatedBy:  strings.TrimSpace(in.CreatedBy),
		Players:    make([]domain.PlayerInput, 0, len(in.Players)),
	}
	for _, p := range in.Players {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			continue
		}
		out.Players = append(out.Players, domain.PlayerInput{Name: name, Score: p.Score})
	}
	return out
}

func imagesByID(items []domain.CollectionItem) map[int]string {
	images := make(map[int]string, len(items))
	for _, it := range items {
		if img := it.DisplayImage(); img != "" {
			if _, ok := images[it.ExternalID]; !ok {
				images[it.ExternalID] = img
			}
		}
	}
	return images
}

func enrich(p *domain.Play, images map[int]string) {
	if p.MetadataID == nil {
		return
	}
	if img, ok := images[*p.MetadataID]; ok {
		p.GameThumbnailURL = img
	}
}

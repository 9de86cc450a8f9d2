package service

import (
	"context"

	"github.com/playlog/internal/domain"
	"github.com/playlog/internal/stats"
)

// PlayLister lists enriched plays
type PlayLister interface {
	List(ctx context.Context) ([]domain.Play, error)
}

// StatsService computes statistics over all recorded plays
type StatsService struct {
	plays PlayLister
}

// NewStatsService creates a stats service
func NewStatsService(plays PlayLister) *StatsService {
	return &StatsService{plays: plays}
}

// Overview returns totals, per-player results and play counts per game
func (s *StatsService) Overview(ctx context.Context) (domain.OverviewStats, error) {
	plays, err := s.plays.List(ctx)
	if err != nil {
		return domain.OverviewStats{}, err
	}
	return stats.Overview(plays), nil
}

// Games returns play counts per game, most played first
func (s *StatsService) Games(ctx context.Context) ([]domain.GamePlayCount, error) {
	plays, err := s.plays.List(ctx)
	if err != nil {
		return nil, err
	}
	return stats.PlayCountByGame(plays), nil
}

// Game returns stats for the game with the given slug
func (s *StatsService) Game(ctx context.Context, slug string) (*domain.GameStats, error) {
	plays, err := s.plays.List(ctx)
	if err != nil {
		return nil, err
	}
	return stats.Game(plays, slug)
}

// Players returns every player's results, most active first
func (s *StatsService) Players(ctx context.Context) ([]domain.PlayerStats, error) {
	plays, err := s.plays.List(ctx)
	if err != nil {
		return nil, err
	}
	return stats.Overview(plays).Players, nil
}

// Player returns one player's results
func (s *StatsService) Player(ctx context.Context, name string) (*domain.PlayerStats, error) {
	plays, err := s.plays.List(ctx)
	if err != nil {
		return nil, err
	}
	return stats.Player(plays, name)
}

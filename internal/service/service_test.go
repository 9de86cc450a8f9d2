package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/playlog/internal/cache"
	"github.com/playlog/internal/config"
	"github.com/playlog/internal/domain"
	"github.com/playlog/internal/repository"
	"github.com/playlog/internal/tabular"
)

type recordingNotifier struct {
	mu         sync.Mutex
	plays      []domain.PlayCreatedEvent
	collection []domain.CollectionEvent
}

func (n *recordingNotifier) PlaysChanged(e domain.PlayCreatedEvent) {
	n.mu.Lock()
	n.plays = append(n.plays, e)
	n.mu.Unlock()
}

func (n *recordingNotifier) CollectionChanged(e domain.CollectionEvent) {
	n.mu.Lock()
	n.collection = append(n.collection, e)
	n.mu.Unlock()
}

type stubProvider struct {
	games map[int]domain.GameMetadata
}

func (p *stubProvider) Search(_ context.Context, q string) ([]domain.GameSearchResult, error) {
	var out []domain.GameSearchResult
	for id, g := range p.games {
		if strings.Contains(strings.ToLower(g.Name), strings.ToLower(q)) {
			out = append(out, domain.GameSearchResult{ID: id, Name: g.Name})
		}
	}
	return out, nil
}

func (p *stubProvider) Lookup(_ context.Context, id int) (*domain.GameMetadata, error) {
	g, ok := p.games[id]
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	return &g, nil
}

type fixture struct {
	store      *tabular.MemoryStore
	plays      *PlayService
	collection *CollectionService
	stats      *StatsService
	notifier   *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := tabular.NewMemoryStore(tabular.Plays, tabular.Collection)
	c := cache.NewMemory(time.Minute)
	provider := &stubProvider{games: map[int]domain.GameMetadata{
		13:  {ID: 13, Name: "CATAN", ImageURL: "catan-img", ThumbnailURL: "catan-thumb"},
		822: {ID: 822, Name: "Carcassonne", ThumbnailURL: "carc-thumb"},
	}}
	notifier := &recordingNotifier{}

	playRepo := repository.NewPlayRepository(store, c, logger)
	collRepo := repository.NewCollectionRepository(store, c, provider, repository.NewPacer(0), logger)

	plays := NewPlayService(playRepo, collRepo, notifier, logger)
	return &fixture{
		store:      store,
		plays:      plays,
		collection: NewCollectionService(collRepo, provider, &config.CollectionConfig{DefaultLimit: 5, MaxLimit: 10}, notifier, logger),
		stats:      NewStatsService(plays),
		notifier:   notifier,
	}
}

func validPlay() domain.NewPlay {
	return domain.NewPlay{
		Date:      "2024-05-01",
		Game:      " Catan ",
		CreatedBy: "ana@example.com",
		Players:   []domain.PlayerInput{{Name: " Ana "}, {Name: ""}, {Name: "Bo"}},
	}
}

func TestCreatePlayRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id, err := f.plays.Create(ctx, validPlay())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := f.plays.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Game != "Catan" || got.CreatedBy != "ana@example.com" {
		t.Errorf("play = %+v", got)
	}
	if len(got.Players) != 2 || got.Players[0].Name != "Ana" || got.Players[1].Name != "Bo" || got.Players[1].Position != 2 {
		t.Errorf("players = %+v, want Ana(1) Bo(2)", got.Players)
	}

	if len(f.notifier.plays) != 1 || f.notifier.plays[0].PlayID != id {
		t.Errorf("notifications = %+v", f.notifier.plays)
	}
}

func TestCreatePlayValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.NewPlay)
		wantMsg string
	}{
		{"one named player", func(p *domain.NewPlay) { p.Players = []domain.PlayerInput{{Name: "Ana"}, {Name: "  "}} }, "players needs at least 2"},
		{"no players", func(p *domain.NewPlay) { p.Players = nil }, "players"},
		{"blank game", func(p *domain.NewPlay) { p.Game = "   " }, "game is required"},
		{"missing date", func(p *domain.NewPlay) { p.Date = "" }, "date is required"},
		{"bad date", func(p *domain.NewPlay) { p.Date = "01/05/2024" }, "date must be a date"},
		{"missing creator", func(p *domain.NewPlay) { p.CreatedBy = "" }, "created_by is required"},
		{"bad metadata id", func(p *domain.NewPlay) { zero := 0; p.MetadataID = &zero }, "bgg_id must be at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			in := validPlay()
			tt.mutate(&in)

			_, err := f.plays.Create(ctx, in)
			if !errors.Is(err, domain.ErrInvalidPlay) {
				t.Fatalf("Create() error = %v, want ErrInvalidPlay", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}

			rows, _ := f.store.ReadRange(ctx, tabular.Plays)
			if len(rows) != 1 {
				t.Errorf("invalid play was stored: %v", rows)
			}
			if len(f.notifier.plays) != 0 {
				t.Error("notification sent for invalid play")
			}
		})
	}
}

func TestListPlaysEnrichesFromCollection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, id := range []int{13, 822} {
		if err := f.collection.Add(ctx, id); err != nil {
			t.Fatalf("Add(%d) error = %v", id, err)
		}
	}
	if _, err := f.collection.Sync(ctx); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	catan, carc, unknown := 13, 822, 5
	for _, p := range []struct {
		game string
		id   *int
	}{{"Catan", &catan}, {"Carcassonne", &carc}, {"Mystery", &unknown}, {"Plain", nil}} {
		in := validPlay()
		in.Game = p.game
		in.MetadataID = p.id
		if _, err := f.plays.Create(ctx, in); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	plays, err := f.plays.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	images := make(map[string]string)
	for _, p := range plays {
		images[p.Game] = p.GameThumbnailURL
	}
	want := map[string]string{"Catan": "catan-img", "Carcassonne": "carc-thumb", "Mystery": "", "Plain": ""}
	for game, img := range want {
		if images[game] != img {
			t.Errorf("%s image = %q, want %q", game, images[game], img)
		}
	}
}

func TestGetPlayNotFound(t *testing.T) {
	f := newFixture(t)
	if _, err := f.plays.Get(context.Background(), "nope"); !errors.Is(err, domain.ErrPlayNotFound) {
		t.Errorf("Get() error = %v, want ErrPlayNotFound", err)
	}
}

func TestCollectionPageBounds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for id := 1; id <= 23; id++ {
		if err := f.collection.Add(ctx, id); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	tests := []struct {
		page, limit  int
		wantSize     int
		wantPage     int
		wantPages    int
		wantItemsLen int
	}{
		{1, 0, 5, 1, 5, 5},
		{2, 50, 10, 2, 3, 10},
		{9, 10, 10, 3, 3, 3},
		{0, 7, 7, 1, 4, 7},
	}
	for _, tt := range tests {
		got, err := f.collection.Page(ctx, tt.page, tt.limit)
		if err != nil {
			t.Fatalf("Page() error = %v", err)
		}
		if got.PageSize != tt.wantSize || got.Page != tt.wantPage || got.TotalPages != tt.wantPages || len(got.Items) != tt.wantItemsLen {
			t.Errorf("Page(%d, %d) = size %d page %d/%d items %d; want size %d page %d/%d items %d",
				tt.page, tt.limit, got.PageSize, got.Page, got.TotalPages, len(got.Items),
				tt.wantSize, tt.wantPage, tt.wantPages, tt.wantItemsLen)
		}
	}
}

func TestCollectionAddRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if err := f.collection.Add(ctx, 0); !errors.Is(err, domain.ErrInvalidGameID) {
		t.Errorf("Add(0) error = %v, want ErrInvalidGameID", err)
	}
	if err := f.collection.Add(ctx, 13); err != nil {
		t.Fatalf("Add(13) error = %v", err)
	}
	if err := f.collection.Add(ctx, 13); !errors.Is(err, domain.ErrDuplicateGame) {
		t.Errorf("second Add(13) error = %v, want ErrDuplicateGame", err)
	}

	if len(f.notifier.collection) != 1 || f.notifier.collection[0].Action != "added" {
		t.Errorf("notifications = %+v", f.notifier.collection)
	}
}

func TestCollectionSyncAndProviderPassthrough(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.collection.Add(ctx, 13)
	f.collection.Add(ctx, 4040)

	result, err := f.collection.Sync(ctx)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if result != (domain.SyncResult{Synced: 1}) {
		t.Errorf("Sync() = %+v, want 1 synced and the unknown id uncounted", result)
	}
	last := f.notifier.collection[len(f.notifier.collection)-1]
	if last.Action != "synced" || last.Synced != 1 {
		t.Errorf("sync notification = %+v", last)
	}

	results, err := f.collection.Search(ctx, "cat")
	if err != nil || len(results) != 1 || results[0].ID != 13 {
		t.Errorf("Search() = %+v, %v", results, err)
	}
	if _, err := f.collection.Lookup(ctx, -1); !errors.Is(err, domain.ErrInvalidGameID) {
		t.Errorf("Lookup(-1) error = %v", err)
	}
	if _, err := f.collection.Lookup(ctx, 99); !errors.Is(err, domain.ErrGameNotFound) {
		t.Errorf("Lookup(99) error = %v", err)
	}
}

func TestStatsService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, order := range [][]string{{"Ana", "Bo"}, {"Bo", "Ana"}} {
		in := validPlay()
		in.Players = []domain.PlayerInput{{Name: order[0]}, {Name: order[1]}}
		if _, err := f.plays.Create(ctx, in); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	overview, err := f.stats.Overview(ctx)
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}
	if overview.TotalPlays != 2 || len(overview.Players) != 2 {
		t.Fatalf("Overview() = %+v", overview)
	}
	for _, p := range overview.Players {
		if p.Wins != 1 || p.WinRate != 0.5 || p.AveragePosition != 1.5 {
			t.Errorf("player %+v", p)
		}
	}

	games, _ := f.stats.Games(ctx)
	if len(games) != 1 || games[0].Plays != 2 {
		t.Errorf("Games() = %+v", games)
	}

	game, err := f.stats.Game(ctx, "catan")
	if err != nil || game.Plays != 2 || len(game.WinsPerPlayer) != 2 {
		t.Errorf("Game() = %+v, %v", game, err)
	}
	if _, err := f.stats.Game(ctx, "azul"); !errors.Is(err, domain.ErrGameNotFound) {
		t.Errorf("Game(azul) error = %v", err)
	}

	players, _ := f.stats.Players(ctx)
	if len(players) != 2 {
		t.Errorf("Players() = %+v", players)
	}
	ana, err := f.stats.Player(ctx, "Ana")
	if err != nil || ana.TotalPlays != 2 {
		t.Errorf("Player(Ana) = %+v, %v", ana, err)
	}
	if _, err := f.stats.Player(ctx, "Zed"); !errors.Is(err, domain.ErrPlayerNotFound) {
		t.Errorf("Player(Zed) error = %v", err)
	}
}

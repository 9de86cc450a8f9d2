// Package stats derives play statistics. All functions are pure and never
// modify their input.
package stats

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/playlog/internal/domain"
)

// unnamedPlayer groups players recorded with a blank name
const unnamedPlayer = "?"

// Slug converts a game name to its URL form: "Camel Up" becomes "camel-up"
func Slug(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

func displayName(name string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return unnamedPlayer
}

// PlayCountByGame counts plays per exact game name, most played first
func PlayCountByGame(plays []domain.Play) []domain.GamePlayCount {
	index := make(map[string]int)
	counts := make([]domain.GamePlayCount, 0)

	for _, p := range plays {
		i, ok := index[p.Game]
		if !ok {
			i = len(counts)
			index[p.Game] = i
			counts = append(counts, domain.GamePlayCount{Game: p.Game})
		}
		counts[i].Plays++
		if counts[i].ThumbnailURL == "" && p.GameThumbnailURL != "" {
			counts[i].ThumbnailURL = p.GameThumbnailURL
		}
	}

	slices.SortStableFunc(counts, func(a, b domain.GamePlayCount) int {
		return cmp.Compare(b.Plays, a.Plays)
	})
	return counts
}

type tally struct {
	plays       int
	wins        int
	podiums     int
	positionSum int
}

func (t *tally) add(position int) {
	t.plays++
	if position == 1 {
		t.wins++
	}
	if position <= 3 {
		t.podiums++
	}
	t.positionSum += position
}

func (t tally) stats(name string) domain.PlayerStats {
	s := domain.PlayerStats{
		Name:       name,
		TotalPlays: t.plays,
		Wins:       t.wins,
		Podiums:    t.podiums,
	}
	if t.plays > 0 {
		n := float64(t.plays)
		s.WinRate = float64(t.wins) / n
		s.PodiumRate = float64(t.podiums) / n
		s.AveragePosition = math.Round(float64(t.positionSum)/n*10) / 10
	}
	return s
}

// Overview aggregates every player's results. Players are keyed by trimmed
// name and listed by number of plays, most active first.
func Overview(plays []domain.Play) domain.OverviewStats {
	index := make(map[string]int)
	var names []string
	var tallies []tally

	for _, p := range plays {
		for _, pl := range p.Players {
			name := displayName(pl.Name)
			i, ok := index[name]
			if !ok {
				i = len(tallies)
				index[name] = i
				names = append(names, name)
				tallies = append(tallies, tally{})
			}
			tallies[i].add(pl.Position)
		}
	}

	players := make([]domain.PlayerStats, len(tallies))
	for i, t := range tallies {
		players[i] = t.stats(names[i])
	}
	slices.SortStableFunc(players, func(a, b domain.PlayerStats) int {
		return cmp.Compare(b.TotalPlays, a.TotalPlays)
	})

	return domain.OverviewStats{
		TotalPlays:      len(plays),
		Players:         players,
		MostPlayedGames: PlayCountByGame(plays),
	}
}

// GameNameBySlug returns the first game name, in play order, whose slug
// matches. Distinct names sharing a slug resolve to the first one seen.
func GameNameBySlug(plays []domain.Play, slug string) (string, bool) {
	want := strings.ToLower(strings.TrimSpace(slug))
	seen := make(map[string]struct{})
	for _, p := range plays {
		if p.Game == "" {
			continue
		}
		if _, ok := seen[p.Game]; ok {
			continue
		}
		seen[p.Game] = struct{}{}
		if Slug(p.Game) == want {
			return p.Game, true
		}
	}
	return "", false
}

// Game returns play and win counts for the game identified by slug, or
// domain.ErrGameNotFound
func Game(plays []domain.Play, slug string) (*domain.GameStats, error) {
	name, ok := GameNameBySlug(plays, slug)
	if !ok {
		return nil, domain.ErrGameNotFound
	}

	index := make(map[string]int)
	wins := make([]domain.PlayerWins, 0)
	count := 0

	for _, p := range plays {
		if p.Game != name {
			continue
		}
		count++
		for _, pl := range p.Players {
			if pl.Position != 1 {
				continue
			}
			winner := displayName(pl.Name)
			i, ok := index[winner]
			if !ok {
				i = len(wins)
				index[winner] = i
				wins = append(wins, domain.PlayerWins{Name: winner})
			}
			wins[i].Wins++
		}
	}

	slices.SortStableFunc(wins, func(a, b domain.PlayerWins) int {
		return cmp.Compare(b.Wins, a.Wins)
	})

	return &domain.GameStats{
		Game:          name,
		Plays:         count,
		WinsPerPlayer: wins,
	}, nil
}

// Player returns the results of the player with the given name, compared
// after trimming. A blank name or one with no plays yields
// domain.ErrPlayerNotFound.
func Player(plays []domain.Play, name string) (*domain.PlayerStats, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrPlayerNotFound
	}

	var t tally
	for _, p := range plays {
		for _, pl := range p.Players {
			if strings.TrimSpace(pl.Name) == name {
				t.add(pl.Position)
			}
		}
	}
	if t.plays == 0 {
		return nil, domain.ErrPlayerNotFound
	}

	s := t.stats(name)
	return &s, nil
}

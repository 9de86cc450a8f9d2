package domain

// GamePlayCount is the number of plays recorded for a game
type GamePlayCount struct {
	Game         string `json:"game"`
	Plays        int    `json:"plays"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// PlayerStats holds a player's aggregated results
type PlayerStats struct {
	Name            string  `json:"name"`
	TotalPlays      int     `json:"total_plays"`
	Wins            int     `json:"wins"`
	WinRate         float64 `json:"win_rate"`
	Podiums         int     `json:"podiums"`
	PodiumRate      float64 `json:"podium_rate"`
	AveragePosition float64 `json:"average_position"`
}

// OverviewStats summarizes all plays
type OverviewStats struct {
	TotalPlays      int             `json:"total_plays"`
	Players         []PlayerStats   `json:"players"`
	MostPlayedGames []GamePlayCount `json:"most_played_games"`
}

// PlayerWins counts wins of one player in one game
type PlayerWins struct {
	Name string `json:"name"`
	Wins int    `json:"wins"`
}

// GameStats holds per-game aggregates
type GameStats struct {
	Game          string       `json:"game"`
	Plays         int          `json:"plays"`
	WinsPerPlayer []PlayerWins `json:"wins_per_player"`
}

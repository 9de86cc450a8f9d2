package domain

// PlayerResult is one participant's outcome within a play
type PlayerResult struct {
	Position int      `json:"position"`
	Name     string   `json:"name"`
	Score    *float64 `json:"score,omitempty"`
}

// Play is a recorded game session with its ranked players
type Play struct {
	ID               string         `json:"id"`
	Date             string         `json:"date"`
	Game             string         `json:"game"`
	MetadataID       *int           `json:"bgg_id,omitempty"`
	CreatedBy        string         `json:"created_by"`
	CreatedAt        string         `json:"created_at"`
	GameThumbnailURL string         `json:"game_thumbnail_url,omitempty"`
	Players          []PlayerResult `json:"players"`
}

// PlayerInput is a player entry of a play submission, in finishing order
type PlayerInput struct {
	Name  string   `json:"name" validate:"required"`
	Score *float64 `json:"score,omitempty"`
}

// NewPlay is a request to record a play. Players are listed in finishing
// order; the first entry is the winner.
type NewPlay struct {
	Date       string        `json:"date" validate:"required,datetime=2006-01-02"`
	Game       string        `json:"game" validate:"required"`
	MetadataID *int          `json:"bgg_id,omitempty" validate:"omitempty,min=1"`
	CreatedBy  string        `json:"created_by" validate:"required"`
	Players    []PlayerInput `json:"players" validate:"min=2,dive"`
}

// PlayCreatedEvent is published after a play has been stored
type PlayCreatedEvent struct {
	PlayID string `json:"play_id"`
	Game   string `json:"game"`
}

package domain

// CollectionItem is a game the user owns
type CollectionItem struct {
	ExternalID   int    `json:"bgg_id"`
	Name         string `json:"name"`
	Year         *int   `json:"year,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// DisplayImage returns the image to show for the item, preferring the full
// image over the thumbnail
func (c CollectionItem) DisplayImage() string {
	if c.ImageURL != "" {
		return c.ImageURL
	}
	return c.ThumbnailURL
}

// CollectionPage is one window of the collection
type CollectionPage struct {
	Items      []CollectionItem `json:"items"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

// SyncResult summarizes a collection metadata sync
type SyncResult struct {
	Synced int `json:"synced"`
	Errors int `json:"errors"`
}

// GameSearchResult is a metadata provider search hit
type GameSearchResult struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Year *int   `json:"year,omitempty"`
}

// GameMetadata is the metadata provider's record for a game
type GameMetadata struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Year         *int   `json:"year,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// CollectionEvent is published after the collection changed
type CollectionEvent struct {
	Action string `json:"action"`
	BGGID  int    `json:"bgg_id,omitempty"`
	Synced int    `json:"synced,omitempty"`
	Errors int    `json:"errors,omitempty"`
}

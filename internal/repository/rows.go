package repository

import (
	"math"
	"strconv"
	"strings"

	"github.com/playlog/internal/tabular"
)

// Plays table columns
const (
	colPlayID = iota
	colDate
	colGame
	colMetadataID
	colCreatedBy
	colCreatedAt
	colPosition
	colPlayerName
	colScore
)

// Collection table columns
const (
	colExternalID = iota
	colName
	colYear
	colImageURL
	colThumbnailURL
)

// createdAtLayout is fixed width so timestamps order correctly as strings
const createdAtLayout = "2006-01-02T15:04:05.000Z"

// playRow is one stored row of the plays table: one player of one play
type playRow struct {
	PlayID     string
	Date       string
	Game       string
	MetadataID *int
	CreatedBy  string
	CreatedAt  string
	Position   int
	PlayerName string
	Score      *float64
}

// parsePlayRow decodes a plays table row. Rows without a play id or a
// positive position cannot be placed in a play and are rejected.
func parsePlayRow(row []string) (playRow, bool) {
	id := strings.TrimSpace(tabular.Cell(row, colPlayID))
	if id == "" {
		return playRow{}, false
	}
	pos, ok := parsePositiveInt(tabular.Cell(row, colPosition))
	if !ok {
		return playRow{}, false
	}

	return playRow{
		PlayID:     id,
		Date:       tabular.Cell(row, colDate),
		Game:       tabular.Cell(row, colGame),
		MetadataID: optionalInt(tabular.Cell(row, colMetadataID)),
		CreatedBy:  tabular.Cell(row, colCreatedBy),
		CreatedAt:  tabular.Cell(row, colCreatedAt),
		Position:   pos,
		PlayerName: tabular.Cell(row, colPlayerName),
		Score:      optionalFloat(tabular.Cell(row, colScore)),
	}, true
}

func parsePositiveInt(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func optionalInt(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &n
}

func optionalFloat(s string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func formatOptionalInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func formatOptionalFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

// Package tabular defines the row-oriented storage the repositories persist
// to: a spreadsheet-like table of string cells whose first row is a header.
package tabular

import "context"

// Table describes one fixed-width table
type Table struct {
	Name   string
	Header []string
}

// Width returns the number of columns
func (t Table) Width() int {
	return len(t.Header)
}

// Tables used by the repositories
var (
	Plays = Table{
		Name: "plays",
		Header: []string{
			"play_id", "date", "game", "bgg_id", "created_by",
			"created_at", "position", "player_name", "score",
		},
	}

	Collection = Table{
		Name:   "games",
		Header: []string{"bgg_id", "name", "year", "image_url", "thumbnail_url"},
	}
)

// Store reads and writes whole rows of a Table. ReadRange returns the header
// row first. AppendRows adds all rows in one call or none. OverwriteRange
// replaces the table contents, header included, with rows.
type Store interface {
	ReadRange(ctx context.Context, table Table) ([][]string, error)
	AppendRows(ctx context.Context, table Table, rows [][]string) error
	OverwriteRange(ctx context.Context, table Table, rows [][]string) error
}

// Cell returns row[i], or "" when the row is shorter than i+1
func Cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

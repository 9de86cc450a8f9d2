// Package sheets implements tabular.Store on top of a Google Sheets
// spreadsheet, one sheet per table.
package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/goccy/go-json"
	"github.com/playlog/internal/config"
	"github.com/playlog/internal/tabular"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	valueInputRaw = "RAW"
	insertRows    = "INSERT_ROWS"
)

// Store is a tabular.Store backed by one spreadsheet
type Store struct {
	svc           *sheets.Service
	spreadsheetID string
	titles        map[string]string
	logger        *slog.Logger
}

var _ tabular.Store = (*Store)(nil)

// New authenticates with a service account and returns a store for the
// configured spreadsheet
func New(ctx context.Context, cfg *config.SheetsConfig, logger *slog.Logger, extra ...option.ClientOption) (*Store, error) {
	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	switch {
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	case cfg.ClientEmail != "":
		creds, err := serviceAccountJSON(cfg.ClientEmail, cfg.PrivateKey)
		if err != nil {
			return nil, err
		}
		opts = append(opts, option.WithCredentialsJSON(creds))
	}
	opts = append(opts, extra...)

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	return &Store{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		titles: map[string]string{
			tabular.Plays.Name:      cfg.PlaysSheet,
			tabular.Collection.Name: cfg.GamesSheet,
		},
		logger: logger,
	}, nil
}

func serviceAccountJSON(email, key string) ([]byte, error) {
	data, err := json.Marshal(map[string]string{
		"type":         "service_account",
		"client_email": email,
		"private_key":  key,
		"token_uri":    "https://oauth2.googleapis.com/token",
	})
	if err != nil {
		return nil, fmt.Errorf("encoding service account credentials: %w", err)
	}
	return data, nil
}

// sheetTitle returns the sheet a table lives in
func (s *Store) sheetTitle(table tabular.Table) string {
	if title, ok := s.titles[table.Name]; ok && title != "" {
		return title
	}
	return table.Name
}

// a1Range returns the full-column range of table, e.g. 'plays'!A:I
func (s *Store) a1Range(table tabular.Table) string {
	return fmt.Sprintf("%s!A:%s", quoteTitle(s.sheetTitle(table)), columnName(table.Width()))
}

// ReadRange returns every non-empty row of the table's sheet
func (s *Store) ReadRange(ctx context.Context, table tabular.Table) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, s.a1Range(table)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", table.Name, err)
	}

	rows := make([][]string, len(resp.Values))
	for i, raw := range resp.Values {
		row := make([]string, len(raw))
		for j, v := range raw {
			if v != nil {
				row[j] = fmt.Sprint(v)
			}
		}
		rows[i] = row
	}
	return rows, nil
}

// AppendRows appends rows after the table's last row in one request
func (s *Store) AppendRows(ctx context.Context, table tabular.Table, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, s.a1Range(table), valueRange(rows)).
		ValueInputOption(valueInputRaw).
		InsertDataOption(insertRows).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("appending to %s: %w", table.Name, err)
	}
	return nil
}

// OverwriteRange replaces the table's content with rows. The block is
// written from A1 first, then every row below it is cleared.
func (s *Store) OverwriteRange(ctx context.Context, table tabular.Table, rows [][]string) error {
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, s.a1Range(table), valueRange(rows)).
		ValueInputOption(valueInputRaw).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("overwriting %s: %w", table.Name, err)
	}

	_, err = s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, s.tailRange(table, len(rows)), &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("clearing %s below row %d: %w", table.Name, len(rows), err)
	}
	return nil
}

// tailRange returns the range below the first n rows, e.g. 'games'!A4:E
func (s *Store) tailRange(table tabular.Table, n int) string {
	return fmt.Sprintf("%s!A%d:%s", quoteTitle(s.sheetTitle(table)), n+1, columnName(table.Width()))
}

// EnsureHeaders writes the header row of every table whose sheet is empty
func (s *Store) EnsureHeaders(ctx context.Context, tables ...tabular.Table) error {
	for _, t := range tables {
		rows, err := s.ReadRange(ctx, t)
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			continue
		}
		if err := s.OverwriteRange(ctx, t, [][]string{t.Header}); err != nil {
			return err
		}
		s.logger.Info("wrote sheet header", "table", t.Name, "sheet", s.sheetTitle(t))
	}
	return nil
}

func valueRange(rows [][]string) *sheets.ValueRange {
	values := make([][]interface{}, len(rows))
	for i, r := range rows {
		row := make([]interface{}, len(r))
		for j, c := range r {
			row[j] = c
		}
		values[i] = row
	}
	return &sheets.ValueRange{MajorDimension: "ROWS", Values: values}
}

func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// columnName converts a 1-based column number to its letter name
func columnName(n int) string {
	name := ""
	for n > 0 {
		n--
		name = string(rune('A'+n%26)) + name
		n /= 26
	}
	return name
}

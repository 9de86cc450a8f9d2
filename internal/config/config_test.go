package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Cache.TTL != 60*time.Minute {
		t.Errorf("Cache.TTL = %v, want 60m", cfg.Cache.TTL)
	}
	if cfg.BGG.SyncDelay != 400*time.Millisecond {
		t.Errorf("BGG.SyncDelay = %v, want 400ms", cfg.BGG.SyncDelay)
	}
	if cfg.Collection.DefaultLimit != 5 || cfg.Collection.MaxLimit != 10 {
		t.Errorf("Collection limits = %d/%d, want 5/10", cfg.Collection.DefaultLimit, cfg.Collection.MaxLimit)
	}
	if cfg.Store.Backend != BackendMemory {
		t.Errorf("Store.Backend = %q, want memory", cfg.Store.Backend)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestParseExpandsEnvironment(t *testing.T) {
	t.Setenv("PLAYLOG_TEST_SECRET", "s3cret")
	t.Setenv("PLAYLOG_TEST_KEY", `-----BEGIN-----\nabc\n-----END-----`)

	cfg, err := Parse([]byte(`
auth:
  jwt_secret: ${PLAYLOG_TEST_SECRET}
store:
  backend: sheets
sheets:
  spreadsheet_id: sheet-1
  client_email: svc@example.iam.gserviceaccount.com
  private_key: "${PLAYLOG_TEST_KEY}"
cache:
  ttl: 5m
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Auth.JWTSecret != "s3cret" {
		t.Errorf("JWTSecret = %q, want s3cret", cfg.Auth.JWTSecret)
	}
	if cfg.Cache.TTL != 5*time.Minute {
		t.Errorf("Cache.TTL = %v, want 5m", cfg.Cache.TTL)
	}
	if !strings.Contains(cfg.Sheets.PrivateKey, "\nabc\n") {
		t.Errorf("PrivateKey newlines not restored: %q", cfg.Sheets.PrivateKey)
	}
	if cfg.Sheets.PlaysSheet != "plays" || cfg.Sheets.GamesSheet != "games" {
		t.Errorf("sheet names = %q/%q", cfg.Sheets.PlaysSheet, cfg.Sheets.GamesSheet)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing secret",
			yaml:    "store:\n  backend: memory\n",
			wantErr: "auth.jwt_secret",
		},
		{
			name:    "unknown store",
			yaml:    "auth:\n  disabled: true\nstore:\n  backend: mongo\n",
			wantErr: "unknown store.backend",
		},
		{
			name:    "sheets without credentials",
			yaml:    "auth:\n  disabled: true\nstore:\n  backend: sheets\nsheets:\n  spreadsheet_id: x\n",
			wantErr: "credentials_file",
		},
		{
			name:    "unknown cache",
			yaml:    "auth:\n  disabled: true\ncache:\n  backend: memcached\n",
			wantErr: "unknown cache.backend",
		},
		{
			name:    "limits inverted",
			yaml:    "auth:\n  disabled: true\ncollection:\n  default_limit: 20\n  max_limit: 10\n",
			wantErr: "default_limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("PLAYLOG_DOTENV_VALUE=from-file\n"), 0o600); err != nil {
		t.Fatalf("writing .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("PLAYLOG_DOTENV_VALUE") })

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv("PLAYLOG_DOTENV_VALUE"); got != "from-file" {
		t.Errorf("PLAYLOG_DOTENV_VALUE = %q, want from-file", got)
	}
}

func TestSyncDelay(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want time.Duration
	}{
		{"unset uses default", "auth:\n  disabled: true\n", 400 * time.Millisecond},
		{"explicit delay", "auth:\n  disabled: true\nbgg:\n  sync_delay: 1s\n", time.Second},
		{"negative disables pacing", "auth:\n  disabled: true\nbgg:\n  sync_delay: -1s\n", -time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.yaml))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if cfg.BGG.SyncDelay != tt.want {
				t.Errorf("SyncDelay = %v, want %v", cfg.BGG.SyncDelay, tt.want)
			}
		})
	}
}

package bgg

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/playlog/internal/config"
	"github.com/playlog/internal/domain"
)

const searchXML = `<?xml version="1.0" encoding="utf-8"?>
<items total="3" termsofuse="https://boardgamegeek.com/xmlapi/termsofuse">
	<item type="boardgame" id="13">
		<name type="primary" value="CATAN"/>
		<yearpublished value="1995" />
	</item>
	<item type="boardgameexpansion" id="926">
		<name type="primary" value="CATAN: Seafarers"/>
		<yearpublished value="1997" />
	</item>
	<item type="boardgame" id="278">
		<name type="alternate" value="Catan Card Game"/>
	</item>
</items>`

const thingXML = `<?xml version="1.0" encoding="utf-8"?>
<items termsofuse="https://boardgamegeek.com/xmlapi/termsofuse">
	<item type="boardgame" id="13">
		<thumbnail>https://cf.geekdo-images.com/thumb.jpg</thumbnail>
		<image>https://cf.geekdo-images.com/full.jpg</image>
		<name type="alternate" sortindex="1" value="Die Siedler von Catan" />
		<name type="primary" sortindex="1" value="CATAN" />
		<yearpublished value="1995" />
	</item>
</items>`

func newTestClient(t *testing.T, handler http.HandlerFunc, token string) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.BGGConfig{
		BaseURL:   srv.URL + "/",
		Token:     token,
		UserAgent: "playlog-test",
		Timeout:   2 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSearch(t *testing.T) {
	var gotQuery, gotType, gotAuth, gotUA string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %s, want /search", r.URL.Path)
		}
		gotQuery = r.URL.Query().Get("query")
		gotType = r.URL.Query().Get("type")
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
		io.WriteString(w, searchXML)
	}, " tok ")

	results, err := c.Search(context.Background(), "  settlers   of catan ")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if gotQuery != "settlers of catan" || gotType != "boardgame" {
		t.Errorf("query = %q type = %q", gotQuery, gotType)
	}
	if gotAuth != "Bearer tok" || gotUA != "playlog-test" {
		t.Errorf("headers auth=%q ua=%q", gotAuth, gotUA)
	}

	if len(results) != 2 {
		t.Fatalf("results = %+v, want 2 boardgames", results)
	}
	if results[0].ID != 13 || results[0].Name != "CATAN" || results[0].Year == nil || *results[0].Year != 1995 {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[1].Name != "Catan Card Game" || results[1].Year != nil {
		t.Errorf("results[1] = %+v", results[1])
	}
}

func TestSearchBlankQuerySkipsRequest(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true }, "")

	results, err := c.Search(context.Background(), "   ")
	if err != nil || len(results) != 0 {
		t.Fatalf("Search(blank) = %v, %v", results, err)
	}
	if called {
		t.Error("blank query reached the API")
	}
}

func TestLookup(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/thing" || r.URL.Query().Get("id") != "13" {
			t.Errorf("unexpected request %s", r.URL)
		}
		gotAuth = r.Header.Get("Authorization")
		io.WriteString(w, thingXML)
	}, "")

	game, err := c.Lookup(context.Background(), 13)
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization sent without token: %q", gotAuth)
	}
	want := domain.GameMetadata{
		ID:           13,
		Name:         "CATAN",
		ImageURL:     "https://cf.geekdo-images.com/full.jpg",
		ThumbnailURL: "https://cf.geekdo-images.com/thumb.jpg",
	}
	if game.ID != want.ID || game.Name != want.Name || game.ImageURL != want.ImageURL || game.ThumbnailURL != want.ThumbnailURL {
		t.Errorf("Lookup() = %+v, want %+v", game, want)
	}
	if game.Year == nil || *game.Year != 1995 {
		t.Errorf("Year = %v, want 1995", game.Year)
	}
}

func TestLookupNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<items termsofuse="x"></items>`)
	}, "")

	if _, err := c.Lookup(context.Background(), 999999); !errors.Is(err, domain.ErrGameNotFound) {
		t.Errorf("Lookup() error = %v, want ErrGameNotFound", err)
	}
}

func TestNonOKStatusIsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}, "")

	_, err := c.Lookup(context.Background(), 13)
	if err == nil || errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("Lookup() error = %v, want transport error", err)
	}
	if _, err := c.Search(context.Background(), "catan"); err == nil {
		t.Error("Search() expected error on 429")
	}
}

func TestMalformedXMLIsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<items><item")
	}, "")

	if _, err := c.Lookup(context.Background(), 13); err == nil {
		t.Error("Lookup() expected decode error")
	}
}

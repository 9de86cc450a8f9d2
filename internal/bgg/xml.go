package bgg

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/playlog/internal/domain"
)

const (
	itemTypeBoardGame = "boardgame"
	nameTypePrimary   = "primary"
	unknownName       = "Unknown"
)

type itemsDoc struct {
	XMLName xml.Name  `xml:"items"`
	Items   []xmlItem `xml:"item"`
}

type xmlItem struct {
	Type          string    `xml:"type,attr"`
	ID            string    `xml:"id,attr"`
	Names         []xmlName `xml:"name"`
	YearPublished *xmlValue `xml:"yearpublished"`
	Image         string    `xml:"image"`
	Thumbnail     string    `xml:"thumbnail"`
}

type xmlName struct {
	Type  string `xml:"type,attr"`
	Value string `xml:"value,attr"`
}

type xmlValue struct {
	Value string `xml:"value,attr"`
}

// primaryName returns the primary name, else the first name, else "Unknown"
func (it xmlItem) primaryName() string {
	for _, n := range it.Names {
		if n.Type == nameTypePrimary && n.Value != "" {
			return n.Value
		}
	}
	for _, n := range it.Names {
		if n.Value != "" {
			return n.Value
		}
	}
	return unknownName
}

func (it xmlItem) year() *int {
	if it.YearPublished == nil {
		return nil
	}
	y, err := strconv.Atoi(strings.TrimSpace(it.YearPublished.Value))
	if err != nil {
		return nil
	}
	return &y
}

func parseSearch(data []byte) ([]domain.GameSearchResult, error) {
	var doc itemsDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	results := make([]domain.GameSearchResult, 0, len(doc.Items))
	for _, it := range doc.Items {
		if it.Type != itemTypeBoardGame {
			continue
		}
		id, err := strconv.Atoi(it.ID)
		if err != nil {
			continue
		}
		results = append(results, domain.GameSearchResult{
			ID:   id,
			Name: it.primaryName(),
			Year: it.year(),
		})
	}
	return results, nil
}

// parseThing returns the first item of a thing response, or nil when the
// response has none
func parseThing(data []byte) (*domain.GameMetadata, error) {
	var doc itemsDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Items) == 0 {
		return nil, nil
	}

	it := doc.Items[0]
	id, err := strconv.Atoi(it.ID)
	if err != nil {
		return nil, nil
	}
	return &domain.GameMetadata{
		ID:           id,
		Name:         it.primaryName(),
		Year:         it.year(),
		ImageURL:     strings.TrimSpace(it.Image),
		ThumbnailURL: strings.TrimSpace(it.Thumbnail),
	}, nil
}

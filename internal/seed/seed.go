// Package seed loads the static event list that is shown next to stored
// events.  Static events have no durable id; the catalog identifies them by
// their title+date fingerprint.
package seed

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/eventica/internal/catalog"
)

// record mirrors one entry of the static list.  Dates are DD-MM-YYYY.
type record struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Date        string `json:"date" yaml:"date"`
	Time        string `json:"time" yaml:"time"`
	Location    string `json:"location" yaml:"location"`
	Image       string `json:"image" yaml:"image"`
	Website     string `json:"website,omitempty" yaml:"website,omitempty"`
}

// LoadFile reads a .json, .yaml or .yml event list.  An empty path yields
// no events.
func LoadFile(path string) ([]catalog.Event, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read events file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(raw)
	case ".json":
		return ParseJSON(raw)
	default:
		return nil, fmt.Errorf("unsupported events file extension %q", filepath.Ext(path))
	}
}

func ParseJSON(raw []byte) ([]catalog.Event, error) {
	var recs []record
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, fmt.Errorf("parse events json: %w", err)
	}
	return convert(recs), nil
}

func ParseYAML(raw []byte) ([]catalog.Event, error) {
	var recs []record
	if err := yaml.Unmarshal(raw, &recs); err != nil {
		return nil, fmt.Errorf("parse events yaml: %w", err)
	}
	return convert(recs), nil
}

// convert keeps entries with a title.  Title and date stay byte-for-byte as
// written: the web client fingerprints the raw values, and the catalog trims
// dates when parsing.  Unparseable dates are kept too.
func convert(recs []record) []catalog.Event {
	out := make([]catalog.Event, 0, len(recs))
	for _, r := range recs {
		if strings.TrimSpace(r.Title) == "" {
			continue
		}
		out = append(out, catalog.Event{
			Title:       r.Title,
			Description: strings.TrimSpace(r.Description),
			Date:        r.Date,
			Time:        r.Time,
			Location:    strings.TrimSpace(r.Location),
			Image:       r.Image,
			Website:     r.Website,
		})
	}
	return out
}

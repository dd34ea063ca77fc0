// Package connector holds the source-specific scraper implementations and
// the static registration table that wires them into the registry.
package connector

import (
	"log"

	"studio-availability-backend/internal/scrape"
)

// RegisterAll registers every known connector. A failed registration leaves
// that source in error status and does not block the others.
func RegisterAll(registry *scrape.Registry, cfg scrape.FetchConfig) {
	table := []struct {
		sourceID string
		factory  scrape.Factory
		meta     scrape.Metadata
	}{
		{
			sourceID: "pad_studio",
			factory:  func() (scrape.Strategy, error) { return NewPadStudio(cfg) },
			meta: scrape.Metadata{
				Description:  "PADstudio reservation system",
				Version:      "1.0.0",
				RequiresAuth: true,
				BaseURL:      "https://www.reserve1.jp",
			},
		},
		{
			sourceID: "studiol",
			factory:  func() (scrape.Strategy, error) { return NewStudioL(cfg) },
			meta: scrape.Metadata{
				Description:  "Studio-OL reservation system",
				Version:      "1.0.0",
				RequiresAuth: false,
				BaseURL:      "https://studi-ol.com",
			},
		},
		{
			sourceID: "studio246",
			factory:  func() (scrape.Strategy, error) { return NewStudio246(cfg) },
			meta: scrape.Metadata{
				Description:  "Studio246 reservation system",
				Version:      "1.0.0",
				RequiresAuth: false,
				BaseURL:      "https://www.studio246.net/reserve/",
			},
		},
	}

	for _, row := range table {
		if err := registry.Register(row.sourceID, row.factory, row.meta); err != nil {
			log.Printf("connector: %v", err)
		}
	}
}

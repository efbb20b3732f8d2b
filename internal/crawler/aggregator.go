package crawler

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/WilliamsRotolo/autocaricamento/helpers"
	"github.com/WilliamsRotolo/autocaricamento/logger"
)

// Aggregator crawls every section and merges the results
type Aggregator struct {
	Sections   *SectionCrawler
	Categories []CategoryID

	// Rand shuffles the merged listings; nil means a freshly seeded source
	Rand *rand.Rand
}

// NewAggregator crawls all configured categories with sections. A non-zero
// seed makes the final order reproducible.
func NewAggregator(sections *SectionCrawler, seed uint64) *Aggregator {
	a := &Aggregator{
		Sections:   sections,
		Categories: Categories(),
	}
	if seed != 0 {
		a.Rand = rand.New(rand.NewPCG(seed, seed))
	}
	return a
}

// Run crawls the categories one after another, drops links already seen in
// an earlier category, shuffles the result and numbers it from 1
func (a *Aggregator) Run(ctx context.Context, sink helpers.LogSink) ([]Listing, error) {
	categories := a.Categories
	if len(categories) == 0 {
		categories = Categories()
	}

	log := logger.ForAggregator()
	start := time.Now()

	var all []Listing
	seen := make(map[string]bool)

	for _, id := range categories {
		helpers.Logf(sink, "=== Section: %s ===", id)

		listings, err := a.Sections.Crawl(ctx, id, sink)
		if err != nil {
			return nil, err
		}

		added := 0
		for _, listing := range listings {
			if seen[listing.Link] {
				continue
			}
			seen[listing.Link] = true
			all = append(all, listing)
			added++
		}

		helpers.Logf(sink, "=== %s: %d listings total ===", id, len(listings))
		log.Info().
			Str("section", string(id)).
			Int("found", len(listings)).
			Int("added", added).
			Msg("Section merged")
	}

	a.random().Shuffle(len(all), func(i, j int) {
		all[i], all[j] = all[j], all[i]
	})
	AssignPositions(all)

	helpers.Logf(sink, "Total listings: %d", len(all))
	log.Info().
		Int("total", len(all)).
		Dur("duration", time.Since(start)).
		Msg("Crawl completed")

	return all, nil
}

func (a *Aggregator) random() *rand.Rand {
	if a.Rand != nil {
		return a.Rand
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

package search

import (
	"github.com/sells-group/places-cli/internal/model"
)

// PageResult is one page of normalized records. An empty NextPageToken means
// no further pages exist for the query that produced it.
type PageResult struct {
	Records       []model.PlaceRecord
	NextPageToken string
}

// Aggregate deduplicates records streaming in from pages and tiles. It is
// owned by exactly one search/export operation; concurrent tile workers must
// serialize Ingest calls. The first-seen record for an ID wins — later
// duplicates never overwrite earlier data.
type Aggregate struct {
	max     int
	seen    map[string]struct{}
	ordered []model.PlaceRecord
}

// NewAggregate creates an empty aggregate. max bounds the number of retained
// records; 0 means unbounded.
func NewAggregate(max int) *Aggregate {
	return &Aggregate{
		max:  max,
		seen: make(map[string]struct{}),
	}
}

// Ingest admits the page's records, dropping records with empty IDs and IDs
// already seen. Once the cap is reached no further records are admitted;
// callers should check Full and stop fetching. Returns the number of records
// admitted.
func (a *Aggregate) Ingest(page PageResult) int {
	admitted := 0
	for _, r := range page.Records {
		if a.Full() {
			break
		}
		if r.ID == "" {
			continue
		}
		if _, dup := a.seen[r.ID]; dup {
			continue
		}
		a.seen[r.ID] = struct{}{}
		a.ordered = append(a.ordered, r)
		admitted++
	}
	return admitted
}

// Full reports whether the configured cap has been reached.
func (a *Aggregate) Full() bool {
	return a.max > 0 && len(a.ordered) >= a.max
}

// Len returns the number of retained records.
func (a *Aggregate) Len() int {
	return len(a.ordered)
}

// Records returns the retained records in first-seen order.
func (a *Aggregate) Records() []model.PlaceRecord {
	return a.ordered
}

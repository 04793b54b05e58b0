package search

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/places-cli/internal/model"
	"github.com/sells-group/places-cli/pkg/google"
)

// DefaultTokenDelay is the documented minimum wait before a continuation
// token becomes valid. Reusing a token sooner is a known cause of upstream
// INVALID_REQUEST failures, so the wait is a hard minimum, not best-effort.
const DefaultTokenDelay = 2100 * time.Millisecond

// Paginator drives the provider's cursor-based pagination for one tile.
// Pages within a tile are strictly sequential: each request depends on the
// previous response's token. A Paginator is safe for concurrent use across
// tiles; the limiter is shared so concurrent tiles respect one budget.
type Paginator struct {
	client     google.Client
	limiter    *rate.Limiter
	tokenDelay time.Duration
}

// NewPaginator creates a Paginator. rps gates provider requests per second;
// tokenDelay <= 0 selects DefaultTokenDelay.
func NewPaginator(client google.Client, rps float64, tokenDelay time.Duration) *Paginator {
	if rps <= 0 {
		rps = 10
	}
	if tokenDelay <= 0 {
		tokenDelay = DefaultTokenDelay
	}
	return &Paginator{
		client:     client,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		tokenDelay: tokenDelay,
	}
}

// Run fetches pages for query scoped to tile until the provider reports
// exhaustion, fn returns false, or maxPages is reached (0 = unlimited).
// The cap checks happen before a request is issued — a page is never
// fetched just to discover it is unwanted. On provider failure the error
// (wrapping google.APIError) is returned; pages already delivered through
// fn remain with the caller. The sequence is finite and not restartable.
func (p *Paginator) Run(ctx context.Context, query string, tile model.Viewport, lang, region string, maxPages int, fn func(PageResult) bool) error {
	token := ""
	for page := 0; ; page++ {
		if maxPages > 0 && page >= maxPages {
			return nil
		}

		result, err := p.FetchPage(ctx, query, tile, lang, region, token)
		if err != nil {
			return err
		}

		keep := fn(result)
		if result.NextPageToken == "" || !keep {
			return nil
		}
		token = result.NextPageToken
	}
}

// FetchPage issues exactly one provider request. A non-empty token continues
// a prior search and is preceded by the mandatory token delay.
func (p *Paginator) FetchPage(ctx context.Context, query string, tile model.Viewport, lang, region, token string) (PageResult, error) {
	if token != "" {
		if err := p.waitTokenValid(ctx); err != nil {
			return PageResult{}, err
		}
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return PageResult{}, eris.Wrap(err, "paginate: rate limit wait")
	}

	req := google.TextSearchRequest{
		TextQuery:    query,
		LanguageCode: lang,
		RegionCode:   region,
		PageToken:    token,
	}
	// The zero viewport means an unrestricted text search (HTTP proxy mode).
	if tile != (model.Viewport{}) {
		b := tile.Normalized()
		req.LocationRestriction = &google.LocationRect{
			Rectangle: google.Rectangle{
				Low:  google.LatLng{Latitude: b.South, Longitude: b.West},
				High: google.LatLng{Latitude: b.North, Longitude: b.East},
			},
		}
	}

	resp, err := p.client.TextSearch(ctx, req)
	if err != nil {
		return PageResult{}, eris.Wrap(err, "paginate: fetch page")
	}
	return NormalizePage(resp), nil
}

// waitTokenValid sleeps out the provider's minimum inter-page delay, bailing
// early only on context cancellation.
func (p *Paginator) waitTokenValid(ctx context.Context) error {
	timer := time.NewTimer(p.tokenDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return eris.Wrap(ctx.Err(), "paginate: canceled during token delay")
	}
}

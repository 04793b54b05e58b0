package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/places-cli/internal/geo"
	"github.com/sells-group/places-cli/internal/model"
	"github.com/sells-group/places-cli/pkg/google"
)

// Options configures a Searcher.
type Options struct {
	// RPS gates provider requests per second across all tiles.
	RPS float64
	// TokenDelay is the minimum wait before reusing a continuation token.
	TokenDelay time.Duration
	// Concurrency bounds tiles paginated in parallel.
	Concurrency int
	// DefaultLanguage and DefaultRegion apply when the request omits them
	// or carries an unparseable language code.
	DefaultLanguage string
	DefaultRegion   string
}

// Searcher runs one search/export operation end to end: validate, tile,
// paginate, normalize, aggregate.
type Searcher struct {
	paginator   *Paginator
	concurrency int
	defaultLang string
	defaultReg  string
}

// NewSearcher creates a Searcher backed by the given provider client.
func NewSearcher(client google.Client, opts Options) *Searcher {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	lang := opts.DefaultLanguage
	if lang == "" {
		lang = "he"
	}
	region := opts.DefaultRegion
	if region == "" {
		region = "IL"
	}
	return &Searcher{
		paginator:   NewPaginator(client, opts.RPS, opts.TokenDelay),
		concurrency: concurrency,
		defaultLang: lang,
		defaultReg:  region,
	}
}

// Result is the outcome of one operation. On upstream failure it still
// carries everything aggregated before the failing page.
type Result struct {
	OperationID string
	Query       string
	Language    string
	Viewport    model.Viewport
	Records     []model.PlaceRecord
	// MorePages reports that at least one tile stopped with a live
	// continuation token (bounded preview mode).
	MorePages bool
	Tiles     int
	Pages     int
	StartedAt time.Time
}

// Run executes the request. Input validation happens before any provider
// call. Tiles are paginated concurrently; pages within a tile sequentially;
// ingestion into the operation-owned aggregate is serialized. The returned
// Result is non-nil even when err is non-nil, so callers may keep or export
// the partial dataset after an upstream failure.
func (s *Searcher) Run(ctx context.Context, req model.SearchRequest) (*Result, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, eris.Wrap(ErrInvalidInput, "query must not be empty")
	}
	if err := req.Viewport.Validate(); err != nil {
		return nil, eris.Wrap(ErrInvalidInput, err.Error())
	}

	lang := ResolveLanguage(req.Language, s.defaultLang)
	region := req.Region
	if region == "" {
		region = s.defaultReg
	}
	viewport := req.Viewport.Normalized()
	tiles := geo.Tile(viewport, req.CellMeters)

	result := &Result{
		OperationID: uuid.NewString(),
		Query:       req.Query,
		Language:    lang,
		Viewport:    viewport,
		Tiles:       len(tiles),
		StartedAt:   time.Now().UTC(),
	}

	log := zap.L().With(
		zap.String("operation_id", result.OperationID),
		zap.String("query", req.Query),
		zap.Int("tiles", len(tiles)),
	)
	log.Info("starting place search",
		zap.String("language", lang),
		zap.Float64("cell_meters", req.CellMeters),
		zap.Int("page_cap", req.PageCap),
		zap.Int("max_results", req.MaxResults),
	)

	agg := NewAggregate(req.MaxResults)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, tile := range tiles {
		g.Go(func() error {
			lastToken := ""
			err := s.paginator.Run(gctx, req.Query, tile, lang, region, req.PageCap, func(page PageResult) bool {
				lastToken = page.NextPageToken

				mu.Lock()
				admitted := agg.Ingest(page)
				full := agg.Full()
				result.Pages++
				mu.Unlock()

				log.Debug("page ingested",
					zap.Int("tile", i),
					zap.Int("page_records", len(page.Records)),
					zap.Int("admitted", admitted),
				)
				return !full
			})
			if err != nil {
				return eris.Wrapf(err, "search: tile %d", i)
			}

			if lastToken != "" {
				mu.Lock()
				result.MorePages = true
				mu.Unlock()
			}
			return nil
		})
	}

	err := g.Wait()
	result.Records = agg.Records()

	if err != nil {
		log.Warn("search ended with upstream failure",
			zap.Int("records_retained", len(result.Records)),
			zap.Error(err),
		)
		return result, err
	}

	log.Info("search complete",
		zap.Int("records", len(result.Records)),
		zap.Int("pages", result.Pages),
		zap.Bool("more_pages", result.MorePages),
	)
	return result, nil
}

// Page issues a single provider request, mirroring the interactive flow
// where the caller holds the continuation token between calls. The viewport
// is the single tile. Query may be empty when token continues a prior
// search; both empty is invalid.
func (s *Searcher) Page(ctx context.Context, req model.SearchRequest, token string) (PageResult, error) {
	if strings.TrimSpace(req.Query) == "" && token == "" {
		return PageResult{}, eris.Wrap(ErrInvalidInput, "query or continuation token required")
	}
	if err := req.Viewport.Validate(); err != nil {
		return PageResult{}, eris.Wrap(ErrInvalidInput, err.Error())
	}

	lang := ResolveLanguage(req.Language, s.defaultLang)
	region := req.Region
	if region == "" {
		region = s.defaultReg
	}
	return s.paginator.FetchPage(ctx, req.Query, req.Viewport.Normalized(), lang, region, token)
}

package main

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/places-cli/internal/model"
	"github.com/sells-group/places-cli/internal/search"
	"github.com/sells-group/places-cli/pkg/google"
)

// parseViewport parses "north,south,east,west" in decimal degrees.
func parseViewport(s string) (model.Viewport, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return model.Viewport{}, eris.Errorf("viewport: want north,south,east,west, got %q", s)
	}

	vals := make([]float64, 4)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return model.Viewport{}, eris.Wrapf(err, "viewport: component %d", i)
		}
		vals[i] = f
	}

	v := model.Viewport{North: vals[0], South: vals[1], East: vals[2], West: vals[3]}
	if err := v.Validate(); err != nil {
		return model.Viewport{}, err
	}
	return v, nil
}

// newSearcher wires the provider client and pipeline from config.
func newSearcher() *search.Searcher {
	var opts []google.Option
	if cfg.Google.BaseURL != "" {
		opts = append(opts, google.WithBaseURL(cfg.Google.BaseURL))
	}
	client := google.NewClient(cfg.Google.APIKey, opts...)

	return search.NewSearcher(client, search.Options{
		RPS:             cfg.Google.RateLimit,
		TokenDelay:      cfg.Google.PageTokenDelay,
		Concurrency:     cfg.Search.Concurrency,
		DefaultLanguage: cfg.Search.Language,
		DefaultRegion:   cfg.Search.Region,
	})
}

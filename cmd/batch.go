package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/places-cli/internal/model"
)

var (
	batchFile        string
	batchConcurrency int
)

// batchSearch is one saved search in a batch file.
type batchSearch struct {
	Name       string         `yaml:"name"`
	Query      string         `yaml:"query"`
	Viewport   model.Viewport `yaml:"viewport"`
	Language   string         `yaml:"language"`
	Region     string         `yaml:"region"`
	CellMeters float64        `yaml:"cell_meters"`
}

type batchSpec struct {
	Searches []batchSearch `yaml:"searches"`
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run a file of saved searches and export each as a table",
	Long: `Reads a YAML file of saved searches and runs an exhaustive export for
each, naming output files after the search.

File format:
  searches:
    - name: north-bakeries
      query: מאפייה
      viewport: {north: 32.12, south: 32.05, east: 34.84, west: 34.75}
      cell_meters: 1000

Searches run concurrently; a failure in one does not stop the rest.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("export"); err != nil {
			return err
		}

		spec, err := loadBatchFile(batchFile)
		if err != nil {
			return err
		}
		zap.L().Info("batch loaded",
			zap.String("file", batchFile),
			zap.Int("searches", len(spec.Searches)),
		)

		s := newSearcher()

		var failed atomic.Int64
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(batchConcurrency)

		for _, bs := range spec.Searches {
			g.Go(func() error {
				cellMeters := bs.CellMeters
				if cellMeters == 0 {
					cellMeters = cfg.Search.CellMeters
				}
				req := model.SearchRequest{
					Query:      bs.Query,
					Viewport:   bs.Viewport,
					Language:   bs.Language,
					Region:     bs.Region,
					CellMeters: cellMeters,
				}

				path, err := runExportOperation(gctx, s, req, bs.Name)
				if err != nil {
					failed.Add(1)
					zap.L().Error("batch search failed",
						zap.String("name", bs.Name),
						zap.Error(err),
					)
					return nil
				}
				fmt.Printf("%s: wrote %s\n", bs.Name, path)
				return nil
			})
		}
		_ = g.Wait()

		if n := failed.Load(); n > 0 {
			return eris.Errorf("batch: %d of %d searches failed", n, len(spec.Searches))
		}
		return nil
	},
}

func loadBatchFile(path string) (*batchSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "batch: read file")
	}

	var spec batchSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, eris.Wrap(err, "batch: parse yaml")
	}
	if len(spec.Searches) == 0 {
		return nil, eris.New("batch: file has no searches")
	}

	seen := make(map[string]bool, len(spec.Searches))
	for i, bs := range spec.Searches {
		if bs.Name == "" {
			return nil, eris.Errorf("batch: search %d has no name", i)
		}
		if seen[bs.Name] {
			return nil, eris.Errorf("batch: duplicate search name %q", bs.Name)
		}
		seen[bs.Name] = true
		if bs.Query == "" {
			return nil, eris.Errorf("batch: search %q has no query", bs.Name)
		}
		if err := bs.Viewport.Validate(); err != nil {
			return nil, eris.Wrapf(err, "batch: search %q viewport", bs.Name)
		}
	}
	return &spec, nil
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "YAML file of saved searches (required)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 2, "searches to run concurrently")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}

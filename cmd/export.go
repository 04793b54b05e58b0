package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/places-cli/internal/export"
	"github.com/sells-group/places-cli/internal/geo"
	"github.com/sells-group/places-cli/internal/model"
	"github.com/sells-group/places-cli/internal/notify"
	"github.com/sells-group/places-cli/internal/search"
)

var (
	exportViewport   string
	exportLanguage   string
	exportRegion     string
	exportCellMeters float64
	exportFormat     string
	exportOut        string
	exportInView     bool
	exportNotify     bool
)

var exportCmd = &cobra.Command{
	Use:   "export <query>",
	Short: "Crawl a viewport exhaustively and export the places as a table",
	Long: `Splits the viewport into tiles, paginates every tile to exhaustion,
deduplicates across tiles, and writes a CSV or XLSX file.

On upstream failure the places collected so far are still written, and the
command exits non-zero.

Examples:
  places-cli export "מסעדה" --viewport 32.12,32.05,34.84,34.75
  places-cli export "cafe" --viewport 51.52,51.50,-0.08,-0.12 --cell-meters 800 --format xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("export"); err != nil {
			return err
		}
		if exportNotify {
			if err := cfg.Validate("notify"); err != nil {
				return err
			}
		}

		viewport, err := parseViewport(exportViewport)
		if err != nil {
			return eris.Wrap(err, "export: parse viewport")
		}

		cellMeters := exportCellMeters
		if cellMeters == 0 {
			cellMeters = cfg.Search.CellMeters
		}

		req := model.SearchRequest{
			Query:      args[0],
			Viewport:   viewport,
			Language:   exportLanguage,
			Region:     exportRegion,
			CellMeters: cellMeters,
		}

		path, runErr := runExportOperation(ctx, newSearcher(), req, "")
		if path != "" {
			fmt.Printf("wrote %s\n", path)
		}
		return runErr
	},
}

// runExportOperation runs one exhaustive crawl and writes the table. The
// file name gets prefix when non-empty, otherwise the timestamped default.
// A partial dataset after upstream failure is still written; the error is
// returned alongside the written path.
func runExportOperation(ctx context.Context, s *search.Searcher, req model.SearchRequest, prefix string) (string, error) {
	result, runErr := s.Run(ctx, req)
	if result == nil {
		return "", runErr
	}

	records := result.Records
	if exportInView {
		records = geo.InView(records, result.Viewport)
	}

	format := exportFormat
	if format == "" {
		format = cfg.Export.Format
	}

	var buf bytes.Buffer
	var encErr error
	switch format {
	case "csv":
		encErr = export.WriteCSV(&buf, records)
	case "xlsx":
		encErr = export.WriteXLSX(&buf, records)
	default:
		return "", eris.Errorf("export: unknown format %q", format)
	}
	if encErr != nil {
		return "", eris.Wrap(encErr, "export: encode table")
	}

	name := export.Filename(result.StartedAt, format)
	if prefix != "" {
		name = prefix + "_" + name
	}
	outDir := exportOut
	if outDir == "" {
		outDir = cfg.Export.OutDir
	}
	path := filepath.Join(outDir, name)

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", eris.Wrap(err, "export: write file")
	}
	zap.L().Info("table written",
		zap.String("path", path),
		zap.Int("records", len(records)),
		zap.Bool("partial", runErr != nil),
	)

	if exportNotify {
		summary := notify.Summary{
			OperationID: result.OperationID,
			Query:       result.Query,
			Language:    result.Language,
			Viewport:    result.Viewport,
			Success:     runErr == nil,
			ResultCount: len(records),
			Timestamp:   result.StartedAt,
		}
		var attachment *notify.Attachment
		if runErr == nil {
			attachment = &notify.Attachment{
				Filename:    name,
				ContentType: contentTypeFor(format),
				Data:        buf.Bytes(),
			}
		} else {
			summary.Error = runErr.Error()
		}
		notify.Dispatch(ctx, notify.FromConfig(cfg.Notify), summary, attachment)
	}

	return path, runErr
}

func contentTypeFor(format string) string {
	if format == "xlsx" {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

func init() {
	exportCmd.Flags().StringVar(&exportViewport, "viewport", "", "bounds as north,south,east,west (required)")
	exportCmd.Flags().StringVar(&exportLanguage, "language", "", "result language code (default from config)")
	exportCmd.Flags().StringVar(&exportRegion, "region", "", "region bias code (default from config)")
	exportCmd.Flags().Float64Var(&exportCellMeters, "cell-meters", 0, "tile edge in meters (default from config)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "output format: csv or xlsx (default from config)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output directory (default from config)")
	exportCmd.Flags().BoolVar(&exportInView, "in-view", false, "drop places whose coordinates fall outside the viewport")
	exportCmd.Flags().BoolVar(&exportNotify, "notify", false, "send the configured notifications when done")
	_ = exportCmd.MarkFlagRequired("viewport")
	rootCmd.AddCommand(exportCmd)
}

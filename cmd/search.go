package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/places-cli/internal/model"
	"github.com/sells-group/places-cli/internal/search"
)

var (
	searchViewport string
	searchLanguage string
	searchRegion   string
	searchPages    int
	searchMax      int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Preview places matching a query inside a viewport",
	Long: `Runs a bounded search over the viewport and prints the results.

The viewport is searched as a single tile; pagination stops after --pages
pages so previews stay fast. Use the export command for an exhaustive,
tiled crawl.

Examples:
  places-cli search "מאפייה" --viewport 32.12,32.05,34.84,34.75
  places-cli search "pizza" --viewport 40.8,40.7,-73.9,-74.0 --language en --region US`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("search"); err != nil {
			return err
		}

		viewport, err := parseViewport(searchViewport)
		if err != nil {
			return eris.Wrap(err, "search: parse viewport")
		}

		pageCap := searchPages
		if pageCap <= 0 {
			pageCap = cfg.Search.PageCap
		}

		result, err := newSearcher().Run(ctx, model.SearchRequest{
			Query:      args[0],
			Viewport:   viewport,
			Language:   searchLanguage,
			Region:     searchRegion,
			PageCap:    pageCap,
			MaxResults: searchMax,
		})
		if err != nil && !errors.Is(err, search.ErrInvalidInput) && result != nil && len(result.Records) > 0 {
			// Upstream failed partway; show what arrived before the failure.
			fmt.Fprintf(os.Stderr, "warning: search incomplete: %v\n", err)
			err = nil
		}
		if err != nil {
			return err
		}

		printRecords(result.Records)
		fmt.Printf("\n%d places (%d pages)\n", len(result.Records), result.Pages)
		if result.MorePages {
			fmt.Println("more pages available — raise --pages or run export")
		}
		return nil
	},
}

func printRecords(records []model.PlaceRecord) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tADDRESS\tRATING")
	for _, r := range records {
		rating := ""
		if r.Rating != nil {
			rating = fmt.Sprintf("%.1f", *r.Rating)
			if r.RatingCount != nil {
				rating += fmt.Sprintf(" (%d)", *r.RatingCount)
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, r.Address, rating)
	}
	w.Flush()
}

func init() {
	searchCmd.Flags().StringVar(&searchViewport, "viewport", "", "bounds as north,south,east,west (required)")
	searchCmd.Flags().StringVar(&searchLanguage, "language", "", "result language code (default from config)")
	searchCmd.Flags().StringVar(&searchRegion, "region", "", "region bias code (default from config)")
	searchCmd.Flags().IntVar(&searchPages, "pages", 0, "max pages to fetch (default from config)")
	searchCmd.Flags().IntVar(&searchMax, "max", 0, "stop after this many places (0 = no cap)")
	_ = searchCmd.MarkFlagRequired("viewport")
	rootCmd.AddCommand(searchCmd)
}

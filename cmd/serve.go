package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/places-cli/internal/config"
	"github.com/sells-group/places-cli/internal/export"
	"github.com/sells-group/places-cli/internal/geo"
	"github.com/sells-group/places-cli/internal/model"
	"github.com/sells-group/places-cli/internal/search"
	"github.com/sells-group/places-cli/pkg/google"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for browser frontends",
	Long: `Serves the place search as an HTTP API.

  GET  /api/places   single page of results, caller holds the page token
  POST /api/export   exhaustive crawl streamed back as CSV or XLSX
  GET  /health       liveness check`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(newSearcher(), cfg),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "serve: listen")
		}

		return nil
	},
}

func newRouter(s *search.Searcher, cfg *config.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	origins := cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/places", handlePlaces(s))
	r.Post("/api/export", handleExport(s))

	return r
}

// handlePlaces serves one result page. The caller keeps next_page_token and
// resubmits it to continue; the server stays stateless.
func handlePlaces(s *search.Searcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		viewport, err := viewportFromQuery(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		req := model.SearchRequest{
			Query:    q.Get("query"),
			Viewport: viewport,
			Language: q.Get("language"),
			Region:   q.Get("region"),
		}

		page, err := s.Page(r.Context(), req, q.Get("pagetoken"))
		if err != nil {
			writeSearchError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"results":         page.Records,
			"next_page_token": page.NextPageToken,
			"count":           len(page.Records),
		})
	}
}

// handleExport runs the exhaustive crawl and streams the table back.
func handleExport(s *search.Searcher) http.HandlerFunc {
	type exportRequest struct {
		model.SearchRequest
		Format string `json:"format"`
		InView bool   `json:"in_view"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req exportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, eris.Wrap(err, "serve: decode body"))
			return
		}

		format := req.Format
		if format == "" {
			format = "csv"
		}
		if format != "csv" && format != "xlsx" {
			writeError(w, http.StatusBadRequest, eris.Errorf("serve: unknown format %q", format))
			return
		}

		result, err := s.Run(r.Context(), req.SearchRequest)
		if err != nil {
			writeSearchError(w, err)
			return
		}

		records := result.Records
		if req.InView {
			records = geo.InView(records, result.Viewport)
		}

		name := export.Filename(result.StartedAt, format)
		w.Header().Set("Content-Type", contentTypeFor(format))
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))

		var encErr error
		if format == "xlsx" {
			encErr = export.WriteXLSX(w, records)
		} else {
			encErr = export.WriteCSV(w, records)
		}
		if encErr != nil {
			// Headers are gone; all we can do is log.
			zap.L().Error("export stream failed", zap.Error(encErr))
		}
	}
}

// viewportFromQuery reads optional north/south/east/west params. All four or
// none; none means an unrestricted search.
func viewportFromQuery(q map[string][]string) (model.Viewport, error) {
	get := func(key string) string {
		if v, ok := q[key]; ok && len(v) > 0 {
			return v[0]
		}
		return ""
	}

	keys := []string{"north", "south", "east", "west"}
	present := 0
	vals := make([]float64, 4)
	for i, key := range keys {
		raw := get(key)
		if raw == "" {
			continue
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return model.Viewport{}, eris.Wrapf(err, "serve: parse %s", key)
		}
		vals[i] = f
		present++
	}

	switch present {
	case 0:
		return model.Viewport{}, nil
	case 4:
		v := model.Viewport{North: vals[0], South: vals[1], East: vals[2], West: vals[3]}
		return v, v.Validate()
	default:
		return model.Viewport{}, eris.New("serve: viewport needs all of north, south, east, west")
	}
}

func writeSearchError(w http.ResponseWriter, err error) {
	var apiErr *google.APIError
	switch {
	case errors.Is(err, search.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err)
	case errors.As(err, &apiErr):
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":           err.Error(),
			"upstream_status": apiErr.StatusCode,
		})
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

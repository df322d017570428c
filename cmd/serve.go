package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/housing-atlas/internal/dataset"
	"github.com/sells-group/housing-atlas/internal/index"
	"github.com/sells-group/housing-atlas/internal/match"
	"github.com/sells-group/housing-atlas/internal/reduce"
	"github.com/sells-group/housing-atlas/internal/statecache"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the location query API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		f := newFetcher(cfg)
		ix, _, report := buildIndex(ctx, cfg, f, false)
		cache := newStateCache(cfg, f)
		reducer := newReducer(cfg, cache)

		app := &apiServer{ix: ix, cache: cache, reducer: reducer, report: report}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           app.routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("query API listening", zap.Int("port", port))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case err := <-errCh:
			return err
		}
	},
}

// apiServer holds the request-serving dependencies. The index is immutable
// after build; the cache guards its own state.
type apiServer struct {
	ix      *index.Index
	cache   *statecache.Cache
	reducer *reduce.Reducer
	report  *dataset.LoadReport
}

func (a *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/states", a.handleStates)
		r.Get("/states/{code}/counties", a.handleInState(a.ix.CountiesIn))
		r.Get("/states/{code}/cities", a.handleInState(a.ix.CitiesIn))
		r.Get("/states/{code}/zips", a.handleInState(a.ix.ZipsIn))
		r.Get("/zip/{code}", a.handleZip)
		r.Get("/near", a.handleNear)
		r.Get("/search", a.handleSearch)
		r.Get("/stats", a.handleStats)
		r.Get("/sources", a.handleSources)
		r.Get("/cache/stats", a.handleCacheStats)
		r.Post("/cache/{state}/load", a.handleCacheLoad)
		r.Delete("/cache/{state}", a.handleCacheClear)
		r.Post("/reduce/{state}", a.handleReduce)
	})

	return r
}

func (a *apiServer) handleStates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.ix.States())
}

func (a *apiServer) handleInState(query func(string) []*index.UnifiedLocation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, query(chi.URLParam(r, "code")))
	}
}

func (a *apiServer) handleZip(w http.ResponseWriter, r *http.Request) {
	loc, ok := a.ix.ByZip(chi.URLParam(r, "code"))
	if !ok {
		writeError(w, http.StatusNotFound, "zip not found")
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (a *apiServer) handleNear(w http.ResponseWriter, r *http.Request) {
	lat, err1 := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, err2 := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "lat and lon are required numbers")
		return
	}
	tol, err := strconv.ParseFloat(r.URL.Query().Get("tol"), 64)
	if err != nil {
		tol = 0.5
	}
	writeJSON(w, http.StatusOK, a.ix.Near(lat, lon, tol))
}

func (a *apiServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	writeJSON(w, http.StatusOK, a.ix.Search(q))
}

func (a *apiServer) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.ix.Stats())
}

func (a *apiServer) handleSources(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.report)
}

func (a *apiServer) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.cache.Stats())
}

func (a *apiServer) handleCacheLoad(w http.ResponseWriter, r *http.Request) {
	state := chi.URLParam(r, "state")
	if _, err := a.cache.Load(r.Context(), state); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a.cache.Stats())
}

func (a *apiServer) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	a.cache.Clear(chi.URLParam(r, "state"))
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// reduceRequest carries a reduction task: viewport features plus the raw
// records to filter.
type reduceRequest struct {
	Level    string           `json:"level"`
	Source   string           `json:"source"`
	Features json.RawMessage  `json:"features"`
	Records  []map[string]any `json:"records"`
}

func (a *apiServer) handleReduce(w http.ResponseWriter, r *http.Request) {
	var req reduceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	level, err := match.ParseLevel(req.Level)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	source, err := match.ParseSource(req.Source)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	features, err := dataset.DecodeFeatures(bytes.NewReader(req.Features))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid features")
		return
	}

	raw := match.RowsFor(source, req.Records)
	filtered := a.reducer.Reduce(chi.URLParam(r, "state"), level, features, raw)
	writeJSON(w, http.StatusOK, map[string]any{
		"in":      len(raw),
		"out":     len(filtered),
		"records": reduce.ProjectEssential(filtered),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/everafter-market/ingest-cli/internal/model"
	"github.com/everafter-market/ingest-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the batch status and import API server",
	Long:  "Serves batch status over HTTP and accepts feed import requests. Imports run one at a time per process.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newServeMux(env),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("server listening", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			zap.L().Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

// newServeMux builds the API router. Split out so handler tests can
// exercise it with httptest.
func newServeMux(env *importEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	h := &apiHandler{env: env}

	r.Get("/healthz", h.health)
	r.Get("/api/batches", h.listBatches)
	r.Get("/api/batches/{id}", h.getBatch)
	r.Post("/api/imports", h.runImport)

	return r
}

type apiHandler struct {
	env *importEnv

	// importMu serializes imports; a second request while one is
	// running gets a 409 instead of queueing.
	importMu sync.Mutex
}

func (h *apiHandler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.env.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *apiHandler) listBatches(w http.ResponseWriter, r *http.Request) {
	filter := store.BatchFilter{
		Source: r.URL.Query().Get("source"),
		Status: model.BatchStatus(r.URL.Query().Get("status")),
		Limit:  50,
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = n
	}

	batches, err := h.env.Store.ListBatches(r.Context(), filter)
	if err != nil {
		zap.L().Error("list batches", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list batches failed")
		return
	}
	if batches == nil {
		batches = []model.ImportBatch{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"batches": batches})
}

func (h *apiHandler) getBatch(w http.ResponseWriter, r *http.Request) {
	batch, err := h.env.Store.GetBatch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "batch not found")
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

type importRequest struct {
	File string `json:"file"`
}

func (h *apiHandler) runImport(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.File == "" {
		writeError(w, http.StatusBadRequest, `body must be {"file": "<path or url>"}`)
		return
	}

	if !h.importMu.TryLock() {
		writeError(w, http.StatusConflict, "an import is already running")
		return
	}
	defer h.importMu.Unlock()

	report, err := h.env.Pipeline.ImportFromFile(r.Context(), h.env.Importer, req.File)
	if err != nil {
		zap.L().Error("import failed", zap.String("file", req.File), zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default from config, 8080)")
	rootCmd.AddCommand(serveCmd)
}

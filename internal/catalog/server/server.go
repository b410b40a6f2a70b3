// Package server serves a read-only plant catalog over HTTP, answering the
// same paging and sorting query parameters as the hosted catalog. It backs
// `plantmanager catalog serve` and the catalog client tests.
package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tidwall/jsonc"

	"github.com/julianstephens/plantmanager/internal/logger"
	"github.com/julianstephens/plantmanager/internal/models"
)

//go:embed seed.jsonc
var seed []byte

// Dataset is the content of a catalog file.
type Dataset struct {
	Plants       []models.PlantSpecies `json:"plants"`
	Environments []models.Environment  `json:"plants_environments"`
}

// ParseDataset decodes a JSON document, comments and trailing commas
// allowed.
func ParseDataset(raw []byte) (Dataset, error) {
	var ds Dataset
	if err := json.Unmarshal(jsonc.ToJSON(raw), &ds); err != nil {
		return Dataset{}, fmt.Errorf("failed to parse catalog data: %w", err)
	}
	return ds, nil
}

// SeedDataset returns the built-in development catalog.
func SeedDataset() Dataset {
	ds, err := ParseDataset(seed)
	if err != nil {
		panic(err)
	}
	return ds
}

type Server struct {
	mu     sync.RWMutex
	data   Dataset
	path   string
	router chi.Router
}

func New(ds Dataset) *Server {
	s := &Server{data: ds, router: chi.NewRouter()}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// NewFromFile serves the dataset stored at path. Call Watch to pick up
// edits to the file.
func NewFromFile(path string) (*Server, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	ds, err := ParseDataset(raw)
	if err != nil {
		return nil, err
	}
	s := New(ds)
	s.path = path
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Replace swaps the served dataset.
func (s *Server) Replace(ds Dataset) {
	s.mu.Lock()
	s.data = ds
	s.mu.Unlock()
}

func (s *Server) Dataset() Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "X-Request-ID"},
		ExposedHeaders: []string{"X-Total-Count"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	s.router.Get("/plants", s.handleListPlants)
	s.router.Get("/plants/{id}", s.handleGetPlant)
	s.router.Get("/plants_environments", s.handleListEnvironments)
	s.router.Handle("/metrics", promhttp.Handler())
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Debug("catalog request",
			"method", r.Method,
			"path", r.URL.Path,
			"query", r.URL.RawQuery,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
			"duration", time.Since(start),
		)
	})
}

func (s *Server) handleListPlants(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	plants := make([]models.PlantSpecies, len(s.data.Plants))
	copy(plants, s.data.Plants)
	s.mu.RUnlock()

	q := r.URL.Query()
	if env := q.Get("environments_like"); env != "" {
		filtered := plants[:0]
		for _, p := range plants {
			if p.HasEnvironment(env) {
				filtered = append(filtered, p)
			}
		}
		plants = filtered
	}

	switch q.Get("_sort") {
	case "", "id":
		sortBy(plants, func(a, b models.PlantSpecies) bool { return idLess(a.ID, b.ID) }, q.Get("_order"))
	case "name":
		sortBy(plants, func(a, b models.PlantSpecies) bool { return a.Name < b.Name }, q.Get("_order"))
	default:
		writeError(w, http.StatusBadRequest, "unsupported sort field")
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(len(plants)))

	page, limit, err := paging(q.Get("_page"), q.Get("_limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if limit > 0 {
		start := (page - 1) * limit
		if start > len(plants) {
			start = len(plants)
		}
		end := start + limit
		if end > len(plants) {
			end = len(plants)
		}
		plants = plants[start:end]
	}

	writeJSON(w, http.StatusOK, plants)
}

func (s *Server) handleGetPlant(w http.ResponseWriter, r *http.Request) {
	id := models.ID(chi.URLParam(r, "id"))

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.data.Plants {
		if p.ID == id {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	writeError(w, http.StatusNotFound, "plant not found")
}

func (s *Server) handleListEnvironments(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	envs := make([]models.Environment, len(s.data.Environments))
	copy(envs, s.data.Environments)
	s.mu.RUnlock()

	switch r.URL.Query().Get("_sort") {
	case "":
	case "title":
		sortBy(envs, func(a, b models.Environment) bool { return a.Title < b.Title }, r.URL.Query().Get("_order"))
	case "key":
		sortBy(envs, func(a, b models.Environment) bool { return a.Key < b.Key }, r.URL.Query().Get("_order"))
	default:
		writeError(w, http.StatusBadRequest, "unsupported sort field")
		return
	}
	writeJSON(w, http.StatusOK, envs)
}

// ListenAndServe blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Catalog server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down catalog server: %w", err)
	}
	logger.Info("Catalog server stopped")
	return nil
}

func paging(pageStr, limitStr string) (int, int, error) {
	page, limit := 1, 0
	if pageStr != "" {
		n, err := strconv.Atoi(pageStr)
		if err != nil || n < 1 {
			return 0, 0, fmt.Errorf("invalid _page %q", pageStr)
		}
		page = n
	}
	if limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			return 0, 0, fmt.Errorf("invalid _limit %q", limitStr)
		}
		limit = n
	} else if pageStr != "" {
		limit = 10
	}
	return page, limit, nil
}

func sortBy[T any](items []T, less func(a, b T) bool, order string) {
	desc := strings.EqualFold(order, "desc")
	sort.SliceStable(items, func(i, j int) bool {
		if desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

// idLess orders numeric ids numerically and everything else lexically.
func idLess(a, b models.ID) bool {
	na, errA := strconv.Atoi(string(a))
	nb, errB := strconv.Atoi(string(b))
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode catalog response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

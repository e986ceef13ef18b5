package spotcheck

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/project1899/internal/model"
)

// Handler returns the viewer's HTTP routes.
func Handler(v *Viewer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/", v.handleIndex)
	r.Get("/health", handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		r.Get("/kept", v.handleKept)
		r.Get("/removed", v.handleRemoved)
		r.Post("/reload", v.handleReload)
	})
	return r
}

type keptResponse struct {
	Total    int       `json:"total"`
	Rows     []KeptRow `json:"rows"`
	Warnings []string  `json:"warnings,omitempty"`
}

type removedResponse struct {
	Total    int                `json:"total"`
	Rows     []model.AuditEntry `json:"rows"`
	Warnings []string           `json:"warnings,omitempty"`
}

type reloadResponse struct {
	Kept     int      `json:"kept"`
	Removed  int      `json:"removed"`
	Warnings []string `json:"warnings,omitempty"`
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (v *Viewer) handleIndex(w http.ResponseWriter, r *http.Request) {
	n, ok := sampleParam(w, r)
	if !ok {
		return
	}
	kept, err := v.Kept(r.Context(), n)
	if err != nil {
		zap.L().Error("spotcheck: sample kept", zap.Error(err))
		http.Error(w, "failed to sample kept records", http.StatusInternalServerError)
		return
	}
	data := pageData{
		Warnings:     v.Warnings(),
		KeptCount:    v.KeptCount(),
		RemovedCount: v.RemovedCount(),
		Kept:         keptViews(kept),
		Removed:      removedViews(v.Removed(n)),
	}

	var buf bytes.Buffer
	if err := renderPage(&buf, data); err != nil {
		zap.L().Error("spotcheck: render page", zap.Error(err))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (v *Viewer) handleKept(w http.ResponseWriter, r *http.Request) {
	n, ok := sampleParam(w, r)
	if !ok {
		return
	}
	rows, err := v.Kept(r.Context(), n)
	if err != nil {
		zap.L().Error("spotcheck: sample kept", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to sample kept records"})
		return
	}
	writeJSON(w, http.StatusOK, keptResponse{
		Total:    v.KeptCount(),
		Rows:     rows,
		Warnings: v.Warnings(),
	})
}

func (v *Viewer) handleRemoved(w http.ResponseWriter, r *http.Request) {
	n, ok := sampleParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, removedResponse{
		Total:    v.RemovedCount(),
		Rows:     v.Removed(n),
		Warnings: v.Warnings(),
	})
}

func (v *Viewer) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := v.Reload(r.Context()); err != nil {
		zap.L().Error("spotcheck: reload", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "reload failed"})
		return
	}
	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, reloadResponse{
		Kept:     v.KeptCount(),
		Removed:  v.RemovedCount(),
		Warnings: v.Warnings(),
	})
}

// sampleParam parses ?n=. A missing value yields 0 (configured default).
func sampleParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("n")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "n must be a non-negative integer"})
		return 0, false
	}
	return n, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

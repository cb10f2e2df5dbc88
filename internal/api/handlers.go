package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/gorilla/mux"

	"github.com/rewired-gh/symptomscope/internal/logger"
	"github.com/rewired-gh/symptomscope/internal/models"
	"github.com/rewired-gh/symptomscope/internal/render"
	"github.com/rewired-gh/symptomscope/internal/series"
	"github.com/rewired-gh/symptomscope/internal/storage"
)

type categoriesResponse struct {
	BatchID    string   `json:"batch_id"`
	Categories []string `json:"categories"`
}

type rangeResponse struct {
	Category string `json:"category"`
	storage.DateRange
}

type batchResponse struct {
	BatchID    string `json:"batch_id"`
	Records    int    `json:"records"`
	Categories int    `json:"categories"`
	Collisions int    `json:"collisions"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "loaded": s.holder.Current() != nil})
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	store, ok := s.currentStore(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, categoriesResponse{BatchID: store.ID(), Categories: store.CategoryNames()})
}

func (s *Server) categoryRange(w http.ResponseWriter, r *http.Request) {
	store, ok := s.currentStore(w)
	if !ok {
		return
	}
	name := mux.Vars(r)["name"]
	dr, ok := store.DateRange(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown category %q", name))
		return
	}
	writeJSON(w, http.StatusOK, rangeResponse{Category: name, DateRange: dr})
}

func (s *Server) categoryRecords(w http.ResponseWriter, r *http.Request) {
	store, ok := s.currentStore(w)
	if !ok {
		return
	}
	name := mux.Vars(r)["name"]
	seq, ok := store.SortedRecords(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown category %q", name))
		return
	}
	records := slices.Collect(seq)
	if records == nil {
		records = []models.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) getSeries(w http.ResponseWriter, r *http.Request) {
	result, ok := s.project(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) getChart(w http.ResponseWriter, r *http.Request) {
	result, ok := s.project(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := render.SVG(&buf, result, s.chart); err != nil {
		if errors.Is(err, render.ErrEmptySeries) {
			writeError(w, http.StatusNotFound, "no points in window")
			return
		}
		logger.Error("Chart rendering failed for %q: %v", result.Category, err)
		writeError(w, http.StatusInternalServerError, "chart rendering failed")
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) postBatch(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, int64(s.maxUploadMB)<<20)
	defer body.Close()

	records, err := s.decoder.Decode(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("batch exceeds %d MB", s.maxUploadMB))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid batch: %v", err))
		return
	}

	store, err := s.holder.Rebuild(records)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("batch rejected: %v", err))
		return
	}

	writeJSON(w, http.StatusCreated, batchResponse{
		BatchID:    store.ID(),
		Records:    store.Len(),
		Categories: len(store.CategoryNames()),
		Collisions: store.Collisions(),
	})
}

// project resolves the query parameters into a series, writing the error
// response itself when it cannot.
func (s *Server) project(w http.ResponseWriter, r *http.Request) (*series.Series, bool) {
	store, ok := s.currentStore(w)
	if !ok {
		return nil, false
	}

	q := r.URL.Query()
	start, err := series.ParseDate(q.Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	end, err := series.ParseDate(q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	result, err := s.projector.Project(store, series.Request{Category: q.Get("category"), Start: start, End: end})
	switch {
	case err == nil:
		return result, true
	case errors.Is(err, series.ErrUnknownCategory):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, series.ErrNoData):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, series.ErrInvalidWindow):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
	return nil, false
}

func (s *Server) currentStore(w http.ResponseWriter) (*storage.Store, bool) {
	store := s.holder.Current()
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "no batch loaded")
		return nil, false
	}
	return store, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

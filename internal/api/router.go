// Package api exposes the published symptom store over HTTP.
package api

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/rewired-gh/symptomscope/internal/ingest"
	"github.com/rewired-gh/symptomscope/internal/logger"
	"github.com/rewired-gh/symptomscope/internal/render"
	"github.com/rewired-gh/symptomscope/internal/series"
	"github.com/rewired-gh/symptomscope/internal/storage"
)

// Server serves queries against the holder's current store
type Server struct {
	holder      *storage.Holder
	projector   *series.Projector
	decoder     *ingest.Decoder
	chart       render.Options
	maxUploadMB int
}

// NewServer creates a server. maxUploadMB bounds the size of uploaded batches.
func NewServer(holder *storage.Holder, projector *series.Projector, decoder *ingest.Decoder, chart render.Options, maxUploadMB int) *Server {
	if maxUploadMB < 1 {
		maxUploadMB = 1
	}
	return &Server{
		holder:      holder,
		projector:   projector,
		decoder:     decoder,
		chart:       chart,
		maxUploadMB: maxUploadMB,
	}
}

// NewRouter registers all routes.
func (s *Server) NewRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.health).Methods("GET")

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/categories", s.listCategories).Methods("GET")
	v1.HandleFunc("/categories/{name}/range", s.categoryRange).Methods("GET")
	v1.HandleFunc("/categories/{name}/records", s.categoryRecords).Methods("GET")
	v1.HandleFunc("/series", s.getSeries).Methods("GET")
	v1.HandleFunc("/series/chart.svg", s.getChart).Methods("GET")
	v1.HandleFunc("/batches", s.postBatch).Methods("POST")

	return r
}

// Handler returns the router wrapped with request logging and CORS.
func (s *Server) Handler() http.Handler {
	cors := handlers.CORS(
		handlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	return handlers.LoggingHandler(logger.Writer(), cors(s.NewRouter()))
}

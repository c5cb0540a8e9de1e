package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"mechdash/internal/config"
	"mechdash/internal/dataset"
	"mechdash/internal/pipeline"
)

// Snapshots is the read side of dataset.Holder.
type Snapshots interface {
	Current() (*dataset.Snapshot, error)
}

type Server struct {
	snapshots Snapshots
	engine    *pipeline.Engine
	cfg       config.Config
	logger    *zap.Logger
}

func New(snapshots Snapshots, engine *pipeline.Engine, cfg config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{snapshots: snapshots, engine: engine, cfg: cfg, logger: logger}
}

func (s *Server) Router() http.Handler {
	router := mux.NewRouter()
	router.Use(requestID)
	router.Use(s.accessLog)
	router.Use(s.recoverer)
	router.Use(cors)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/mechanisms", s.handleMechanisms).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/mechanisms.xlsx", s.handleMechanismsXLSX).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/data", s.handleData).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/summary", s.handleSummary).Methods(http.MethodGet, http.MethodOptions)

	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/", s.handleDashboard).Methods(http.MethodGet)
	router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir(s.cfg.FrontendDir))))

	return router
}

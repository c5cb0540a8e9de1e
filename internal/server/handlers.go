package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"mechdash/internal"
	"mechdash/internal/dataset"
	"mechdash/internal/pipeline"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type errorBody struct {
	Error string `json:"error"`
}

type summaryBody struct {
	DataPath string   `json:"data_path"`
	Files    []string `json:"files"`
}

type healthBody struct {
	Status   string `json:"status"`
	Source   string `json:"source,omitempty"`
	Records  int    `json:"records"`
	LoadedAt string `json:"loadedAt,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (s *Server) handleMechanisms(w http.ResponseWriter, r *http.Request) {
	_, result, ok := s.runQuery(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, r, http.StatusOK, result)
}

func (s *Server) handleMechanismsXLSX(w http.ResponseWriter, r *http.Request) {
	filter, result, ok := s.runQuery(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", pipeline.ExportFilename(filter)))
	if err := pipeline.WriteResultXLSX(result, w); err != nil {
		// Headers are already out; all we can do is log.
		s.logger.Error("xlsx export failed", zap.String("requestId", requestIDFrom(r.Context())), zap.Error(err))
	}
}

func (s *Server) runQuery(w http.ResponseWriter, r *http.Request) (pipeline.FilterSpec, internal.QueryResult, bool) {
	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return filter, internal.QueryResult{}, false
	}
	snap, err := s.snapshots.Current()
	if err != nil {
		s.writeUnavailable(w, r, err)
		return filter, internal.QueryResult{}, false
	}
	return filter, s.engine.Query(snap.Records, filter), true
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshots.Current()
	if err != nil {
		s.writeUnavailable(w, r, err)
		return
	}
	raw := snap.Raw
	if raw == nil {
		raw = []internal.RawRecord{}
	}
	s.writeJSON(w, r, http.StatusOK, raw)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	body := summaryBody{DataPath: s.cfg.DataDir, Files: []string{}}
	entries, err := os.ReadDir(s.cfg.DataDir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("list data dir", zap.String("dir", s.cfg.DataDir), zap.Error(err))
	}
	for _, e := range entries {
		if !e.IsDir() {
			body.Files = append(body.Files, e.Name())
		}
	}
	sort.Strings(body.Files)
	s.writeJSON(w, r, http.StatusOK, body)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshots.Current()
	if err != nil {
		s.writeJSON(w, r, http.StatusServiceUnavailable, healthBody{Status: "unavailable", Error: err.Error()})
		return
	}
	s.writeJSON(w, r, http.StatusOK, healthBody{
		Status:   "ok",
		Source:   snap.Source,
		Records:  len(snap.Records),
		LoadedAt: snap.LoadedAt.UTC().Format("2006-01-02T15:04:05Z"),
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(s.cfg.FrontendDir, "dashboard.html")
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "dashboard not found")
		return
	}
	http.ServeFile(w, r, path)
}

func (s *Server) writeUnavailable(w http.ResponseWriter, r *http.Request, err error) {
	if !errors.Is(err, dataset.ErrUnavailable) {
		s.logger.Error("snapshot lookup failed", zap.String("requestId", requestIDFrom(r.Context())), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeError(w, http.StatusServiceUnavailable, err.Error())
}

// parseFilter maps query parameters onto a FilterSpec. Blank values are
// wildcards, the same as an absent parameter.
func parseFilter(r *http.Request) (pipeline.FilterSpec, error) {
	q := r.URL.Query()
	text := func(name string) *string {
		v := q.Get(name)
		if strings.TrimSpace(v) == "" {
			return nil
		}
		return &v
	}

	spec := pipeline.FilterSpec{
		Indicator: text("indicator"),
		CoarseAge: text("coarseAge"),
		Sex:       text("sex"),
		Partner:   text("partner"),
		Mechanism: text("mechanismName"),
	}
	if raw := strings.TrimSpace(q.Get("fiscalYear")); raw != "" {
		fy, err := strconv.Atoi(raw)
		if err != nil {
			return pipeline.FilterSpec{}, fmt.Errorf("invalid fiscalYear %q", raw)
		}
		spec.FiscalYear = &fy
	}
	return spec, nil
}

// writeJSON encodes v before touching the response, so an unencodable value
// becomes a 500 instead of a 200 with a truncated body.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	blob, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encode response",
			zap.String("requestId", requestIDFrom(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeBody(w, status, blob)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	blob, _ := json.Marshal(errorBody{Error: msg})
	writeBody(w, status, blob)
}

func writeBody(w http.ResponseWriter, status int, blob []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(blob, '\n'))
}

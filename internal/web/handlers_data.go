package web

// handlers_data.go serves the exoplanet table: preview, ingest, read,
// clear, export, statistics and batch classification.

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/exoplorer/internal/core"
	"github.com/JonMunkholm/exoplorer/internal/logging"
	"github.com/JonMunkholm/exoplorer/internal/web/templates"
)

// handleTablePreview parses an uploaded file and shows its first rows
// without saving anything.
func (s *Server) handleTablePreview(w http.ResponseWriter, r *http.Request) {
	file, header, err := formFile(w, r, s.cfg.Table.MaxFileSize)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	defer file.Close()

	t, err := core.ReadTable(file, header.Filename, s.cfg.Table.MaxFileSize)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	preview := core.BuildPreview(t, s.cfg.Table.PreviewRows)

	if isHTMX(r) {
		render(w, r, http.StatusOK, templates.TablePreview(preview))
		return
	}
	writeJSON(w, r, http.StatusOK, preview)
}

// handleTableIngest parses an uploaded file and replaces the saved table.
func (s *Server) handleTableIngest(w http.ResponseWriter, r *http.Request) {
	release, err := s.service.AcquireUpload(r.Context())
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	defer release()

	file, header, err := formFile(w, r, s.cfg.Table.MaxFileSize)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	defer file.Close()

	ctx := logging.ContextWith(r.Context(), "upload", header.Filename)
	t, err := s.workspace(r).IngestTable(ctx, file, header.Filename, s.cfg.Table.MaxFileSize)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	if isHTMX(r) {
		trigger(w, "activity-changed")
		render(w, r, http.StatusCreated, templates.TableView(t, s.predictor.Enabled()))
		return
	}
	writeJSON(w, r, http.StatusCreated, map[string]any{
		"fileName": t.FileName,
		"columns":  len(t.Headers),
		"rows":     len(t.Rows),
	})
}

// handleGetTable returns the saved table. HTMX callers get the table view
// or its empty state.
func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	if isHTMX(r) {
		render(w, r, http.StatusOK, templates.TableView(s.loadTableForPage(r, s.workspace(r)), s.predictor.Enabled()))
		return
	}

	t, err := s.workspace(r).Tables.Load(r.Context())
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, r, http.StatusOK, t)
}

// handleClearTable removes the saved table.
func (s *Server) handleClearTable(w http.ResponseWriter, r *http.Request) {
	if err := s.workspace(r).ClearTable(r.Context()); err != nil {
		respondError(w, r, err, 0)
		return
	}
	if isHTMX(r) {
		trigger(w, "activity-changed")
		render(w, r, http.StatusOK, templates.TableView(nil, false))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExportTable downloads the saved table as CSV, or as XLSX with
// ?format=xlsx.
func (s *Server) handleExportTable(w http.ResponseWriter, r *http.Request) {
	t, err := s.workspace(r).Tables.Load(r.Context())
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	var buf bytes.Buffer
	day := time.Now()
	if r.URL.Query().Get("format") == "xlsx" {
		if err := core.EncodeXLSX(&buf, "exoplanet_data", t.Headers, t.Rows); err != nil {
			respondError(w, r, err, http.StatusInternalServerError)
			return
		}
		attachment(w, core.ExportFileName("exoplanet_data", "xlsx", day),
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	} else {
		if err := core.EncodeCSV(&buf, t.Headers, t.Rows); err != nil {
			respondError(w, r, err, http.StatusInternalServerError)
			return
		}
		attachment(w, core.ExportFileName("exoplanet_data", "csv", day), "text/csv; charset=utf-8")
	}

	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	buf.WriteTo(w)
}

// handleTableStats summarizes every column of the saved table.
func (s *Server) handleTableStats(w http.ResponseWriter, r *http.Request) {
	t, err := s.workspace(r).Tables.Load(r.Context())
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	summaries := core.SummarizeTable(t)

	if isHTMX(r) {
		render(w, r, http.StatusOK, templates.TableStats(summaries))
		return
	}
	writeJSON(w, r, http.StatusOK, summaries)
}

// handlePredictTable classifies every row of the saved table.
func (s *Server) handlePredictTable(w http.ResponseWriter, r *http.Request) {
	t, err := s.workspace(r).Tables.Load(r.Context())
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	rows := make([]map[string]string, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = row
	}

	results, err := s.predictor.PredictRows(r.Context(), rows, s.cfg.Predict.Concurrency)
	if err != nil {
		s.respondPredictError(w, r, err, r.URL.Path)
		return
	}

	if isHTMX(r) {
		render(w, r, http.StatusOK, templates.BatchPredictions(results))
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"results": results})
}

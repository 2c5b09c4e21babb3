package web

import (
	"errors"
	"net/http"

	"github.com/JonMunkholm/exoplorer/internal/core"
	"github.com/JonMunkholm/exoplorer/internal/logging"
	"github.com/JonMunkholm/exoplorer/internal/web/templates"
)

// handleDashboard renders the main dashboard page. Read failures degrade
// to empty sections.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ws := s.workspace(r)

	data := templates.DashboardData{PredictEnabled: s.predictor.Enabled()}

	if t := s.loadTableForPage(r, ws); t != nil {
		data.HasTable = true
		data.TableFile = t.FileName
		data.TableRows = len(t.Rows)
		data.TableColumns = len(t.Headers)
		data.TableSaved = t.Timestamp
	}
	if recs, err := ws.Candidates.List(ctx); err == nil {
		data.CandidateCount = len(recs)
	} else {
		logging.FromContext(ctx).Warn("dashboard: candidates unavailable", "error", err)
	}
	if activity, err := ws.Activity.Recent(ctx); err == nil {
		data.Activity = activity
	}

	render(w, r, http.StatusOK, templates.Dashboard(data))
}

// handleCandidatesPage renders the candidate form. Values left in the
// single-candidate hand-off buffer prefill it.
func (s *Server) handleCandidatesPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ws := s.workspace(r)

	recs, err := ws.Candidates.List(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("candidates page: falling back to empty list", "error", err)
		recs = nil
	}

	prefill, _, err := ws.Handoff.TakeCandidate(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("candidates page: hand-off unavailable", "error", err)
	}

	render(w, r, http.StatusOK, templates.CandidatesPage(templates.CandidatesData{
		Fields:         core.KOIFields,
		Records:        newestFirst(recs),
		Columns:        core.CandidateColumns(recs),
		Prefill:        prefill,
		PredictEnabled: s.predictor.Enabled(),
	}))
}

// handleTablePage renders the stored table or the empty state.
func (s *Server) handleTablePage(w http.ResponseWriter, r *http.Request) {
	t := s.loadTableForPage(r, s.workspace(r))
	render(w, r, http.StatusOK, templates.TablePage(templates.TablePageData{
		Table:          t,
		PredictEnabled: s.predictor.Enabled(),
	}))
}

// handleUploadPage renders the gallery upload form.
func (s *Server) handleUploadPage(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, templates.UploadPage(s.cfg.Upload.AllowedExtensions, s.cfg.Upload.MaxFileSize))
}

// handleGalleryPage renders every stored file.
func (s *Server) handleGalleryPage(w http.ResponseWriter, r *http.Request) {
	list, err := s.files.List(r.Context())
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	render(w, r, http.StatusOK, templates.GalleryPage(list))
}

// handleHealth reports liveness and upload slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":      "ok",
		"uploads":     s.service.UploadStatus(),
		"predictions": s.predictor.Enabled(),
	})
}

// handleFields returns the candidate field catalog.
func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, core.KOIFields)
}

// handleActivity returns the recent activity feed.
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	entries, err := s.workspace(r).Activity.Recent(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Warn("activity feed unreadable", "error", err)
	}
	if isHTMX(r) {
		render(w, r, http.StatusOK, templates.ActivityList(entries))
		return
	}
	writeJSON(w, r, http.StatusOK, entries)
}

// loadTableForPage returns the saved table or nil. Unreadable data is
// logged and shown as the empty state.
func (s *Server) loadTableForPage(r *http.Request, ws *core.Workspace) *core.Table {
	t, err := ws.Tables.Load(r.Context())
	if err != nil {
		if !errors.Is(err, core.ErrNoTable) {
			logging.FromContext(r.Context()).Warn("stored table unreadable, showing empty state", "error", err)
		}
		return nil
	}
	return t
}

package web

// handlers_mutations.go serves the candidate records: form submission,
// listing, deletion, export, validation and classification.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/exoplorer/internal/core"
	"github.com/JonMunkholm/exoplorer/internal/web/templates"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

// candidateFields reads candidate values from a JSON object or a form.
// Forms are restricted to the field catalog; JSON keeps every key.
func candidateFields(w http.ResponseWriter, r *http.Request) (map[string]string, error) {
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var raw map[string]any
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrNoFields, err)
		}
		fields := make(map[string]string, len(raw))
		for k, v := range raw {
			var s string
			switch val := v.(type) {
			case nil:
				continue
			case string:
				s = strings.TrimSpace(val)
			default:
				s = fmt.Sprint(val)
			}
			if k = strings.TrimSpace(k); k != "" && s != "" {
				fields[k] = s
			}
		}
		return fields, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrNoFields, err)
	}
	return core.CollectForm(r.PostForm, core.FieldNames()), nil
}

// candidateResponse is the JSON answer to a submission.
type candidateResponse struct {
	Candidate core.CandidateRecord `json:"candidate"`
	Checks    []core.FieldCheck    `json:"checks"`
	Valid     bool                 `json:"valid"`
}

// handleCreateCandidate saves a submitted candidate.
func (s *Server) handleCreateCandidate(w http.ResponseWriter, r *http.Request) {
	fields, err := candidateFields(w, r)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	rec, checks, err := s.workspace(r).SubmitCandidate(r.Context(), fields)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	if isHTMX(r) {
		trigger(w, "candidates-changed", "activity-changed")
		render(w, r, http.StatusCreated, templates.CandidateSaved(rec, checks, s.predictor.Enabled()))
		return
	}
	writeJSON(w, r, http.StatusCreated, candidateResponse{Candidate: rec, Checks: checks, Valid: core.AllValid(checks)})
}

// handleValidateCandidate checks values without saving them.
func (s *Server) handleValidateCandidate(w http.ResponseWriter, r *http.Request) {
	fields, err := candidateFields(w, r)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	checks := core.ValidateRecord(fields)

	if isHTMX(r) {
		render(w, r, http.StatusOK, templates.ValidationSummary(checks))
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"checks": checks, "valid": core.AllValid(checks)})
}

// handleListCandidates returns saved candidates in insertion order, or the
// list partial (newest first) for HTMX.
func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	recs, err := s.workspace(r).Candidates.List(r.Context())
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	s.respondCandidates(w, r, recs)
}

func (s *Server) respondCandidates(w http.ResponseWriter, r *http.Request, recs []core.CandidateRecord) {
	if isHTMX(r) {
		render(w, r, http.StatusOK, templates.CandidateList(newestFirst(recs), core.CandidateColumns(recs), s.predictor.Enabled()))
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"candidates": recs,
		"columns":    core.CandidateColumns(recs),
	})
}

// handleGetCandidate returns one record.
func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	rec, err := s.workspace(r).Candidates.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, r, http.StatusOK, rec)
}

// handleDeleteCandidate removes one record.
func (s *Server) handleDeleteCandidate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	ws := s.workspace(r)
	if err := ws.DeleteCandidate(r.Context(), id); err != nil {
		respondError(w, r, err, 0)
		return
	}

	if isHTMX(r) {
		recs, err := ws.Candidates.List(r.Context())
		if err != nil {
			respondError(w, r, err, 0)
			return
		}
		trigger(w, "activity-changed")
		s.respondCandidates(w, r, recs)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleClearCandidates removes every record.
func (s *Server) handleClearCandidates(w http.ResponseWriter, r *http.Request) {
	if err := s.workspace(r).ClearCandidates(r.Context()); err != nil {
		respondError(w, r, err, 0)
		return
	}
	if isHTMX(r) {
		trigger(w, "activity-changed")
		s.respondCandidates(w, r, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExportCandidates downloads every record as CSV.
func (s *Server) handleExportCandidates(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	n, err := s.workspace(r).ExportCandidatesCSV(r.Context(), &buf)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	if n == 0 {
		respondError(w, r, core.ErrNoCandidates, http.StatusNotFound)
		return
	}

	attachment(w, core.ExportFileName("candidate_data", "csv", time.Now()), "text/csv; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	buf.WriteTo(w)
}

// handlePredictCandidate classifies one saved record.
func (s *Server) handlePredictCandidate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	rec, err := s.workspace(r).Candidates.Get(r.Context(), id)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	res, err := s.predictor.Predict(r.Context(), rec.Fields)
	if err != nil {
		s.respondPredictError(w, r, err, r.URL.Path)
		return
	}

	if isHTMX(r) {
		render(w, r, http.StatusOK, templates.PredictionResult(res))
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// respondPredictError renders the inline error panel with a retry button
// for HTMX and the regular error response otherwise.
func (s *Server) respondPredictError(w http.ResponseWriter, r *http.Request, err error, retryURL string) {
	if !isHTMX(r) {
		respondError(w, r, err, 0)
		return
	}
	msg := core.MapError(err)
	status := statusFor(err)
	respondLog(r, err, status, msg.Code)
	render(w, r, status, templates.PredictError(msg.Message, msg.Action, msg.Code, retryURL))
}

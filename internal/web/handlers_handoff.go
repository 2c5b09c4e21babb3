package web

// handlers_handoff.go exposes the transient buffers that carry candidate
// values between pages. GET takes: the buffer is cleared once read.

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/exoplorer/internal/core"
)

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", core.ErrNoFields, err)
	}
	return nil
}

func (s *Server) handlePutHandoffCandidate(w http.ResponseWriter, r *http.Request) {
	var fields map[string]string
	if err := decodeJSON(w, r, &fields); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if err := s.workspace(r).Handoff.PutCandidate(r.Context(), fields); err != nil {
		respondError(w, r, err, 0)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTakeHandoffCandidate(w http.ResponseWriter, r *http.Request) {
	fields, ok, err := s.workspace(r).Handoff.TakeCandidate(r.Context())
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, r, http.StatusOK, fields)
}

func (s *Server) handlePutHandoffBatch(w http.ResponseWriter, r *http.Request) {
	var batch []map[string]string
	if err := decodeJSON(w, r, &batch); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	if err := s.workspace(r).Handoff.PutCandidates(r.Context(), batch); err != nil {
		respondError(w, r, err, 0)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTakeHandoffBatch(w http.ResponseWriter, r *http.Request) {
	batch, ok, err := s.workspace(r).Handoff.TakeCandidates(r.Context())
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, r, http.StatusOK, batch)
}

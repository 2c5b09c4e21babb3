package web

// handlers_upload.go serves the gallery: uploads, listing and deletion.

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/exoplorer/internal/files"
	"github.com/JonMunkholm/exoplorer/internal/web/templates"
)

// handleFileUpload stores one multipart file. The body is streamed to disk
// and never held in memory beyond the multipart buffer.
func (s *Server) handleFileUpload(w http.ResponseWriter, r *http.Request) {
	release, err := s.service.AcquireUpload(r.Context())
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	defer release()

	file, header, err := formFile(w, r, s.cfg.Upload.MaxFileSize)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	defer file.Close()

	stored, err := s.files.Save(r.Context(), header.Filename, file)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	s.workspace(r).RecordFileUpload(r.Context(), stored.OriginalName)

	if isHTMX(r) {
		trigger(w, "activity-changed")
		render(w, r, http.StatusOK, templates.UploadResult(stored))
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"message": "File uploaded successfully!",
		"file":    stored,
	})
}

// handleListFiles returns every stored file, newest first.
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	list, err := s.files.List(r.Context())
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if isHTMX(r) {
		render(w, r, http.StatusOK, templates.FileGrid(list))
		return
	}
	if list == nil {
		list = []files.FileInfo{}
	}
	writeJSON(w, r, http.StatusOK, list)
}

// handleDeleteFile removes one stored file.
func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if err := s.files.Delete(r.Context(), name); err != nil {
		respondError(w, r, err, 0)
		return
	}
	if isHTMX(r) {
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"message": "File deleted successfully"})
}

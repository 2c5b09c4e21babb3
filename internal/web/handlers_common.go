package web

// handlers_common.go holds helpers shared by the handlers.

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/exoplorer/internal/core"
)

// multipartOverhead leaves room for form boundaries and other fields on
// top of the file size limit.
const multipartOverhead = 1 << 20

// parseID reads the {id} URL parameter.
func parseID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", core.ErrCandidateNotFound, raw)
	}
	return id, nil
}

// formFile limits the request body and returns the "file" part.
// The caller closes the file.
func formFile(w http.ResponseWriter, r *http.Request, maxSize int64) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, nil, fmt.Errorf("%w: %v", core.ErrFileTooLarge, err)
		}
		return nil, nil, fmt.Errorf("%w: %v", core.ErrNoFile, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, core.ErrNoFile
	}
	if maxSize > 0 && header.Size > maxSize {
		file.Close()
		return nil, nil, fmt.Errorf("%w: %d bytes", core.ErrFileTooLarge, header.Size)
	}
	return file, header, nil
}

// attachment sets download headers.
func attachment(w http.ResponseWriter, filename, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
}

// trigger emits HTMX client events after a response.
func trigger(w http.ResponseWriter, events ...string) {
	w.Header().Set("HX-Trigger", strings.Join(events, ", "))
}

// newestFirst returns recs in display order without touching the input.
func newestFirst(recs []core.CandidateRecord) []core.CandidateRecord {
	out := make([]core.CandidateRecord, len(recs))
	for i, rec := range recs {
		out[len(recs)-1-i] = rec
	}
	return out
}

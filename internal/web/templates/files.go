package templates

import (
	"context"
	"net/url"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/exoplorer/internal/files"
)

// UploadPage renders the gallery upload form.
func UploadPage(allowed []string, maxSize int64) templ.Component {
	return Layout(Page{Title: "Upload Files", Active: "subir"}, build(func(ctx context.Context, h *html) {
		accept := make([]string, len(allowed))
		for i, ext := range allowed {
			accept[i] = "." + ext
		}
		h.raw(`<h1>Upload files</h1>`)
		h.raw(`<form hx-post="/api/upload" hx-encoding="multipart/form-data" hx-target="#upload-result">`)
		h.raw(`<input type="file" name="file" required accept="`)
		h.text(strings.Join(accept, ","))
		h.raw(`"><button type="submit" class="btn btn-primary">Upload</button></form>`)
		h.raw(`<p class="muted">Allowed: `)
		h.text(strings.Join(allowed, ", "))
		h.raw(` · max `)
		h.text(formatBytes(maxSize))
		h.raw(`</p><div id="upload-result"></div><a href="/galeria">Open the gallery</a>`)
	}))
}

// UploadResult confirms a stored file.
func UploadResult(f files.StoredFile) templ.Component {
	return build(func(ctx context.Context, h *html) {
		h.raw(`<div class="alert alert-success">File uploaded successfully! <a href="`)
		h.text(f.Path)
		h.raw(`" target="_blank" rel="noopener">`)
		h.text(f.OriginalName)
		h.raw(`</a> (`)
		h.text(formatBytes(f.Size))
		h.raw(`)</div>`)
	})
}

// GalleryPage renders every stored file.
func GalleryPage(list []files.FileInfo) templ.Component {
	return Layout(Page{Title: "Gallery", Active: "galeria"}, build(func(ctx context.Context, h *html) {
		h.raw(`<div class="section-head"><h1>Gallery</h1><a class="btn" href="/subir">Upload</a></div>`)
		h.raw(`<div id="gallery">`)
		h.component(ctx, FileGrid(list))
		h.raw(`</div>`)
	}))
}

// FileGrid renders file cards, newest first.
func FileGrid(list []files.FileInfo) templ.Component {
	return build(func(ctx context.Context, h *html) {
		if len(list) == 0 {
			h.raw(`<p class="muted empty-state">No files uploaded yet.</p>`)
			return
		}
		h.raw(`<div class="gallery">`)
		for _, f := range list {
			h.raw(`<figure class="file-card">`)
			if f.IsImage {
				h.raw(`<img loading="lazy" src="`)
				h.text(f.Path)
				h.raw(`" alt="`)
				h.text(f.Name)
				h.raw(`">`)
			} else {
				h.raw(`<div class="file-icon">📄</div>`)
			}
			h.raw(`<figcaption><a href="`)
			h.text(f.Path)
			h.raw(`" target="_blank" rel="noopener">`)
			h.text(f.Name)
			h.raw(`</a><small class="muted">`)
			h.text(formatBytes(f.Size))
			h.raw(` · `)
			h.text(f.UploadDate.Local().Format("2006-01-02 15:04"))
			h.raw(`</small><button class="btn btn-small btn-danger" hx-delete="/api/files/`)
			h.text(url.PathEscape(f.Name))
			h.raw(`" hx-target="closest figure" hx-swap="outerHTML" hx-confirm="Delete this file?">Delete</button>`)
			h.raw(`</figcaption></figure>`)
		}
		h.raw(`</div>`)
	})
}

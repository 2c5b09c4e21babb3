package templates

import (
	"context"

	"github.com/a-h/templ"
)

// HTMXScript is the only external script the pages load.
const HTMXScript = "https://unpkg.com/htmx.org@2.0.3"

// Page identifies the current page for the title and navigation.
type Page struct {
	Title  string
	Active string
}

type navItem struct {
	key, href, label string
}

var navItems = []navItem{
	{"dashboard", "/", "Home Base"},
	{"candidates", "/candidates", "Candidates"},
	{"table", "/table", "Exoplanet Data"},
	{"subir", "/subir", "Upload Files"},
	{"galeria", "/galeria", "Gallery"},
}

// Layout wraps body in the shared page chrome.
func Layout(p Page, body templ.Component) templ.Component {
	return build(func(ctx context.Context, h *html) {
		h.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>`)
		h.text(p.Title)
		h.raw(` · EXO(0)PLORER</title>`)
		h.raw(`<link rel="stylesheet" href="/static/app.css">`)
		h.raw(`<script src="` + HTMXScript + `" defer></script>`)
		h.raw(`<script src="/static/app.js" defer></script>`)
		h.raw(`</head><body><header class="topbar"><a class="brand" href="/">EXO(0)PLORER</a><nav>`)
		for _, item := range navItems {
			class := ""
			if item.key == p.Active {
				class = ` class="active"`
			}
			h.rawf(`<a href="%s"%s>`, item.href, class)
			h.text(item.label)
			h.raw(`</a>`)
		}
		h.raw(`</nav></header><main class="container">`)
		h.component(ctx, body)
		h.raw(`</main><div id="toast" class="toast" aria-live="polite"></div></body></html>`)
	})
}

// ErrorAlert is the HTMX error fragment.
func ErrorAlert(message, action, code string) templ.Component {
	return build(func(ctx context.Context, h *html) {
		h.raw(`<div class="alert alert-error" role="alert"><strong>`)
		h.text(message)
		h.raw(`</strong>`)
		if action != "" {
			h.raw(`<p>`)
			h.text(action)
			h.raw(`</p>`)
		}
		if code != "" {
			h.raw(`<small class="muted">Code: `)
			h.text(code)
			h.raw(`</small>`)
		}
		h.raw(`</div>`)
	})
}

// Notice is a short success message.
func Notice(message string) templ.Component {
	return build(func(ctx context.Context, h *html) {
		h.raw(`<div class="alert alert-success" role="status">`)
		h.text(message)
		h.raw(`</div>`)
	})
}

// NotFoundPage is shown for unknown routes.
func NotFoundPage() templ.Component {
	return Layout(Page{Title: "Lost in Space"}, build(func(ctx context.Context, h *html) {
		h.raw(`<section class="empty-state"><h1>404 - Lost in Space</h1>`)
		h.raw(`<p>The page you're looking for is in another galaxy.</p>`)
		h.raw(`<a href="/">Return to Home Base</a></section>`)
	}))
}

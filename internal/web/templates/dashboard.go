package templates

import (
	"context"
	"time"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/exoplorer/internal/core"
)

// DashboardData feeds the home page.
type DashboardData struct {
	HasTable       bool
	TableFile      string
	TableRows      int
	TableColumns   int
	TableSaved     time.Time
	CandidateCount int
	Activity       []core.Activity
	PredictEnabled bool
}

// Dashboard renders the home page.
func Dashboard(d DashboardData) templ.Component {
	return Layout(Page{Title: "Home Base", Active: "dashboard"}, build(func(ctx context.Context, h *html) {
		h.raw(`<h1>Mission Control</h1><section class="cards">`)

		h.raw(`<article class="card"><h2>Exoplanet data</h2>`)
		if d.HasTable {
			h.raw(`<p class="stat">`)
			h.int(d.TableRows)
			h.raw(` rows</p><p>`)
			h.text(d.TableFile)
			h.raw(` · `)
			h.int(d.TableColumns)
			h.raw(` columns · saved `)
			h.text(d.TableSaved.Local().Format("2006-01-02 15:04"))
			h.raw(`</p>`)
		} else {
			h.raw(`<p class="muted">No table uploaded yet.</p>`)
		}
		h.raw(`<a class="btn" href="/table">Open table</a></article>`)

		h.raw(`<article class="card"><h2>Candidates</h2><p class="stat">`)
		h.int(d.CandidateCount)
		h.raw(`</p><a class="btn" href="/candidates">Add candidate</a></article>`)

		h.raw(`<article class="card"><h2>Classifier</h2>`)
		if d.PredictEnabled {
			h.raw(`<p>Prediction service configured.</p>`)
		} else {
			h.raw(`<p class="muted">Predictions are disabled.</p>`)
		}
		h.raw(`</article></section>`)

		h.raw(`<section><h2>Recent activity</h2>`)
		h.raw(`<div id="activity" hx-get="/api/activity" hx-trigger="activity-changed from:body">`)
		h.component(ctx, ActivityList(d.Activity))
		h.raw(`</div></section>`)
	}))
}

// ActivityList renders the recent activity feed.
func ActivityList(entries []core.Activity) templ.Component {
	return build(func(ctx context.Context, h *html) {
		if len(entries) == 0 {
			h.raw(`<p class="muted">Nothing has happened yet.</p>`)
			return
		}
		h.raw(`<ul class="activity">`)
		for _, a := range entries {
			h.raw(`<li><span class="badge">`)
			h.text(a.Kind)
			h.raw(`</span> `)
			h.text(a.Message)
			h.raw(` <time class="muted" datetime="`)
			h.text(a.At.Format(time.RFC3339))
			h.raw(`">`)
			h.text(a.At.Local().Format("Jan 2 15:04"))
			h.raw(`</time></li>`)
		}
		h.raw(`</ul>`)
	})
}

package templates

import (
	"context"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/exoplorer/internal/core"
)

// TablePageData feeds the exoplanet table page. Table is nil when nothing
// is saved.
type TablePageData struct {
	Table          *core.Table
	PredictEnabled bool
}

// TablePage renders the upload form and the saved table.
func TablePage(d TablePageData) templ.Component {
	return Layout(Page{Title: "Exoplanet Data", Active: "table"}, build(func(ctx context.Context, h *html) {
		h.raw(`<h1>Exoplanet data</h1>`)
		h.raw(`<form id="table-upload-form" hx-post="/api/table/preview" hx-encoding="multipart/form-data" hx-target="#table-preview">`)
		h.raw(`<input type="file" name="file" accept=".csv,.txt,.xlsx" required>`)
		h.raw(`<button type="submit" class="btn">Preview</button></form>`)
		h.raw(`<div id="table-preview"></div>`)
		h.raw(`<div id="table-view">`)
		h.component(ctx, TableView(d.Table, d.PredictEnabled))
		h.raw(`</div><div id="predictions"></div><div id="table-stats"></div>`)
	}))
}

// TablePreview shows the first rows of an uploaded file with a pending
// Result column and a button that saves the file.
func TablePreview(p core.Preview) templ.Component {
	return build(func(ctx context.Context, h *html) {
		h.raw(`<div class="preview"><p>`)
		h.text(p.FileName)
		h.raw(`: showing `)
		h.int(p.Shown)
		h.raw(` of `)
		h.int(p.Total)
		h.raw(` rows</p>`)
		dataTable(h, p.Columns, p.Rows)
		h.raw(`<button class="btn btn-primary" hx-post="/api/table" hx-include="#table-upload-form" hx-encoding="multipart/form-data" hx-target="#table-view">Save table</button></div>`)
	})
}

// TableView renders the saved table or its empty state.
func TableView(t *core.Table, predictEnabled bool) templ.Component {
	return build(func(ctx context.Context, h *html) {
		if t == nil {
			h.raw(`<p class="muted empty-state">No exoplanet data saved. Upload a CSV file to get started.</p>`)
			return
		}
		h.raw(`<div class="section-head"><h2>`)
		h.text(t.FileName)
		h.raw(` <small class="muted">`)
		h.int(len(t.Rows))
		h.raw(` rows</small></h2><div class="actions">`)
		h.raw(`<a class="btn" href="/api/table/export">Export CSV</a>`)
		h.raw(`<a class="btn" href="/api/table/export?format=xlsx">Export Excel</a>`)
		h.raw(`<button class="btn" hx-get="/api/table/stats" hx-target="#table-stats">Statistics</button>`)
		if predictEnabled {
			h.raw(`<button class="btn btn-primary" hx-post="/api/table/predict" hx-target="#predictions">Classify all</button>`)
		}
		h.raw(`<button class="btn btn-danger" hx-delete="/api/table" hx-target="#table-view" hx-confirm="Delete the saved table?">Clear</button>`)
		h.raw(`</div></div>`)

		rows := make([][]string, len(t.Rows))
		for i, r := range t.Rows {
			rows[i] = t.Values(r)
		}
		dataTable(h, t.Headers, rows)
	})
}

// TableStats renders per-column statistics.
func TableStats(summaries []core.ColumnSummary) templ.Component {
	return build(func(ctx context.Context, h *html) {
		h.raw(`<div class="table-wrap"><table class="data stats"><thead><tr>`)
		for _, c := range []string{"Column", "Filled", "Distinct", "Mean", "Std dev", "Min", "Q25", "Median", "Q75", "Max"} {
			h.raw(`<th>` + c + `</th>`)
		}
		h.raw(`</tr></thead><tbody>`)
		for _, s := range summaries {
			h.raw(`<tr><td><code>`)
			h.text(s.Name)
			h.raw(`</code></td><td>`)
			h.int(s.Filled)
			h.raw(`</td><td>`)
			h.int(s.Distinct)
			h.raw(`</td>`)
			for _, v := range []*float64{s.Mean, s.StdDev, s.Min, s.Q25, s.Median, s.Q75, s.Max} {
				h.raw(`<td>`)
				if v != nil {
					h.raw(strconv.FormatFloat(*v, 'g', 6, 64))
				}
				h.raw(`</td>`)
			}
			h.raw(`</tr>`)
		}
		h.raw(`</tbody></table></div>`)
	})
}

func dataTable(h *html, headers []string, rows [][]string) {
	h.raw(`<div class="table-wrap"><table class="data"><thead><tr>`)
	for _, c := range headers {
		h.raw(`<th>`)
		h.text(c)
		h.raw(`</th>`)
	}
	h.raw(`</tr></thead><tbody>`)
	for _, r := range rows {
		h.raw(`<tr>`)
		for _, v := range r {
			h.raw(`<td>`)
			h.text(v)
			h.raw(`</td>`)
		}
		h.raw(`</tr>`)
	}
	h.raw(`</tbody></table></div>`)
}

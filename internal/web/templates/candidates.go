package templates

import (
	"context"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/exoplorer/internal/core"
)

// CandidatesData feeds the candidate page.
type CandidatesData struct {
	Fields         []core.FieldSpec
	Records        []core.CandidateRecord // newest first
	Columns        []string
	Prefill        map[string]string
	PredictEnabled bool
}

// CandidatesPage renders the candidate form and the saved records.
func CandidatesPage(d CandidatesData) templ.Component {
	return Layout(Page{Title: "Candidates", Active: "candidates"}, build(func(ctx context.Context, h *html) {
		h.raw(`<h1>New candidate</h1>`)
		h.raw(`<form id="candidate-form" hx-post="/api/candidates" hx-target="#candidate-result" hx-swap="innerHTML">`)
		h.raw(`<div class="form-columns">`)
		for _, side := range []string{"left", "right"} {
			h.rawf(`<fieldset class="form-col form-col-%s">`, side)
			for _, f := range d.Fields {
				if f.Side != side {
					continue
				}
				fieldInput(h, f, d.Prefill[f.Name])
			}
			h.raw(`</fieldset>`)
		}
		h.raw(`</div><div class="actions">`)
		h.raw(`<button type="submit" class="btn btn-primary">Save candidate</button>`)
		h.raw(`<button type="button" class="btn" hx-post="/api/candidates/validate" hx-include="#candidate-form" hx-target="#candidate-result">Check values</button>`)
		h.raw(`<button type="reset" class="btn">Clear form</button></div></form>`)
		h.raw(`<div id="candidate-result"></div>`)

		h.raw(`<section><div class="section-head"><h2>Saved candidates</h2>`)
		h.raw(`<a class="btn" href="/api/candidates/export">Export CSV</a>`)
		h.raw(`<button class="btn btn-danger" hx-delete="/api/candidates" hx-target="#candidate-list" hx-confirm="Delete every saved candidate?">Delete all</button></div>`)
		h.raw(`<div id="candidate-list" hx-get="/api/candidates" hx-trigger="candidates-changed from:body">`)
		h.component(ctx, CandidateList(d.Records, d.Columns, d.PredictEnabled))
		h.raw(`</div></section>`)
	}))
}

func fieldInput(h *html, f core.FieldSpec, value string) {
	h.raw(`<label class="field"><span>`)
	h.text(f.Label)
	h.raw(` <code>`)
	h.text(f.Name)
	h.raw(`</code></span><input type="text" inputmode="decimal" name="`)
	h.text(f.Name)
	h.raw(`" data-type="`)
	h.text(string(f.Type))
	h.raw(`" value="`)
	h.text(value)
	h.raw(`"></label>`)
}

// CandidateSaved confirms a submission and shows the advisory checks.
func CandidateSaved(rec core.CandidateRecord, checks []core.FieldCheck, predictEnabled bool) templ.Component {
	return build(func(ctx context.Context, h *html) {
		h.component(ctx, Notice("Candidate saved with "+strconv.Itoa(len(rec.Fields))+" values."))
		h.component(ctx, ValidationSummary(checks))
		if predictEnabled {
			id := strconv.FormatInt(rec.ID, 10)
			h.raw(`<div id="prediction-` + id + `">`)
			h.raw(`<button class="btn btn-primary" hx-post="/api/candidates/` + id + `/predict" hx-target="#prediction-` + id + `">Classify</button>`)
			h.raw(`</div>`)
		}
	})
}

// ValidationSummary lists fields whose values do not match their type.
func ValidationSummary(checks []core.FieldCheck) templ.Component {
	return build(func(ctx context.Context, h *html) {
		var bad []core.FieldCheck
		for _, c := range checks {
			if !c.Valid {
				bad = append(bad, c)
			}
		}
		if len(bad) == 0 {
			h.raw(`<p class="check-ok">All values look valid.</p>`)
			return
		}
		h.raw(`<div class="alert alert-warning"><strong>Some values do not match their expected type</strong><ul>`)
		for _, c := range bad {
			h.raw(`<li><code>`)
			h.text(c.Field)
			h.raw(`</code> = "`)
			h.text(c.Value)
			h.raw(`" (expected `)
			h.text(string(c.Type))
			h.raw(`)</li>`)
		}
		h.raw(`</ul></div>`)
	})
}

// CandidateList renders the saved candidates table.
func CandidateList(records []core.CandidateRecord, columns []string, predictEnabled bool) templ.Component {
	return build(func(ctx context.Context, h *html) {
		if len(records) == 0 {
			h.raw(`<p class="muted empty-state">No candidates saved yet.</p>`)
			return
		}
		h.raw(`<div class="table-wrap"><table class="data"><thead><tr><th>ID</th><th>Saved</th>`)
		for _, c := range columns {
			h.raw(`<th>`)
			h.text(c)
			h.raw(`</th>`)
		}
		h.raw(`<th></th></tr></thead><tbody>`)
		for _, rec := range records {
			id := strconv.FormatInt(rec.ID, 10)
			h.raw(`<tr id="candidate-` + id + `"><td><code>` + id + `</code></td><td>`)
			h.text(rec.Timestamp.Local().Format(time.DateTime))
			h.raw(`</td>`)
			for _, c := range columns {
				v := rec.Fields[c]
				if v != "" && !core.ValidateValue(fieldType(c), v) {
					h.raw(`<td class="invalid">`)
				} else {
					h.raw(`<td>`)
				}
				h.text(v)
				h.raw(`</td>`)
			}
			h.raw(`<td class="row-actions">`)
			if predictEnabled {
				h.raw(`<button class="btn btn-small" hx-post="/api/candidates/` + id + `/predict" hx-target="#candidate-result">Classify</button>`)
			}
			h.raw(`<button class="btn btn-small btn-danger" hx-delete="/api/candidates/` + id + `" hx-target="#candidate-list" hx-confirm="Delete this candidate?">Delete</button>`)
			h.raw(`</td></tr>`)
		}
		h.raw(`</tbody></table></div>`)
	})
}

func fieldType(name string) core.FieldType {
	if spec, ok := core.LookupField(name); ok {
		return spec.Type
	}
	return core.FieldNumber
}

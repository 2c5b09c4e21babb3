package templates

import (
	"context"
	"slices"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/exoplorer/internal/predict"
)

// PredictionResult renders one classification.
func PredictionResult(res *predict.Result) templ.Component {
	return build(func(ctx context.Context, h *html) {
		h.raw(`<div class="prediction"><h3>`)
		h.text(res.Prediction)
		h.raw(`</h3><p>Confidence `)
		h.raw(percent(res.Confidence))
		if res.Model != "" {
			h.raw(` · `)
			h.text(res.Model)
		}
		h.raw(`</p>`)
		if len(res.Probabilities) > 0 {
			classes := make([]string, 0, len(res.Probabilities))
			for c := range res.Probabilities {
				classes = append(classes, c)
			}
			slices.Sort(classes)
			h.raw(`<ul class="probabilities">`)
			for _, c := range classes {
				h.raw(`<li>`)
				h.text(c)
				h.raw(`: `)
				h.raw(percent(res.Probabilities[c]))
				h.raw(`</li>`)
			}
			h.raw(`</ul>`)
		}
		if res.Warning != "" {
			h.raw(`<p class="muted">`)
			h.text(res.Warning)
			h.raw(`</p>`)
		}
		h.raw(`</div>`)
	})
}

// PredictError replaces a result panel when the service fails. The retry
// button repeats the request against retryURL.
func PredictError(message, action, code, retryURL string) templ.Component {
	return build(func(ctx context.Context, h *html) {
		h.raw(`<div class="prediction prediction-error">`)
		h.component(ctx, ErrorAlert(message, action, code))
		if retryURL != "" {
			h.raw(`<button class="btn" hx-post="`)
			h.text(retryURL)
			h.raw(`" hx-target="closest .prediction" hx-swap="outerHTML">Retry</button>`)
		}
		h.raw(`</div>`)
	})
}

// BatchPredictions lists the outcome of classifying every table row.
func BatchPredictions(results []predict.RowResult) templ.Component {
	return build(func(ctx context.Context, h *html) {
		h.raw(`<div class="prediction"><div class="table-wrap"><table class="data"><thead><tr><th>Row</th><th>Result</th><th>Confidence</th></tr></thead><tbody>`)
		for _, r := range results {
			h.raw(`<tr><td>`)
			h.int(r.Index + 1)
			h.raw(`</td>`)
			if r.Result == nil {
				h.raw(`<td class="invalid" colspan="2">`)
				h.text(r.Error)
				h.raw(`</td></tr>`)
				continue
			}
			h.raw(`<td>`)
			h.text(r.Result.Prediction)
			h.raw(`</td><td>`)
			h.raw(percent(r.Result.Confidence))
			h.raw(`</td></tr>`)
		}
		h.raw(`</tbody></table></div></div>`)
	})
}

func percent(v float64) string {
	return strconv.FormatFloat(v*100, 'f', 1, 64) + "%"
}

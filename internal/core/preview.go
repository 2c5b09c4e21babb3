package core

// Preview layout
const (
	// DefaultPreviewRows is how many data rows a preview shows.
	DefaultPreviewRows = 5

	// ResultColumn is the synthetic column appended to every preview.
	ResultColumn = "Result"

	// ResultPending fills ResultColumn until a classification exists.
	ResultPending = "Pending"
)

// Preview is the read-only view of a freshly parsed table. It is never
// persisted; the Result column exists only here.
type Preview struct {
	FileName string     `json:"fileName,omitempty"`
	Columns  []string   `json:"columns"`
	Rows     [][]string `json:"rows"`
	Shown    int        `json:"shown"`
	Total    int        `json:"total"`
}

// BuildPreview returns the first min(limit, len(t.Rows)) rows of t ordered
// by header, each followed by a ResultPending cell. A non-positive limit
// uses DefaultPreviewRows.
func BuildPreview(t *Table, limit int) Preview {
	if limit <= 0 {
		limit = DefaultPreviewRows
	}
	shown := min(limit, len(t.Rows))

	columns := make([]string, 0, len(t.Headers)+1)
	columns = append(columns, t.Headers...)
	columns = append(columns, ResultColumn)

	rows := make([][]string, shown)
	for i := 0; i < shown; i++ {
		cells := append(t.Values(t.Rows[i]), ResultPending)
		rows[i] = cells
	}

	return Preview{
		FileName: t.FileName,
		Columns:  columns,
		Rows:     rows,
		Shown:    shown,
		Total:    len(t.Rows),
	}
}

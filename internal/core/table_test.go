package core

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantHeaders []string
		wantRows    []Row
	}{
		{
			name:        "basic table",
			input:       "name,period\nKepler-22b,289.9\nKepler-452b,384.8\n",
			wantHeaders: []string{"name", "period"},
			wantRows: []Row{
				{"name": "Kepler-22b", "period": "289.9"},
				{"name": "Kepler-452b", "period": "384.8"},
			},
		},
		{
			name:        "blank lines discarded",
			input:       "\n\na,b\n\n1,2\n   \n3,4\n\n",
			wantHeaders: []string{"a", "b"},
			wantRows:    []Row{{"a": "1", "b": "2"}, {"a": "3", "b": "4"}},
		},
		{
			name:        "fields and headers trimmed",
			input:       " a , b \n 1 ,  2\n",
			wantHeaders: []string{"a", "b"},
			wantRows:    []Row{{"a": "1", "b": "2"}},
		},
		{
			name:        "short rows padded",
			input:       "a,b,c\n1\n1,2\n",
			wantHeaders: []string{"a", "b", "c"},
			wantRows:    []Row{{"a": "1", "b": "", "c": ""}, {"a": "1", "b": "2", "c": ""}},
		},
		{
			name:        "extra trailing fields dropped",
			input:       "a,b\n1,2,3,4\n",
			wantHeaders: []string{"a", "b"},
			wantRows:    []Row{{"a": "1", "b": "2"}},
		},
		{
			name:        "crlf line breaks",
			input:       "a,b\r\n1,2\r\n",
			wantHeaders: []string{"a", "b"},
			wantRows:    []Row{{"a": "1", "b": "2"}},
		},
		{
			name:        "quoted field with comma",
			input:       "name,note\nKOI-7016,\"small, rocky\"\n",
			wantHeaders: []string{"name", "note"},
			wantRows:    []Row{{"name": "KOI-7016", "note": "small, rocky"}},
		},
		{
			name:        "unmatched opening quote stays on its line",
			input:       "name,score\n\"Kepler-22,1\nKepler-10,2\nKepler-7,3\n",
			wantHeaders: []string{"name", "score"},
			wantRows: []Row{
				{"name": `"Kepler-22`, "score": "1"},
				{"name": "Kepler-10", "score": "2"},
				{"name": "Kepler-7", "score": "3"},
			},
		},
		{
			name:        "bare quotes kept verbatim",
			input:       "name,note\nKepler-22,5\" disk\nKOI-1,KOI \"x\" b\n",
			wantHeaders: []string{"name", "note"},
			wantRows: []Row{
				{"name": "Kepler-22", "note": `5" disk`},
				{"name": "KOI-1", "note": `KOI "x" b`},
			},
		},
		{
			name:        "quoted field does not span lines",
			input:       "a,b\n\"x\ny\",1\n",
			wantHeaders: []string{"a", "b"},
			wantRows:    []Row{{"a": `"x`, "b": ""}, {"a": `y"`, "b": "1"}},
		},
		{
			name:        "header only",
			input:       "koi_prad,koi_incl\n",
			wantHeaders: []string{"koi_prad", "koi_incl"},
			wantRows:    []Row{},
		},
		{
			name:        "no trailing newline",
			input:       "a\n1",
			wantHeaders: []string{"a"},
			wantRows:    []Row{{"a": "1"}},
		},
		{
			name:        "utf8 bom stripped from first header",
			input:       "\xEF\xBB\xBFa,b\n1,2\n",
			wantHeaders: []string{"a", "b"},
			wantRows:    []Row{{"a": "1", "b": "2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCSV(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("ParseCSV() error = %v", err)
			}
			if diff := cmp.Diff(tt.wantHeaders, got.Headers); diff != "" {
				t.Errorf("headers mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantRows, got.Rows); diff != "" {
				t.Errorf("rows mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseCSV_Empty(t *testing.T) {
	for _, input := range []string{"", "\n\n", "   \n \n"} {
		_, err := ParseCSV(strings.NewReader(input))
		if !errors.Is(err, ErrEmptyFile) {
			t.Errorf("ParseCSV(%q) error = %v, want ErrEmptyFile", input, err)
		}
	}
}

func TestParseCSV_RowsHaveHeaderKeys(t *testing.T) {
	got, err := ParseCSV(strings.NewReader("a,b,c\n1\n1,2,3,4,5\n,,\n"))
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range got.Rows {
		if len(r) != len(got.Headers) {
			t.Errorf("row %d has %d keys, want %d", i, len(r), len(got.Headers))
		}
		for _, h := range got.Headers {
			if _, ok := r[h]; !ok {
				t.Errorf("row %d missing key %q", i, h)
			}
		}
	}
}

func TestEncodeCSV(t *testing.T) {
	headers := []string{"a", "b"}
	rows := []Row{{"a": "1", "b": "2"}, {"a": "3"}}

	var buf bytes.Buffer
	if err := EncodeCSV(&buf, headers, rows); err != nil {
		t.Fatalf("EncodeCSV() error = %v", err)
	}

	want := "a,b\n1,2\n3,\n"
	if buf.String() != want {
		t.Errorf("EncodeCSV() = %q, want %q", buf.String(), want)
	}
}

func TestEncodeCSV_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeCSV(&buf, []string{"koi_prad"}, nil); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "koi_prad\n" {
		t.Errorf("EncodeCSV() = %q", buf.String())
	}
}

func TestCSVRoundTrip(t *testing.T) {
	inputs := []string{
		"name,period,radius\nKepler-22b,289.9,2.4\nKepler-452b,384.8,1.6\n",
		"a,b,c\n1,,3\n,,\n",
		"name,note\nKOI-7016,\"small, rocky\"\nKOI-1,\"said \"\"hi\"\"\"\n",
		"name,note\nKepler-22,5\" disk\nKOI-1,KOI \"x\" b\n",
		"name,note\nKOI-2,\"a,\"\"b\"\n",
	}

	for _, input := range inputs {
		first, err := ParseCSV(strings.NewReader(input))
		if err != nil {
			t.Fatalf("ParseCSV() error = %v", err)
		}

		var buf bytes.Buffer
		if err := EncodeCSV(&buf, first.Headers, first.Rows); err != nil {
			t.Fatalf("EncodeCSV() error = %v", err)
		}

		second, err := ParseCSV(&buf)
		if err != nil {
			t.Fatalf("re-parse error = %v", err)
		}
		if diff := cmp.Diff(first.Headers, second.Headers); diff != "" {
			t.Errorf("headers changed (-first +second):\n%s", diff)
		}
		if diff := cmp.Diff(first.Rows, second.Rows); diff != "" {
			t.Errorf("rows changed (-first +second):\n%s", diff)
		}
	}
}

func TestCSVRoundTrip_ByteIdentical(t *testing.T) {
	inputs := []string{
		"name,note\nKepler-22,5\" disk\n",
		"name,note\nKOI-1,KOI \"x\" b\nKOI-2,\"quoted\"\n",
		"kepid,koi_score,koi_prad\n10797460,1.0,2.26\n10811496,0.0,\n",
	}

	for _, input := range inputs {
		tbl, err := ParseCSV(strings.NewReader(input))
		if err != nil {
			t.Fatalf("ParseCSV(%q) error = %v", input, err)
		}
		var buf bytes.Buffer
		if err := EncodeCSV(&buf, tbl.Headers, tbl.Rows); err != nil {
			t.Fatal(err)
		}
		if buf.String() != input {
			t.Errorf("export = %q, want %q", buf.String(), input)
		}
	}
}

func TestEncodeCSV_QuotesOnlyCommasAndLineBreaks(t *testing.T) {
	headers := []string{"a"}
	rows := []Row{{"a": "x,y"}, {"a": "line\nbreak"}, {"a": `5" disk`}, {"a": `p,"q"`}}

	var buf bytes.Buffer
	if err := EncodeCSV(&buf, headers, rows); err != nil {
		t.Fatal(err)
	}

	want := "a\n\"x,y\"\n\"line\nbreak\"\n5\" disk\n\"p,\"\"q\"\"\"\n"
	if buf.String() != want {
		t.Errorf("EncodeCSV() = %q, want %q", buf.String(), want)
	}
}

func TestEncodeCSV_PlainValuesMatchJoin(t *testing.T) {
	headers := []string{"koi_period", "koi_prad"}
	rows := []Row{{"koi_period": "9.48", "koi_prad": "2.26"}, {"koi_period": "54.4", "koi_prad": ""}}

	var buf bytes.Buffer
	EncodeCSV(&buf, headers, rows)

	var want strings.Builder
	want.WriteString(strings.Join(headers, ",") + "\n")
	for _, r := range rows {
		want.WriteString(r["koi_period"] + "," + r["koi_prad"] + "\n")
	}
	if buf.String() != want.String() {
		t.Errorf("got %q, want %q", buf.String(), want.String())
	}
}

func TestReadTable(t *testing.T) {
	t.Run("csv sets file name", func(t *testing.T) {
		got, err := ReadTable(strings.NewReader("a\n1\n"), "uploads/koi.csv", 0)
		if err != nil {
			t.Fatal(err)
		}
		if got.FileName != "koi.csv" {
			t.Errorf("FileName = %q, want koi.csv", got.FileName)
		}
	})

	t.Run("size cap", func(t *testing.T) {
		input := "a\n" + strings.Repeat("1\n", 100)
		_, err := ReadTable(strings.NewReader(input), "big.csv", 50)
		if !errors.Is(err, ErrFileTooLarge) {
			t.Errorf("error = %v, want ErrFileTooLarge", err)
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := ReadTable(strings.NewReader("a\n1\n"), "data.json", 0)
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("error = %v, want ErrUnsupportedFormat", err)
		}
	})

	t.Run("xlsx", func(t *testing.T) {
		var buf bytes.Buffer
		headers := []string{"kepoi_name", "koi_prad"}
		rows := []Row{{"kepoi_name": "K00752.01", "koi_prad": "2.26"}, {"kepoi_name": "K00753.01", "koi_prad": ""}}
		if err := EncodeXLSX(&buf, "exoplanets", headers, rows); err != nil {
			t.Fatalf("EncodeXLSX() error = %v", err)
		}

		got, err := ReadTable(&buf, "koi.XLSX", 0)
		if err != nil {
			t.Fatalf("ReadTable(xlsx) error = %v", err)
		}
		if diff := cmp.Diff(headers, got.Headers); diff != "" {
			t.Errorf("headers mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(rows, got.Rows); diff != "" {
			t.Errorf("rows mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestTableNormalize(t *testing.T) {
	tbl := &Table{
		Headers: []string{"a", "b"},
		Rows:    []Row{{"a": "1"}, {"a": "1", "b": "2", "zzz": "x"}},
	}
	tbl.normalize()

	want := []Row{{"a": "1", "b": ""}, {"a": "1", "b": "2"}}
	if diff := cmp.Diff(want, tbl.Rows); diff != "" {
		t.Errorf("normalize mismatch (-want +got):\n%s", diff)
	}
}

func TestExportFileName(t *testing.T) {
	day := time.Date(2025, 10, 4, 18, 30, 0, 0, time.UTC)
	if got := ExportFileName("exoplanet_data", "csv", day); got != "exoplanet_data_2025-10-04.csv" {
		t.Errorf("ExportFileName() = %q", got)
	}
}

func TestBuildPreview(t *testing.T) {
	tbl := &Table{Headers: []string{"a", "b"}}
	for i := 0; i < 7; i++ {
		tbl.Rows = append(tbl.Rows, Row{"a": string(rune('0' + i)), "b": "x"})
	}

	tests := []struct {
		name      string
		limit     int
		rows      int
		wantShown int
	}{
		{"more rows than limit", 5, 7, 5},
		{"fewer rows than limit", 5, 3, 3},
		{"no rows", 5, 0, 0},
		{"default limit", 0, 7, DefaultPreviewRows},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &Table{Headers: tbl.Headers, Rows: tbl.Rows[:tt.rows]}
			p := BuildPreview(sub, tt.limit)

			if diff := cmp.Diff([]string{"a", "b", ResultColumn}, p.Columns); diff != "" {
				t.Errorf("columns mismatch (-want +got):\n%s", diff)
			}
			if p.Shown != tt.wantShown || len(p.Rows) != tt.wantShown {
				t.Errorf("Shown = %d, len(Rows) = %d, want %d", p.Shown, len(p.Rows), tt.wantShown)
			}
			if p.Total != tt.rows {
				t.Errorf("Total = %d, want %d", p.Total, tt.rows)
			}
			for i, r := range p.Rows {
				if r[len(r)-1] != ResultPending {
					t.Errorf("row %d result = %q, want %q", i, r[len(r)-1], ResultPending)
				}
				if r[0] != sub.Rows[i]["a"] {
					t.Errorf("row %d out of order: %q", i, r[0])
				}
			}
		})
	}
}

func TestBuildPreview_DoesNotMutateTable(t *testing.T) {
	tbl := &Table{Headers: []string{"a"}, Rows: []Row{{"a": "1"}}}
	BuildPreview(tbl, 5)

	if diff := cmp.Diff([]string{"a"}, tbl.Headers); diff != "" {
		t.Errorf("headers mutated:\n%s", diff)
	}
	if _, ok := tbl.Rows[0][ResultColumn]; ok {
		t.Error("preview leaked the Result column into the table")
	}
}

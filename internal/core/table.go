package core

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// Row maps a header name to the cell value in that column.
type Row map[string]string

// Table is an ordered header list plus data rows keyed by header.
type Table struct {
	Headers   []string  `json:"headers"`
	Rows      []Row     `json:"data"`
	FileName  string    `json:"fileName,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Values returns row r as a slice ordered like the headers.
func (t *Table) Values(r Row) []string {
	out := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		out[i] = r[h]
	}
	return out
}

// normalize makes every row carry exactly the header set: missing keys
// become "" and keys outside the headers are dropped.
func (t *Table) normalize() {
	for i, r := range t.Rows {
		if len(r) == len(t.Headers) && hasAll(r, t.Headers) {
			continue
		}
		fixed := make(Row, len(t.Headers))
		for _, h := range t.Headers {
			fixed[h] = r[h]
		}
		t.Rows[i] = fixed
	}
}

func hasAll(r Row, headers []string) bool {
	for _, h := range headers {
		if _, ok := r[h]; !ok {
			return false
		}
	}
	return true
}

// ReadTable parses a CSV or XLSX upload. The codec is chosen from the file
// extension; anything other than .xlsx is read as delimited text. Reading
// more than maxSize bytes fails with ErrFileTooLarge (0 disables the cap).
func ReadTable(r io.Reader, fileName string, maxSize int64) (*Table, error) {
	r = limitSize(r, maxSize)

	var (
		t   *Table
		err error
	)
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx":
		t, err = ParseXLSX(r)
	case ".csv", ".txt", "":
		t, err = ParseCSV(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(fileName))
	}
	if err != nil {
		return nil, err
	}

	t.FileName = filepath.Base(fileName)
	return t, nil
}

// ParseCSV reads delimited text into a Table.
//
// Every line is one record. The first non-blank line is the header. Fields
// are trimmed, blank lines are skipped, short rows are padded with "" and
// extra trailing fields are dropped. A field wrapped in double quotes may
// contain commas; otherwise quote characters are ordinary data and a line is
// split on every comma as written. Input with no non-blank line fails with ErrEmptyFile.
func ParseCSV(r io.Reader) (*Table, error) {
	text, _, err := NewTextReader(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	br := bufio.NewReader(text)
	var records [][]string
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
			records = append(records, splitRecord(line))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			if errors.Is(err, ErrFileTooLarge) {
				return nil, err
			}
			return nil, fmt.Errorf("read csv: %w", err)
		}
	}

	return tableFromRecords(records)
}

// splitRecord splits one line into fields. Quotes are honoured only when the
// line is a single well-formed CSV record with a quoted comma in it; any
// other line keeps its quote characters as data.
func splitRecord(line string) []string {
	if n := strings.Count(line, `"`); n > 0 && n%2 == 0 {
		cr := csv.NewReader(strings.NewReader(line))
		cr.FieldsPerRecord = -1
		if rec, err := cr.Read(); err == nil && slices.ContainsFunc(rec, hasComma) {
			if _, err := cr.Read(); err == io.EOF {
				return rec
			}
		}
	}
	return strings.Split(line, ",")
}

func hasComma(s string) bool { return strings.Contains(s, ",") }

// tableFromRecords applies the header and row rules shared by every codec.
func tableFromRecords(records [][]string) (*Table, error) {
	var (
		headers []string
		rows    []Row
	)
	for _, rec := range records {
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		if isBlankRecord(rec) {
			continue
		}
		if headers == nil {
			headers = append([]string(nil), rec...)
			continue
		}
		row := make(Row, len(headers))
		for i, h := range headers {
			if i < len(rec) {
				row[h] = rec[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}

	if headers == nil {
		return nil, ErrEmptyFile
	}
	if rows == nil {
		rows = []Row{}
	}
	return &Table{Headers: headers, Rows: rows}, nil
}

func isBlankRecord(rec []string) bool {
	return len(rec) == 0 || (len(rec) == 1 && rec[0] == "")
}

// EncodeCSV writes headers then every row in order, one record per line,
// each terminated by '\n'. Values are looked up by header so a missing key
// is written as "". Only values containing a comma or a line break are
// quoted; everything else, embedded quotes included, is written as is.
func EncodeCSV(w io.Writer, headers []string, rows []Row) error {
	bw := bufio.NewWriter(w)

	writeRecord(bw, headers)
	record := make([]string, len(headers))
	for _, r := range rows {
		for j, h := range headers {
			record[j] = r[h]
		}
		writeRecord(bw, record)
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func writeRecord(bw *bufio.Writer, record []string) {
	for i, v := range record {
		if i > 0 {
			bw.WriteByte(',')
		}
		if strings.ContainsAny(v, ",\r\n") {
			bw.WriteByte('"')
			bw.WriteString(strings.ReplaceAll(v, `"`, `""`))
			bw.WriteByte('"')
			continue
		}
		bw.WriteString(v)
	}
	bw.WriteByte('\n')
}

// ExportFileName returns "<prefix>_YYYY-MM-DD.<ext>" for the given day.
func ExportFileName(prefix, ext string, day time.Time) string {
	return fmt.Sprintf("%s_%s.%s", prefix, day.Format("2006-01-02"), ext)
}

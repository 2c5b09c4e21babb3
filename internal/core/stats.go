package core

import (
	"math"

	"github.com/montanaflynn/stats"
)

// ColumnSummary describes the values of one table column.
//
// Numeric statistics are present only when every non-empty value parses
// as a number. Quartiles are omitted when the column is too short for a
// percentile rank.
type ColumnSummary struct {
	Name     string   `json:"name"`
	Filled   int      `json:"filled"`
	Numeric  bool     `json:"numeric"`
	Mean     *float64 `json:"mean,omitempty"`
	StdDev   *float64 `json:"stdDev,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Median   *float64 `json:"median,omitempty"`
	Q25      *float64 `json:"q25,omitempty"`
	Q75      *float64 `json:"q75,omitempty"`
	Distinct int      `json:"distinct"`
}

// SummarizeTable computes one ColumnSummary per header, in header order.
func SummarizeTable(t *Table) []ColumnSummary {
	out := make([]ColumnSummary, len(t.Headers))
	for i, h := range t.Headers {
		out[i] = summarizeColumn(h, t.Rows)
	}
	return out
}

func summarizeColumn(name string, rows []Row) ColumnSummary {
	s := ColumnSummary{Name: name}

	distinct := make(map[string]struct{})
	var data stats.Float64Data
	numeric := true
	for _, r := range rows {
		v := r[name]
		if v == "" {
			continue
		}
		s.Filled++
		distinct[v] = struct{}{}

		f, ok := parseNumber(v)
		if !ok {
			numeric = false
			continue
		}
		data = append(data, f)
	}
	s.Distinct = len(distinct)

	if !numeric || len(data) == 0 {
		return s
	}
	s.Numeric = true
	s.Mean = statOf(stats.Mean(data))
	s.StdDev = statOf(stats.StandardDeviation(data))
	s.Min = statOf(stats.Min(data))
	s.Max = statOf(stats.Max(data))
	s.Median = statOf(stats.Median(data))
	s.Q25 = statOf(stats.Percentile(data, 25))
	s.Q75 = statOf(stats.Percentile(data, 75))
	return s
}

// statOf keeps a statistic only when it was computable and finite.
func statOf(v float64, err error) *float64 {
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

package core

import "sort"

// sortedKeys returns the keys of m in ascending order.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CandidateColumns returns the export column order for recs: the catalog
// fields first, then any other field names in ascending order.
func CandidateColumns(recs []CandidateRecord) []string {
	cols := FieldNames()
	known := make(map[string]bool, len(cols))
	for _, c := range cols {
		known[c] = true
	}

	extra := make(map[string]string)
	for _, r := range recs {
		for name := range r.Fields {
			if !known[name] {
				extra[name] = ""
			}
		}
	}
	return append(cols, sortedKeys(extra)...)
}

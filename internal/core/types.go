package core

import "time"

// FieldType is the type tag attached to a candidate form field.
type FieldType string

const (
	FieldBoolean FieldType = "boolean"
	FieldInteger FieldType = "integer"
	FieldNumber  FieldType = "number"
)

// FieldSpec describes one candidate form field.
type FieldSpec struct {
	Name  string    `json:"name"`  // Kepler KOI column name
	Label string    `json:"label"` // Display label
	Type  FieldType `json:"type"`
	Side  string    `json:"side"` // Form column: "left" or "right"
}

// KOIFields is the candidate form catalog: the Kepler Objects of Interest
// features the classifier was trained on, in display order.
var KOIFields = []FieldSpec{
	{Name: "koi_score", Label: "Disposition score", Type: FieldNumber, Side: "left"},
	{Name: "koi_fwm_stat_sig", Label: "FW offset significance", Type: FieldNumber, Side: "left"},
	{Name: "koi_srho_err2", Label: "Stellar density err (-)", Type: FieldNumber, Side: "left"},
	{Name: "koi_dor_err2", Label: "Planet-star distance/radius err (-)", Type: FieldNumber, Side: "left"},
	{Name: "koi_dor_err1", Label: "Planet-star distance/radius err (+)", Type: FieldNumber, Side: "left"},
	{Name: "koi_incl", Label: "Inclination (deg)", Type: FieldNumber, Side: "left"},
	{Name: "koi_prad_err1", Label: "Planetary radius err (+)", Type: FieldNumber, Side: "left"},
	{Name: "koi_count", Label: "Planets in system", Type: FieldInteger, Side: "left"},
	{Name: "koi_dor", Label: "Planet-star distance/radius", Type: FieldNumber, Side: "left"},
	{Name: "koi_dikco_mdec_err", Label: "KIC offset Dec err", Type: FieldNumber, Side: "left"},
	{Name: "koi_period_err1", Label: "Orbital period err (+)", Type: FieldNumber, Side: "right"},
	{Name: "koi_period_err2", Label: "Orbital period err (-)", Type: FieldNumber, Side: "right"},
	{Name: "koi_dikco_mra_err", Label: "KIC offset RA err", Type: FieldNumber, Side: "right"},
	{Name: "koi_prad_err2", Label: "Planetary radius err (-)", Type: FieldNumber, Side: "right"},
	{Name: "koi_dikco_msky_err", Label: "KIC offset sky err", Type: FieldNumber, Side: "right"},
	{Name: "koi_max_sngle_ev", Label: "Max single event statistic", Type: FieldNumber, Side: "right"},
	{Name: "koi_prad", Label: "Planetary radius (Earth radii)", Type: FieldNumber, Side: "right"},
	{Name: "koi_dicco_mdec_err", Label: "Centroid offset Dec err", Type: FieldNumber, Side: "right"},
	{Name: "koi_model_snr", Label: "Transit signal-to-noise", Type: FieldNumber, Side: "right"},
	{Name: "koi_dicco_mra_err", Label: "Centroid offset RA err", Type: FieldNumber, Side: "right"},
}

// FieldNames returns the catalog names in display order.
func FieldNames() []string {
	names := make([]string, len(KOIFields))
	for i, f := range KOIFields {
		names[i] = f.Name
	}
	return names
}

// LookupField returns the catalog entry for name.
func LookupField(name string) (FieldSpec, bool) {
	for _, f := range KOIFields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// CandidateRecord is one saved form submission. Fields holds only the
// values the user filled in. The ID is encoded as a JSON string since it
// exceeds the integer precision of JavaScript numbers.
type CandidateRecord struct {
	ID        int64             `json:"id,string" yaml:"id"`
	Timestamp time.Time         `json:"timestamp" yaml:"timestamp"`
	Fields    map[string]string `json:"fields" yaml:"fields"`
}

// Activity is one entry of the recent activity feed.
type Activity struct {
	Message string    `json:"message"`
	Kind    string    `json:"kind"`
	At      time.Time `json:"at"`
}

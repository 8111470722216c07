package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/twpayne/go-geom"
)

// Source identifies which dataset a record was extracted from.
type Source string

const (
	SourceSPIDA    Source = "spida"
	SourceKatapult Source = "katapult"
)

// UnitPolicy controls how bare numeric pole lengths are interpreted.
type UnitPolicy string

const (
	// UnitsMetres treats every bare length as metres.
	UnitsMetres UnitPolicy = "metres"
	// UnitsFeet treats every bare length as feet.
	UnitsFeet UnitPolicy = "feet"
	// UnitsAuto guesses: values at or below 30 are metres, above are feet.
	// Fragile for short poles; explicit configuration is preferred.
	UnitsAuto UnitPolicy = "auto"
)

// autoMetresCutoff is the UnitsAuto boundary: a 30 m pole is ~98 ft, taller
// than anything in a distribution plant, while poles shorter than 30 ft are rare.
const autoMetresCutoff = 30.0

const metresPerFoot = 0.3048

// LatLng is a geographic position in decimal degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Point returns the position as a go-geom point (lon/lat axis order).
func (l LatLng) Point() *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{l.Lng, l.Lat}).SetSRID(4326)
}

// PoleSpec is the normalized pole specification shared by both extractors.
type PoleSpec struct {
	HeightFeet   int    `json:"height_feet"`
	HeightInches int    `json:"height_inches"` // 0–11
	ClassCode    string `json:"class_code"`
	Species      string `json:"species"`
}

// TotalInches returns the height as total inches for exact comparison.
func (s PoleSpec) TotalInches() int { return s.HeightFeet*12 + s.HeightInches }

// Format renders the canonical spec string, e.g. "50'-2 Southern Pine".
// Inches are omitted; use FormatWithInches when they matter.
func (s PoleSpec) Format() string {
	return fmt.Sprintf("%d'-%s %s", s.HeightFeet, s.ClassCode, s.Species)
}

// FormatWithInches renders the spec including the inch remainder,
// e.g. `50' 6"-2 Southern Pine`.
func (s PoleSpec) FormatWithInches() string {
	return fmt.Sprintf("%d' %d\"-%s %s", s.HeightFeet, s.HeightInches, s.ClassCode, s.Species)
}

// SplitFeet converts a length in decimal feet into whole feet plus rounded
// inches, carrying 12 inches into the next foot.
func SplitFeet(feet float64) (int, int) {
	whole := int(math.Floor(feet))
	inches := int(math.Round((feet - float64(whole)) * 12))
	if inches == 12 {
		whole++
		inches = 0
	}
	return whole, inches
}

// FeetFromMetres converts metres to decimal feet.
func FeetFromMetres(m float64) float64 { return m / metresPerFoot }

// MetresFromFeet converts decimal feet to metres.
func MetresFromFeet(ft float64) float64 { return ft * metresPerFoot }

// ResolveFeet interprets a bare numeric length under the given unit policy
// and returns decimal feet.
func ResolveFeet(value float64, policy UnitPolicy) float64 {
	switch policy {
	case UnitsMetres:
		return FeetFromMetres(value)
	case UnitsFeet:
		return value
	default:
		if AutoLooksMetric(value) {
			return FeetFromMetres(value)
		}
		return value
	}
}

// AutoLooksMetric is the UnitsAuto guess for a bare length value.
func AutoLooksMetric(value float64) bool { return value <= autoMetresCutoff }

// RoundPct rounds a 0–100 percentage to two decimals.
func RoundPct(pct float64) float64 { return math.Round(pct*100) / 100 }

// FormatPct renders a normalized percentage, e.g. "95.35%".
func FormatPct(pct float64) string { return fmt.Sprintf("%.2f%%", pct) }

// AttachmentRecord is a normalized communication-drop attachment.
type AttachmentRecord struct {
	Type     string   `json:"type"`
	Owner    string   `json:"owner"`
	HeightFt *float64 `json:"height_ft,omitempty"`
	// Measured is false for proposed drops (Katapult measured_attachments
	// false, SPIDA recommended-design attachments).
	Measured bool   `json:"measured"`
	Ref      RawRef `json:"-"`
}

// Key returns the identity the differ sets drops by: type and owner,
// case- and space-insensitive.
func (a AttachmentRecord) Key() string {
	norm := func(s string) string {
		return strings.ToLower(strings.Join(strings.Fields(s), ""))
	}
	return norm(a.Type) + "|" + norm(a.Owner)
}

// PoleRecord is the dataset-agnostic record both extractors normalize into.
type PoleRecord struct {
	Source   Source  `json:"source"`
	NativeID string  `json:"native_id"`
	SCID     string  `json:"scid,omitempty"`
	SCIDMain bool    `json:"scid_main"`
	PoleNum  *string `json:"pole_number,omitempty"`

	Location *LatLng   `json:"location,omitempty"`
	Spec     *PoleSpec `json:"pole_spec,omitempty"`

	ExistingPct *float64 `json:"existing_pct,omitempty"`
	FinalPct    *float64 `json:"final_pct,omitempty"`

	ComDrops []AttachmentRecord `json:"com_drops,omitempty"`

	// Ref addresses the record's source location in the original document.
	Ref RawRef `json:"-"`
	// MetricLength records that the source stores the pole length in metres,
	// so height edits convert feet back before writing.
	MetricLength bool `json:"-"`
	// FieldRefs holds absolute addresses for patchable leaves, keyed by the
	// diff field name (SPIDA records only).
	FieldRefs map[string]RawRef `json:"-"`
}

// NormalizedPoleNum returns the pole number stripped of whitespace and
// uppercased for matching, or "" when absent.
func (p *PoleRecord) NormalizedPoleNum() string {
	if p == nil || p.PoleNum == nil {
		return ""
	}
	return strings.ToUpper(strings.Join(strings.Fields(*p.PoleNum), ""))
}

// IsMainSCID reports whether s is composed only of ASCII digits. Katapult
// reference SCIDs like "002.A" are non-main and flagged, not discarded.
func IsMainSCID(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

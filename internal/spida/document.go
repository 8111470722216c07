package spida

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/jointuse/polecompare/internal/model"
)

// Document is the subset of a SPIDAcalc exchange file the engine reads.
// Patching operates on the original raw bytes, never on these structs.
type Document struct {
	Project        Project         `json:"project"`
	AnalysisAssets []AnalysisAsset `json:"analysisAssets"`
}

// Project holds the structure array. SCIDs are positional within it.
type Project struct {
	Structures []Structure `json:"structures"`
}

// Structure is one pole location in the exchange file.
type Structure struct {
	ID                   string    `json:"id"`
	ExternalID           string    `json:"externalId"`
	GeographicCoordinate *GeoPoint `json:"geographicCoordinate"`
	MapLocation          *GeoPoint `json:"mapLocation"`
	MeasuredDesign       *Design   `json:"measuredDesign"`
	RecommendedDesign    *Design   `json:"recommendedDesign"`
}

// GeoPoint is a GeoJSON-style point: coordinates are [lon, lat].
type GeoPoint struct {
	Coordinates []float64 `json:"coordinates"`
}

// LatLng converts the GeoJSON lon/lat pair to the normalized order.
func (g *GeoPoint) LatLng() *model.LatLng {
	if g == nil || len(g.Coordinates) != 2 {
		return nil
	}
	return &model.LatLng{Lat: g.Coordinates[1], Lng: g.Coordinates[0]}
}

// Design is one analysis layer (measured or recommended).
type Design struct {
	Pole        Pole         `json:"pole"`
	Attachments []Attachment `json:"attachments"`
}

// Pole carries the structure specification within a design layer.
type Pole struct {
	Length  Length `json:"length"`
	Class   string `json:"class"`
	Species string `json:"species"`
}

// Attachment is one item mounted on the pole within a design layer.
type Attachment struct {
	Owner            Owner      `json:"owner"`
	ClientItem       ClientItem `json:"clientItem"`
	AttachmentHeight *Length    `json:"attachmentHeight"`
}

// Owner identifies the utility or carrier owning an attachment.
type Owner struct {
	Industry string `json:"industry"`
	ID       string `json:"id"`
}

// ClientItem describes the attached equipment.
type ClientItem struct {
	Type string `json:"type"`
}

// Length is a pole length that arrives in one of three encodings: a
// {unit, value} object, a bare number, or a numeric string.
type Length struct {
	Value    float64
	Unit     string // "" when the source carried no unit
	IsObject bool   // true when the source was a {unit, value} object
	present  bool
}

// Present reports whether the source carried any length at all.
func (l Length) Present() bool { return l.present }

// UnmarshalJSON accepts {unit, value} objects, numbers, and numeric strings.
func (l *Length) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		return nil
	}

	if strings.HasPrefix(trimmed, "{") {
		var obj struct {
			Unit  string  `json:"unit"`
			Value float64 `json:"value"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return eris.Wrap(err, "spida: parse length object")
		}
		l.Value = obj.Value
		l.Unit = obj.Unit
		l.IsObject = true
		l.present = true
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		var f float64
		if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &f); err != nil {
			return eris.Errorf("spida: non-numeric length string %q", s)
		}
		l.Value = f
		l.present = true
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return eris.Wrap(err, "spida: parse length")
	}
	l.Value = f
	l.present = true
	return nil
}

// Feet resolves the length to decimal feet. Explicit units on the source
// object win; bare numbers fall back to the configured policy.
func (l Length) Feet(policy model.UnitPolicy) float64 {
	if l.IsObject && l.Unit != "" {
		if strings.HasPrefix(strings.ToLower(l.Unit), "met") {
			return model.FeetFromMetres(l.Value)
		}
		return l.Value
	}
	return model.ResolveFeet(l.Value, policy)
}

// AnalysisAsset is one top-level loading analysis block.
type AnalysisAsset struct {
	DesignName string       `json:"designName"`
	Structures []AssetEntry `json:"structures"`
}

// AssetEntry is the per-pole loading result within an analysis asset.
type AssetEntry struct {
	StructureID string  `json:"structureId"`
	Actual      float64 `json:"actual"`
	Allowable   float64 `json:"allowable"`
}

// Parse decodes a SPIDA exchange document. A document without
// project.structures is structurally invalid and fatal.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(model.ErrMalformedDocument, err.Error())
	}
	if doc.Project.Structures == nil {
		return nil, eris.Wrap(model.ErrMalformedDocument, "spida: project.structures absent")
	}
	return &doc, nil
}

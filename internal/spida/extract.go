package spida

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/jointuse/polecompare/internal/model"
)

// Analysis asset design names and the design keys they correspond to.
const (
	MeasuredDesignName    = "Measured Design"
	RecommendedDesignName = "Recommended Design"

	measuredKey    = "measuredDesign"
	recommendedKey = "recommendedDesign"
)

// Extractor normalizes SPIDA exchange documents into PoleRecords.
type Extractor struct {
	// DropOwner is the owner id com drops are filtered to.
	DropOwner string
	// Units interprets bare numeric lengths.
	Units model.UnitPolicy
}

// SCID derives the positional SCID for the structure at index i: one-based,
// zero-padded to three digits. It is a pure function of array order and must
// be recomputed on every extraction — reordering the array changes every SCID.
func SCID(i int) string {
	return fmt.Sprintf("%03d", i+1)
}

// PoleNumber resolves the structure's pole number: id, falling back to
// externalId. Both absent is ErrMissingField.
func PoleNumber(s *Structure) (string, error) {
	if s.ID != "" {
		return s.ID, nil
	}
	if s.ExternalID != "" {
		return s.ExternalID, nil
	}
	return "", eris.Wrap(model.ErrMissingField, "spida: structure has neither id nor externalId")
}

// Extract normalizes every structure in the document. Per-field extraction
// failures are recovered as absent fields; only document-level problems error.
func (e *Extractor) Extract(doc *Document) []model.PoleRecord {
	records := make([]model.PoleRecord, 0, len(doc.Project.Structures))

	for i := range doc.Project.Structures {
		s := &doc.Project.Structures[i]
		records = append(records, e.extractStructure(doc, s, i))
	}
	return records
}

func (e *Extractor) extractStructure(doc *Document, s *Structure, i int) model.PoleRecord {
	base := model.Ref("project", "structures", i)

	rec := model.PoleRecord{
		Source:    model.SourceSPIDA,
		NativeID:  s.ID,
		SCID:      SCID(i),
		SCIDMain:  true,
		Ref:       base,
		FieldRefs: map[string]model.RawRef{},
	}
	if rec.NativeID == "" {
		rec.NativeID = s.ExternalID
	}

	if num, err := PoleNumber(s); err == nil {
		rec.PoleNum = &num
	} else {
		zap.L().Debug("spida: pole number missing", zap.Int("structure", i))
	}

	if loc := s.GeographicCoordinate.LatLng(); loc != nil {
		rec.Location = loc
	} else if loc := s.MapLocation.LatLng(); loc != nil {
		rec.Location = loc
	}

	design, designKey := s.RecommendedDesign, recommendedKey
	if design == nil {
		design, designKey = s.MeasuredDesign, measuredKey
	}
	if design != nil {
		if spec, ok := e.PoleSpec(design); ok {
			rec.Spec = &spec
			lengthRef := base.Child(designKey, "pole", "length")
			if design.Pole.Length.IsObject {
				lengthRef = lengthRef.Child("value")
			}
			rec.FieldRefs[model.FieldSpecHeight] = lengthRef
			rec.FieldRefs[model.FieldSpecClass] = base.Child(designKey, "pole", "class")
			rec.FieldRefs[model.FieldSpecSpecies] = base.Child(designKey, "pole", "species")
			rec.MetricLength = storesMetres(design.Pole.Length, e.Units)
		}
	}

	poleID := s.ID
	if poleID == "" {
		poleID = s.ExternalID
	}
	if pct, ref, err := Loading(doc.AnalysisAssets, poleID, MeasuredDesignName); err == nil {
		rec.ExistingPct = &pct
		rec.FieldRefs[model.FieldExistingPct] = ref
	} else {
		zap.L().Debug("spida: existing loading unavailable",
			zap.String("pole", poleID), zap.Error(err))
	}
	if pct, ref, err := Loading(doc.AnalysisAssets, poleID, RecommendedDesignName); err == nil {
		rec.FinalPct = &pct
		rec.FieldRefs[model.FieldFinalPct] = ref
	} else {
		zap.L().Debug("spida: final loading unavailable",
			zap.String("pole", poleID), zap.Error(err))
	}

	rec.ComDrops = e.ComDrops(s, base)
	return rec
}

// PoleSpec reads the design layer's pole block, converting the length into
// whole feet plus inches with a 12-inch carry.
func (e *Extractor) PoleSpec(d *Design) (model.PoleSpec, bool) {
	if !d.Pole.Length.Present() {
		return model.PoleSpec{}, false
	}
	feet, inches := model.SplitFeet(d.Pole.Length.Feet(e.Units))
	return model.PoleSpec{
		HeightFeet:   feet,
		HeightInches: inches,
		ClassCode:    d.Pole.Class,
		Species:      d.Pole.Species,
	}, true
}

// Loading finds the analysis asset for the given design name, then the entry
// for the given pole, and normalizes its fraction to a 0–100 percentage with
// two-decimal precision. The returned ref addresses the raw `actual` leaf.
func Loading(assets []AnalysisAsset, structureID, designName string) (float64, model.RawRef, error) {
	for ai := range assets {
		if assets[ai].DesignName != designName {
			continue
		}
		for si := range assets[ai].Structures {
			if assets[ai].Structures[si].StructureID != structureID {
				continue
			}
			ref := model.Ref("analysisAssets", ai, "structures", si, "actual")
			return model.RoundPct(assets[ai].Structures[si].Actual * 100), ref, nil
		}
	}
	return 0, model.RawRef{}, eris.Wrapf(model.ErrAssetNotFound,
		"spida: no %q entry for structure %q", designName, structureID)
}

// ComDrops collects communication service drops from both design layers.
// A drop found in the measured design is as-built; one found only in the
// recommended design is proposed work, mirroring Katapult's measured flag.
func (e *Extractor) ComDrops(s *Structure, base model.RawRef) []model.AttachmentRecord {
	var drops []model.AttachmentRecord
	seen := map[string]int{}

	collect := func(d *Design, designKey string, measured bool) {
		if d == nil {
			return
		}
		for k := range d.Attachments {
			att := &d.Attachments[k]
			if !isComDrop(att, e.DropOwner) {
				continue
			}
			rec := model.AttachmentRecord{
				Type:     att.ClientItem.Type,
				Owner:    att.Owner.ID,
				Measured: measured,
				Ref:      base.Child(designKey, "attachments", k),
			}
			if att.AttachmentHeight != nil && att.AttachmentHeight.Present() {
				h := att.AttachmentHeight.Feet(e.Units)
				rec.HeightFt = &h
			}
			if idx, ok := seen[rec.Key()]; ok {
				// Measured layer wins over the proposed copy of the same drop.
				if measured && !drops[idx].Measured {
					drops[idx] = rec
				}
				continue
			}
			seen[rec.Key()] = len(drops)
			drops = append(drops, rec)
		}
	}

	collect(s.MeasuredDesign, measuredKey, true)
	collect(s.RecommendedDesign, recommendedKey, false)
	return drops
}

// storesMetres reports whether the document's length leaf holds metres, so
// height edits know to convert feet back on write.
func storesMetres(l Length, policy model.UnitPolicy) bool {
	if l.IsObject && l.Unit != "" {
		return strings.HasPrefix(strings.ToLower(l.Unit), "met")
	}
	switch policy {
	case model.UnitsFeet:
		return false
	case model.UnitsMetres:
		return true
	default:
		return model.AutoLooksMetric(l.Value)
	}
}

func isComDrop(att *Attachment, owner string) bool {
	if att.Owner.Industry != "COMMUNICATION" {
		return false
	}
	if !strings.EqualFold(att.Owner.ID, owner) {
		return false
	}
	return strings.HasSuffix(strings.ToLower(att.ClientItem.Type), "drop")
}

package katapult

import (
	"regexp"
	"sort"

	"go.uber.org/zap"

	"github.com/jointuse/polecompare/internal/model"
)

// Node types accepted as actual poles. Service locations, anchors and other
// point features never become pole rows.
var allowedNodeTypes = map[string]bool{
	"pole":              true,
	"Power":             true,
	"Power Transformer": true,
	"Joint":             true,
	"Joint Transformer": true,
}

const serviceLocationType = "Service Location"

// serviceDropType is the attachment type recorded for Katapult drops; the
// export has no per-drop item type of its own.
const serviceDropType = "Service Drop"

// lengthPattern matches pre-formatted heights like "50'-2" or "45'".
var lengthPattern = regexp.MustCompile(`^\s*(\d+)'\s*(?:-\s*(\d+))?\s*$`)

// Extractor normalizes Katapult job documents into PoleRecords.
type Extractor struct {
	// FieldMap supplies candidate attribute keys per canonical field.
	FieldMap FieldMap
	// Units interprets bare numeric lengths.
	Units model.UnitPolicy
	// IncludeReferences keeps non-main (reference) SCIDs in the listing.
	IncludeReferences bool
}

// Extract normalizes every pole node, then resolves service-location drops
// onto their owning poles via the connection/section graph.
func (e *Extractor) Extract(doc *Document) []model.PoleRecord {
	fm := e.FieldMap
	if len(fm.Length) == 0 {
		fm = DefaultFieldMap()
	}

	nodeIDs := make([]string, 0, len(doc.Nodes))
	for id := range doc.Nodes {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Strings(nodeIDs)

	records := make([]model.PoleRecord, 0, len(nodeIDs))
	byNode := make(map[string]int)

	for _, id := range nodeIDs {
		attrs := doc.Nodes[id].Attributes
		if !isPoleNode(attrs) {
			continue
		}

		scidAttr := attrs["scid"]
		scid, ok := scidAttr.ImportedString()
		if !ok {
			zap.L().Debug("katapult: node without scid skipped", zap.String("node", id))
			continue
		}
		main := model.IsMainSCID(scid)
		if !main && !e.IncludeReferences {
			continue
		}

		rec := model.PoleRecord{
			Source:   model.SourceKatapult,
			NativeID: id,
			SCID:     scid,
			SCIDMain: main,
			Ref:      model.Ref("nodes", id),
		}

		if num, ok := poleNumber(attrs, fm); ok {
			rec.PoleNum = &num
		}
		rec.Location = location(attrs)
		rec.Spec = e.poleSpec(attrs, fm)

		if pct, ok := loadingPct(attrs, "existing_capacity_%"); ok {
			rec.ExistingPct = &pct
		}
		if pct, ok := loadingPct(attrs, "final_passing_capacity_%"); ok {
			rec.FinalPct = &pct
		}

		byNode[id] = len(records)
		records = append(records, rec)
	}

	e.attachDrops(doc, nodeIDs, records, byNode)
	return records
}

// poleNumber walks the configured candidate chain; absence is tolerated,
// matching falls back to SCID or location.
func poleNumber(attrs Attributes, fm FieldMap) (string, bool) {
	v, ok := first(attrs, fm.PoleNumber)
	if !ok {
		return "", false
	}
	return stringify(v)
}

func location(attrs Attributes) *model.LatLng {
	latAttr, lngAttr := attrs["latitude"], attrs["longitude"]
	lat, okLat := latAttr.ImportedFloat()
	lng, okLng := lngAttr.ImportedFloat()
	if !okLat || !okLng {
		return nil
	}
	return &model.LatLng{Lat: lat, Lng: lng}
}

// poleSpec resolves the spec via the field map. Lengths arrive either as a
// pre-formatted string like "50'-2" or as a bare numeric interpreted under
// the unit policy; both converge on the same feet/inches shape as SPIDA.
func (e *Extractor) poleSpec(attrs Attributes, fm FieldMap) *model.PoleSpec {
	raw, ok := first(attrs, fm.Length)
	if !ok {
		return nil
	}

	feet, inches, ok := parseLength(raw, e.Units)
	if !ok {
		return nil
	}

	spec := &model.PoleSpec{HeightFeet: feet, HeightInches: inches}
	if v, ok := first(attrs, fm.Class); ok {
		spec.ClassCode, _ = stringify(v)
	}
	if v, ok := first(attrs, fm.Species); ok {
		spec.Species, _ = stringify(v)
	}
	return spec
}

func parseLength(raw any, units model.UnitPolicy) (int, int, bool) {
	if s, isStr := raw.(string); isStr {
		if m := lengthPattern.FindStringSubmatch(s); m != nil {
			feet := atoiOrZero(m[1])
			inches := atoiOrZero(m[2])
			return feet, inches, true
		}
	}
	f, ok := floatify(raw)
	if !ok {
		return 0, 0, false
	}
	feet, inches := model.SplitFeet(model.ResolveFeet(f, units))
	return feet, inches, true
}

func atoiOrZero(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}

// loadingPct reads a capacity attribute: a single-value mapping keyed by an
// opaque attribute id, already expressed 0–100. No re-multiplication.
func loadingPct(attrs Attributes, key string) (float64, bool) {
	attr, ok := attrs[key]
	if !ok {
		return 0, false
	}
	pct, ok := attr.SingleFloat()
	if !ok {
		return 0, false
	}
	return model.RoundPct(pct), true
}

func isPoleNode(attrs Attributes) bool {
	attr, ok := attrs["node_type"]
	if !ok {
		return true
	}
	v, ok := attr.Value("button_added")
	if !ok {
		v, ok = attr.SingleValue()
	}
	if !ok {
		return true
	}
	s, _ := stringify(v)
	return allowedNodeTypes[s]
}

// attachDrops scans service-location nodes and resolves each entry of
// measured_attachments to its owning pole: the section's connection links
// the drop node to the pole on the other end.
func (e *Extractor) attachDrops(doc *Document, nodeIDs []string, records []model.PoleRecord, byNode map[string]int) {
	sections := doc.sectionIndex()

	for _, id := range nodeIDs {
		attrs := doc.Nodes[id].Attributes
		nt := attrs["node_type"]
		v, ok := nt.Value("button_added")
		if !ok {
			continue
		}
		if s, _ := stringify(v); s != serviceLocationType {
			continue
		}

		ownerAttr := attrs["node_sub_type"]
		owner, _ := ownerAttr.ImportedString()

		maAttr := attrs["measured_attachments"]
		entries := maAttr.Entries()
		sids := make([]string, 0, len(entries))
		for sid := range entries {
			sids = append(sids, sid)
		}
		sort.Strings(sids)

		for _, sid := range sids {
			conn := sections[sid]
			if conn == nil {
				zap.L().Debug("katapult: section has no connection",
					zap.String("section", sid), zap.String("drop_node", id))
				continue
			}
			poleID := conn.NodeID1
			if poleID == id {
				poleID = conn.NodeID2
			}
			idx, ok := byNode[poleID]
			if !ok {
				continue
			}
			measured, _ := entries[sid].(bool)
			records[idx].ComDrops = append(records[idx].ComDrops, model.AttachmentRecord{
				Type:     serviceDropType,
				Owner:    owner,
				Measured: measured,
				Ref:      model.Ref("nodes", id, "attributes", "measured_attachments", sid),
			})
		}
	}
}

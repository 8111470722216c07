package diff

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/jointuse/polecompare/internal/model"
)

// loadingTolerance absorbs format/parse rounding on normalized percentages.
const loadingTolerance = 0.01

// Differ classifies per-field discrepancies across a matched pair.
// A mismatch is normal output, never an error.
type Differ struct{}

// New returns a Differ.
func New() *Differ { return &Differ{} }

// Compare produces one FieldDiff per tracked attribute of a matched pair.
// Unmatched results collapse to a single synthetic unmatched_pair diff
// carrying whichever side exists for triage.
func (d *Differ) Compare(mr model.MatchResult) []model.FieldDiff {
	if mr.Spida == nil || mr.Katapult == nil {
		return []model.FieldDiff{unmatchedDiff(mr)}
	}

	sp, kat := mr.Spida, mr.Katapult
	diffs := make([]model.FieldDiff, 0, 8)

	diffs = append(diffs, compareString(model.FieldPoleNumber, sp.PoleNum, kat.PoleNum))
	diffs = append(diffs, d.compareSpec(sp.Spec, kat.Spec)...)
	diffs = append(diffs, comparePct(model.FieldExistingPct, sp.ExistingPct, kat.ExistingPct))
	diffs = append(diffs, comparePct(model.FieldFinalPct, sp.FinalPct, kat.FinalPct))
	diffs = append(diffs, compareDrops(sp.ComDrops, kat.ComDrops)...)

	return diffs
}

func unmatchedDiff(mr model.MatchResult) model.FieldDiff {
	fd := model.FieldDiff{FieldName: model.FieldPole, Status: model.StatusUnmatchedPair}
	if mr.Spida != nil {
		fd.SpidaValue = mr.Spida.NativeID
	}
	if mr.Katapult != nil {
		fd.KatapultValue = mr.Katapult.NativeID
	}
	return fd
}

// compareString compares trimmed strings case-insensitively. A side whose
// extraction came up empty yields a *_missing status, not a mismatch.
func compareString(field string, spida, katapult *string) model.FieldDiff {
	fd := model.FieldDiff{FieldName: field}
	if spida != nil {
		fd.SpidaValue = *spida
	}
	if katapult != nil {
		fd.KatapultValue = *katapult
	}

	switch {
	case spida == nil && katapult == nil:
		fd.Status = model.StatusMatch
	case spida == nil:
		fd.Status = model.StatusSpidaMissing
	case katapult == nil:
		fd.Status = model.StatusKatapultMissing
	case strings.EqualFold(strings.TrimSpace(*spida), strings.TrimSpace(*katapult)):
		fd.Status = model.StatusMatch
	default:
		fd.Status = model.StatusMismatch
	}
	return fd
}

func (d *Differ) compareSpec(spida, katapult *model.PoleSpec) []model.FieldDiff {
	if spida == nil || katapult == nil {
		fd := model.FieldDiff{FieldName: model.FieldPoleSpec}
		switch {
		case spida == nil && katapult == nil:
			fd.Status = model.StatusMatch
		case spida == nil:
			fd.Status = model.StatusSpidaMissing
			fd.KatapultValue = katapult.Format()
		default:
			fd.Status = model.StatusKatapultMissing
			fd.SpidaValue = spida.Format()
		}
		return []model.FieldDiff{fd}
	}

	// Heights compare in total inches, exactly: both sides went through the
	// same conversion, so any difference is a real discrepancy.
	height := model.FieldDiff{
		FieldName:     model.FieldSpecHeight,
		SpidaValue:    fmt.Sprintf("%d' %d\"", spida.HeightFeet, spida.HeightInches),
		KatapultValue: fmt.Sprintf("%d' %d\"", katapult.HeightFeet, katapult.HeightInches),
		Status:        model.StatusMismatch,
	}
	if spida.TotalInches() == katapult.TotalInches() {
		height.Status = model.StatusMatch
	}

	class := compareString(model.FieldSpecClass, &spida.ClassCode, &katapult.ClassCode)
	species := compareString(model.FieldSpecSpecies, &spida.Species, &katapult.Species)
	return []model.FieldDiff{height, class, species}
}

func comparePct(field string, spida, katapult *float64) model.FieldDiff {
	fd := model.FieldDiff{FieldName: field}
	if spida != nil {
		fd.SpidaValue = model.FormatPct(*spida)
	}
	if katapult != nil {
		fd.KatapultValue = model.FormatPct(*katapult)
	}

	switch {
	case spida == nil && katapult == nil:
		fd.Status = model.StatusMatch
	case spida == nil:
		fd.Status = model.StatusSpidaMissing
	case katapult == nil:
		fd.Status = model.StatusKatapultMissing
	default:
		tol := loadingTolerance
		fd.ToleranceUsed = &tol
		if math.Abs(*spida-*katapult) <= tol {
			fd.Status = model.StatusMatch
		} else {
			fd.Status = model.StatusMismatch
		}
	}
	return fd
}

// compareDrops compares com-drop sets keyed by (type, owner). Presence on
// one side only is a directional missing; present on both with different
// measured state is a mismatch on that sub-field, not on presence.
func compareDrops(spida, katapult []model.AttachmentRecord) []model.FieldDiff {
	spSet := dropSet(spida)
	katSet := dropSet(katapult)

	keys := make([]string, 0, len(spSet)+len(katSet))
	for k := range spSet {
		keys = append(keys, k)
	}
	for k := range katSet {
		if _, dup := spSet[k]; !dup {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	if len(keys) == 0 {
		return []model.FieldDiff{{FieldName: model.FieldComDrops, Status: model.StatusMatch}}
	}

	diffs := make([]model.FieldDiff, 0, len(keys))
	for _, k := range keys {
		sp, inSp := spSet[k]
		kat, inKat := katSet[k]
		field := fmt.Sprintf("%s[%s]", model.FieldComDrops, k)

		switch {
		case inSp && !inKat:
			diffs = append(diffs, model.FieldDiff{
				FieldName:  field,
				SpidaValue: dropValue(sp),
				Status:     model.StatusKatapultMissing,
			})
		case !inSp && inKat:
			diffs = append(diffs, model.FieldDiff{
				FieldName:     field,
				KatapultValue: dropValue(kat),
				Status:        model.StatusSpidaMissing,
			})
		case sp.Measured != kat.Measured:
			diffs = append(diffs, model.FieldDiff{
				FieldName:     field + ".measured",
				SpidaValue:    sp.Measured,
				KatapultValue: kat.Measured,
				Status:        model.StatusMismatch,
			})
		default:
			diffs = append(diffs, model.FieldDiff{
				FieldName:     field,
				SpidaValue:    dropValue(sp),
				KatapultValue: dropValue(kat),
				Status:        model.StatusMatch,
			})
		}
	}
	return diffs
}

func dropSet(drops []model.AttachmentRecord) map[string]model.AttachmentRecord {
	set := make(map[string]model.AttachmentRecord, len(drops))
	for _, d := range drops {
		set[d.Key()] = d
	}
	return set
}

func dropValue(d model.AttachmentRecord) string {
	state := "proposed"
	if d.Measured {
		state = "measured"
	}
	return fmt.Sprintf("%s (%s, %s)", d.Type, d.Owner, state)
}

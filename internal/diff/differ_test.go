package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jointuse/polecompare/internal/model"
)

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }

func fullRecord(src model.Source) model.PoleRecord {
	return model.PoleRecord{
		Source:      src,
		NativeID:    "id-" + string(src),
		SCID:        "001",
		SCIDMain:    true,
		PoleNum:     strPtr("PL-1001"),
		Spec:        &model.PoleSpec{HeightFeet: 52, HeightInches: 0, ClassCode: "2", Species: "Southern Pine"},
		ExistingPct: f64Ptr(95.35),
		FinalPct:    f64Ptr(98.12),
		ComDrops: []model.AttachmentRecord{
			{Type: "Service Drop", Owner: "Charter", Measured: true},
		},
	}
}

func byField(t *testing.T, diffs []model.FieldDiff, field string) model.FieldDiff {
	t.Helper()
	for _, fd := range diffs {
		if fd.FieldName == field {
			return fd
		}
	}
	t.Fatalf("no diff for field %q", field)
	return model.FieldDiff{}
}

func TestCompareIdenticalRecordsAllMatch(t *testing.T) {
	sp := fullRecord(model.SourceSPIDA)
	kat := fullRecord(model.SourceKatapult)
	// Katapult writes the same drop with different casing and spacing.
	kat.ComDrops = []model.AttachmentRecord{{Type: "ServiceDrop", Owner: "charter", Measured: true}}

	diffs := New().Compare(model.MatchResult{Spida: &sp, Katapult: &kat, Method: model.MatchByPoleNumber})
	require.NotEmpty(t, diffs)
	for _, fd := range diffs {
		assert.Equal(t, model.StatusMatch, fd.Status, "field %s", fd.FieldName)
	}
}

func TestComparePoleNumberMismatch(t *testing.T) {
	sp := fullRecord(model.SourceSPIDA)
	kat := fullRecord(model.SourceKatapult)
	kat.PoleNum = strPtr("PL-9999")

	diffs := New().Compare(model.MatchResult{Spida: &sp, Katapult: &kat})
	fd := byField(t, diffs, model.FieldPoleNumber)
	assert.Equal(t, model.StatusMismatch, fd.Status)
	assert.Equal(t, "PL-1001", fd.SpidaValue)
	assert.Equal(t, "PL-9999", fd.KatapultValue)
}

func TestComparePoleNumberCaseAndSpaceInsensitive(t *testing.T) {
	fd := compareString(model.FieldPoleNumber, strPtr(" pl-1001 "), strPtr("PL-1001"))
	assert.Equal(t, model.StatusMatch, fd.Status)
}

func TestCompareMissingSides(t *testing.T) {
	fd := compareString(model.FieldPoleNumber, nil, strPtr("PL-1"))
	assert.Equal(t, model.StatusSpidaMissing, fd.Status)

	fd = compareString(model.FieldPoleNumber, strPtr("PL-1"), nil)
	assert.Equal(t, model.StatusKatapultMissing, fd.Status)

	// Absent on both sides is a match, not a defect.
	fd = compareString(model.FieldPoleNumber, nil, nil)
	assert.Equal(t, model.StatusMatch, fd.Status)
}

func TestCompareSpecHeightInches(t *testing.T) {
	sp := fullRecord(model.SourceSPIDA)
	kat := fullRecord(model.SourceKatapult)
	kat.Spec = &model.PoleSpec{HeightFeet: 51, HeightInches: 12 - 1, ClassCode: "2", Species: "Southern Pine"}

	diffs := New().Compare(model.MatchResult{Spida: &sp, Katapult: &kat})
	fd := byField(t, diffs, model.FieldSpecHeight)
	assert.Equal(t, model.StatusMismatch, fd.Status)
	assert.Equal(t, `52' 0"`, fd.SpidaValue)
	assert.Equal(t, `51' 11"`, fd.KatapultValue)
}

func TestCompareSpecMissingSide(t *testing.T) {
	sp := fullRecord(model.SourceSPIDA)
	kat := fullRecord(model.SourceKatapult)
	kat.Spec = nil

	diffs := New().Compare(model.MatchResult{Spida: &sp, Katapult: &kat})
	fd := byField(t, diffs, model.FieldPoleSpec)
	assert.Equal(t, model.StatusKatapultMissing, fd.Status)
	assert.Equal(t, "52'-2 Southern Pine", fd.SpidaValue)
}

func TestCompareLoadingTolerance(t *testing.T) {
	// Within 0.01 percentage points: match, with the tolerance recorded.
	fd := comparePct(model.FieldExistingPct, f64Ptr(95.35), f64Ptr(95.36))
	assert.Equal(t, model.StatusMatch, fd.Status)
	require.NotNil(t, fd.ToleranceUsed)
	assert.Equal(t, 0.01, *fd.ToleranceUsed)

	fd = comparePct(model.FieldExistingPct, f64Ptr(95.35), f64Ptr(95.37))
	assert.Equal(t, model.StatusMismatch, fd.Status)
	assert.Equal(t, "95.35%", fd.SpidaValue)
	assert.Equal(t, "95.37%", fd.KatapultValue)
}

func TestCompareDropsDirectional(t *testing.T) {
	spDrops := []model.AttachmentRecord{{Type: "Service Drop", Owner: "Charter", Measured: true}}

	diffs := compareDrops(spDrops, nil)
	require.Len(t, diffs, 1)
	assert.Equal(t, model.StatusKatapultMissing, diffs[0].Status)
	assert.Equal(t, "Service Drop (Charter, measured)", diffs[0].SpidaValue)

	diffs = compareDrops(nil, spDrops)
	require.Len(t, diffs, 1)
	assert.Equal(t, model.StatusSpidaMissing, diffs[0].Status)
}

func TestCompareDropsMeasuredState(t *testing.T) {
	sp := []model.AttachmentRecord{{Type: "Service Drop", Owner: "Charter", Measured: true}}
	kat := []model.AttachmentRecord{{Type: "Service Drop", Owner: "Charter", Measured: false}}

	diffs := compareDrops(sp, kat)
	require.Len(t, diffs, 1)
	assert.Equal(t, model.StatusMismatch, diffs[0].Status)
	assert.Contains(t, diffs[0].FieldName, ".measured")
	assert.Equal(t, true, diffs[0].SpidaValue)
	assert.Equal(t, false, diffs[0].KatapultValue)
}

func TestCompareDropsEmptyBothSides(t *testing.T) {
	diffs := compareDrops(nil, nil)
	require.Len(t, diffs, 1)
	assert.Equal(t, model.FieldComDrops, diffs[0].FieldName)
	assert.Equal(t, model.StatusMatch, diffs[0].Status)
}

func TestCompareUnmatchedPair(t *testing.T) {
	sp := fullRecord(model.SourceSPIDA)

	diffs := New().Compare(model.MatchResult{Spida: &sp, Method: model.MatchUnmatched})
	require.Len(t, diffs, 1)
	assert.Equal(t, model.FieldPole, diffs[0].FieldName)
	assert.Equal(t, model.StatusUnmatchedPair, diffs[0].Status)
	assert.Equal(t, sp.NativeID, diffs[0].SpidaValue)
	assert.Nil(t, diffs[0].KatapultValue)
}

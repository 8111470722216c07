package report

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jointuse/polecompare/internal/diff"
	"github.com/jointuse/polecompare/internal/model"
)

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }

func matchedPair() model.MatchResult {
	sp := model.PoleRecord{
		Source:      model.SourceSPIDA,
		NativeID:    "PL-1001",
		SCID:        "001",
		SCIDMain:    true,
		PoleNum:     strPtr("PL-1001"),
		Location:    &model.LatLng{Lat: 35, Lng: -80},
		Spec:        &model.PoleSpec{HeightFeet: 52, ClassCode: "2", Species: "Southern Pine"},
		ExistingPct: f64Ptr(95.35),
		FinalPct:    f64Ptr(98.12),
	}
	kat := model.PoleRecord{
		Source:      model.SourceKatapult,
		NativeID:    "node-a",
		SCID:        "001",
		SCIDMain:    true,
		PoleNum:     strPtr("PL-1001"),
		Spec:        &model.PoleSpec{HeightFeet: 52, ClassCode: "2", Species: "Southern Pine"},
		ExistingPct: f64Ptr(95.35),
		FinalPct:    f64Ptr(99.00),
	}
	return model.MatchResult{Spida: &sp, Katapult: &kat, Method: model.MatchByPoleNumber}
}

func unmatchedSpida() model.MatchResult {
	sp := model.PoleRecord{Source: model.SourceSPIDA, NativeID: "PL-2002", SCID: "002", SCIDMain: true}
	return model.MatchResult{Spida: &sp, Method: model.MatchUnmatched}
}

func TestBuild(t *testing.T) {
	matches := []model.MatchResult{matchedPair(), unmatchedSpida()}

	r, err := Build(context.Background(), matches, diff.New())
	require.NoError(t, err)
	assert.NotEmpty(t, r.RunID)
	assert.False(t, r.GeneratedAt.IsZero())

	require.Len(t, r.Rows, 2)
	row := r.Rows[0]
	assert.Equal(t, "001", row.SCID)
	assert.Equal(t, "PL-1001", row.SpidaPoleNum)
	assert.Equal(t, "52'-2 Southern Pine", row.SpidaSpec)
	assert.Equal(t, "95.35%", row.SpidaExisting)
	assert.Equal(t, "99.00%", row.KatapultFinal)
	assert.Equal(t, model.MatchByPoleNumber, row.Method)
	assert.NotEmpty(t, row.Diffs)
	assert.Contains(t, string(row.Location), `"Point"`)

	// The unmatched SPIDA pole still carries its SCID and a single
	// unmatched_pair diff.
	assert.Equal(t, "002", r.Rows[1].SCID)
	require.Len(t, r.Rows[1].Diffs, 1)
	assert.Equal(t, model.StatusUnmatchedPair, r.Rows[1].Diffs[0].Status)
}

func TestBuildStats(t *testing.T) {
	matches := []model.MatchResult{matchedPair(), unmatchedSpida()}

	r, err := Build(context.Background(), matches, diff.New())
	require.NoError(t, err)

	assert.Equal(t, 2, r.Stats.Poles)
	assert.Equal(t, 1, r.Stats.ByPoleNumber)
	assert.Equal(t, 1, r.Stats.Unmatched)
	// 98.12 vs 99.00 exceeds the loading tolerance.
	assert.Equal(t, 1, r.Stats.FieldMismatch)
	assert.Positive(t, r.Stats.FieldsCompared)
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	matches := make([]model.MatchResult, 64)
	for i := range matches {
		matches[i] = unmatchedSpida()
	}
	_, err := Build(ctx, matches, diff.New())
	assert.Error(t, err)
}

func TestBuildRowOrderStable(t *testing.T) {
	matches := []model.MatchResult{unmatchedSpida(), matchedPair(), unmatchedSpida()}

	r, err := Build(context.Background(), matches, diff.New())
	require.NoError(t, err)
	require.Len(t, r.Rows, 3)
	assert.Equal(t, model.MatchUnmatched, r.Rows[0].Method)
	assert.Equal(t, model.MatchByPoleNumber, r.Rows[1].Method)
	assert.Equal(t, model.MatchUnmatched, r.Rows[2].Method)
}

func TestWriteXLSX(t *testing.T) {
	r, err := Build(context.Background(), []model.MatchResult{matchedPair()}, diff.New())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteXLSX(r, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestMismatchSummary(t *testing.T) {
	diffs := []model.FieldDiff{
		{FieldName: model.FieldPoleNumber, Status: model.StatusMatch},
		{FieldName: model.FieldSpecHeight, Status: model.StatusMismatch},
		{FieldName: model.FieldExistingPct, Status: model.StatusSpidaMissing},
	}
	assert.Equal(t, "pole_spec.height (mismatch), loading.existing_pct (spida_missing)",
		mismatchSummary(diffs))

	assert.Equal(t, "", mismatchSummary(nil))
}

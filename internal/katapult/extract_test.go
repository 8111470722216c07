package katapult

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jointuse/polecompare/internal/model"
)

const fixtureJob = `{
  "nodes": {
    "node-a": {
      "attributes": {
        "node_type": {"button_added": "pole"},
        "scid": {"-Imported": "001"},
        "PL_number": {"-Imported": "PL-1001"},
        "poleLength": {"-Imported": "52'"},
        "poleClass": {"-Imported": "2"},
        "poleSpecies": {"-Imported": "Southern Pine"},
        "existing_capacity_%": {"attr9f2": "95.35"},
        "final_passing_capacity_%": {"attr9f3": 98.12},
        "latitude": {"-Imported": "35.0"},
        "longitude": {"-Imported": "-80.0"}
      }
    },
    "node-b": {
      "attributes": {
        "node_type": {"button_added": "pole"},
        "scid": {"-Imported": "002.A"},
        "Height": {"-Imported": 13.7},
        "Class": {"-Imported": "4"},
        "Species": {"-Imported": "Douglas Fir"}
      }
    },
    "node-c": {
      "attributes": {
        "node_type": {"button_added": "Service Location"},
        "node_sub_type": {"-Imported": "Charter"},
        "measured_attachments": {"sec-1": false}
      }
    },
    "node-d": {
      "attributes": {
        "node_type": {"button_added": "anchor"},
        "scid": {"-Imported": "003"}
      }
    }
  },
  "connections": {
    "conn-1": {
      "node_id_1": "node-a",
      "node_id_2": "node-c",
      "sections": {"sec-1": {}}
    }
  }
}`

func parseJob(t *testing.T) *Document {
	t.Helper()
	doc, err := Parse([]byte(fixtureJob))
	require.NoError(t, err)
	return doc
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte(`{"connections": {}}`))
	assert.ErrorIs(t, err, model.ErrMalformedDocument)
}

func TestExtractMainPoles(t *testing.T) {
	doc := parseJob(t)
	e := &Extractor{Units: model.UnitsAuto}
	records := e.Extract(doc)

	// node-b has a reference SCID and node-d is an anchor; only node-a is a
	// main pole row by default.
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, model.SourceKatapult, rec.Source)
	assert.Equal(t, "node-a", rec.NativeID)
	assert.Equal(t, "001", rec.SCID)
	assert.True(t, rec.SCIDMain)
	require.NotNil(t, rec.PoleNum)
	assert.Equal(t, "PL-1001", *rec.PoleNum)
}

func TestExtractIncludeReferences(t *testing.T) {
	doc := parseJob(t)
	e := &Extractor{Units: model.UnitsAuto, IncludeReferences: true}
	records := e.Extract(doc)

	require.Len(t, records, 2)
	assert.Equal(t, "001", records[0].SCID)
	assert.Equal(t, "002.A", records[1].SCID)
	assert.False(t, records[1].SCIDMain)
}

func TestExtractPoleSpec(t *testing.T) {
	doc := parseJob(t)
	e := &Extractor{Units: model.UnitsAuto, IncludeReferences: true}
	records := e.Extract(doc)

	// Pre-formatted string length parses directly.
	require.NotNil(t, records[0].Spec)
	assert.Equal(t, 52, records[0].Spec.HeightFeet)
	assert.Equal(t, 0, records[0].Spec.HeightInches)
	assert.Equal(t, "2", records[0].Spec.ClassCode)
	assert.Equal(t, "Southern Pine", records[0].Spec.Species)

	// Bare numeric 13.7 reads as metres under auto and lands on 44' 11".
	require.NotNil(t, records[1].Spec)
	assert.Equal(t, 44, records[1].Spec.HeightFeet)
	assert.Equal(t, 11, records[1].Spec.HeightInches)
}

func TestParseLengthPattern(t *testing.T) {
	feet, inches, ok := parseLength("50'-2", model.UnitsAuto)
	require.True(t, ok)
	assert.Equal(t, 50, feet)
	assert.Equal(t, 2, inches)

	feet, inches, ok = parseLength("45'", model.UnitsAuto)
	require.True(t, ok)
	assert.Equal(t, 45, feet)
	assert.Equal(t, 0, inches)

	// Numeric string without a foot mark goes through the unit policy.
	feet, _, ok = parseLength("13.7", model.UnitsAuto)
	require.True(t, ok)
	assert.Equal(t, 44, feet)

	_, _, ok = parseLength("unknown", model.UnitsAuto)
	assert.False(t, ok)
}

func TestExtractLoadingAlreadyPercent(t *testing.T) {
	doc := parseJob(t)
	e := &Extractor{Units: model.UnitsAuto}
	records := e.Extract(doc)

	// Values arrive already 0-100 and must not be re-multiplied.
	require.NotNil(t, records[0].ExistingPct)
	assert.Equal(t, 95.35, *records[0].ExistingPct)
	require.NotNil(t, records[0].FinalPct)
	assert.Equal(t, 98.12, *records[0].FinalPct)
}

func TestExtractLocation(t *testing.T) {
	doc := parseJob(t)
	e := &Extractor{Units: model.UnitsAuto}
	records := e.Extract(doc)

	require.NotNil(t, records[0].Location)
	assert.Equal(t, 35.0, records[0].Location.Lat)
	assert.Equal(t, -80.0, records[0].Location.Lng)
}

func TestExtractServiceDrops(t *testing.T) {
	doc := parseJob(t)
	e := &Extractor{Units: model.UnitsAuto}
	records := e.Extract(doc)

	// node-c's measured_attachments section resolves through conn-1 to
	// node-a; measured=false marks the drop as proposed.
	require.Len(t, records[0].ComDrops, 1)
	drop := records[0].ComDrops[0]
	assert.Equal(t, "Service Drop", drop.Type)
	assert.Equal(t, "Charter", drop.Owner)
	assert.False(t, drop.Measured)
}

func TestFieldMapFallbackChain(t *testing.T) {
	fm := DefaultFieldMap()
	assert.Equal(t, []string{"poleLength", "Height"}, fm.Length)
	assert.Equal(t, []string{"PL_number", "PoleNumber"}, fm.PoleNumber)

	// node-b has no poleLength but does have Height; the chain falls through.
	doc := parseJob(t)
	e := &Extractor{Units: model.UnitsAuto, IncludeReferences: true}
	records := e.Extract(doc)
	require.NotNil(t, records[1].Spec)
}

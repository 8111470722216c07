package katapult

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeAttr(t *testing.T, raw string) AttrValue {
	t.Helper()
	var a AttrValue
	require.NoError(t, json.Unmarshal([]byte(raw), &a))
	return a
}

func TestAttrValueImported(t *testing.T) {
	a := decodeAttr(t, `{"-Imported": "PL-1001"}`)
	v, ok := a.Imported()
	require.True(t, ok)
	assert.Equal(t, "PL-1001", v)

	// Falls back to the single wrapped value when -Imported is absent.
	a = decodeAttr(t, `{"attr123": "PL-2002"}`)
	v, ok = a.Imported()
	require.True(t, ok)
	assert.Equal(t, "PL-2002", v)

	// Bare scalars from older exports pass through.
	a = decodeAttr(t, `"PL-3003"`)
	v, ok = a.Imported()
	require.True(t, ok)
	assert.Equal(t, "PL-3003", v)
}

func TestAttrValueSingleValue(t *testing.T) {
	a := decodeAttr(t, `{"attr9f2": "95.35"}`)
	v, ok := a.SingleValue()
	require.True(t, ok)
	assert.Equal(t, "95.35", v)

	// Multiple entries resolve deterministically by smallest key.
	a = decodeAttr(t, `{"b": "second", "a": "first"}`)
	v, ok = a.SingleValue()
	require.True(t, ok)
	assert.Equal(t, "first", v)

	a = decodeAttr(t, `{}`)
	_, ok = a.SingleValue()
	assert.False(t, ok)
}

func TestAttrValueFloats(t *testing.T) {
	a := decodeAttr(t, `{"attr1": "95.35%"}`)
	f, ok := a.SingleFloat()
	require.True(t, ok)
	assert.Equal(t, 95.35, f)

	a = decodeAttr(t, `{"attr1": 98.12}`)
	f, ok = a.SingleFloat()
	require.True(t, ok)
	assert.Equal(t, 98.12, f)

	a = decodeAttr(t, `{"-Imported": "35.0"}`)
	f, ok = a.ImportedFloat()
	require.True(t, ok)
	assert.Equal(t, 35.0, f)

	a = decodeAttr(t, `{"-Imported": "N/A"}`)
	_, ok = a.ImportedFloat()
	assert.False(t, ok)
}

func TestAttrValueValue(t *testing.T) {
	a := decodeAttr(t, `{"button_added": "Service Location"}`)
	v, ok := a.Value("button_added")
	require.True(t, ok)
	assert.Equal(t, "Service Location", v)

	_, ok = a.Value("missing")
	assert.False(t, ok)
}

func TestAttrValueNilSafe(t *testing.T) {
	var a *AttrValue
	_, ok := a.Imported()
	assert.False(t, ok)
	_, ok = a.SingleValue()
	assert.False(t, ok)
	assert.Nil(t, a.Entries())
}

func TestLoadFieldMap(t *testing.T) {
	yaml := `
length:
  - pole_height
  - poleLength
class:
  - pole_class
`
	dir := t.TempDir()
	path := filepath.Join(dir, "fieldmap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	fm, err := LoadFieldMap(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"pole_height", "poleLength"}, fm.Length)
	assert.Equal(t, []string{"pole_class"}, fm.Class)
	// Unlisted fields keep their defaults.
	assert.Equal(t, []string{"poleSpecies", "Species"}, fm.Species)
	assert.Equal(t, []string{"PL_number", "PoleNumber"}, fm.PoleNumber)
}

func TestLoadFieldMapMissingFile(t *testing.T) {
	_, err := LoadFieldMap(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

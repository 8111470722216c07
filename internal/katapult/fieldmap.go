package katapult

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// FieldMap maps canonical pole-spec fields to ordered chains of candidate
// attribute keys, evaluated first-match-wins. Export configurations name
// these attributes differently, so new variants are additive config, not
// code branches.
type FieldMap struct {
	Length     []string `yaml:"length"`
	Class      []string `yaml:"class"`
	Species    []string `yaml:"species"`
	PoleNumber []string `yaml:"pole_number"`
}

// DefaultFieldMap returns the documented guess list for common exports.
func DefaultFieldMap() FieldMap {
	return FieldMap{
		Length:     []string{"poleLength", "Height"},
		Class:      []string{"poleClass", "Class"},
		Species:    []string{"poleSpecies", "Species"},
		PoleNumber: []string{"PL_number", "PoleNumber"},
	}
}

// LoadFieldMap reads a field map from a YAML file. Fields left empty fall
// back to the defaults.
func LoadFieldMap(path string) (FieldMap, error) {
	fm := DefaultFieldMap()

	data, err := os.ReadFile(path)
	if err != nil {
		return fm, eris.Wrapf(err, "katapult: read field map %s", path)
	}

	var loaded FieldMap
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return fm, eris.Wrap(err, "katapult: parse field map")
	}

	if len(loaded.Length) > 0 {
		fm.Length = loaded.Length
	}
	if len(loaded.Class) > 0 {
		fm.Class = loaded.Class
	}
	if len(loaded.Species) > 0 {
		fm.Species = loaded.Species
	}
	if len(loaded.PoleNumber) > 0 {
		fm.PoleNumber = loaded.PoleNumber
	}
	return fm, nil
}

// first walks a candidate chain and returns the first attribute that
// resolves to an imported value.
func first(attrs Attributes, chain []string) (any, bool) {
	for _, key := range chain {
		attr, ok := attrs[key]
		if !ok {
			continue
		}
		if v, ok := attr.Imported(); ok {
			return v, true
		}
	}
	return nil, false
}

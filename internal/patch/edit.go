package patch

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/jointuse/polecompare/internal/model"
)

// ValueKind is the basic shape expected at an edit's target leaf.
type ValueKind string

const (
	KindString ValueKind = "string"
	KindNumber ValueKind = "number"
	KindBool   ValueKind = "bool"
)

// numericLeaves are the leaf keys whose values must be numbers.
var numericLeaves = map[string]bool{
	"length":           true,
	"value":            true,
	"actual":           true,
	"allowable":        true,
	"attachmentHeight": true,
}

// Edit is one requested leaf replacement. Ref is the absolute address
// captured at extraction time; the applier never re-derives it.
type Edit struct {
	Ref   model.RawRef `json:"ref"`
	Value any          `json:"value"`
}

// Kind infers the expected value shape from the addressed leaf key.
func (e Edit) Kind() ValueKind {
	steps := e.Ref.Steps
	for i := len(steps) - 1; i >= 0; i-- {
		if steps[i].IsIndex {
			continue
		}
		if numericLeaves[steps[i].Key] {
			return KindNumber
		}
		return KindString
	}
	return KindString
}

// Validate checks the edit value against the target's expected shape.
func (e Edit) Validate() error {
	if e.Ref.IsZero() {
		return eris.Wrap(model.ErrPatchTargetNotFound, "patch: edit has no address")
	}
	switch e.Kind() {
	case KindNumber:
		switch e.Value.(type) {
		case float64, int, int64:
			return nil
		}
		return eris.Wrapf(model.ErrInvalidEditValue,
			"patch: %s expects a number, got %T", e.Ref.JSONPointer(), e.Value)
	case KindBool:
		if _, ok := e.Value.(bool); !ok {
			return eris.Wrapf(model.ErrInvalidEditValue,
				"patch: %s expects a bool, got %T", e.Ref.JSONPointer(), e.Value)
		}
	default:
		if _, ok := e.Value.(string); !ok {
			return eris.Wrapf(model.ErrInvalidEditValue,
				"patch: %s expects a string, got %T", e.Ref.JSONPointer(), e.Value)
		}
	}
	return nil
}

// NewLoadingEdit builds an edit that writes a 0–100 percentage back to a
// loading `actual` leaf, which the document stores as a 0–1 fraction.
func NewLoadingEdit(rec *model.PoleRecord, field string, pct float64) (Edit, error) {
	ref, ok := rec.FieldRefs[field]
	if !ok {
		return Edit{}, eris.Wrapf(model.ErrPatchTargetNotFound,
			"patch: record %s has no address for %s", rec.NativeID, field)
	}
	return Edit{Ref: ref, Value: pct / 100}, nil
}

// ParseSpecString splits a spec value like "40' H1 Southern Pine" into its
// height, class, and species parts. The prime character is normalized to a
// plain apostrophe.
func ParseSpecString(s string) (feet float64, class, species string, err error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), "′", "'")
	idx := strings.Index(cleaned, "'")
	if idx < 0 {
		return 0, "", "", eris.Wrapf(model.ErrInvalidEditValue, "patch: spec %q has no height", s)
	}

	feet, err = strconv.ParseFloat(strings.TrimSpace(cleaned[:idx]), 64)
	if err != nil {
		return 0, "", "", eris.Wrapf(model.ErrInvalidEditValue, "patch: spec %q height not numeric", s)
	}

	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(cleaned[idx+1:]), "-"))
	parts := strings.SplitN(rest, " ", 2)
	if len(parts) < 2 {
		return 0, "", "", eris.Wrapf(model.ErrInvalidEditValue, "patch: spec %q missing class or species", s)
	}
	return feet, strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

// NewSpecEdits builds the edits for a full pole-spec value. The height is
// converted back to metres when the document stores metres.
func NewSpecEdits(rec *model.PoleRecord, spec string) ([]Edit, error) {
	feet, class, species, err := ParseSpecString(spec)
	if err != nil {
		return nil, err
	}

	heightRef, ok := rec.FieldRefs[model.FieldSpecHeight]
	if !ok {
		return nil, eris.Wrapf(model.ErrPatchTargetNotFound,
			"patch: record %s has no spec address", rec.NativeID)
	}

	height := feet
	if rec.MetricLength {
		height = model.MetresFromFeet(feet)
	}

	return []Edit{
		{Ref: heightRef, Value: height},
		{Ref: rec.FieldRefs[model.FieldSpecClass], Value: class},
		{Ref: rec.FieldRefs[model.FieldSpecSpecies], Value: species},
	}, nil
}

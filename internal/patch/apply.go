package patch

import (
	"encoding/json"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/jointuse/polecompare/internal/model"
)

// Applier applies accepted edits to the original SPIDA document bytes.
// Patching is done with RFC 6902 replace operations on the raw bytes so the
// ordering of unrelated keys and arrays survives untouched; the input slice
// is never modified — the result is always a derived copy.
type Applier struct {
	// Atomic aborts the whole batch on the first failing edit and returns
	// the document unchanged. Otherwise the offending edit is skipped and
	// the remaining edits still apply.
	Atomic bool
}

// EditResult reports the outcome of one edit in a batch.
type EditResult struct {
	Edit Edit  `json:"edit"`
	Err  error `json:"error,omitempty"`
}

// Apply applies an ordered batch of edits. Addresses were captured against
// the original document and target independent leaves, so no edit shifts
// another's address within the batch.
//
// In atomic mode the returned error is the first edit failure and the
// returned document equals the input. In partial mode per-edit failures are
// reported in the results and the error is nil.
func (a *Applier) Apply(original []byte, edits []Edit) ([]byte, []EditResult, error) {
	doc := make([]byte, len(original))
	copy(doc, original)

	results := make([]EditResult, 0, len(edits))
	for _, e := range edits {
		patched, err := applyOne(doc, e)
		if err != nil {
			if a.Atomic {
				return original, nil, err
			}
			zap.L().Warn("edit skipped",
				zap.String("path", e.Ref.JSONPointer()),
				zap.Error(err),
			)
			results = append(results, EditResult{Edit: e, Err: err})
			continue
		}
		doc = patched
		results = append(results, EditResult{Edit: e})
	}

	return doc, results, nil
}

func applyOne(doc []byte, e Edit) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	op, err := json.Marshal([]map[string]any{{
		"op":    "replace",
		"path":  e.Ref.JSONPointer(),
		"value": e.Value,
	}})
	if err != nil {
		return nil, eris.Wrap(err, "patch: encode operation")
	}

	p, err := jsonpatch.DecodePatch(op)
	if err != nil {
		return nil, eris.Wrap(err, "patch: decode operation")
	}

	patched, err := p.Apply(doc)
	if err != nil {
		// replace on a path that no longer exists, e.g. the document was
		// reloaded with a different structure order after SCID derivation.
		return nil, eris.Wrapf(model.ErrPatchTargetNotFound,
			"patch: %s: %v", e.Ref.JSONPointer(), err)
	}
	return patched, nil
}

package main

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jointuse/polecompare/internal/model"
	"github.com/jointuse/polecompare/internal/patch"
	"github.com/jointuse/polecompare/internal/spida"
)

var (
	patchSpidaPath string
	patchEditsPath string
	patchOutPath   string
)

// editRequest is one user-approved correction, addressed by SCID and tracked
// field name.
type editRequest struct {
	SCID  string `json:"scid"`
	Field string `json:"field"`
	Value string `json:"value"`
}

var patchCmd = &cobra.Command{
	Use:   "patch",
	Short: "Apply accepted corrections to a SPIDA exchange file",
	Long:  "Reads a JSON array of edits ({scid, field, value}), re-extracts the SPIDA document to resolve each edit's address, and writes a patched copy. The input file is never modified.",
	RunE: func(cmd *cobra.Command, args []string) error {
		spidaDoc, err := os.ReadFile(patchSpidaPath)
		if err != nil {
			return eris.Wrapf(err, "read %s", patchSpidaPath)
		}
		editsData, err := os.ReadFile(patchEditsPath)
		if err != nil {
			return eris.Wrapf(err, "read %s", patchEditsPath)
		}

		var requests []editRequest
		if err := json.Unmarshal(editsData, &requests); err != nil {
			return eris.Wrap(err, "parse edits file")
		}

		doc, err := spida.Parse(spidaDoc)
		if err != nil {
			return err
		}
		extractor := spida.Extractor{
			DropOwner: cfg.Extract.DropOwner,
			Units:     model.UnitPolicy(cfg.Extract.Units),
		}
		records := extractor.Extract(doc)

		bySCID := make(map[string]*model.PoleRecord, len(records))
		for i := range records {
			bySCID[records[i].SCID] = &records[i]
		}

		edits, err := buildEdits(requests, bySCID, cfg.Patch.Atomic)
		if err != nil {
			return err
		}

		applier := &patch.Applier{Atomic: cfg.Patch.Atomic}
		patched, results, err := applier.Apply(spidaDoc, edits)
		if err != nil {
			return err
		}
		applied := 0
		for _, res := range results {
			if res.Err == nil {
				applied++
			}
		}
		zap.L().Info("patch complete",
			zap.Int("requested", len(requests)),
			zap.Int("applied", applied),
		)

		if err := os.WriteFile(patchOutPath, patched, 0o644); err != nil {
			return eris.Wrapf(err, "write %s", patchOutPath)
		}
		return nil
	},
}

// buildEdits resolves each request against the extracted records. In atomic
// mode an unresolvable request fails the batch; otherwise it is skipped.
func buildEdits(requests []editRequest, bySCID map[string]*model.PoleRecord, atomic bool) ([]patch.Edit, error) {
	var edits []patch.Edit
	for _, req := range requests {
		built, err := buildEdit(req, bySCID)
		if err != nil {
			if atomic {
				return nil, err
			}
			zap.L().Warn("edit request skipped",
				zap.String("scid", req.SCID),
				zap.String("field", req.Field),
				zap.Error(err),
			)
			continue
		}
		edits = append(edits, built...)
	}
	return edits, nil
}

func buildEdit(req editRequest, bySCID map[string]*model.PoleRecord) ([]patch.Edit, error) {
	rec, ok := bySCID[req.SCID]
	if !ok {
		return nil, eris.Wrapf(model.ErrPatchTargetNotFound, "no structure with SCID %s", req.SCID)
	}

	switch req.Field {
	case model.FieldPoleSpec:
		return patch.NewSpecEdits(rec, req.Value)

	case model.FieldExistingPct, model.FieldFinalPct:
		pct, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(req.Value), "%"), 64)
		if err != nil {
			return nil, eris.Wrapf(model.ErrInvalidEditValue, "loading value %q not numeric", req.Value)
		}
		e, err := patch.NewLoadingEdit(rec, req.Field, pct)
		if err != nil {
			return nil, err
		}
		return []patch.Edit{e}, nil

	case model.FieldSpecClass, model.FieldSpecSpecies, model.FieldPoleNumber:
		ref, ok := rec.FieldRefs[req.Field]
		if !ok && req.Field == model.FieldPoleNumber {
			ref = rec.Ref.Child("id")
			ok = true
		}
		if !ok {
			return nil, eris.Wrapf(model.ErrPatchTargetNotFound,
				"record %s has no address for %s", rec.NativeID, req.Field)
		}
		return []patch.Edit{{Ref: ref, Value: req.Value}}, nil

	default:
		return nil, eris.Wrapf(model.ErrInvalidEditValue, "field %q is not editable", req.Field)
	}
}

func init() {
	patchCmd.Flags().StringVar(&patchSpidaPath, "spida", "", "SPIDA exchange JSON file")
	patchCmd.Flags().StringVar(&patchEditsPath, "edits", "", "JSON file of accepted edits")
	patchCmd.Flags().StringVar(&patchOutPath, "out", "", "patched document output path")
	_ = patchCmd.MarkFlagRequired("spida")
	_ = patchCmd.MarkFlagRequired("edits")
	_ = patchCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(patchCmd)
}

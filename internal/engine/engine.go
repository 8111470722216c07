package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/jointuse/polecompare/internal/config"
	"github.com/jointuse/polecompare/internal/diff"
	"github.com/jointuse/polecompare/internal/katapult"
	"github.com/jointuse/polecompare/internal/match"
	"github.com/jointuse/polecompare/internal/model"
	"github.com/jointuse/polecompare/internal/report"
	"github.com/jointuse/polecompare/internal/spida"
)

// Engine wires the extractors, matcher, and differ into one comparison run.
// Every run is a pure function of the two input documents plus configuration.
type Engine struct {
	spidaExtractor    spida.Extractor
	katapultExtractor katapult.Extractor
	matcher           *match.Matcher
	differ            *diff.Differ
}

// Result is one comparison run's output. SpidaRecords carry the extraction
// addresses the patch applier needs.
type Result struct {
	Report       *report.Report
	SpidaRecords []model.PoleRecord
}

// New builds an Engine from configuration, loading the Katapult field map
// when one is configured.
func New(cfg *config.Config) (*Engine, error) {
	units := model.UnitPolicy(cfg.Extract.Units)

	fieldMap := katapult.DefaultFieldMap()
	if cfg.Extract.KatapultFieldMap != "" {
		fm, err := katapult.LoadFieldMap(cfg.Extract.KatapultFieldMap)
		if err != nil {
			return nil, err
		}
		fieldMap = fm
	}

	return &Engine{
		spidaExtractor: spida.Extractor{
			DropOwner: cfg.Extract.DropOwner,
			Units:     units,
		},
		katapultExtractor: katapult.Extractor{
			FieldMap:          fieldMap,
			Units:             units,
			IncludeReferences: cfg.Extract.IncludeReferences,
		},
		matcher: &match.Matcher{
			DistanceThresholdM: cfg.Match.DistanceThresholdM,
			AmbiguityEpsilonM:  cfg.Match.AmbiguityEpsilonM,
		},
		differ: diff.New(),
	}, nil
}

// Run extracts both documents, matches the records, diffs each pair, and
// assembles the report. Neither input is modified.
func (e *Engine) Run(ctx context.Context, spidaDoc, katapultDoc []byte) (*Result, error) {
	sd, err := spida.Parse(spidaDoc)
	if err != nil {
		return nil, err
	}
	kd, err := katapult.Parse(katapultDoc)
	if err != nil {
		return nil, err
	}

	spidaRecords := e.spidaExtractor.Extract(sd)
	katapultRecords := e.katapultExtractor.Extract(kd)

	zap.L().Info("extracted records",
		zap.Int("spida", len(spidaRecords)),
		zap.Int("katapult", len(katapultRecords)),
	)

	matches := e.matcher.Match(spidaRecords, katapultRecords)

	rep, err := report.Build(ctx, matches, e.differ)
	if err != nil {
		return nil, err
	}

	zap.L().Info("comparison complete",
		zap.String("run_id", rep.RunID),
		zap.Int("poles", rep.Stats.Poles),
		zap.Int("unmatched", rep.Stats.Unmatched),
		zap.Int("field_mismatches", rep.Stats.FieldMismatch),
	)

	return &Result{Report: rep, SpidaRecords: spidaRecords}, nil
}

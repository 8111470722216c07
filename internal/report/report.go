package report

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"golang.org/x/sync/errgroup"

	"github.com/jointuse/polecompare/internal/diff"
	"github.com/jointuse/polecompare/internal/model"
)

// Stats summarizes how pairs were formed and what the differ found.
type Stats struct {
	Poles          int `json:"poles"`
	ByPoleNumber   int `json:"by_pole_number"`
	BySCID         int `json:"by_scid"`
	ByDistance     int `json:"by_distance"`
	Unmatched      int `json:"unmatched"`
	FieldMismatch  int `json:"field_mismatches"`
	FieldsMissing  int `json:"fields_missing"`
	FieldsCompared int `json:"fields_compared"`
}

// Row is one pole's worth of comparison output: the matched pair (either
// side may be absent) plus its per-field diffs.
type Row struct {
	SCID             string            `json:"scid"`
	SpidaPoleNum     string            `json:"spida_pole_number,omitempty"`
	KatapultPoleNum  string            `json:"katapult_pole_number,omitempty"`
	SpidaSpec        string            `json:"spida_spec,omitempty"`
	KatapultSpec     string            `json:"katapult_spec,omitempty"`
	SpidaExisting    string            `json:"spida_existing_pct,omitempty"`
	KatapultExisting string            `json:"katapult_existing_pct,omitempty"`
	SpidaFinal       string            `json:"spida_final_pct,omitempty"`
	KatapultFinal    string            `json:"katapult_final_pct,omitempty"`
	Method           model.MatchMethod `json:"match_method"`
	DistanceM        *float64          `json:"distance_m,omitempty"`
	// Location is a GeoJSON point (SPIDA side preferred) for map rendering.
	Location json.RawMessage   `json:"location,omitempty"`
	Diffs    []model.FieldDiff `json:"diffs"`
}

// Report is one comparison run, ordered SPIDA-first with leftover Katapult
// rows appended.
type Report struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Stats       Stats     `json:"stats"`
	Rows        []Row     `json:"rows"`
}

// maxParallel bounds the per-pole diff fan-out. Extraction and diffing are
// pure, so pairs can be compared concurrently without coordination.
const maxParallel = 8

// Build diffs every matched pair and assembles the run report. Row order
// follows the match order.
func Build(ctx context.Context, matches []model.MatchResult, d *diff.Differ) (*Report, error) {
	rows := make([]Row, len(matches))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for i := range matches {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows[i] = buildRow(matches[i], d.Compare(matches[i]))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "report: diff pairs")
	}

	r := &Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Rows:        rows,
	}
	r.Stats = tally(matches, rows)
	return r, nil
}

func buildRow(mr model.MatchResult, diffs []model.FieldDiff) Row {
	row := Row{Method: mr.Method, DistanceM: mr.DistM, Diffs: diffs}

	loc := func(rec *model.PoleRecord) {
		if row.Location != nil || rec == nil || rec.Location == nil {
			return
		}
		if g, err := geojson.Marshal(rec.Location.Point()); err == nil {
			row.Location = g
		}
	}
	loc(mr.Spida)
	loc(mr.Katapult)

	if sp := mr.Spida; sp != nil {
		row.SCID = sp.SCID
		if sp.PoleNum != nil {
			row.SpidaPoleNum = *sp.PoleNum
		}
		if sp.Spec != nil {
			row.SpidaSpec = sp.Spec.Format()
		}
		if sp.ExistingPct != nil {
			row.SpidaExisting = model.FormatPct(*sp.ExistingPct)
		}
		if sp.FinalPct != nil {
			row.SpidaFinal = model.FormatPct(*sp.FinalPct)
		}
	}
	if kat := mr.Katapult; kat != nil {
		if row.SCID == "" {
			row.SCID = kat.SCID
		}
		if kat.PoleNum != nil {
			row.KatapultPoleNum = *kat.PoleNum
		}
		if kat.Spec != nil {
			row.KatapultSpec = kat.Spec.Format()
		}
		if kat.ExistingPct != nil {
			row.KatapultExisting = model.FormatPct(*kat.ExistingPct)
		}
		if kat.FinalPct != nil {
			row.KatapultFinal = model.FormatPct(*kat.FinalPct)
		}
	}
	return row
}

func tally(matches []model.MatchResult, rows []Row) Stats {
	s := Stats{Poles: len(matches)}
	for i := range matches {
		switch matches[i].Method {
		case model.MatchByPoleNumber:
			s.ByPoleNumber++
		case model.MatchBySCID:
			s.BySCID++
		case model.MatchByDistance:
			s.ByDistance++
		default:
			s.Unmatched++
		}
		for _, fd := range rows[i].Diffs {
			s.FieldsCompared++
			switch fd.Status {
			case model.StatusMismatch:
				s.FieldMismatch++
			case model.StatusSpidaMissing, model.StatusKatapultMissing:
				s.FieldsMissing++
			}
		}
	}
	return s
}

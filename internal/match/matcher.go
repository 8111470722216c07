package match

import (
	"go.uber.org/zap"

	"github.com/jointuse/polecompare/internal/model"
)

// Matcher pairs SPIDA records with Katapult records. Matching is injective:
// a Katapult record is consumed by its first match and leaves the candidate
// pool for the remaining SPIDA records.
type Matcher struct {
	// DistanceThresholdM is the maximum great-circle distance for a
	// location-based match.
	DistanceThresholdM float64
	// AmbiguityEpsilonM is the gap below which the two nearest in-threshold
	// candidates count as ambiguous. Ambiguity is surfaced, never resolved.
	AmbiguityEpsilonM float64
}

// NewMatcher returns a Matcher with the default 15 m threshold and 0.5 m
// ambiguity gap.
func NewMatcher() *Matcher {
	return &Matcher{DistanceThresholdM: 15, AmbiguityEpsilonM: 0.5}
}

// Match pairs each SPIDA record against the remaining unmatched Katapult
// records, in tiers: normalized pole number, then main-SCID equality, then
// nearest location within the threshold. Unmatched records on either side
// are emitted with the absent side nil. Output order is SPIDA order followed
// by leftover Katapult records in their original order.
func (m *Matcher) Match(spida, katapult []model.PoleRecord) []model.MatchResult {
	consumed := make([]bool, len(katapult))
	results := make([]model.MatchResult, 0, len(spida)+len(katapult))

	for i := range spida {
		sp := &spida[i]
		results = append(results, m.matchOne(sp, katapult, consumed))
	}

	for j := range katapult {
		if consumed[j] {
			continue
		}
		results = append(results, model.MatchResult{
			Katapult: &katapult[j],
			Method:   model.MatchUnmatched,
		})
	}

	return results
}

func (m *Matcher) matchOne(sp *model.PoleRecord, katapult []model.PoleRecord, consumed []bool) model.MatchResult {
	// Tier 1: pole number, case- and whitespace-insensitive.
	if num := sp.NormalizedPoleNum(); num != "" {
		for j := range katapult {
			if consumed[j] {
				continue
			}
			if katapult[j].NormalizedPoleNum() == num {
				consumed[j] = true
				return model.MatchResult{
					Spida:    sp,
					Katapult: &katapult[j],
					Method:   model.MatchByPoleNumber,
				}
			}
		}
	}

	// Tier 2: SCID equality, only when both sides are main SCIDs.
	if sp.SCIDMain && sp.SCID != "" {
		for j := range katapult {
			if consumed[j] {
				continue
			}
			if katapult[j].SCIDMain && katapult[j].SCID == sp.SCID {
				consumed[j] = true
				return model.MatchResult{
					Spida:    sp,
					Katapult: &katapult[j],
					Method:   model.MatchBySCID,
				}
			}
		}
	}

	// Tier 3: nearest location within threshold.
	if sp.Location != nil {
		best, second := -1, -1
		bestDist, secondDist := m.DistanceThresholdM, m.DistanceThresholdM
		for j := range katapult {
			if consumed[j] || katapult[j].Location == nil {
				continue
			}
			d := Haversine(sp.Location.Lat, sp.Location.Lng,
				katapult[j].Location.Lat, katapult[j].Location.Lng)
			if d > m.DistanceThresholdM {
				continue
			}
			// Strict less keeps earlier candidates on exact ties, so the
			// result is stable in dataset order.
			if best == -1 || d < bestDist {
				second, secondDist = best, bestDist
				best, bestDist = j, d
			} else if second == -1 || d < secondDist {
				second, secondDist = j, d
			}
		}

		if best != -1 && second != -1 && secondDist-bestDist < m.AmbiguityEpsilonM {
			zap.L().Warn("ambiguous distance match",
				zap.Error(model.ErrAmbiguousMatch),
				zap.String("spida", sp.NativeID),
				zap.Float64("best_m", bestDist),
				zap.Float64("second_m", secondDist),
			)
			return model.MatchResult{
				Spida:      sp,
				Method:     model.MatchUnmatched,
				Candidates: []*model.PoleRecord{&katapult[best], &katapult[second]},
			}
		}
		if best != -1 {
			consumed[best] = true
			d := bestDist
			return model.MatchResult{
				Spida:    sp,
				Katapult: &katapult[best],
				Method:   model.MatchByDistance,
				DistM:    &d,
			}
		}
	}

	return model.MatchResult{Spida: sp, Method: model.MatchUnmatched}
}

package model

// Tracked field names, shared by the differ, the report, and the patch CLI.
const (
	FieldPoleNumber  = "pole_number"
	FieldPoleSpec    = "pole_spec"
	FieldSpecHeight  = "pole_spec.height"
	FieldSpecClass   = "pole_spec.class"
	FieldSpecSpecies = "pole_spec.species"
	FieldExistingPct = "loading.existing_pct"
	FieldFinalPct    = "loading.final_pct"
	FieldComDrops    = "com_drops"
	FieldPole        = "pole"
)

// DiffStatus classifies a single field comparison.
type DiffStatus string

const (
	StatusMatch           DiffStatus = "match"
	StatusMismatch        DiffStatus = "mismatch"
	StatusSpidaMissing    DiffStatus = "spida_missing"
	StatusKatapultMissing DiffStatus = "katapult_missing"
	StatusUnmatchedPair   DiffStatus = "unmatched_pair"
)

// FieldDiff is one tracked attribute compared across a matched pair.
// Mismatch is the engine's normal output, not an error.
type FieldDiff struct {
	FieldName     string     `json:"field_name"`
	SpidaValue    any        `json:"spida_value,omitempty"`
	KatapultValue any        `json:"katapult_value,omitempty"`
	Status        DiffStatus `json:"status"`
	ToleranceUsed *float64   `json:"tolerance_used,omitempty"`
}

// MatchMethod records how a pair was formed.
type MatchMethod string

const (
	MatchByPoleNumber MatchMethod = "by_pole_number"
	MatchBySCID       MatchMethod = "by_scid"
	MatchByDistance   MatchMethod = "by_distance"
	MatchUnmatched    MatchMethod = "unmatched"
)

// MatchResult pairs a SPIDA record with a Katapult record. Either side may be
// nil; unmatched results carry whichever side exists for user triage.
type MatchResult struct {
	Spida    *PoleRecord `json:"spida,omitempty"`
	Katapult *PoleRecord `json:"katapult,omitempty"`
	Method   MatchMethod `json:"method"`
	DistM    *float64    `json:"distance_m,omitempty"`

	// Candidates lists equally-near records when a distance match was
	// ambiguous. Ambiguity is surfaced, never silently resolved.
	Candidates []*PoleRecord `json:"candidates,omitempty"`
}

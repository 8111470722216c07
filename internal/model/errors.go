package model

import "github.com/rotisserie/eris"

// Sentinel errors for the reconciliation engine. Extraction-level errors
// (ErrMissingField, ErrAssetNotFound) are recovered locally as *_missing diff
// statuses; the rest surface to the caller.
var (
	// ErrMissingField indicates a required field is absent in a source document.
	ErrMissingField = eris.New("required field missing")

	// ErrAssetNotFound indicates no analysis asset entry matched a pole/design.
	ErrAssetNotFound = eris.New("analysis asset not found")

	// ErrAmbiguousMatch indicates distance matching found near-equal candidates.
	ErrAmbiguousMatch = eris.New("ambiguous distance match")

	// ErrPatchTargetNotFound indicates an edit address no longer resolves.
	ErrPatchTargetNotFound = eris.New("patch target not found")

	// ErrInvalidEditValue indicates an edit value failed its type check.
	ErrInvalidEditValue = eris.New("invalid edit value")

	// ErrMalformedDocument indicates the top-level document shape is invalid.
	// This is fatal: the engine does not attempt partial extraction.
	ErrMalformedDocument = eris.New("malformed document")
)

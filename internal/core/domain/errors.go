package domain

import "errors"

// ============================================================================
// Ingestion Errors
// ============================================================================

// Run-level errors
var (
	ErrIngestionInProgress = errors.New("an ingestion run is already in progress")
	ErrNoSourcesEnabled    = errors.New("no fetch sources are enabled")
	ErrStoreUnavailable    = errors.New("artifact storage is unavailable")
)

// Per-source errors
var (
	ErrSourceUnavailable   = errors.New("source unavailable")
	ErrSourceRateLimited   = errors.New("source rate budget exhausted")
	ErrSourceNotConfigured = errors.New("source is not configured")
)

// Per-artifact errors
var (
	ErrDuplicateArtifact  = errors.New("artifact content already ingested")
	ErrStoreWriteFailure  = errors.New("artifact store write failed")
	ErrMissingAttribution = errors.New("source requires attribution metadata")
	ErrInvalidImage       = errors.New("payload is not a usable image")
)

// ============================================================================
// Artifact Errors
// ============================================================================

var (
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrInvalidLabel     = errors.New("invalid artifact label")
)

// ============================================================================
// Training & Registry Errors
// ============================================================================

var (
	ErrTrainingInProgress = errors.New("a training cycle is already in progress")
	ErrInsufficientData   = errors.New("dataset below training threshold")
	ErrEvaluationFailed   = errors.New("model evaluation failed")
)

var (
	ErrModelNotFound    = errors.New("no versions recorded for this model")
	ErrInvalidModelName = errors.New("model name is required")
	// ErrVersionConflict means two appends raced to the same version number.
	// The registry backends make this impossible by construction; observing
	// it is an invariant violation, not a retryable condition.
	ErrVersionConflict = errors.New("registry version conflict")
)

// ============================================================================
// Auth Errors
// ============================================================================

var (
	ErrUnauthorized = errors.New("missing or invalid API key")
)

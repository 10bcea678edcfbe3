package domain

import "time"

// SourceItem is one candidate artifact as handed over by a fetcher:
// the raw payload plus the provenance the source could supply.
type SourceItem struct {
	Payload        []byte
	Label          Label
	Attribution    *Attribution
	SourceMetadata map[string]interface{}
}

type SourceFailure string

const (
	SourceFailureNone        SourceFailure = ""
	SourceFailureRateLimited SourceFailure = "rate_limited"
	SourceFailureUnavailable SourceFailure = "unavailable"
)

// SourceReport is the per-source slice of an ingestion run. Duplicates are
// a normal, counted outcome; Failed counts per-artifact persistence errors.
type SourceReport struct {
	Attempted  int           `json:"attempted"`
	Accepted   int           `json:"accepted"`
	Duplicates int           `json:"duplicates"`
	Failed     int           `json:"failed"`
	Failure    SourceFailure `json:"failure,omitempty"`
	Error      string        `json:"error,omitempty"`
}

type IngestionReport struct {
	StartedAt     time.Time                `json:"started_at"`
	Duration      time.Duration            `json:"duration"`
	PerSource     map[string]*SourceReport `json:"per_source"`
	TotalAccepted int                      `json:"total_accepted"`
}

func NewIngestionReport(startedAt time.Time) *IngestionReport {
	return &IngestionReport{
		StartedAt: startedAt,
		PerSource: map[string]*SourceReport{},
	}
}

// Merge folds one source's report into the run report.
func (r *IngestionReport) Merge(source string, sr *SourceReport) {
	r.PerSource[source] = sr
	r.TotalAccepted += sr.Accepted
}

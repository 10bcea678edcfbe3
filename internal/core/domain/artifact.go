package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Label string

const (
	LabelNone        Label = ""
	LabelReal        Label = "real"
	LabelAI          Label = "ai"
	LabelAIGenerated Label = "ai_generated"
)

// Synthetic reports whether the label marks machine-generated content.
// Older fetchers wrote "ai", newer ones "ai_generated"; both count.
func (l Label) Synthetic() bool {
	return l == LabelAI || l == LabelAIGenerated
}

func ValidateLabel(l Label) error {
	switch l {
	case LabelReal, LabelAI, LabelAIGenerated:
		return nil
	}
	return ErrInvalidLabel
}

// Source name tags, stable across restarts and config changes.
const (
	SourceUnsplash = "unsplash"
	SourcePexels   = "pexels"
	SourceCivitai  = "civitai"
	SourceLexica   = "lexica"
	SourceReddit   = "reddit"
)

// Sources whose terms require attribution to be kept with every artifact.
var AttributionRequired = map[string]bool{
	SourceUnsplash: true,
	SourcePexels:   true,
	SourceCivitai:  true,
}

// SourceYields maps each source to the label its items carry by
// construction. LabelNone means items arrive unlabeled and go through the
// auto-labeler.
var SourceYields = map[string]Label{
	SourceUnsplash: LabelReal,
	SourcePexels:   LabelReal,
	SourceCivitai:  LabelAI,
	SourceLexica:   LabelAIGenerated,
	SourceReddit:   LabelNone,
}

type Attribution struct {
	Platform string `json:"platform"`
	Author   string `json:"author"`
	License  string `json:"license"`
	URL      string `json:"url,omitempty"`
}

// CreditLine renders the human-readable credit required by attribution terms.
func (a Attribution) CreditLine() string {
	return fmt.Sprintf("Photo by %s on %s", a.Author, a.Platform)
}

type Artifact struct {
	ID              uuid.UUID              `json:"id"`
	ContentHash     string                 `json:"content_hash"`
	Source          string                 `json:"source"`
	Label           Label                  `json:"label"`
	LabelConfidence *float64               `json:"label_confidence,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	Attribution     *Attribution           `json:"attribution,omitempty"`
	SourceMetadata  map[string]interface{} `json:"source_metadata,omitempty"`
	Location        string                 `json:"location"`
}

// StorageKey returns the date-partitioned key binaries and metadata are
// stored under: {year}/{month}/{day}/{id}.
func (a *Artifact) StorageKey() string {
	t := a.CreatedAt.UTC()
	return fmt.Sprintf("%04d/%02d/%02d/%s", t.Year(), t.Month(), t.Day(), a.ID)
}

// HashContent computes the hex SHA-256 digest used as the deduplication key.
func HashContent(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

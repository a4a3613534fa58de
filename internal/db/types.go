package db

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an analysis does not exist.
var ErrNotFound = errors.New("analysis not found")

// DefaultListLimit caps ListAnalyses when no limit is given.
const DefaultListLimit = 50

// Analysis is a persisted analysis result. Results holds the JSON exactly as saved.
type Analysis struct {
	ID        uuid.UUID       `json:"id"`
	UserID    *uuid.UUID      `json:"user_id,omitempty"`
	CVName    string          `json:"cv_name"`
	Results   json.RawMessage `json:"results"`
	CreatedAt time.Time       `json:"created_at"`
}

// AnalysisSummary is a lightweight view of an analysis for listing
type AnalysisSummary struct {
	ID        uuid.UUID `json:"id"`
	CVName    string    `json:"cv_name"`
	CreatedAt time.Time `json:"created_at"`
}

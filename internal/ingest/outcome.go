package ingest

import (
	"math"
	"strings"
	"time"

	"github.com/yourusername/sharp-line/internal/models"
)

// RawOutcome is a resolved result as delivered by an upstream collaborator
type RawOutcome struct {
	SubjectID     string    `json:"subject_id"`
	ActualResult  string    `json:"actual_result"`
	ActualMargin  float64   `json:"actual_margin"`
	RealizedValue float64   `json:"realized_value"`
	ResolvedAt    time.Time `json:"resolved_at"`
}

// NormalizeOutcome converts a raw outcome to an OutcomeRecord
func (n *Normalizer) NormalizeOutcome(raw *RawOutcome, now time.Time) (*models.OutcomeRecord, error) {
	if strings.TrimSpace(raw.SubjectID) == "" {
		return nil, models.NewValidationError("subject_id", "must not be empty")
	}

	result := models.Result(strings.ToLower(strings.TrimSpace(raw.ActualResult)))
	if !result.IsValid() {
		return nil, models.NewValidationError("actual_result", "unknown result "+raw.ActualResult)
	}

	for field, v := range map[string]float64{
		"actual_margin":  raw.ActualMargin,
		"realized_value": raw.RealizedValue,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, models.NewValidationError(field, "must be finite")
		}
	}

	if raw.ResolvedAt.After(now) {
		return nil, models.NewValidationError("resolved_at", "timestamp is in the future")
	}

	recordedAt := raw.ResolvedAt.UTC()
	if raw.ResolvedAt.IsZero() {
		recordedAt = now.UTC()
	}

	return &models.OutcomeRecord{
		SubjectID:     strings.TrimSpace(raw.SubjectID),
		ActualResult:  result,
		ActualMargin:  raw.ActualMargin,
		RealizedValue: raw.RealizedValue,
		RecordedAt:    recordedAt,
	}, nil
}

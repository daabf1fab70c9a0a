package models

import (
	"time"

	"github.com/google/uuid"
)

// StakeReason explains why a recommendation carries the size it does
type StakeReason string

const (
	StakeReasonOK             StakeReason = "ok"
	StakeReasonNoPlay         StakeReason = "no_play"
	StakeReasonNoEdge         StakeReason = "no_edge"
	StakeReasonExposureScaled StakeReason = "exposure_scaled"
	StakeReasonExposureCapped StakeReason = "exposure_capped"
)

// StakeRecommendation is the bounded position size derived from one EdgeRecord
type StakeRecommendation struct {
	ID            uuid.UUID   `json:"id"`
	EdgeID        uuid.UUID   `json:"edge_id"`
	SubjectID     string      `json:"subject_id"`
	KellyFraction float64     `json:"kelly_fraction"`
	Fraction      float64     `json:"stake_fraction"`
	Stake         float64     `json:"stake"`
	Reason        StakeReason `json:"reason"`
	CreatedAt     time.Time   `json:"created_at"`
}

// IsActionable reports whether the recommendation carries a non-zero stake
func (r *StakeRecommendation) IsActionable() bool {
	return r.Fraction > 0
}

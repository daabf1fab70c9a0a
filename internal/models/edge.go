package models

import (
	"time"

	"github.com/google/uuid"
)

// Tier represents the classification assigned to an evaluated edge
type Tier string

const (
	TierNoPlay     Tier = "no_play"
	TierMarginal   Tier = "marginal"
	TierModerate   Tier = "moderate"
	TierStrong     Tier = "strong"
	TierVeryStrong Tier = "very_strong"
)

// Downgrade returns the tier one level more conservative
func (t Tier) Downgrade() Tier {
	switch t {
	case TierVeryStrong:
		return TierStrong
	case TierStrong:
		return TierModerate
	case TierModerate:
		return TierMarginal
	default:
		return TierNoPlay
	}
}

// IsPlayable reports whether the tier warrants a position
func (t Tier) IsPlayable() bool {
	return t != TierNoPlay && t != ""
}

// PriceQuote pairs a model-implied price with an observed market price for a
// subject at a point in time
type PriceQuote struct {
	SubjectID   string    `json:"subject_id" validate:"required"`
	ModelPrice  float64   `json:"model_price" validate:"required"`
	MarketPrice float64   `json:"market_price" validate:"required"`
	ObservedAt  time.Time `json:"observed_at" validate:"required"`
}

// EdgeRecord captures one evaluation of a subject's market line against the
// adjusted model price. Records are created fresh per evaluation cycle and
// never mutated; re-evaluation produces a new record.
type EdgeRecord struct {
	ID          uuid.UUID `json:"id"`
	SubjectID   string    `json:"subject_id"`
	ModelPrice  float64   `json:"model_price"`
	MarketPrice float64   `json:"market_price"`
	Adjustment  float64   `json:"adjustment"`
	RawEdge     float64   `json:"raw_edge"`
	Tier        Tier      `json:"tier"`
	Confidence  float64   `json:"confidence"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// AdjustedModelPrice returns the model price after situational adjustment
func (e *EdgeRecord) AdjustedModelPrice() float64 {
	return e.ModelPrice + e.Adjustment
}

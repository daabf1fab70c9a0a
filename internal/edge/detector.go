// Package edge compares adjusted model prices to market prices and
// classifies the divergence.
package edge

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharp-line/internal/config"
	"github.com/yourusername/sharp-line/internal/models"
)

// Detector evaluates quoted market prices against adjusted model prices
type Detector struct {
	cfg    *config.EngineConfig
	logger *logrus.Logger
}

// NewDetector creates a new edge detector
func NewDetector(cfg *config.EngineConfig, logger *logrus.Logger) *Detector {
	return &Detector{cfg: cfg, logger: logger}
}

// Evaluate produces a fresh EdgeRecord for a subject. Positive raw edge means
// the model favors the side priced shorter by the market.
func (d *Detector) Evaluate(subjectID string, modelPrice, marketPrice, adjustment, confidence float64) (*models.EdgeRecord, error) {
	for field, v := range map[string]float64{
		"model_price":  modelPrice,
		"market_price": marketPrice,
		"adjustment":   adjustment,
		"confidence":   confidence,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, models.NewValidationError(field, "must be finite")
		}
	}
	if subjectID == "" {
		return nil, models.NewValidationError("subject_id", "must not be empty")
	}

	rawEdge := (modelPrice + adjustment) - marketPrice
	tier := d.Classify(rawEdge, confidence)

	record := &models.EdgeRecord{
		ID:          uuid.New(),
		SubjectID:   subjectID,
		ModelPrice:  modelPrice,
		MarketPrice: marketPrice,
		Adjustment:  adjustment,
		RawEdge:     rawEdge,
		Tier:        tier,
		Confidence:  confidence,
		EvaluatedAt: time.Now(),
	}

	d.logger.WithFields(logrus.Fields{
		"subject_id": subjectID,
		"raw_edge":   rawEdge,
		"tier":       tier,
		"confidence": confidence,
	}).Debug("Edge evaluated")

	return record, nil
}

// Classify maps (edge, confidence) to exactly one tier. The function is pure
// and total: zero and negative edges map to no-play, values on an exact band
// boundary resolve to the lower tier, and confidence below the floor
// downgrades the magnitude tier by one level.
func (d *Detector) Classify(rawEdge, confidence float64) models.Tier {
	if rawEdge <= d.cfg.MinEdgeThreshold {
		return models.TierNoPlay
	}

	var tier models.Tier
	switch {
	case rawEdge > d.cfg.VeryStrongEdge:
		tier = models.TierVeryStrong
	case rawEdge > d.cfg.StrongEdge:
		tier = models.TierStrong
	case rawEdge > d.cfg.ModerateEdge:
		tier = models.TierModerate
	default:
		tier = models.TierMarginal
	}

	if confidence < d.cfg.ConfidenceFloor {
		tier = tier.Downgrade()
	}
	return tier
}

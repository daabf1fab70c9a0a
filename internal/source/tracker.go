// Package source tracks the rolling quality of upstream data sources.
package source

import (
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharp-line/internal/config"
	"github.com/yourusername/sharp-line/internal/models"
)

// accuracyScale is the prediction error, in points, beyond which an
// observation scores zero accuracy.
const accuracyScale = 10.0

// Tracker maintains exponentially weighted accuracy and latency scores per
// data source. Scores are created on first observation, updated
// incrementally, never deleted. Updates to a given source are serialized.
type Tracker struct {
	cfg    *config.EngineConfig
	logger *logrus.Logger

	mu     sync.RWMutex
	scores map[string]*models.SourceScore
}

// NewTracker creates a new source quality tracker
func NewTracker(cfg *config.EngineConfig, logger *logrus.Logger) *Tracker {
	return &Tracker{
		cfg:    cfg,
		logger: logger,
		scores: make(map[string]*models.SourceScore),
	}
}

// Record reconciles a source's predicted value against the later-confirmed
// actual value and folds the observation into its rolling score. Latency is
// in seconds.
func (t *Tracker) Record(sourceID string, predicted, actual, latency float64) error {
	if sourceID == "" {
		return models.NewValidationError("source_id", "must not be empty")
	}
	for field, v := range map[string]float64{"predicted": predicted, "actual": actual, "latency": latency} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return models.NewValidationError(field, "must be finite")
		}
	}

	obs := accuracyObservation(predicted, actual)

	t.mu.Lock()
	defer t.mu.Unlock()

	score, ok := t.scores[sourceID]
	if !ok {
		score = &models.SourceScore{SourceID: sourceID}
		t.scores[sourceID] = score
	}

	alpha := t.cfg.SourceSmoothing
	if score.SampleCount == 0 {
		score.Accuracy = obs
		score.AverageLatency = latency
	} else {
		score.Accuracy = alpha*obs + (1-alpha)*score.Accuracy
		score.AverageLatency = alpha*latency + (1-alpha)*score.AverageLatency
	}
	score.SampleCount++
	score.InsufficientSample = score.SampleCount < t.cfg.MinSourceSamples
	score.UpdatedAt = time.Now()

	t.logger.WithFields(logrus.Fields{
		"source_id":   sourceID,
		"observation": obs,
		"accuracy":    score.Accuracy,
		"samples":     score.SampleCount,
	}).Debug("Source score updated")

	return nil
}

// Score returns a copy of the current score for a source
func (t *Tracker) Score(sourceID string) (models.SourceScore, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	score, ok := t.scores[sourceID]
	if !ok {
		return models.SourceScore{}, models.ErrNotFound
	}
	return *score, nil
}

// Scores returns a snapshot of all tracked sources
func (t *Tracker) Scores() []models.SourceScore {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]models.SourceScore, 0, len(t.scores))
	for _, s := range t.scores {
		out = append(out, *s)
	}
	return out
}

// Multiplier returns the confidence multiplier for one source. Unknown
// sources and sources below the minimum sample count get the conservative
// neutral value rather than a spuriously confident score.
func (t *Tracker) Multiplier(sourceID string) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	score, ok := t.scores[sourceID]
	if !ok || score.SampleCount < t.cfg.MinSourceSamples {
		return t.cfg.NeutralMultiplier
	}
	return score.Accuracy
}

// ConfidenceMultiplier returns the aggregate multiplier across contributing
// sources, for use by the adjustment calculator
func (t *Tracker) ConfidenceMultiplier(sourceIDs []string) float64 {
	if len(sourceIDs) == 0 {
		return t.cfg.NeutralMultiplier
	}
	sum := 0.0
	for _, id := range sourceIDs {
		sum += t.Multiplier(id)
	}
	return sum / float64(len(sourceIDs))
}

// accuracyObservation maps prediction error to a [0,1] accuracy sample
func accuracyObservation(predicted, actual float64) float64 {
	err := math.Abs(predicted - actual)
	if err >= accuracyScale {
		return 0
	}
	return 1 - err/accuracyScale
}

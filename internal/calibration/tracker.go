// Package calibration records predictions against eventual outcomes and
// measures whether the model and its input sources are reliable.
package calibration

import (
	"fmt"
	"math"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharp-line/internal/config"
	"github.com/yourusername/sharp-line/internal/models"
)

// SourceScorer receives re-attributed accuracy observations and exposes the
// current per-source scores for report breakdowns
type SourceScorer interface {
	Record(sourceID string, predicted, actual, latency float64) error
	Scores() []models.SourceScore
}

// Tracker is the write-once prediction/outcome store and report generator
type Tracker struct {
	cfg     *config.EngineConfig
	sources SourceScorer
	logger  *logrus.Logger

	mu      sync.RWMutex
	records map[string]*models.PairedRecord

	reportCache *cache.Cache
}

// NewTracker creates a new calibration tracker
func NewTracker(cfg *config.EngineConfig, sources SourceScorer, logger *logrus.Logger) *Tracker {
	ttl := cfg.ReportCacheDuration()
	return &Tracker{
		cfg:         cfg,
		sources:     sources,
		logger:      logger,
		records:     make(map[string]*models.PairedRecord),
		reportCache: cache.New(ttl, ttl*2),
	}
}

// RecordPrediction stores a prediction for a subject. Predictions are
// write-once per subject: a second submission fails with a ConflictError and
// the original is retained untouched.
func (t *Tracker) RecordPrediction(p *models.PredictionRecord) error {
	if p == nil {
		return models.NewValidationError("prediction", "must not be nil")
	}
	if p.SubjectID == "" {
		return models.NewValidationError("subject_id", "must not be empty")
	}
	for field, v := range map[string]float64{
		"predicted_edge":   p.PredictedEdge,
		"predicted_margin": p.PredictedMargin,
		"confidence":       p.Confidence,
		"stake_fraction":   p.StakeFraction,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return models.NewValidationError(field, "must be finite")
		}
	}

	stored := *p
	if stored.RecordedAt.IsZero() {
		stored.RecordedAt = time.Now()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.records[p.SubjectID]; exists {
		return &models.ConflictError{SubjectID: p.SubjectID, Kind: "prediction"}
	}
	t.records[p.SubjectID] = &models.PairedRecord{Prediction: &stored}

	t.logger.WithFields(logrus.Fields{
		"subject_id":     p.SubjectID,
		"predicted_edge": p.PredictedEdge,
		"tier":           p.Tier,
	}).Debug("Prediction recorded")

	return nil
}

// RecordOutcome resolves a prediction. It fails if no matching prediction
// exists or if an outcome was already accepted; exactly one concurrent
// writer wins and the rest observe the rejection. Accepted outcomes are
// re-attributed to each contributing source's quality score.
func (t *Tracker) RecordOutcome(o *models.OutcomeRecord) error {
	if o == nil {
		return models.NewValidationError("outcome", "must not be nil")
	}
	if o.SubjectID == "" {
		return models.NewValidationError("subject_id", "must not be empty")
	}
	if !o.ActualResult.IsValid() {
		return models.NewValidationError("actual_result", "unknown result "+string(o.ActualResult))
	}
	for field, v := range map[string]float64{
		"actual_margin":  o.ActualMargin,
		"realized_value": o.RealizedValue,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return models.NewValidationError(field, "must be finite")
		}
	}

	stored := *o
	if stored.RecordedAt.IsZero() {
		stored.RecordedAt = time.Now()
	}

	t.mu.Lock()
	rec, ok := t.records[o.SubjectID]
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("outcome for %s: %w", o.SubjectID, models.ErrNoPrediction)
	}
	if rec.Outcome != nil {
		t.mu.Unlock()
		return &models.ConflictError{SubjectID: o.SubjectID, Kind: "outcome"}
	}
	rec.Outcome = &stored
	prediction := *rec.Prediction
	t.mu.Unlock()

	t.reportCache.Flush()

	// Close the feedback loop: each contributing source is scored on how
	// close the predicted margin came to the actual margin.
	for _, sourceID := range prediction.SourceIDs {
		if err := t.sources.Record(sourceID, prediction.PredictedMargin, o.ActualMargin, 0); err != nil {
			t.logger.WithError(err).WithField("source_id", sourceID).Warn("Failed to update source score")
		}
	}

	t.logger.WithFields(logrus.Fields{
		"subject_id":     o.SubjectID,
		"actual_result":  o.ActualResult,
		"actual_margin":  o.ActualMargin,
		"realized_value": o.RealizedValue,
	}).Debug("Outcome recorded")

	return nil
}

// Resolved reports whether the subject's prediction has an accepted outcome
func (t *Tracker) Resolved(subjectID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.records[subjectID]
	return ok && rec.Outcome != nil
}

// snapshot returns a consistent copy of all paired records fixed at call
// time, so report generation never observes a partially-updated set
func (t *Tracker) snapshot() []models.PairedRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]models.PairedRecord, 0, len(t.records))
	for _, rec := range t.records {
		cp := models.PairedRecord{}
		p := *rec.Prediction
		cp.Prediction = &p
		if rec.Outcome != nil {
			o := *rec.Outcome
			cp.Outcome = &o
		}
		out = append(out, cp)
	}
	return out
}

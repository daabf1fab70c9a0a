// Package stake converts classified edges into bounded position sizes using
// fractional Kelly sizing with exposure limits.
package stake

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharp-line/internal/config"
	"github.com/yourusername/sharp-line/internal/models"
)

// Sizer sizes positions and enforces single-position and aggregate exposure
// ceilings. It owns the ledger of currently open recommendations used for
// the aggregate check.
type Sizer struct {
	cfg    *config.EngineConfig
	logger *logrus.Logger

	mu   sync.RWMutex
	open map[string]float64 // subject id -> open stake fraction
}

// NewSizer creates a new stake sizer
func NewSizer(cfg *config.EngineConfig, logger *logrus.Logger) *Sizer {
	return &Sizer{
		cfg:    cfg,
		logger: logger,
		open:   make(map[string]float64),
	}
}

// Size converts an edge record into a bounded stake recommendation against
// the given bankroll. A no-play edge always yields a zero recommendation.
// Accepted non-zero recommendations are entered into the open-position
// ledger; callers release them via Release when the subject resolves.
func (s *Sizer) Size(record *models.EdgeRecord, bankroll float64) (*models.StakeRecommendation, error) {
	if record == nil {
		return nil, models.NewValidationError("edge_record", "must not be nil")
	}
	if math.IsNaN(bankroll) || math.IsInf(bankroll, 0) || bankroll < 0 {
		return nil, models.NewValidationError("bankroll", "must be finite and non-negative")
	}

	rec := &models.StakeRecommendation{
		ID:        uuid.New(),
		EdgeID:    record.ID,
		SubjectID: record.SubjectID,
		Reason:    models.StakeReasonOK,
		CreatedAt: time.Now(),
	}

	if !record.Tier.IsPlayable() {
		rec.Reason = models.StakeReasonNoPlay
		s.Release(record.SubjectID)
		return rec, nil
	}

	// Kelly fraction: probability advantage over the odds payout factor,
	// scaled down by the fractional-Kelly multiplier. Full Kelly is never
	// used directly.
	probAdvantage := math.Min(record.RawEdge*s.cfg.ProbabilityPerPoint, 0.5)
	rawKelly := probAdvantage / s.cfg.OddsFactor
	rec.KellyFraction = rawKelly

	if rawKelly <= 0 {
		rec.Reason = models.StakeReasonNoEdge
		s.Release(record.SubjectID)
		return rec, nil
	}

	fraction := rawKelly * s.cfg.FractionalKelly
	if fraction > s.cfg.MaxSinglePositionFraction {
		fraction = s.cfg.MaxSinglePositionFraction
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-sizing an already-open subject replaces its ledger entry, so its
	// current fraction does not count against its own headroom.
	headroom := s.cfg.MaxAggregateExposure - (s.openExposureLocked() - s.open[record.SubjectID])
	if fraction > headroom {
		// Scale down rather than reject outright, unless the scaled
		// position is too small to be meaningful.
		if headroom < s.cfg.MinStakeFraction {
			rec.Reason = models.StakeReasonExposureCapped
			s.logger.WithFields(logrus.Fields{
				"subject_id": record.SubjectID,
				"requested":  fraction,
				"headroom":   headroom,
			}).Warn("Recommendation rejected: aggregate exposure ceiling reached")
			return rec, nil
		}
		fraction = headroom
		rec.Reason = models.StakeReasonExposureScaled
	}

	rec.Fraction = fraction
	rec.Stake = fraction * bankroll
	s.open[record.SubjectID] = fraction

	s.logger.WithFields(logrus.Fields{
		"subject_id":     record.SubjectID,
		"kelly_fraction": rawKelly,
		"stake_fraction": fraction,
		"stake":          rec.Stake,
		"reason":         rec.Reason,
	}).Debug("Position size calculated")

	return rec, nil
}

// Release removes a subject's position from the open-exposure ledger once
// its outcome has resolved
func (s *Sizer) Release(subjectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.open, subjectID)
}

// OpenExposure returns the sum of currently open recommended fractions
func (s *Sizer) OpenExposure() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.openExposureLocked()
}

// OpenPositions returns the number of currently open recommendations
func (s *Sizer) OpenPositions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.open)
}

func (s *Sizer) openExposureLocked() float64 {
	total := 0.0
	for _, f := range s.open {
		total += f
	}
	return total
}

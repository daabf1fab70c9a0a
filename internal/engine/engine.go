// Package engine wires the adjustment calculator, source tracker, edge
// detector, stake sizer, and calibration tracker into one evaluation
// pipeline.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharp-line/internal/adjust"
	"github.com/yourusername/sharp-line/internal/calibration"
	"github.com/yourusername/sharp-line/internal/config"
	"github.com/yourusername/sharp-line/internal/edge"
	"github.com/yourusername/sharp-line/internal/metrics"
	"github.com/yourusername/sharp-line/internal/models"
	"github.com/yourusername/sharp-line/internal/source"
	"github.com/yourusername/sharp-line/internal/stake"
)

// Engine is the edge & calibration engine facade
type Engine struct {
	cfg         *config.Config
	calculator  *adjust.Calculator
	sources     *source.Tracker
	detector    *edge.Detector
	sizer       *stake.Sizer
	calibration *calibration.Tracker
	logger      *logrus.Logger
}

// New creates a fully wired engine from a validated configuration
func New(cfg *config.Config, logger *logrus.Logger) *Engine {
	sources := source.NewTracker(&cfg.Engine, logger)
	return &Engine{
		cfg:         cfg,
		sources:     sources,
		calculator:  adjust.NewCalculator(&cfg.Engine, sources, logger),
		detector:    edge.NewDetector(&cfg.Engine, logger),
		sizer:       stake.NewSizer(&cfg.Engine, logger),
		calibration: calibration.NewTracker(&cfg.Engine, sources, logger),
		logger:      logger,
	}
}

// EvaluationInput carries everything needed to evaluate one subject
type EvaluationInput struct {
	Quote    models.PriceQuote
	Events   []models.SituationalEvent
	Bankroll float64
}

// EvaluationResult is the outcome of one subject evaluation
type EvaluationResult struct {
	Adjustment *adjust.Adjustment          `json:"adjustment"`
	Edge       *models.EdgeRecord          `json:"edge"`
	Stake      *models.StakeRecommendation `json:"stake"`
}

// Evaluate runs the full pipeline for one subject: situational adjustment,
// edge classification, stake sizing, and prediction recording. A prediction
// that already exists for the subject is left untouched; re-evaluation still
// produces fresh edge and stake records.
func (e *Engine) Evaluate(ctx context.Context, input EvaluationInput) (*EvaluationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	started := time.Now()
	now := time.Now()

	adjustment, err := e.calculator.Compute(input.Events, now)
	if err != nil {
		metrics.RecordValidationRejection()
		metrics.RecordEvaluationFailure()
		return nil, err
	}

	edgeRecord, err := e.detector.Evaluate(
		input.Quote.SubjectID,
		input.Quote.ModelPrice,
		input.Quote.MarketPrice,
		adjustment.Net,
		adjustment.Confidence,
	)
	if err != nil {
		metrics.RecordValidationRejection()
		metrics.RecordEvaluationFailure()
		return nil, err
	}

	stakeRecord, err := e.sizer.Size(edgeRecord, input.Bankroll)
	if err != nil {
		metrics.RecordEvaluationFailure()
		return nil, err
	}

	prediction := &models.PredictionRecord{
		ID:              edgeRecord.ID,
		SubjectID:       edgeRecord.SubjectID,
		PredictedEdge:   edgeRecord.RawEdge,
		PredictedMargin: edgeRecord.AdjustedModelPrice(),
		Adjustment:      adjustment.Net,
		Confidence:      adjustment.Confidence,
		Tier:            edgeRecord.Tier,
		StakeFraction:   stakeRecord.Fraction,
		SourceIDs:       adjustment.SourceIDs(),
		RecordedAt:      edgeRecord.EvaluatedAt,
	}
	if err := e.calibration.RecordPrediction(prediction); err != nil {
		if models.IsConflictError(err) {
			// Predictions are write-once per cycle; the original stands
			e.logger.WithField("subject_id", edgeRecord.SubjectID).Debug("Prediction already recorded, keeping original")
		} else {
			metrics.RecordEvaluationFailure()
			return nil, err
		}
	}

	metrics.RecordEvaluation(string(edgeRecord.Tier), time.Since(started).Seconds())
	metrics.UpdateExposure(e.sizer.OpenExposure(), e.sizer.OpenPositions())

	return &EvaluationResult{
		Adjustment: adjustment,
		Edge:       edgeRecord,
		Stake:      stakeRecord,
	}, nil
}

// BatchResult pairs one subject's evaluation with any error it produced
type BatchResult struct {
	SubjectID string
	Result    *EvaluationResult
	Err       error
}

// EvaluateBatch evaluates many subjects concurrently on a bounded worker
// pool. Evaluation has no cross-subject data dependency, so a failure for
// one subject never aborts the others; each slot in the returned slice
// matches the corresponding input.
func (e *Engine) EvaluateBatch(ctx context.Context, inputs []EvaluationInput) []BatchResult {
	results := make([]BatchResult, len(inputs))

	sem := make(chan struct{}, e.cfg.Engine.MaxConcurrentEvaluations)
	var wg sync.WaitGroup

	for i := range inputs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			result, err := e.Evaluate(ctx, inputs[i])
			results[i] = BatchResult{
				SubjectID: inputs[i].Quote.SubjectID,
				Result:    result,
				Err:       err,
			}
		}(i)
	}

	wg.Wait()
	return results
}

// RecordOutcome resolves a subject's prediction, releases its open exposure,
// and propagates accuracy back to contributing source scores
func (e *Engine) RecordOutcome(outcome *models.OutcomeRecord) error {
	if err := e.calibration.RecordOutcome(outcome); err != nil {
		if models.IsConflictError(err) {
			metrics.RecordWriteConflict()
		}
		return err
	}

	e.sizer.Release(outcome.SubjectID)
	metrics.RecordOutcome()
	metrics.UpdateExposure(e.sizer.OpenExposure(), e.sizer.OpenPositions())

	for _, score := range e.sources.Scores() {
		metrics.UpdateSourceAccuracy(score.SourceID, score.Accuracy)
	}

	return nil
}

// RecordSourceObservation lets collaborators score a source directly, e.g.
// for latency observations made at ingestion time
func (e *Engine) RecordSourceObservation(sourceID string, predicted, actual, latency float64) error {
	return e.sources.Record(sourceID, predicted, actual, latency)
}

// Report generates (or returns the cached) calibration report for a window
func (e *Engine) Report(window models.ReportWindow) *models.CalibrationReport {
	started := time.Now()
	report := e.calibration.Report(window)
	metrics.RecordReportDuration(time.Since(started).Seconds())
	return report
}

// SourceScores returns a snapshot of all tracked source scores
func (e *Engine) SourceScores() []models.SourceScore {
	return e.sources.Scores()
}

// OpenExposure returns the sum of currently open recommended fractions
func (e *Engine) OpenExposure() float64 {
	return e.sizer.OpenExposure()
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Result represents the outcome of a recommended position
type Result string

const (
	ResultWin  Result = "win"
	ResultLoss Result = "loss"
	ResultPush Result = "push"
)

// IsValid checks if the result is a recognized value
func (r Result) IsValid() bool {
	switch r {
	case ResultWin, ResultLoss, ResultPush:
		return true
	default:
		return false
	}
}

// PredictionRecord is written before an event resolves. Write-once per
// subject: a second prediction for the same subject is rejected.
type PredictionRecord struct {
	ID              uuid.UUID `json:"id"`
	SubjectID       string    `json:"subject_id"`
	PredictedEdge   float64   `json:"predicted_edge"`
	PredictedMargin float64   `json:"predicted_margin"`
	Adjustment      float64   `json:"adjustment"`
	Confidence      float64   `json:"confidence"`
	Tier            Tier      `json:"tier"`
	StakeFraction   float64   `json:"stake_fraction"`
	SourceIDs       []string  `json:"source_ids"`
	RecordedAt      time.Time `json:"recorded_at"`
}

// OutcomeRecord is written after resolution. At most one outcome is ever
// accepted per prediction; later submissions are rejected, not overwritten.
type OutcomeRecord struct {
	SubjectID     string    `json:"subject_id"`
	ActualResult  Result    `json:"actual_result"`
	ActualMargin  float64   `json:"actual_margin"`
	RealizedValue float64   `json:"realized_value"`
	RecordedAt    time.Time `json:"recorded_at"`
}

// PairedRecord joins a prediction with its resolved outcome
type PairedRecord struct {
	Prediction *PredictionRecord `json:"prediction"`
	Outcome    *OutcomeRecord    `json:"outcome"`
}

// SourceBreakdown summarizes one source's contribution to calibration
type SourceBreakdown struct {
	SourceID           string  `json:"source_id"`
	Accuracy           float64 `json:"accuracy"`
	AverageLatency     float64 `json:"average_latency_seconds"`
	SampleCount        int     `json:"sample_count"`
	InsufficientSample bool    `json:"insufficient_sample"`
}

// ReportWindow bounds the records considered by a CalibrationReport
type ReportWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window. A zero Start or End
// leaves that side unbounded.
func (w ReportWindow) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && t.After(w.End) {
		return false
	}
	return true
}

// CalibrationReport aggregates prediction accuracy over a window. It is
// recomputed on demand from the paired record set, never stored.
type CalibrationReport struct {
	Window           ReportWindow      `json:"window"`
	SampleSize       int               `json:"sample_size"`
	RMSE             float64           `json:"rmse"`
	WinRate          float64           `json:"win_rate"`
	ReturnOnStake    float64           `json:"return_on_stake"`
	TierWinRates     map[Tier]float64  `json:"tier_win_rates"`
	PerSource        []SourceBreakdown `json:"per_source"`
	Recommendations  []string          `json:"recommendations"`
	InsufficientData bool              `json:"insufficient_data"`
	GeneratedAt      time.Time         `json:"generated_at"`
}

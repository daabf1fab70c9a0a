package calibration

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharp-line/internal/models"
)

// Report computes a CalibrationReport over the paired records falling inside
// the window. Reports are cached for the configured TTL and invalidated
// whenever a new outcome is accepted.
func (t *Tracker) Report(window models.ReportWindow) *models.CalibrationReport {
	key := cacheKey(window)
	if cached, ok := t.reportCache.Get(key); ok {
		return cached.(*models.CalibrationReport)
	}

	report := t.compute(window)
	t.reportCache.SetDefault(key, report)
	return report
}

func (t *Tracker) compute(window models.ReportWindow) *models.CalibrationReport {
	paired := make([]models.PairedRecord, 0)
	for _, rec := range t.snapshot() {
		if rec.Outcome == nil {
			continue
		}
		if !window.Contains(rec.Prediction.RecordedAt) {
			continue
		}
		paired = append(paired, rec)
	}

	report := &models.CalibrationReport{
		Window:       window,
		SampleSize:   len(paired),
		TierWinRates: make(map[models.Tier]float64),
		GeneratedAt:  time.Now(),
	}

	if len(paired) == 0 {
		report.InsufficientData = true
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("insufficient sample to draw conclusions below %d observations", t.cfg.MinReportSampleSize))
		return report
	}

	report.RMSE = rootMeanSquareError(paired)
	report.WinRate = winRate(paired)
	report.ReturnOnStake = stakeWeightedReturn(paired)
	report.TierWinRates = tierWinRates(paired)
	report.PerSource = t.perSourceBreakdown()
	report.InsufficientData = len(paired) < t.cfg.MinReportSampleSize
	report.Recommendations = t.recommendations(report)

	t.logger.WithFields(logrus.Fields{
		"sample_size":     report.SampleSize,
		"rmse":            report.RMSE,
		"win_rate":        report.WinRate,
		"return_on_stake": report.ReturnOnStake,
	}).Info("Calibration report generated")

	return report
}

// rootMeanSquareError measures predicted-margin vs actual-margin error
func rootMeanSquareError(paired []models.PairedRecord) float64 {
	if len(paired) == 0 {
		return 0
	}
	sum := 0.0
	for _, rec := range paired {
		diff := rec.Prediction.PredictedMargin - rec.Outcome.ActualMargin
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(paired)))
}

// winRate is the fraction of predictions whose recommended side matched the
// actual result
func winRate(paired []models.PairedRecord) float64 {
	wins := 0
	for _, rec := range paired {
		if rec.Outcome.ActualResult == models.ResultWin {
			wins++
		}
	}
	return float64(wins) / float64(len(paired))
}

// stakeWeightedReturn is realized value over recommended stake, weighted by
// stake size so larger positions dominate the aggregate figure
func stakeWeightedReturn(paired []models.PairedRecord) float64 {
	totalStake := 0.0
	totalRealized := 0.0
	for _, rec := range paired {
		if rec.Prediction.StakeFraction <= 0 {
			continue
		}
		totalStake += rec.Prediction.StakeFraction
		totalRealized += rec.Outcome.RealizedValue
	}
	if totalStake == 0 {
		return 0
	}
	return totalRealized / totalStake
}

func tierWinRates(paired []models.PairedRecord) map[models.Tier]float64 {
	wins := make(map[models.Tier]int)
	counts := make(map[models.Tier]int)
	for _, rec := range paired {
		tier := rec.Prediction.Tier
		counts[tier]++
		if rec.Outcome.ActualResult == models.ResultWin {
			wins[tier]++
		}
	}
	rates := make(map[models.Tier]float64, len(counts))
	for tier, n := range counts {
		rates[tier] = float64(wins[tier]) / float64(n)
	}
	return rates
}

func (t *Tracker) perSourceBreakdown() []models.SourceBreakdown {
	scores := t.sources.Scores()
	out := make([]models.SourceBreakdown, 0, len(scores))
	for _, s := range scores {
		out = append(out, models.SourceBreakdown{
			SourceID:           s.SourceID,
			Accuracy:           s.Accuracy,
			AverageLatency:     s.AverageLatency,
			SampleCount:        s.SampleCount,
			InsufficientSample: s.InsufficientSample,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceID < out[j].SourceID })
	return out
}

// recommendations applies the template-driven thresholds to the computed
// report
func (t *Tracker) recommendations(report *models.CalibrationReport) []string {
	recs := make([]string, 0)

	if report.SampleSize < t.cfg.MinReportSampleSize {
		recs = append(recs, fmt.Sprintf("insufficient sample to draw conclusions below %d observations", t.cfg.MinReportSampleSize))
		return recs
	}

	if report.WinRate >= t.cfg.StrongWinRate {
		recs = append(recs, "win rate above target: maintain current source weighting")
	} else if report.WinRate <= t.cfg.PoorWinRate {
		recs = append(recs, "win rate below breakeven: reduce stake sizing until calibration improves")
	}

	for tier, rate := range report.TierWinRates {
		if tier.IsPlayable() && rate <= t.cfg.PoorWinRate {
			recs = append(recs, fmt.Sprintf("tier %s win rate %.1f%% is below %.1f%%: re-examine its band boundaries", tier, rate*100, t.cfg.PoorWinRate*100))
		}
	}

	for _, s := range report.PerSource {
		if s.InsufficientSample {
			continue
		}
		if s.Accuracy >= t.cfg.StrongWinRate {
			recs = append(recs, fmt.Sprintf("increase weight of source %s (accuracy %.2f)", s.SourceID, s.Accuracy))
		} else if s.Accuracy <= t.cfg.PoorWinRate {
			recs = append(recs, fmt.Sprintf("reduce weight of source %s (accuracy %.2f)", s.SourceID, s.Accuracy))
		}
	}

	sort.Strings(recs)
	return recs
}

func cacheKey(w models.ReportWindow) string {
	return fmt.Sprintf("%d:%d", w.Start.UnixNano(), w.End.UnixNano())
}

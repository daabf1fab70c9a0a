package adjust

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharp-line/internal/config"
	"github.com/yourusername/sharp-line/internal/models"
)

// SourceRater supplies the current confidence multiplier for a data source
type SourceRater interface {
	Multiplier(sourceID string) float64
}

// EventContribution records how one event entered the net adjustment
type EventContribution struct {
	EventID          uuid.UUID        `json:"event_id"`
	Type             models.EventType `json:"event_type"`
	SourceID         string           `json:"source_id"`
	BaseImpact       float64          `json:"base_impact"`
	DecayFactor      float64          `json:"decay_factor"`
	CompoundWeight   float64          `json:"compound_weight"`
	EffectiveImpact  float64          `json:"effective_impact"`
	SourceMultiplier float64          `json:"source_multiplier"`
	Confidence       float64          `json:"confidence"`
}

// Adjustment is the net situational correction for one subject
type Adjustment struct {
	Net        float64             `json:"net"`
	Confidence float64             `json:"confidence"`
	Breakdown  []EventContribution `json:"breakdown"`
}

// SourceIDs returns the distinct sources that contributed to the adjustment
func (a *Adjustment) SourceIDs() []string {
	seen := make(map[string]bool)
	ids := make([]string, 0, len(a.Breakdown))
	for _, c := range a.Breakdown {
		if !seen[c.SourceID] {
			seen[c.SourceID] = true
			ids = append(ids, c.SourceID)
		}
	}
	return ids
}

// Calculator computes net situational adjustments from event sets
type Calculator struct {
	cfg    *config.EngineConfig
	rater  SourceRater
	logger *logrus.Logger
}

// NewCalculator creates a new situational adjustment calculator
func NewCalculator(cfg *config.EngineConfig, rater SourceRater, logger *logrus.Logger) *Calculator {
	return &Calculator{cfg: cfg, rater: rater, logger: logger}
}

// Compute produces the net adjustment and aggregate confidence for a
// subject's event set at the given time. An empty set yields a neutral
// (0, 0) adjustment. Malformed or future-dated events fail with a
// ValidationError rather than being silently dropped.
func (c *Calculator) Compute(events []models.SituationalEvent, now time.Time) (*Adjustment, error) {
	if len(events) == 0 {
		return &Adjustment{}, nil
	}

	for i := range events {
		if err := events[i].Validate(now); err != nil {
			return nil, err
		}
	}

	active := supersede(events)

	// Decay each surviving event, then group by type so overlapping
	// impacts can be compounded with diminishing returns.
	byType := make(map[models.EventType][]EventContribution)
	for _, ev := range active {
		curve := c.cfg.DecayFor(ev.Type)
		factor := Decay(ev.Age(now), curve)
		mult := c.rater.Multiplier(ev.SourceID)
		byType[ev.Type] = append(byType[ev.Type], EventContribution{
			EventID:          ev.ID,
			Type:             ev.Type,
			SourceID:         ev.SourceID,
			BaseImpact:       ev.BaseImpact,
			DecayFactor:      factor,
			EffectiveImpact:  ev.BaseImpact * factor,
			SourceMultiplier: mult,
			Confidence:       ev.Strength.Weight() * factor * mult,
		})
	}

	adj := &Adjustment{}
	for _, group := range byType {
		// Largest impact counts in full; every additional overlapping
		// event of the same type is treated as partially additive.
		sort.Slice(group, func(i, j int) bool {
			return math.Abs(group[i].EffectiveImpact) > math.Abs(group[j].EffectiveImpact)
		})
		for i := range group {
			weight := 1.0
			if i > 0 {
				weight = c.cfg.CompoundingFactor
			}
			group[i].CompoundWeight = weight
			group[i].EffectiveImpact *= weight
			adj.Net += group[i].EffectiveImpact
			adj.Breakdown = append(adj.Breakdown, group[i])
		}
	}

	adj.Confidence = aggregateConfidence(adj.Breakdown)

	c.logger.WithFields(logrus.Fields{
		"events":     len(events),
		"active":     len(active),
		"net":        adj.Net,
		"confidence": adj.Confidence,
	}).Debug("Situational adjustment computed")

	return adj, nil
}

// supersede drops events whose condition has a newer report. Events sharing a
// non-empty (type, condition key) pair are re-anchored: only the most recent
// survives.
func supersede(events []models.SituationalEvent) []models.SituationalEvent {
	type conditionKey struct {
		Type models.EventType
		Key  string
	}

	newest := make(map[conditionKey]models.SituationalEvent)
	standalone := make([]models.SituationalEvent, 0, len(events))

	for _, ev := range events {
		if ev.ConditionKey == "" {
			standalone = append(standalone, ev)
			continue
		}
		k := conditionKey{Type: ev.Type, Key: ev.ConditionKey}
		if cur, ok := newest[k]; !ok || ev.OccurredAt.After(cur.OccurredAt) {
			newest[k] = ev
		}
	}

	for _, ev := range newest {
		standalone = append(standalone, ev)
	}
	return standalone
}

// aggregateConfidence averages per-event confidences weighted by the size of
// each event's effective impact, so large corrections dominate the confidence
// figure the same way they dominate the adjustment.
func aggregateConfidence(contributions []EventContribution) float64 {
	totalWeight := 0.0
	weighted := 0.0
	for _, c := range contributions {
		w := math.Abs(c.EffectiveImpact)
		totalWeight += w
		weighted += w * c.Confidence
	}
	if totalWeight == 0 {
		// All impacts are zero; fall back to a simple average
		if len(contributions) == 0 {
			return 0
		}
		sum := 0.0
		for _, c := range contributions {
			sum += c.Confidence
		}
		return clamp01(sum / float64(len(contributions)))
	}
	return clamp01(weighted / totalWeight)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

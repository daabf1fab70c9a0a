package adjust

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/sharp-line/internal/config"
	"github.com/yourusername/sharp-line/internal/models"
)

// stubRater returns a fixed multiplier per source
type stubRater struct {
	multipliers map[string]float64
}

func (s *stubRater) Multiplier(sourceID string) float64 {
	if m, ok := s.multipliers[sourceID]; ok {
		return m
	}
	return 0.5
}

func testEngineConfig() *config.EngineConfig {
	return &config.EngineConfig{
		Decay: map[string]config.DecayConfig{
			"participant_unavailable": {HalfLifeHours: 168, Floor: 0.6},
			"participant_limited":     {HalfLifeHours: 96, Floor: 0.4},
			"adverse_environment":     {HalfLifeHours: 12, Floor: 0.0},
			"travel_burden":           {HalfLifeHours: 48, Floor: 0.1},
			"rest_disadvantage":       {HalfLifeHours: 48, Floor: 0.1},
		},
		CompoundingFactor: 0.5,
		NeutralMultiplier: 0.5,
	}
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func makeEvent(subjectID string, t models.EventType, impact float64, occurredAt time.Time, sourceID string) models.SituationalEvent {
	return models.SituationalEvent{
		ID:         uuid.New(),
		SubjectID:  subjectID,
		Type:       t,
		BaseImpact: impact,
		OccurredAt: occurredAt,
		SourceID:   sourceID,
		Strength:   models.SignalStrong,
	}
}

func TestDecayProperties(t *testing.T) {
	curve := config.DecayConfig{HalfLifeHours: 24, Floor: 0.2}

	assert.Equal(t, 1.0, Decay(0, curve), "decay at zero elapsed time must be 1")

	prev := 1.0
	for hours := 1; hours <= 500; hours += 7 {
		factor := Decay(time.Duration(hours)*time.Hour, curve)
		assert.LessOrEqual(t, factor, prev, "decay must be non-increasing at %dh", hours)
		assert.GreaterOrEqual(t, factor, curve.Floor, "decay must not fall below the floor")
		assert.LessOrEqual(t, factor, 1.0)
		prev = factor
	}
}

func TestDecayApproachesFloorNotZero(t *testing.T) {
	curve := config.DecayConfig{HalfLifeHours: 168, Floor: 0.6}

	// A participant unavailable for months still carries its floor weight
	factor := Decay(90*24*time.Hour, curve)
	assert.InDelta(t, 0.6, factor, 0.01)
	assert.Greater(t, factor, 0.0)
}

func TestComputeEmptyEventSet(t *testing.T) {
	calc := NewCalculator(testEngineConfig(), &stubRater{}, testLogger())

	adj, err := calc.Compute(nil, time.Now())
	require.NoError(t, err)
	assert.Zero(t, adj.Net, "empty event set must be neutral")
	assert.Zero(t, adj.Confidence, "empty event set must not be treated as favorable")
}

func TestComputeRejectsFutureEvent(t *testing.T) {
	calc := NewCalculator(testEngineConfig(), &stubRater{}, testLogger())
	now := time.Now()

	events := []models.SituationalEvent{
		makeEvent("sub-1", models.EventTravelBurden, -1.0, now.Add(time.Hour), "src-a"),
	}

	_, err := calc.Compute(events, now)
	require.Error(t, err)
	assert.True(t, models.IsValidationError(err))
}

func TestComputeRejectsNonFiniteImpact(t *testing.T) {
	calc := NewCalculator(testEngineConfig(), &stubRater{}, testLogger())
	now := time.Now()

	ev := makeEvent("sub-1", models.EventTravelBurden, 1.0, now.Add(-time.Hour), "src-a")
	ev.BaseImpact = math.Inf(1)

	_, err := calc.Compute([]models.SituationalEvent{ev}, now)
	require.Error(t, err)
	assert.True(t, models.IsValidationError(err))
}

func TestCompoundingDiminishingReturns(t *testing.T) {
	// Three overlapping participant-unavailable events: the largest counts in
	// full, each additional one at the compounding factor.
	calc := NewCalculator(testEngineConfig(), &stubRater{multipliers: map[string]float64{"src-a": 1.0}}, testLogger())
	now := time.Now()

	events := []models.SituationalEvent{
		makeEvent("sub-1", models.EventParticipantUnavailable, -2.0, now, "src-a"),
		makeEvent("sub-1", models.EventParticipantUnavailable, -1.5, now, "src-a"),
		makeEvent("sub-1", models.EventParticipantUnavailable, -1.0, now, "src-a"),
	}

	adj, err := calc.Compute(events, now)
	require.NoError(t, err)

	// -2.0 + (-1.5 * 0.5) + (-1.0 * 0.5), not the naive -4.5
	assert.InDelta(t, -3.25, adj.Net, 1e-9)
}

func TestCompoundingDoesNotCrossEventTypes(t *testing.T) {
	calc := NewCalculator(testEngineConfig(), &stubRater{multipliers: map[string]float64{"src-a": 1.0}}, testLogger())
	now := time.Now()

	events := []models.SituationalEvent{
		makeEvent("sub-1", models.EventParticipantUnavailable, -2.0, now, "src-a"),
		makeEvent("sub-1", models.EventTravelBurden, -1.0, now, "src-a"),
	}

	adj, err := calc.Compute(events, now)
	require.NoError(t, err)

	// Different types do not overlap, so both count in full
	assert.InDelta(t, -3.0, adj.Net, 1e-9)
}

func TestSupersessionReAnchorsCondition(t *testing.T) {
	calc := NewCalculator(testEngineConfig(), &stubRater{multipliers: map[string]float64{"src-a": 1.0}}, testLogger())
	now := time.Now()

	older := makeEvent("sub-1", models.EventParticipantUnavailable, -3.0, now.Add(-48*time.Hour), "src-a")
	older.ConditionKey = "qb-1"
	newer := makeEvent("sub-1", models.EventParticipantUnavailable, -1.0, now, "src-a")
	newer.ConditionKey = "qb-1"

	adj, err := calc.Compute([]models.SituationalEvent{older, newer}, now)
	require.NoError(t, err)

	// The newer report replaces the older one's remaining effect
	assert.InDelta(t, -1.0, adj.Net, 1e-9)
	require.Len(t, adj.Breakdown, 1)
	assert.Equal(t, newer.ID, adj.Breakdown[0].EventID)
}

func TestDecayedImpactNeverExceedsBase(t *testing.T) {
	calc := NewCalculator(testEngineConfig(), &stubRater{multipliers: map[string]float64{"src-a": 1.0}}, testLogger())
	now := time.Now()

	for _, age := range []time.Duration{0, time.Hour, 24 * time.Hour, 30 * 24 * time.Hour} {
		ev := makeEvent("sub-1", models.EventAdverseEnvironment, -2.5, now.Add(-age), "src-a")
		adj, err := calc.Compute([]models.SituationalEvent{ev}, now)
		require.NoError(t, err)
		assert.LessOrEqual(t, math.Abs(adj.Net), 2.5, "decayed impact must not exceed base at age %v", age)
	}
}

func TestLowScoringSourceReducesConfidenceNotImpact(t *testing.T) {
	now := time.Now()
	cfg := testEngineConfig()

	trusted := NewCalculator(cfg, &stubRater{multipliers: map[string]float64{"src-a": 0.9}}, testLogger())
	sketchy := NewCalculator(cfg, &stubRater{multipliers: map[string]float64{"src-a": 0.1}}, testLogger())

	events := []models.SituationalEvent{
		makeEvent("sub-1", models.EventParticipantUnavailable, -2.0, now, "src-a"),
	}

	hi, err := trusted.Compute(events, now)
	require.NoError(t, err)
	lo, err := sketchy.Compute(events, now)
	require.NoError(t, err)

	assert.Equal(t, hi.Net, lo.Net, "point impact must not depend on source score")
	assert.Greater(t, hi.Confidence, lo.Confidence, "confidence must follow source quality")
	assert.GreaterOrEqual(t, lo.Confidence, 0.0)
	assert.LessOrEqual(t, hi.Confidence, 1.0)
}

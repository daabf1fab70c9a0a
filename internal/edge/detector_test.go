package edge

import (
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/sharp-line/internal/config"
	"github.com/yourusername/sharp-line/internal/models"
)

func testEngineConfig() *config.EngineConfig {
	return &config.EngineConfig{
		MinEdgeThreshold: 0.5,
		ModerateEdge:     1.0,
		StrongEdge:       2.0,
		VeryStrongEdge:   3.0,
		ConfidenceFloor:  0.4,
	}
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestClassifyTiers(t *testing.T) {
	d := NewDetector(testEngineConfig(), testLogger())

	tests := []struct {
		name       string
		edge       float64
		confidence float64
		want       models.Tier
	}{
		{"negative edge", -1.5, 0.9, models.TierNoPlay},
		{"zero edge", 0, 0.9, models.TierNoPlay},
		{"below minimum", 0.3, 0.9, models.TierNoPlay},
		{"exactly at minimum resolves lower", 0.5, 0.9, models.TierNoPlay},
		{"marginal", 0.8, 0.9, models.TierMarginal},
		{"exactly at moderate bound resolves lower", 1.0, 0.9, models.TierMarginal},
		{"moderate", 1.5, 0.9, models.TierModerate},
		{"exactly at strong bound resolves lower", 2.0, 0.9, models.TierModerate},
		{"strong", 2.5, 0.9, models.TierStrong},
		{"exactly at very strong bound resolves lower", 3.0, 0.9, models.TierStrong},
		{"very strong", 4.0, 0.9, models.TierVeryStrong},
		{"low confidence downgrades one level", 4.0, 0.3, models.TierStrong},
		{"low confidence marginal becomes no-play", 0.8, 0.3, models.TierNoPlay},
		{"low confidence cannot rescue a no-play", 0.3, 0.3, models.TierNoPlay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.Classify(tt.edge, tt.confidence))
		})
	}
}

func TestClassifyIsPure(t *testing.T) {
	d := NewDetector(testEngineConfig(), testLogger())

	for i := 0; i < 100; i++ {
		assert.Equal(t, d.Classify(1.5, 0.7), d.Classify(1.5, 0.7))
	}
}

func TestEvaluateAppliesAdjustment(t *testing.T) {
	d := NewDetector(testEngineConfig(), testLogger())

	// Model 3.0, market 0.5, adjustment -1.0: edge = (3.0 - 1.0) - 0.5 = 1.5
	record, err := d.Evaluate("sub-1", 3.0, 0.5, -1.0, 0.8)
	require.NoError(t, err)

	assert.InDelta(t, 1.5, record.RawEdge, 1e-9)
	assert.Equal(t, models.TierModerate, record.Tier)
	assert.InDelta(t, 2.0, record.AdjustedModelPrice(), 1e-9)
	assert.NotEqual(t, record.ID.String(), "00000000-0000-0000-0000-000000000000")
}

func TestEvaluateProducesFreshRecords(t *testing.T) {
	d := NewDetector(testEngineConfig(), testLogger())

	first, err := d.Evaluate("sub-1", 3.0, 0.5, -1.0, 0.8)
	require.NoError(t, err)
	second, err := d.Evaluate("sub-1", 3.0, 0.5, -1.0, 0.8)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID, "re-evaluation must preserve history")
}

func TestEvaluateRejectsNonFiniteInputs(t *testing.T) {
	d := NewDetector(testEngineConfig(), testLogger())

	cases := []struct {
		name                                  string
		model, market, adjustment, confidence float64
	}{
		{"nan model price", math.NaN(), 0.5, 0, 0.5},
		{"inf market price", 3.0, math.Inf(1), 0, 0.5},
		{"nan adjustment", 3.0, 0.5, math.NaN(), 0.5},
		{"inf confidence", 3.0, 0.5, 0, math.Inf(-1)},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Evaluate("sub-1", tt.model, tt.market, tt.adjustment, tt.confidence)
			require.Error(t, err)
			assert.True(t, models.IsValidationError(err))
		})
	}
}

func TestEvaluateRejectsEmptySubject(t *testing.T) {
	d := NewDetector(testEngineConfig(), testLogger())

	_, err := d.Evaluate("", 3.0, 0.5, 0, 0.5)
	require.Error(t, err)
	assert.True(t, models.IsValidationError(err))
}

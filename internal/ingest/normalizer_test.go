package ingest

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/sharp-line/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr bool
	}{
		{"2.5", 2.5, false},
		{"-1.75", -1.75, false},
		{" 3.0 ", 3.0, false},
		{"5/2", 2.5, false},
		{"10/11", 10.0 / 11.0, false},
		{"5/0", 0, true},
		{"evens", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePrice(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestNormalizeEvent(t *testing.T) {
	n := NewNormalizer(testLogger())
	now := time.Now()

	raw := &RawEvent{
		SubjectID:      " NE-BUF-2026-09-13 ",
		EventType:      "Participant_Unavailable",
		BaseImpact:     "-2.0",
		OccurredAt:     now.Add(-2 * time.Hour),
		SourceID:       "beat-writer",
		SignalStrength: "STRONG",
		ConditionKey:   "qb-1",
	}

	event, err := n.NormalizeEvent(raw, now)
	require.NoError(t, err)

	assert.Equal(t, "NE-BUF-2026-09-13", event.SubjectID)
	assert.Equal(t, models.EventParticipantUnavailable, event.Type)
	assert.Equal(t, models.SignalStrong, event.Strength)
	assert.InDelta(t, -2.0, event.BaseImpact, 1e-9)
	assert.NotZero(t, event.ID, "missing upstream id gets assigned")
}

func TestNormalizeEventRejections(t *testing.T) {
	n := NewNormalizer(testLogger())
	now := time.Now()

	base := func() *RawEvent {
		return &RawEvent{
			SubjectID:      "sub-1",
			EventType:      "travel_burden",
			BaseImpact:     "-0.5",
			OccurredAt:     now.Add(-time.Hour),
			SourceID:       "src-a",
			SignalStrength: "moderate",
		}
	}

	tests := []struct {
		name   string
		mutate func(*RawEvent)
	}{
		{"future timestamp", func(r *RawEvent) { r.OccurredAt = now.Add(time.Hour) }},
		{"unknown event type", func(r *RawEvent) { r.EventType = "mood" }},
		{"unknown signal strength", func(r *RawEvent) { r.SignalStrength = "certain" }},
		{"unparseable impact", func(r *RawEvent) { r.BaseImpact = "two points" }},
		{"missing source", func(r *RawEvent) { r.SourceID = "" }},
		{"bad event id", func(r *RawEvent) { r.EventID = "not-a-uuid" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := base()
			tt.mutate(raw)
			_, err := n.NormalizeEvent(raw, now)
			require.Error(t, err)
			assert.True(t, models.IsValidationError(err))
		})
	}
}

func TestNormalizeQuote(t *testing.T) {
	n := NewNormalizer(testLogger())
	now := time.Now()

	quote, err := n.NormalizeQuote(&RawQuote{
		SubjectID:   "sub-1",
		ModelPrice:  "3.0",
		MarketPrice: "1/2",
		ObservedAt:  now.Add(-time.Minute),
	}, now)
	require.NoError(t, err)

	assert.InDelta(t, 3.0, quote.ModelPrice, 1e-9)
	assert.InDelta(t, 0.5, quote.MarketPrice, 1e-9)
}

func TestNormalizeQuoteRejectsFutureObservation(t *testing.T) {
	n := NewNormalizer(testLogger())
	now := time.Now()

	_, err := n.NormalizeQuote(&RawQuote{
		SubjectID:   "sub-1",
		ModelPrice:  "3.0",
		MarketPrice: "0.5",
		ObservedAt:  now.Add(time.Minute),
	}, now)
	require.Error(t, err)
	assert.True(t, models.IsValidationError(err))
}

func TestNormalizeOutcome(t *testing.T) {
	n := NewNormalizer(testLogger())
	now := time.Now()

	outcome, err := n.NormalizeOutcome(&RawOutcome{
		SubjectID:     "sub-1",
		ActualResult:  "WIN",
		ActualMargin:  7.0,
		RealizedValue: 0.045,
	}, now)
	require.NoError(t, err)

	assert.Equal(t, models.ResultWin, outcome.ActualResult)
	assert.False(t, outcome.RecordedAt.IsZero())
}

func TestNormalizeOutcomeRejectsUnknownResult(t *testing.T) {
	n := NewNormalizer(testLogger())

	_, err := n.NormalizeOutcome(&RawOutcome{
		SubjectID:    "sub-1",
		ActualResult: "covered",
	}, time.Now())
	require.Error(t, err)
	assert.True(t, models.IsValidationError(err))
}

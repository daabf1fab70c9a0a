// Package ingest validates and normalizes inbound records at the engine
// boundary. Upstream collaborators deliver loosely-formatted records; this
// package rejects malformed or temporally impossible input with
// ValidationError rather than coercing it, then hands typed records to the
// core.
package ingest

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharp-line/internal/models"
)

// RawEvent is a situational event as delivered by an upstream collaborator
type RawEvent struct {
	EventID        string    `json:"event_id"`
	SubjectID      string    `json:"subject_id"`
	EventType      string    `json:"event_type"`
	BaseImpact     string    `json:"base_impact"`
	OccurredAt     time.Time `json:"occurred_at"`
	SourceID       string    `json:"source_id"`
	SignalStrength string    `json:"signal_strength"`
	ConditionKey   string    `json:"condition_key,omitempty"`
}

// RawQuote is a model/market price pair as delivered upstream. Prices may
// arrive as decimal ("2.5") or fractional ("5/2") strings.
type RawQuote struct {
	SubjectID   string    `json:"subject_id"`
	ModelPrice  string    `json:"model_price"`
	MarketPrice string    `json:"market_price"`
	ObservedAt  time.Time `json:"observed_at"`
}

// Normalizer converts raw inbound records into validated typed records
type Normalizer struct {
	logger *logrus.Logger
}

// NewNormalizer creates a new inbound record normalizer
func NewNormalizer(logger *logrus.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// NormalizeEvent converts a raw event to a SituationalEvent, rejecting
// malformed values with ValidationError
func (n *Normalizer) NormalizeEvent(raw *RawEvent, now time.Time) (*models.SituationalEvent, error) {
	id, err := parseEventID(raw.EventID)
	if err != nil {
		return nil, err
	}

	impact, err := ParsePrice(raw.BaseImpact)
	if err != nil {
		return nil, models.NewValidationError("base_impact", "not a parseable number: "+raw.BaseImpact)
	}

	event := &models.SituationalEvent{
		ID:           id,
		SubjectID:    strings.TrimSpace(raw.SubjectID),
		Type:         models.EventType(strings.ToLower(strings.TrimSpace(raw.EventType))),
		BaseImpact:   impact,
		OccurredAt:   raw.OccurredAt.UTC(),
		SourceID:     strings.TrimSpace(raw.SourceID),
		Strength:     models.SignalStrength(strings.ToLower(strings.TrimSpace(raw.SignalStrength))),
		ConditionKey: strings.TrimSpace(raw.ConditionKey),
	}

	if err := event.Validate(now); err != nil {
		n.logger.WithError(err).WithField("event_id", raw.EventID).Debug("Rejected inbound event")
		return nil, err
	}

	return event, nil
}

// NormalizeQuote converts a raw price quote to a PriceQuote
func (n *Normalizer) NormalizeQuote(raw *RawQuote, now time.Time) (*models.PriceQuote, error) {
	if strings.TrimSpace(raw.SubjectID) == "" {
		return nil, models.NewValidationError("subject_id", "must not be empty")
	}
	if raw.ObservedAt.After(now) {
		return nil, models.NewValidationError("observed_at", "timestamp is in the future")
	}

	modelPrice, err := ParsePrice(raw.ModelPrice)
	if err != nil {
		return nil, models.NewValidationError("model_price", "not a parseable price: "+raw.ModelPrice)
	}
	marketPrice, err := ParsePrice(raw.MarketPrice)
	if err != nil {
		return nil, models.NewValidationError("market_price", "not a parseable price: "+raw.MarketPrice)
	}

	return &models.PriceQuote{
		SubjectID:   strings.TrimSpace(raw.SubjectID),
		ModelPrice:  modelPrice,
		MarketPrice: marketPrice,
		ObservedAt:  raw.ObservedAt.UTC(),
	}, nil
}

// ParsePrice parses a price string in decimal ("2.5") or fractional ("5/2")
// form. Parsing goes through decimal arithmetic so "5/2" yields exactly 2.5.
func ParsePrice(s string) (float64, error) {
	s = strings.TrimSpace(s)

	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err := decimal.NewFromString(strings.TrimSpace(num))
		if err != nil {
			return 0, err
		}
		d, err := decimal.NewFromString(strings.TrimSpace(den))
		if err != nil {
			return 0, err
		}
		if d.IsZero() {
			return 0, models.NewValidationError("price", "fractional price has zero denominator")
		}
		f, _ := n.Div(d).Float64()
		return f, nil
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	return f, nil
}

func parseEventID(s string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		// Upstream sources are not required to assign identifiers
		return uuid.New(), nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, models.NewValidationError("event_id", "not a valid UUID: "+s)
	}
	return id, nil
}

package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// EventType represents the kind of situational fact an event records
type EventType string

const (
	EventParticipantUnavailable EventType = "participant_unavailable"
	EventParticipantLimited     EventType = "participant_limited"
	EventAdverseEnvironment     EventType = "adverse_environment"
	EventTravelBurden           EventType = "travel_burden"
	EventRestDisadvantage       EventType = "rest_disadvantage"
)

// EventTypes lists every recognized event type
var EventTypes = []EventType{
	EventParticipantUnavailable,
	EventParticipantLimited,
	EventAdverseEnvironment,
	EventTravelBurden,
	EventRestDisadvantage,
}

// IsValid checks if the event type is a recognized value
func (t EventType) IsValid() bool {
	switch t {
	case EventParticipantUnavailable, EventParticipantLimited,
		EventAdverseEnvironment, EventTravelBurden, EventRestDisadvantage:
		return true
	default:
		return false
	}
}

// SignalStrength represents how strongly a source asserted the event
type SignalStrength string

const (
	SignalWeak       SignalStrength = "weak"
	SignalModerate   SignalStrength = "moderate"
	SignalStrong     SignalStrength = "strong"
	SignalVeryStrong SignalStrength = "very_strong"
)

// IsValid checks if the signal strength is a recognized value
func (s SignalStrength) IsValid() bool {
	switch s {
	case SignalWeak, SignalModerate, SignalStrong, SignalVeryStrong:
		return true
	default:
		return false
	}
}

// Weight returns the confidence weight carried by the signal strength
func (s SignalStrength) Weight() float64 {
	switch s {
	case SignalWeak:
		return 0.25
	case SignalModerate:
		return 0.5
	case SignalStrong:
		return 0.75
	case SignalVeryStrong:
		return 1.0
	default:
		return 0
	}
}

// SituationalEvent is a single discrete situational fact affecting a subject
// (a matchup/market-line pair). Events are immutable once recorded; a newer
// event with the same condition key supersedes the older one rather than
// mutating it in place.
type SituationalEvent struct {
	ID           uuid.UUID      `json:"id" validate:"required"`
	SubjectID    string         `json:"subject_id" validate:"required"`
	Type         EventType      `json:"event_type" validate:"required"`
	BaseImpact   float64        `json:"base_impact" validate:"required"`
	OccurredAt   time.Time      `json:"occurred_at" validate:"required"`
	SourceID     string         `json:"source_id" validate:"required"`
	Strength     SignalStrength `json:"signal_strength" validate:"required"`
	// ConditionKey identifies the underlying condition (e.g. a participant)
	// so that a newer report of the same condition re-anchors the older one
	// instead of stacking with it. Empty means the event stands alone.
	ConditionKey string `json:"condition_key,omitempty"`
}

// Validate checks the event for malformed or temporally impossible values
func (e *SituationalEvent) Validate(now time.Time) error {
	if e.SubjectID == "" {
		return NewValidationError("subject_id", "must not be empty")
	}
	if !e.Type.IsValid() {
		return NewValidationError("event_type", "unknown event type "+string(e.Type))
	}
	if !e.Strength.IsValid() {
		return NewValidationError("signal_strength", "unknown signal strength "+string(e.Strength))
	}
	if math.IsNaN(e.BaseImpact) || math.IsInf(e.BaseImpact, 0) {
		return NewValidationError("base_impact", "must be finite")
	}
	if e.SourceID == "" {
		return NewValidationError("source_id", "must not be empty")
	}
	if e.OccurredAt.After(now) {
		return NewValidationError("occurred_at", "timestamp is in the future")
	}
	return nil
}

// Age returns elapsed time since the event occurred
func (e *SituationalEvent) Age(now time.Time) time.Duration {
	return now.Sub(e.OccurredAt)
}

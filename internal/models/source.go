package models

import "time"

// SourceScore is the rolling quality score for one upstream data source.
// Created on first observation, updated incrementally by the calibration
// path, never deleted.
type SourceScore struct {
	SourceID           string    `json:"source_id"`
	Accuracy           float64   `json:"accuracy"`
	AverageLatency     float64   `json:"average_latency_seconds"`
	SampleCount        int       `json:"sample_count"`
	InsufficientSample bool      `json:"insufficient_sample"`
	UpdatedAt          time.Time `json:"updated_at"`
}

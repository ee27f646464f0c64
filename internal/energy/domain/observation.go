// Package domain holds the core energy-usage entities shared by the
// ingestion pipeline, the CSV batch driver, and the request handlers.
package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

// DateFormat is the calendar-date layout for usage observations.
const DateFormat = "2006-01-02"

// Sentinel validation errors. Handlers map these to client-error responses;
// the batch driver skips rows that fail with them.
var (
	ErrMissingUserID = errors.New("missing user id")
	ErrMissingFields = errors.New("missing required fields")
	ErrInvalidDate   = errors.New("invalid date format, use YYYY-MM-DD")
	ErrInvalidUsage  = errors.New("usage must be a non-negative number")
)

// Observation is one energy reading. It is constructed per request or CSV
// row, validated, persisted, and then discarded; it is never mutated after
// ingestion starts.
type Observation struct {
	// UserID identifies the owning account.
	UserID string
	// Date is the reading's calendar date in YYYY-MM-DD form.
	Date string
	// Usage is the energy quantity in kWh.
	Usage float64
	// Timestamp is the instant attached to the reading. Zero means the
	// pipeline assigns the processing instant at ingestion.
	Timestamp time.Time
}

// Validate checks the observation for ingestion and returns the first
// failure. The date must parse strictly (month 13 or day 32 are rejected,
// not just malformed strings).
func (o *Observation) Validate() error {
	if o.UserID == "" {
		return ErrMissingUserID
	}
	if o.Date == "" {
		return ErrMissingFields
	}
	if _, err := time.Parse(DateFormat, o.Date); err != nil {
		return ErrInvalidDate
	}
	if o.Usage < 0 || math.IsNaN(o.Usage) || math.IsInf(o.Usage, 0) {
		return ErrInvalidUsage
	}
	return nil
}

// ThresholdSetting is a user's configured alert threshold. A nil Threshold
// means no threshold is enforced and the user never alerts.
type ThresholdSetting struct {
	UserID    string
	Threshold *float64
}

// UsageRecord is a durably stored usage item as returned by history queries.
type UsageRecord struct {
	ID        string  `json:"id"`
	Date      string  `json:"date"`
	Usage     float64 `json:"usage"`
	Timestamp string  `json:"timestamp,omitempty"`
}

// AlertEvent is the transient notification payload published when an
// observation exceeds the user's threshold. It is never persisted.
type AlertEvent struct {
	UserID    string  `json:"userId"`
	Date      string  `json:"date"`
	Usage     float64 `json:"usage"`
	Threshold float64 `json:"threshold"`
	Message   string  `json:"message"`
}

// NewAlertEvent builds the alert payload for an observation that exceeded
// the given threshold.
func NewAlertEvent(o Observation, threshold float64) AlertEvent {
	return AlertEvent{
		UserID:    o.UserID,
		Date:      o.Date,
		Usage:     o.Usage,
		Threshold: threshold,
		Message: fmt.Sprintf(
			"Energy usage alert: Your energy usage of %s kWh on %s exceeds your threshold of %s kWh.",
			FormatUsage(o.Usage), o.Date, FormatUsage(threshold),
		),
	}
}

// FormatUsage renders a kWh quantity as a plain decimal string, the form
// used for alert messages and time-series measure values.
func FormatUsage(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

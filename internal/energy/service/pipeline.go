// Package service implements the usage ingestion pipeline: validate one
// observation, persist it durably, evaluate the owner's alert threshold,
// and append a time-series point.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mccollumn/home-energy-monitoring/internal/energy/domain"
)

// Stage names a pipeline dependency for failure reporting.
type Stage string

const (
	StageRecordWrite     Stage = "record-write"
	StageTimeSeriesWrite Stage = "time-series-write"
	StageBlobFetch       Stage = "blob-fetch"
)

// DependencyError marks a fatal backend failure at a specific pipeline stage.
// Threshold lookup and alert publish failures are never wrapped in this type;
// they are logged and swallowed.
type DependencyError struct {
	Stage Stage
	Err   error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }

// RecordStore is the durable key-value store for usage records and
// threshold settings, as needed by the pipeline.
type RecordStore interface {
	// PutObservation upserts the observation keyed by its user id.
	// Last write wins; any existing item under the same key is overwritten.
	PutObservation(ctx context.Context, o domain.Observation) error
	// GetThreshold returns the user's configured threshold, or nil when the
	// user has no setting or the setting has no threshold.
	GetThreshold(ctx context.Context, userID string) (*float64, error)
}

// TimeSeriesStore appends usage points to the time-series store.
type TimeSeriesStore interface {
	WriteUsage(ctx context.Context, userID, date string, usage float64, at time.Time) error
}

// AlertPublisher publishes threshold-exceeded notifications. Callers use it
// best-effort: a publish failure must never fail the ingestion.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, ev domain.AlertEvent) error
}

// Result is the outcome of one successful ingestion.
type Result struct {
	// Threshold is the user's configured threshold, or nil when none is set
	// or the lookup failed.
	Threshold *float64
	// ThresholdExceeded reports whether usage was strictly greater than the
	// threshold. Equal-to-threshold does not count as exceeded.
	ThresholdExceeded bool
	// Timestamp is the instant attached to the stored observation.
	Timestamp time.Time
}

// Pipeline runs the ingestion steps for one observation at a time. It holds
// no state across calls; all consistency comes from the record store's
// key-based upsert.
type Pipeline struct {
	records RecordStore
	points  TimeSeriesStore
	alerts  AlertPublisher
	log     *slog.Logger
	now     func() time.Time
	tracer  trace.Tracer
}

// NewPipeline returns a pipeline over the given stores. logger must be non-nil.
func NewPipeline(records RecordStore, points TimeSeriesStore, alerts AlertPublisher, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		records: records,
		points:  points,
		alerts:  alerts,
		log:     logger,
		now:     time.Now,
		tracer:  otel.Tracer("energy/service"),
	}
}

// Ingest runs the full pipeline for one observation.
//
// Failure policy, fixed across all callers: validation and the durable write
// are fatal and abort the call; the threshold check and alert publish are
// logged and swallowed; the time-series write is fatal. No retries anywhere;
// re-submitting the same observation overwrites the durable record and
// appends a duplicate point.
func (p *Pipeline) Ingest(ctx context.Context, obs domain.Observation) (*Result, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.Ingest",
		trace.WithAttributes(attribute.String("energy.date", obs.Date)))
	defer span.End()

	if err := obs.Validate(); err != nil {
		return nil, err
	}

	if obs.Timestamp.IsZero() {
		obs.Timestamp = p.now().UTC()
	}

	if err := p.records.PutObservation(ctx, obs); err != nil {
		p.log.Error("energy record write failed",
			"user_id", obs.UserID, "date", obs.Date, "error", err)
		return nil, &DependencyError{Stage: StageRecordWrite, Err: err}
	}

	res := &Result{Timestamp: obs.Timestamp}
	p.checkThreshold(ctx, obs, res)

	if err := p.points.WriteUsage(ctx, obs.UserID, obs.Date, obs.Usage, obs.Timestamp); err != nil {
		p.log.Error("time-series write failed",
			"user_id", obs.UserID, "date", obs.Date, "error", err)
		return nil, &DependencyError{Stage: StageTimeSeriesWrite, Err: err}
	}

	return res, nil
}

// checkThreshold looks up the user's threshold and publishes an alert when
// usage strictly exceeds it. Every failure path here is non-fatal.
func (p *Pipeline) checkThreshold(ctx context.Context, obs domain.Observation, res *Result) {
	ctx, span := p.tracer.Start(ctx, "pipeline.checkThreshold")
	defer span.End()

	threshold, err := p.records.GetThreshold(ctx, obs.UserID)
	if err != nil {
		p.log.Warn("threshold lookup failed, continuing without alert",
			"user_id", obs.UserID, "error", err)
		return
	}
	if threshold == nil {
		return
	}
	res.Threshold = threshold
	if obs.Usage <= *threshold {
		return
	}
	res.ThresholdExceeded = true

	ev := domain.NewAlertEvent(obs, *threshold)
	if err := p.alerts.PublishAlert(ctx, ev); err != nil {
		p.log.Error("alert publish failed, continuing",
			"user_id", obs.UserID, "date", obs.Date, "error", err)
	}
}

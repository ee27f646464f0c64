package batch

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mccollumn/home-energy-monitoring/internal/energy/domain"
	"github.com/mccollumn/home-energy-monitoring/internal/energy/service"
)

// Ingestor is the usage ingestion pipeline as needed by the driver.
type Ingestor interface {
	Ingest(ctx context.Context, obs domain.Observation) (*service.Result, error)
}

// BlobFetcher fetches an uploaded object's full content.
type BlobFetcher interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
}

// Driver runs one CSV batch: fetch, parse, derive the owner, and ingest each
// row sequentially. One row's pipeline run completes before the next starts.
type Driver struct {
	blobs    BlobFetcher
	pipeline Ingestor
	log      *slog.Logger
}

// NewDriver returns a batch driver over the given blob store and pipeline.
func NewDriver(blobs BlobFetcher, pipeline Ingestor, logger *slog.Logger) *Driver {
	return &Driver{blobs: blobs, pipeline: pipeline, log: logger}
}

// ProcessObject processes one uploaded CSV object and returns the number of
// rows successfully ingested.
//
// A fetch failure aborts the batch with a StageBlobFetch dependency error.
// Rows that fail parsing or input validation are skipped and not counted;
// they never fail the batch. A fatal pipeline failure on any row (durable or
// time-series write) aborts the batch.
func (d *Driver) ProcessObject(ctx context.Context, bucket, key string) (int, error) {
	runID := uuid.NewString()
	log := d.log.With("run_id", runID, "bucket", bucket, "key", key)

	content, err := d.blobs.Get(ctx, bucket, key)
	if err != nil {
		log.Error("object fetch failed", "error", err)
		return 0, &service.DependencyError{Stage: service.StageBlobFetch, Err: err}
	}

	rows, skipped := ParseCSV(string(content))
	for _, s := range skipped {
		log.Warn("skipping row", "line", s.Line, "reason", s.Reason)
	}

	userID := DeriveUserID(objectName(key))
	log.Info("processing batch", "user_id", userID, "rows", len(rows), "skipped", len(skipped))

	processed := 0
	for _, row := range rows {
		obs, ok := d.toObservation(log, userID, row)
		if !ok {
			continue
		}
		if _, err := d.pipeline.Ingest(ctx, obs); err != nil {
			var depErr *service.DependencyError
			if errors.As(err, &depErr) {
				log.Error("batch aborted by store failure", "line", row.Line, "stage", string(depErr.Stage), "error", err)
				return processed, err
			}
			// Validation failures skip the row, everything else aborts.
			if isValidationErr(err) {
				log.Warn("skipping row", "line", row.Line, "reason", err.Error())
				continue
			}
			log.Error("batch aborted", "line", row.Line, "error", err)
			return processed, err
		}
		processed++
	}

	log.Info("batch complete", "processed", processed)
	return processed, nil
}

// toObservation converts a parsed row, reporting false for rows whose
// numeric or timestamp fields do not parse.
func (d *Driver) toObservation(log *slog.Logger, userID string, row Row) (domain.Observation, bool) {
	usage, err := strconv.ParseFloat(row.Usage, 64)
	if err != nil {
		log.Warn("skipping row", "line", row.Line, "reason", "usage is not a number")
		return domain.Observation{}, false
	}
	obs := domain.Observation{
		UserID: userID,
		Date:   row.Date,
		Usage:  usage,
	}
	if row.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339, row.Timestamp)
		if err != nil {
			log.Warn("skipping row", "line", row.Line, "reason", "timestamp is not RFC3339")
			return domain.Observation{}, false
		}
		obs.Timestamp = ts
	}
	return obs, true
}

func isValidationErr(err error) bool {
	return errors.Is(err, domain.ErrMissingUserID) ||
		errors.Is(err, domain.ErrMissingFields) ||
		errors.Is(err, domain.ErrInvalidDate) ||
		errors.Is(err, domain.ErrInvalidUsage)
}

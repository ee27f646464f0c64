package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/mccollumn/home-energy-monitoring/internal/energy/service"
	"github.com/mccollumn/home-energy-monitoring/internal/httpapi"
)

// Handler is the Lambda entrypoint for the storage-event trigger. The event
// carries one record per uploaded object; in practice each invocation
// carries exactly one.
type Handler struct {
	driver *Driver
	log    *slog.Logger
}

// NewHandler returns the batch Lambda handler.
func NewHandler(driver *Driver, logger *slog.Logger) *Handler {
	return &Handler{driver: driver, log: logger}
}

// Handle processes the first record of the S3 event and reports an
// HTTP-shaped result. Fetch failures and processing failures map to
// distinct 500 bodies so the failure stage is visible to operators.
func (h *Handler) Handle(ctx context.Context, event events.S3Event) (events.APIGatewayProxyResponse, error) {
	if len(event.Records) == 0 {
		return events.APIGatewayProxyResponse{}, fmt.Errorf("event contains no records")
	}
	record := event.Records[0]
	bucket := record.S3.Bucket.Name
	// S3 event notifications URL-encode the object key; the decoded field is
	// preferred when present.
	key := record.S3.Object.URLDecodedKey
	if key == "" {
		key = record.S3.Object.Key
	}

	h.log.Info("received storage event", "bucket", bucket, "key", key)

	n, err := h.driver.ProcessObject(ctx, bucket, key)
	if err != nil {
		var depErr *service.DependencyError
		if errors.As(err, &depErr) && depErr.Stage == service.StageBlobFetch {
			return httpapi.JSON(500, httpapi.JSONType(),
				httpapi.ErrorBody{Error: "Error retrieving file from S3"}), nil
		}
		return httpapi.JSON(500, httpapi.JSONType(),
			httpapi.ErrorBody{Error: "Error processing CSV data"}), nil
	}

	return httpapi.JSON(200, httpapi.JSONType(), httpapi.MessageBody{
		Message: fmt.Sprintf("Successfully processed %d items from %s", n, key),
	}), nil
}

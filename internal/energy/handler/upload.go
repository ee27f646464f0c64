package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/mccollumn/home-energy-monitoring/internal/httpapi"
	"github.com/mccollumn/home-energy-monitoring/internal/identity/claims"
)

// BlobWriter writes whole objects to the upload bucket.
type BlobWriter interface {
	Put(ctx context.Context, bucket, key string, body []byte, contentType string) error
}

// UploadHandler copies a file from a caller-supplied pre-signed URL into the
// CSV upload bucket, naming it so the batch trigger can derive the owner.
type UploadHandler struct {
	blobs  BlobWriter
	bucket string
	client *http.Client
	log    *slog.Logger
	now    func() time.Time
}

// NewUploadHandler returns the upload passthrough Lambda handler. client may
// be nil, in which case http.DefaultClient is used.
func NewUploadHandler(blobs BlobWriter, bucket string, client *http.Client, logger *slog.Logger) *UploadHandler {
	if client == nil {
		client = http.DefaultClient
	}
	return &UploadHandler{
		blobs:  blobs,
		bucket: bucket,
		client: client,
		log:    logger,
		now:    time.Now,
	}
}

type uploadRequest struct {
	PresignedURL string `json:"presignedUrl"`
}

type uploadResponse struct {
	Message  string `json:"message"`
	FileName string `json:"fileName"`
}

// Handle fetches the pre-signed URL's content and writes it to the upload
// bucket as `<userId>-usage-<millis>.csv`. The user id comes from the
// authorizer claims, falling back to the test user.
func (h *UploadHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if req.HTTPMethod != http.MethodPost {
		return events.APIGatewayProxyResponse{},
			fmt.Errorf("energy upload only accepts POST method, you tried: %s method", req.HTTPMethod)
	}

	var body uploadRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return httpapi.JSON(400, httpapi.JSONType(),
			httpapi.ErrorBody{Error: "Invalid request body"}), nil
	}
	if body.PresignedURL == "" {
		return httpapi.JSON(400, httpapi.JSONType(),
			httpapi.ErrorBody{Error: "Missing presignedUrl in request body"}), nil
	}

	content, contentType, err := h.fetch(ctx, body.PresignedURL)
	if err != nil {
		h.log.Error("pre-signed URL fetch failed", "error", err)
		return httpapi.JSON(500, httpapi.JSONType(), httpapi.ErrorBody{Error: err.Error()}), nil
	}

	userID := claims.SubjectOr(req, claims.FallbackUserID)
	fileName := fmt.Sprintf("%s-usage-%d.csv", userID, h.now().UnixMilli())

	if err := h.blobs.Put(ctx, h.bucket, fileName, content, contentType); err != nil {
		h.log.Error("upload bucket write failed", "bucket", h.bucket, "key", fileName, "error", err)
		return httpapi.JSON(500, httpapi.JSONType(), httpapi.ErrorBody{Error: err.Error()}), nil
	}

	h.log.Info("file copied to upload bucket", "bucket", h.bucket, "key", fileName, "bytes", len(content))
	return httpapi.JSON(200, httpapi.JSONType(), uploadResponse{
		Message:  "File successfully copied to CSVUploadBucket",
		FileName: fileName,
	}), nil
}

// fetch downloads the URL's content and reports the response content type,
// empty when the server sent none.
func (h *UploadHandler) fetch(ctx context.Context, url string) ([]byte, string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build fetch request: %w", err)
	}
	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, "", fmt.Errorf("fetch file from pre-signed URL: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("failed to fetch file from pre-signed URL: %s", resp.Status)
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read fetched file: %w", err)
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/csv"
	}
	return content, contentType, nil
}

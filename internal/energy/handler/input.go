// Package handler exposes the energy HTTP operations as API Gateway Lambda
// handlers: single-record input, usage history, and the CSV upload
// passthrough.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/mccollumn/home-energy-monitoring/internal/energy/domain"
	"github.com/mccollumn/home-energy-monitoring/internal/energy/service"
	"github.com/mccollumn/home-energy-monitoring/internal/httpapi"
	"github.com/mccollumn/home-energy-monitoring/internal/identity/claims"
)

// Ingestor is the usage ingestion pipeline as needed by the input handler.
type Ingestor interface {
	Ingest(ctx context.Context, obs domain.Observation) (*service.Result, error)
}

// InputHandler accepts one usage observation per request and runs it through
// the ingestion pipeline.
type InputHandler struct {
	pipeline Ingestor
	log      *slog.Logger
}

// NewInputHandler returns the energy input Lambda handler.
func NewInputHandler(pipeline Ingestor, logger *slog.Logger) *InputHandler {
	return &InputHandler{pipeline: pipeline, log: logger}
}

type inputRequest struct {
	UserID    string          `json:"userId"`
	Date      string          `json:"date"`
	Usage     *httpapi.Number `json:"usage"`
	Timestamp string          `json:"timestamp"`
}

type inputResponse struct {
	ID                string   `json:"id"`
	Date              string   `json:"date"`
	Usage             float64  `json:"usage"`
	Timestamp         string   `json:"timestamp"`
	Message           string   `json:"message"`
	Threshold         *float64 `json:"threshold"`
	ThresholdExceeded bool     `json:"thresholdExceeded"`
}

// Handle validates the request, resolves the caller's user id, and ingests
// the observation. The user id comes from the authorizer claims when present,
// then from the body; a request with neither is rejected before any store
// call.
func (h *InputHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if req.HTTPMethod != http.MethodPost {
		return events.APIGatewayProxyResponse{},
			fmt.Errorf("energy input only accepts POST method, you tried: %s method", req.HTTPMethod)
	}

	var body inputRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return httpapi.JSON(400, httpapi.PostCORS(),
			httpapi.ErrorBody{Error: "Invalid request body"}), nil
	}
	if body.Date == "" || body.Usage == nil {
		return httpapi.JSON(400, httpapi.PostCORS(),
			httpapi.ErrorBody{Error: "Missing required parameters"}), nil
	}

	userID, ok := claims.Subject(req)
	if !ok {
		userID = body.UserID
	}
	if userID == "" {
		return httpapi.JSON(401, httpapi.PostCORS(),
			httpapi.ErrorBody{Error: "Not authenticated"}), nil
	}

	obs := domain.Observation{
		UserID: userID,
		Date:   body.Date,
		Usage:  body.Usage.Float64(),
	}
	if body.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339, body.Timestamp)
		if err != nil {
			return httpapi.JSON(400, httpapi.PostCORS(),
				httpapi.ErrorBody{Error: "Invalid timestamp format. Use RFC 3339"}), nil
		}
		obs.Timestamp = ts
	}

	res, err := h.pipeline.Ingest(ctx, obs)
	if err != nil {
		return h.errorResponse(req.Path, err), nil
	}

	ts := body.Timestamp
	if ts == "" {
		ts = res.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z")
	}
	resp := httpapi.JSON(200, httpapi.PostCORS(), inputResponse{
		ID:                userID,
		Date:              obs.Date,
		Usage:             obs.Usage,
		Timestamp:         ts,
		Message:           "Energy data saved successfully",
		Threshold:         res.Threshold,
		ThresholdExceeded: res.ThresholdExceeded,
	})
	h.log.Info("energy data saved", "path", req.Path, "user_id", userID, "date", obs.Date)
	return resp, nil
}

func (h *InputHandler) errorResponse(path string, err error) events.APIGatewayProxyResponse {
	switch {
	case errors.Is(err, domain.ErrInvalidDate):
		return httpapi.JSON(400, httpapi.PostCORS(),
			httpapi.ErrorBody{Error: "Invalid date format. Use YYYY-MM-DD"})
	case errors.Is(err, domain.ErrMissingUserID),
		errors.Is(err, domain.ErrMissingFields),
		errors.Is(err, domain.ErrInvalidUsage):
		return httpapi.JSON(400, httpapi.PostCORS(),
			httpapi.ErrorBody{Error: "Missing required parameters"})
	}
	var depErr *service.DependencyError
	if errors.As(err, &depErr) {
		h.log.Error("energy data save failed", "path", path, "stage", string(depErr.Stage), "error", err)
		return httpapi.JSON(500, httpapi.PostCORS(),
			httpapi.ErrorBody{Error: "Error saving energy data"})
	}
	h.log.Error("energy input failed", "path", path, "error", err)
	return httpapi.JSON(500, httpapi.PostCORS(), httpapi.ErrorBody{Error: err.Error()})
}

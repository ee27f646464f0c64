// Package handler exposes the alert-threshold update as an API Gateway
// Lambda handler.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/mccollumn/home-energy-monitoring/internal/httpapi"
	"github.com/mccollumn/home-energy-monitoring/internal/identity/claims"
)

// ThresholdStore is the record store as needed by the update handler.
type ThresholdStore interface {
	// UpdateThreshold sets the user's threshold and returns the stored value.
	UpdateThreshold(ctx context.Context, userID string, threshold float64) (*float64, error)
}

// UpdateHandler sets the caller's usage alert threshold.
type UpdateHandler struct {
	store ThresholdStore
	log   *slog.Logger
}

// NewUpdateHandler returns the threshold update Lambda handler.
func NewUpdateHandler(store ThresholdStore, logger *slog.Logger) *UpdateHandler {
	return &UpdateHandler{store: store, log: logger}
}

type updateRequest struct {
	Threshold *httpapi.Number `json:"threshold"`
}

type updateResponse struct {
	Message           string              `json:"message"`
	UpdatedAttributes map[string]*float64 `json:"updatedAttributes"`
}

type updateError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Handle requires an authenticated caller; there is no fallback user for
// threshold writes. The threshold accepts a JSON number or numeric string.
func (h *UpdateHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if req.HTTPMethod != http.MethodPost {
		return events.APIGatewayProxyResponse{},
			fmt.Errorf("threshold update only accepts POST method, you tried: %s method", req.HTTPMethod)
	}

	userID, ok := claims.Subject(req)
	if !ok {
		return httpapi.JSON(401, httpapi.PostCORS(),
			httpapi.MessageBody{Message: "Not authenticated"}), nil
	}

	var body updateRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return httpapi.JSON(400, httpapi.PostCORS(),
			httpapi.MessageBody{Message: "Invalid request body"}), nil
	}
	if body.Threshold == nil {
		return httpapi.JSON(400, httpapi.PostCORS(),
			httpapi.MessageBody{Message: "Missing threshold value in request body"}), nil
	}

	updated, err := h.store.UpdateThreshold(ctx, userID, body.Threshold.Float64())
	if err != nil {
		h.log.Error("threshold update failed", "user_id", userID, "error", err)
		return httpapi.JSON(500, httpapi.PostCORS(), updateError{
			Message: "Error updating threshold",
			Error:   err.Error(),
		}), nil
	}

	h.log.Info("threshold updated", "user_id", userID, "threshold", body.Threshold.Float64())
	return httpapi.JSON(200, httpapi.PostCORS(), updateResponse{
		Message:           "Threshold updated successfully",
		UpdatedAttributes: map[string]*float64{"threshold": updated},
	}), nil
}

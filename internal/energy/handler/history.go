package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/mccollumn/home-energy-monitoring/internal/energy/domain"
	"github.com/mccollumn/home-energy-monitoring/internal/httpapi"
	"github.com/mccollumn/home-energy-monitoring/internal/identity/claims"
)

// HistoryStore is the record store as needed by the history handler.
type HistoryStore interface {
	QueryRange(ctx context.Context, userID, startDate, endDate string) ([]domain.UsageRecord, error)
}

// HistoryHandler serves a user's usage records for an inclusive date range.
type HistoryHandler struct {
	store HistoryStore
	log   *slog.Logger
}

// NewHistoryHandler returns the energy history Lambda handler.
func NewHistoryHandler(store HistoryStore, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{store: store, log: logger}
}

// Handle reads startDate and endDate from the query string and returns the
// matching records as a bare JSON array. Requests without an identity claim
// fall back to the test user rather than failing.
func (h *HistoryHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if req.HTTPMethod != http.MethodGet {
		return events.APIGatewayProxyResponse{},
			fmt.Errorf("energy history only accepts GET method, you tried: %s method", req.HTTPMethod)
	}

	userID := claims.SubjectOr(req, claims.FallbackUserID)

	startDate := req.QueryStringParameters["startDate"]
	endDate := req.QueryStringParameters["endDate"]
	if startDate == "" || endDate == "" {
		return httpapi.JSON(400, httpapi.GetCORS(), httpapi.MessageBody{
			Message: "Missing required query parameters: startDate and endDate are required",
		}), nil
	}
	if !validDate(startDate) || !validDate(endDate) {
		return httpapi.JSON(400, httpapi.GetCORS(), httpapi.MessageBody{
			Message: "Invalid date format. Required format is YYYY-MM-DD",
		}), nil
	}

	records, err := h.store.QueryRange(ctx, userID, startDate, endDate)
	if err != nil {
		h.log.Error("history query failed",
			"user_id", userID, "start_date", startDate, "end_date", endDate, "error", err)
		return httpapi.JSON(500, httpapi.GetCORS(), historyError{
			Message: "Error retrieving energy history data",
			Error:   err.Error(),
		}), nil
	}

	h.log.Info("history query served", "user_id", userID, "records", len(records))
	return httpapi.JSON(200, httpapi.GetCORS(), records), nil
}

type historyError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func validDate(s string) bool {
	_, err := time.Parse(domain.DateFormat, s)
	return err == nil
}

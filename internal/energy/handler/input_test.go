package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"github.com/mccollumn/home-energy-monitoring/internal/energy/domain"
	"github.com/mccollumn/home-energy-monitoring/internal/energy/service"
)

type memRecordStore struct {
	observations []domain.Observation
	thresholds   map[string]float64
	putErr       error
}

func (m *memRecordStore) PutObservation(ctx context.Context, o domain.Observation) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.observations = append(m.observations, o)
	return nil
}

func (m *memRecordStore) GetThreshold(ctx context.Context, userID string) (*float64, error) {
	v, ok := m.thresholds[userID]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

type memTimeSeries struct {
	writes int
	err    error
}

func (m *memTimeSeries) WriteUsage(ctx context.Context, userID, date string, usage float64, at time.Time) error {
	if m.err != nil {
		return m.err
	}
	m.writes++
	return nil
}

type memPublisher struct {
	published []domain.AlertEvent
	err       error
}

func (m *memPublisher) PublishAlert(ctx context.Context, ev domain.AlertEvent) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, ev)
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type inputFixture struct {
	records *memRecordStore
	points  *memTimeSeries
	alerts  *memPublisher
	handler *InputHandler
}

func newInputFixture() *inputFixture {
	f := &inputFixture{
		records: &memRecordStore{thresholds: map[string]float64{}},
		points:  &memTimeSeries{},
		alerts:  &memPublisher{},
	}
	pipe := service.NewPipeline(f.records, f.points, f.alerts, discard())
	f.handler = NewInputHandler(pipe, discard())
	return f
}

func postRequest(body, sub string) events.APIGatewayProxyRequest {
	req := events.APIGatewayProxyRequest{
		HTTPMethod: "POST",
		Path:       "/energy",
		Body:       body,
	}
	if sub != "" {
		req.RequestContext.Authorizer = map[string]any{
			"claims": map[string]any{"sub": sub},
		}
	}
	return req
}

func decodeInput(t *testing.T, resp events.APIGatewayProxyResponse) inputResponse {
	t.Helper()
	var out inputResponse
	if err := json.Unmarshal([]byte(resp.Body), &out); err != nil {
		t.Fatalf("unmarshal response %q: %v", resp.Body, err)
	}
	return out
}

func errorOf(t *testing.T, resp events.APIGatewayProxyResponse) string {
	t.Helper()
	var out struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(resp.Body), &out); err != nil {
		t.Fatalf("unmarshal response %q: %v", resp.Body, err)
	}
	return out.Error
}

func TestInput_NoThresholdSet(t *testing.T) {
	f := newInputFixture()

	resp, err := f.handler.Handle(context.Background(), postRequest(`{"date":"2023-01-01","usage":100}`, "user123"))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, resp.Body)
	}
	out := decodeInput(t, resp)
	if out.ThresholdExceeded {
		t.Error("ThresholdExceeded = true, want false with no threshold set")
	}
	if out.Threshold != nil {
		t.Errorf("Threshold = %v, want null", *out.Threshold)
	}
	if out.Message != "Energy data saved successfully" {
		t.Errorf("message = %q", out.Message)
	}
	if out.ID != "user123" || out.Date != "2023-01-01" || out.Usage != 100 {
		t.Errorf("echoed fields = %+v", out)
	}
	if out.Timestamp == "" {
		t.Error("Timestamp is empty, want defaulted processing instant")
	}
	if len(f.records.observations) != 1 || f.points.writes != 1 {
		t.Errorf("records = %d, points = %d, want 1 each", len(f.records.observations), f.points.writes)
	}
}

func TestInput_ThresholdExceeded(t *testing.T) {
	f := newInputFixture()
	f.records.thresholds["user123"] = 50

	resp, err := f.handler.Handle(context.Background(), postRequest(`{"date":"2023-01-01","usage":100}`, "user123"))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, resp.Body)
	}
	out := decodeInput(t, resp)
	if !out.ThresholdExceeded {
		t.Error("ThresholdExceeded = false, want true")
	}
	if out.Threshold == nil || *out.Threshold != 50 {
		t.Errorf("Threshold = %v, want 50", out.Threshold)
	}
	if len(f.alerts.published) != 1 {
		t.Fatalf("published = %d, want exactly 1", len(f.alerts.published))
	}
}

func TestInput_InvalidDateNoSideEffects(t *testing.T) {
	f := newInputFixture()

	resp, err := f.handler.Handle(context.Background(), postRequest(`{"date":"2023-13-01","usage":100}`, "user123"))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if got := errorOf(t, resp); got != "Invalid date format. Use YYYY-MM-DD" {
		t.Errorf("error = %q", got)
	}
	if len(f.records.observations) != 0 || f.points.writes != 0 || len(f.alerts.published) != 0 {
		t.Error("store calls observed for an invalid date")
	}
}

func TestInput_NonPOSTRejected(t *testing.T) {
	f := newInputFixture()
	req := postRequest(`{}`, "user123")
	req.HTTPMethod = "GET"

	_, err := f.handler.Handle(context.Background(), req)
	if err == nil || !strings.Contains(err.Error(), "GET") {
		t.Fatalf("err = %v, want error naming the GET method", err)
	}
}

func TestInput_BadJSON(t *testing.T) {
	f := newInputFixture()
	resp, _ := f.handler.Handle(context.Background(), postRequest(`{not json`, "user123"))
	if resp.StatusCode != 400 || errorOf(t, resp) != "Invalid request body" {
		t.Errorf("status = %d, body = %s", resp.StatusCode, resp.Body)
	}
}

func TestInput_MissingParameters(t *testing.T) {
	f := newInputFixture()
	for _, body := range []string{`{"usage":100}`, `{"date":"2023-01-01"}`, `{}`} {
		resp, _ := f.handler.Handle(context.Background(), postRequest(body, "user123"))
		if resp.StatusCode != 400 || errorOf(t, resp) != "Missing required parameters" {
			t.Errorf("body %s: status = %d, resp = %s", body, resp.StatusCode, resp.Body)
		}
	}
}

func TestInput_UsageAsString(t *testing.T) {
	f := newInputFixture()
	resp, _ := f.handler.Handle(context.Background(), postRequest(`{"date":"2023-01-01","usage":"42.5"}`, "user123"))
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, resp.Body)
	}
	if out := decodeInput(t, resp); out.Usage != 42.5 {
		t.Errorf("Usage = %v, want 42.5", out.Usage)
	}
}

func TestInput_UserIDFromBodyFallback(t *testing.T) {
	f := newInputFixture()
	resp, _ := f.handler.Handle(context.Background(), postRequest(`{"userId":"bodyuser","date":"2023-01-01","usage":1}`, ""))
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, resp.Body)
	}
	if f.records.observations[0].UserID != "bodyuser" {
		t.Errorf("UserID = %q, want bodyuser", f.records.observations[0].UserID)
	}
}

func TestInput_NoIdentity(t *testing.T) {
	f := newInputFixture()
	resp, _ := f.handler.Handle(context.Background(), postRequest(`{"date":"2023-01-01","usage":1}`, ""))
	if resp.StatusCode != 401 {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if len(f.records.observations) != 0 {
		t.Error("store call observed for an unauthenticated request")
	}
}

func TestInput_SuppliedTimestampEchoed(t *testing.T) {
	f := newInputFixture()
	resp, _ := f.handler.Handle(context.Background(),
		postRequest(`{"date":"2023-01-01","usage":1,"timestamp":"2023-01-01T08:30:00Z"}`, "user123"))
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, resp.Body)
	}
	if out := decodeInput(t, resp); out.Timestamp != "2023-01-01T08:30:00Z" {
		t.Errorf("Timestamp = %q, want the supplied value", out.Timestamp)
	}
	if !f.records.observations[0].Timestamp.Equal(time.Date(2023, 1, 1, 8, 30, 0, 0, time.UTC)) {
		t.Errorf("stored Timestamp = %v", f.records.observations[0].Timestamp)
	}
}

func TestInput_BadTimestamp(t *testing.T) {
	f := newInputFixture()
	resp, _ := f.handler.Handle(context.Background(),
		postRequest(`{"date":"2023-01-01","usage":1,"timestamp":"yesterday"}`, "user123"))
	if resp.StatusCode != 400 {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if len(f.records.observations) != 0 {
		t.Error("store call observed for a bad timestamp")
	}
}

func TestInput_RecordWriteFailure(t *testing.T) {
	f := newInputFixture()
	f.records.putErr = errors.New("dynamo down")

	resp, _ := f.handler.Handle(context.Background(), postRequest(`{"date":"2023-01-01","usage":1}`, "user123"))
	if resp.StatusCode != 500 || errorOf(t, resp) != "Error saving energy data" {
		t.Errorf("status = %d, body = %s", resp.StatusCode, resp.Body)
	}
}

func TestInput_TimeSeriesFailure(t *testing.T) {
	f := newInputFixture()
	f.points.err = errors.New("timestream down")

	resp, _ := f.handler.Handle(context.Background(), postRequest(`{"date":"2023-01-01","usage":1}`, "user123"))
	if resp.StatusCode != 500 || errorOf(t, resp) != "Error saving energy data" {
		t.Errorf("status = %d, body = %s", resp.StatusCode, resp.Body)
	}
	// The durable write happened before the failure.
	if len(f.records.observations) != 1 {
		t.Errorf("records = %d, want 1", len(f.records.observations))
	}
}

func TestInput_PublishFailureStillSucceeds(t *testing.T) {
	f := newInputFixture()
	f.records.thresholds["user123"] = 50
	f.alerts.err = errors.New("sns down")

	resp, _ := f.handler.Handle(context.Background(), postRequest(`{"date":"2023-01-01","usage":100}`, "user123"))
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200 despite publish failure", resp.StatusCode)
	}
	if out := decodeInput(t, resp); !out.ThresholdExceeded {
		t.Error("ThresholdExceeded = false, want true")
	}
}

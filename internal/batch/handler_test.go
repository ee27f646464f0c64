package batch

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
)

func s3Event(bucket, key string) events.S3Event {
	return events.S3Event{Records: []events.S3EventRecord{{
		S3: events.S3Entity{
			Bucket: events.S3Bucket{Name: bucket},
			Object: events.S3Object{Key: key},
		},
	}}}
}

func TestHandle_Success(t *testing.T) {
	blobs := &fakeBlobs{content: map[string]string{
		"user123_data.csv": "date,usage\n2023-01-01,100\n2023-01-02,200\n",
	}}
	h := NewHandler(NewDriver(blobs, &fakeIngestor{}, discard()), discard())

	resp, err := h.Handle(context.Background(), s3Event("uploads", "user123_data.csv"))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	want := "Successfully processed 2 items from user123_data.csv"
	if body.Message != want {
		t.Errorf("message = %q, want %q", body.Message, want)
	}
}

func TestHandle_HeaderOnlySucceeds(t *testing.T) {
	blobs := &fakeBlobs{content: map[string]string{"user123_data.csv": "date,usage\n"}}
	h := NewHandler(NewDriver(blobs, &fakeIngestor{}, discard()), discard())

	resp, err := h.Handle(context.Background(), s3Event("uploads", "user123_data.csv"))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal([]byte(resp.Body), &body)
	want := "Successfully processed 0 items from user123_data.csv"
	if body.Message != want {
		t.Errorf("message = %q, want %q", body.Message, want)
	}
}

func TestHandle_URLEncodedKey(t *testing.T) {
	blobs := &fakeBlobs{content: map[string]string{
		"user123_data file.csv": "date,usage\n2023-01-01,100\n",
	}}
	h := NewHandler(NewDriver(blobs, &fakeIngestor{}, discard()), discard())

	event := s3Event("uploads", "user123_data+file.csv")
	event.Records[0].S3.Object.URLDecodedKey = "user123_data file.csv"

	resp, err := h.Handle(context.Background(), event)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal([]byte(resp.Body), &body)
	want := "Successfully processed 1 items from user123_data file.csv"
	if body.Message != want {
		t.Errorf("message = %q, want %q", body.Message, want)
	}
}

func TestHandle_FetchFailure(t *testing.T) {
	blobs := &fakeBlobs{err: errors.New("access denied")}
	h := NewHandler(NewDriver(blobs, &fakeIngestor{}, discard()), discard())

	resp, err := h.Handle(context.Background(), s3Event("uploads", "user123_data.csv"))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.StatusCode != 500 {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	var body struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal([]byte(resp.Body), &body)
	if body.Error != "Error retrieving file from S3" {
		t.Errorf("error = %q", body.Error)
	}
}

func TestHandle_StoreFailure(t *testing.T) {
	blobs := &fakeBlobs{content: map[string]string{
		"user123_data.csv": "date,usage\n2023-01-01,100\n",
	}}
	pipe := &fakeIngestor{failOn: 1, failWith: errors.New("timestream down")}
	h := NewHandler(NewDriver(blobs, pipe, discard()), discard())

	resp, err := h.Handle(context.Background(), s3Event("uploads", "user123_data.csv"))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if resp.StatusCode != 500 {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	var body struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal([]byte(resp.Body), &body)
	if body.Error != "Error processing CSV data" {
		t.Errorf("error = %q", body.Error)
	}
}

func TestHandle_NoRecords(t *testing.T) {
	h := NewHandler(NewDriver(&fakeBlobs{}, &fakeIngestor{}, discard()), discard())
	if _, err := h.Handle(context.Background(), events.S3Event{}); err == nil {
		t.Fatal("want error for an event with no records")
	}
}

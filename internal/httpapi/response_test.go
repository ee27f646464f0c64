package httpapi

import (
	"encoding/json"
	"testing"
)

func TestJSON(t *testing.T) {
	resp := JSON(200, PostCORS(), MessageBody{Message: "ok"})
	if resp.StatusCode != 200 {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if resp.Body != `{"message":"ok"}` {
		t.Errorf("Body = %q", resp.Body)
	}
	if resp.Headers["Access-Control-Allow-Origin"] != "*" {
		t.Error("CORS origin header missing")
	}
}

func TestNumberUnmarshal(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{`100`, 100, false},
		{`100.5`, 100.5, false},
		{`"100"`, 100, false},
		{`"100.5"`, 100.5, false},
		{`"abc"`, 0, true},
		{`true`, 0, true},
		{`{}`, 0, true},
	}
	for _, tt := range tests {
		var n Number
		err := json.Unmarshal([]byte(tt.in), &n)
		if (err != nil) != tt.wantErr {
			t.Errorf("Unmarshal(%s) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && n.Float64() != tt.want {
			t.Errorf("Unmarshal(%s) = %v, want %v", tt.in, n.Float64(), tt.want)
		}
	}
}

func TestNumberAbsentVsZero(t *testing.T) {
	var body struct {
		Usage *Number `json:"usage"`
	}
	if err := json.Unmarshal([]byte(`{}`), &body); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if body.Usage != nil {
		t.Error("absent usage should leave pointer nil")
	}
	if err := json.Unmarshal([]byte(`{"usage":0}`), &body); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if body.Usage == nil || body.Usage.Float64() != 0 {
		t.Error("usage 0 should yield a non-nil pointer to 0")
	}
}

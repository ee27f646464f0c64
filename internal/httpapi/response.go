// Package httpapi builds API-Gateway-shaped responses shared by the HTTP
// handlers: JSON envelopes, the CORS header sets, and a tolerant numeric
// body field.
package httpapi

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// PostCORS is the header set for POST endpoints.
func PostCORS() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Methods": "OPTIONS, POST",
		"Access-Control-Allow-Headers": "Content-Type",
	}
}

// GetCORS is the header set for GET endpoints.
func GetCORS() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":      "*",
		"Access-Control-Allow-Credentials": "true",
	}
}

// JSONType is the minimal header set for endpoints that skip CORS.
func JSONType() map[string]string {
	return map[string]string{"Content-Type": "application/json"}
}

// JSON marshals v and wraps it in an API Gateway response. Marshal failures
// cannot happen for the fixed response shapes used here; if one does, the
// body is an error envelope so the caller still gets valid JSON.
func JSON(status int, headers map[string]string, v any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		status = 500
		body = []byte(`{"error":"internal serialization error"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    headers,
		Body:       string(body),
	}
}

// ErrorBody is the {"error": ...} envelope.
type ErrorBody struct {
	Error string `json:"error"`
}

// MessageBody is the {"message": ...} envelope.
type MessageBody struct {
	Message string `json:"message"`
}

// Number is a float64 that unmarshals from either a JSON number or a numeric
// string, matching the loosely typed request bodies the API has always
// accepted. A nil *Number distinguishes "absent" from zero.
type Number float64

// UnmarshalJSON accepts 100, 100.5, "100", and "100.5".
func (n *Number) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*n = Number(v)
	return nil
}

// Float64 returns the underlying value.
func (n Number) Float64() float64 { return float64(n) }

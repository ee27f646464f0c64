// Package provider wraps the managed identity provider (Cognito) behind a
// small interface so handlers can be tested against fakes.
package provider

import (
	"context"
	"errors"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/smithy-go"
)

// Tokens is a successful login result.
type Tokens struct {
	IDToken      string
	AccessToken  string
	RefreshToken string
	ExpiresIn    int32
}

// SignupResult is a successful registration result.
type SignupResult struct {
	UserConfirmed bool
	UserSub       string
}

// Provider authenticates and registers users against the identity provider.
type Provider interface {
	Login(ctx context.Context, username, password string) (*Tokens, error)
	SignUp(ctx context.Context, username, password, email string) (*SignupResult, error)
}

// StatusOf returns the HTTP status carried by a provider error, or 500 when
// the error has none. Provider-supplied statuses are passed through to the
// caller per the API contract.
func StatusOf(err error) int {
	var re *awshttp.ResponseError
	if errors.As(err, &re) && re.HTTPStatusCode() > 0 {
		return re.HTTPStatusCode()
	}
	return 500
}

// MessageOf returns the provider's error message when the error is an API
// error, or fallback otherwise.
func MessageOf(err error, fallback string) string {
	var ae smithy.APIError
	if errors.As(err, &ae) && ae.ErrorMessage() != "" {
		return ae.ErrorMessage()
	}
	return fallback
}

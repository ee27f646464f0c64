package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/mccollumn/home-energy-monitoring/internal/httpapi"
	"github.com/mccollumn/home-energy-monitoring/internal/identity/provider"
)

// SignupHandler handles POST /auth/signup.
type SignupHandler struct {
	idp provider.Provider
	log *slog.Logger
}

// NewSignupHandler returns a signup handler over the given provider.
func NewSignupHandler(idp provider.Provider, logger *slog.Logger) *SignupHandler {
	return &SignupHandler{idp: idp, log: logger}
}

type signupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type signupResponse struct {
	Message       string `json:"message"`
	Username      string `json:"username"`
	UserConfirmed bool   `json:"userConfirmed"`
	UserSub       string `json:"userSub"`
}

// Handle registers the user with the identity provider.
func (h *SignupHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if req.HTTPMethod != "POST" {
		return events.APIGatewayProxyResponse{}, fmt.Errorf("signup only accepts POST method, you tried: %s", req.HTTPMethod)
	}

	var body signupRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return httpapi.JSON(400, httpapi.PostCORS(), httpapi.ErrorBody{Error: "Invalid request body"}), nil
	}
	if body.Username == "" || body.Password == "" || body.Email == "" {
		return httpapi.JSON(400, httpapi.PostCORS(), httpapi.ErrorBody{Error: "Username, password, and email are required"}), nil
	}

	res, err := h.idp.SignUp(ctx, body.Username, body.Password, body.Email)
	if err != nil {
		h.log.Error("signup failed", "username", body.Username, "error", err)
		return httpapi.JSON(provider.StatusOf(err), httpapi.PostCORS(),
			httpapi.ErrorBody{Error: provider.MessageOf(err, "An error occurred during user registration")}), nil
	}

	h.log.Info("signup succeeded", "username", body.Username, "user_sub", res.UserSub)
	return httpapi.JSON(200, httpapi.PostCORS(), signupResponse{
		Message:       "User registration successful",
		Username:      body.Username,
		UserConfirmed: res.UserConfirmed,
		UserSub:       res.UserSub,
	}), nil
}

// Package handler implements the auth HTTP handlers (login, signup) over the
// managed identity provider.
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

// LoginHandler handles POST /auth/login.
type LoginHandler struct {
	idp provider.Provider
	log *slog.Logger
}

// NewLoginHandler returns a login handler over the given provider.
func NewLoginHandler(idp provider.Provider, logger *slog.Logger) *LoginHandler {
	return &LoginHandler{idp: idp, log: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message      string `json:"message"`
	IDToken      string `json:"idToken"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int32  `json:"expiresIn"`
}

// Handle authenticates the user and returns the provider-issued tokens.
func (h *LoginHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if req.HTTPMethod != "POST" {
		return events.APIGatewayProxyResponse{}, fmt.Errorf("login only accepts POST method, you tried: %s", req.HTTPMethod)
	}

	var body loginRequest
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		return httpapi.JSON(400, httpapi.PostCORS(), httpapi.ErrorBody{Error: "Invalid request body"}), nil
	}
	if body.Username == "" || body.Password == "" {
		return httpapi.JSON(400, httpapi.PostCORS(), httpapi.ErrorBody{Error: "Username and password are required"}), nil
	}

	tokens, err := h.idp.Login(ctx, body.Username, body.Password)
	if err != nil {
		h.log.Error("login failed", "username", body.Username, "error", err)
		return httpapi.JSON(provider.StatusOf(err), httpapi.PostCORS(),
			httpapi.ErrorBody{Error: provider.MessageOf(err, "An error occurred during login")}), nil
	}

	h.log.Info("login succeeded", "username", body.Username)
	return httpapi.JSON(200, httpapi.PostCORS(), loginResponse{
		Message:      "Login successful",
		IDToken:      tokens.IDToken,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
	}), nil
}

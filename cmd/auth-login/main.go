package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/mccollumn/home-energy-monitoring/internal/awsconn"
	"github.com/mccollumn/home-energy-monitoring/internal/config"
	"github.com/mccollumn/home-energy-monitoring/internal/identity/handler"
	"github.com/mccollumn/home-energy-monitoring/internal/identity/provider"
	"github.com/mccollumn/home-energy-monitoring/internal/observability"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.RequireUserPoolClient(); err != nil {
		log.Fatalf("config: %v", err)
	}

	clients, err := awsconn.New(ctx, cfg.EndpointOverride)
	if err != nil {
		log.Fatalf("aws clients: %v", err)
	}

	tracing, err := observability.NewTracing(ctx, cfg.OTLPEndpoint, "auth-login")
	if err != nil {
		log.Fatalf("tracing: %v", err)
	}
	tracing.SetGlobal()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	idp := provider.NewCognito(clients.Cognito, cfg.UserPoolClientID)

	h := handler.NewLoginHandler(idp, logger)
	lambda.Start(h.Handle)
}

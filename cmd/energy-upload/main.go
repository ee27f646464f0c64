package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/mccollumn/home-energy-monitoring/internal/awsconn"
	"github.com/mccollumn/home-energy-monitoring/internal/config"
	"github.com/mccollumn/home-energy-monitoring/internal/energy/handler"
	"github.com/mccollumn/home-energy-monitoring/internal/observability"
	"github.com/mccollumn/home-energy-monitoring/internal/storage"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.RequireCSVBucket(); err != nil {
		log.Fatalf("config: %v", err)
	}

	clients, err := awsconn.New(ctx, cfg.EndpointOverride)
	if err != nil {
		log.Fatalf("aws clients: %v", err)
	}

	tracing, err := observability.NewTracing(ctx, cfg.OTLPEndpoint, "energy-upload")
	if err != nil {
		log.Fatalf("tracing: %v", err)
	}
	tracing.SetGlobal()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	blobs := storage.NewBlobStore(clients.S3)

	h := handler.NewUploadHandler(blobs, cfg.CSVBucket, nil, logger)
	lambda.Start(h.Handle)
}

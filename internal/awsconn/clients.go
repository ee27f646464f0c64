// Package awsconn constructs the shared AWS service clients from the default
// credential chain. Clients are built once in main and injected.
package awsconn

import (
	"context"
	"fmt"
	"log"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/timestreamwrite"
)

// Clients bundles the AWS service clients used across the Lambda binaries.
// Each binary uses the subset it needs; the rest stay nil-safe to construct.
type Clients struct {
	DynamoDB   *dynamodb.Client
	Timestream *timestreamwrite.Client
	SNS        *sns.Client
	S3         *s3.Client
	Cognito    *cognitoidentityprovider.Client
}

// New loads the default AWS configuration and constructs the clients.
// endpointOverride, when set, points the DynamoDB client at a local endpoint
// for development against DynamoDB Local.
func New(ctx context.Context, endpointOverride string) (*Clients, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var ddb *dynamodb.Client
	if endpointOverride != "" {
		ddb = dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
			o.BaseEndpoint = &endpointOverride
		})
	} else {
		log.Println("No value for ENDPOINT_OVERRIDE provided for DynamoDB, using default")
		ddb = dynamodb.NewFromConfig(cfg)
	}

	return &Clients{
		DynamoDB:   ddb,
		Timestream: timestreamwrite.NewFromConfig(cfg),
		SNS:        sns.NewFromConfig(cfg),
		S3:         s3.NewFromConfig(cfg),
		Cognito:    cognitoidentityprovider.NewFromConfig(cfg),
	}, nil
}

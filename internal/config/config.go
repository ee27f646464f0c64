// Package config loads app config from env and an optional .env file using Viper.
package config

import (
	"errors"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
// Each Lambda function reads only the fields it needs; the Require* helpers
// validate the subset a function depends on at startup.
type Config struct {
	// Table is the DynamoDB table holding usage records and per-user threshold settings.
	Table string `mapstructure:"TABLE"`
	// TimestreamDatabase is the Timestream database usage points are written to.
	TimestreamDatabase string `mapstructure:"TIMESTREAM_DATABASE_NAME"`
	// TimestreamTable is the Timestream table within TimestreamDatabase.
	TimestreamTable string `mapstructure:"TIMESTREAM_TABLE_NAME"`
	// SNSTopicARN is the topic alert notifications are published to.
	SNSTopicARN string `mapstructure:"SNS_TOPIC_ARN"`
	// CSVBucket is the S3 bucket CSV uploads land in (and the batch trigger reads from).
	CSVBucket string `mapstructure:"CSV_BUCKET"`
	// UserPoolClientID is the Cognito app client used for login and signup.
	UserPoolClientID string `mapstructure:"USER_POOL_CLIENT_ID"`
	// UserPoolID is the Cognito user pool; kept for parity with the deployment template.
	UserPoolID string `mapstructure:"USER_POOL_ID"`
	// EndpointOverride points the DynamoDB client at a local endpoint (e.g. dynamodb-local). Empty in deployed environments.
	EndpointOverride string `mapstructure:"ENDPOINT_OVERRIDE"`
	// OTLPEndpoint is the OTLP gRPC collector for traces. Tracing is disabled when empty.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load reads .env (if present), then builds Config from the environment via Viper.
// Missing .env is ignored. Env vars override .env. Per-function validation is
// done by the Require* helpers so each Lambda only demands what it uses.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	// Defaults register the keys with Viper so AutomaticEnv can fill them.
	v.SetDefault("TABLE", "")
	v.SetDefault("TIMESTREAM_DATABASE_NAME", "")
	v.SetDefault("TIMESTREAM_TABLE_NAME", "")
	v.SetDefault("SNS_TOPIC_ARN", "")
	v.SetDefault("CSV_BUCKET", "")
	v.SetDefault("USER_POOL_CLIENT_ID", "")
	v.SetDefault("USER_POOL_ID", "")
	v.SetDefault("ENDPOINT_OVERRIDE", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// RequireTable returns an error unless TABLE is set.
func (c *Config) RequireTable() error {
	if c.Table == "" {
		return errors.New("config: TABLE must be set")
	}
	return nil
}

// RequireTimestream returns an error unless both Timestream names are set.
func (c *Config) RequireTimestream() error {
	if c.TimestreamDatabase == "" {
		return errors.New("config: TIMESTREAM_DATABASE_NAME must be set")
	}
	if c.TimestreamTable == "" {
		return errors.New("config: TIMESTREAM_TABLE_NAME must be set")
	}
	return nil
}

// RequireSNSTopic returns an error unless SNS_TOPIC_ARN is set.
func (c *Config) RequireSNSTopic() error {
	if c.SNSTopicARN == "" {
		return errors.New("config: SNS_TOPIC_ARN must be set")
	}
	return nil
}

// RequireCSVBucket returns an error unless CSV_BUCKET is set.
func (c *Config) RequireCSVBucket() error {
	if c.CSVBucket == "" {
		return errors.New("config: CSV_BUCKET must be set")
	}
	return nil
}

// RequireUserPoolClient returns an error unless USER_POOL_CLIENT_ID is set.
func (c *Config) RequireUserPoolClient() error {
	if c.UserPoolClientID == "" {
		return errors.New("config: USER_POOL_CLIENT_ID must be set")
	}
	return nil
}

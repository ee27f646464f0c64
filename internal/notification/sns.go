// Package notification publishes threshold-exceeded alerts to the managed
// notification topic. Callers use it best-effort: log and ignore errors.
package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/mccollumn/home-energy-monitoring/internal/energy/domain"
)

// alertSubject is the subject line on every alert notification.
const alertSubject = "Energy Usage Threshold Exceeded"

// snsAPI is the subset of the SNS client used here.
type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSPublisher publishes alert events as JSON to one SNS topic.
type SNSPublisher struct {
	client   snsAPI
	topicARN string
}

// NewSNSPublisher returns a publisher for the given topic.
func NewSNSPublisher(client snsAPI, topicARN string) *SNSPublisher {
	return &SNSPublisher{client: client, topicARN: topicARN}
}

// PublishAlert serializes the event and publishes it. Returns an error only
// on publish failure; callers log and continue.
func (p *SNSPublisher) PublishAlert(ctx context.Context, ev domain.AlertEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal alert event: %w", err)
	}
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(payload)),
		Subject:  aws.String(alertSubject),
	})
	return err
}

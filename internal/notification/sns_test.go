package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/mccollumn/home-energy-monitoring/internal/energy/domain"
)

type fakeSNS struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-1")}, nil
}

func TestPublishAlert(t *testing.T) {
	client := &fakeSNS{}
	pub := NewSNSPublisher(client, "arn:aws:sns:us-east-1:123456789012:EnergyAlerts")

	ev := domain.NewAlertEvent(domain.Observation{
		UserID: "user123", Date: "2023-01-01", Usage: 100,
	}, 50)
	if err := pub.PublishAlert(context.Background(), ev); err != nil {
		t.Fatalf("PublishAlert: %v", err)
	}
	if aws.ToString(client.input.TopicArn) != "arn:aws:sns:us-east-1:123456789012:EnergyAlerts" {
		t.Errorf("TopicArn = %q", aws.ToString(client.input.TopicArn))
	}
	if aws.ToString(client.input.Subject) != "Energy Usage Threshold Exceeded" {
		t.Errorf("Subject = %q", aws.ToString(client.input.Subject))
	}
	var got domain.AlertEvent
	if err := json.Unmarshal([]byte(aws.ToString(client.input.Message)), &got); err != nil {
		t.Fatalf("message is not valid JSON: %v", err)
	}
	if got.UserID != "user123" || got.Usage != 100 || got.Threshold != 50 {
		t.Errorf("published event = %+v", got)
	}
}

func TestPublishAlert_Error(t *testing.T) {
	pub := NewSNSPublisher(&fakeSNS{err: errors.New("topic gone")}, "arn")
	err := pub.PublishAlert(context.Background(), domain.AlertEvent{UserID: "u"})
	if err == nil {
		t.Error("want error from publish failure")
	}
}

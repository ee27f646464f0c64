// Package repository implements the managed-store adapters for usage
// records (DynamoDB) and usage points (Timestream).
package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/mccollumn/home-energy-monitoring/internal/energy/domain"
)

// dynamoAPI is the subset of the DynamoDB client used by the record store.
type dynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// usageItem is the stored shape of one usage record.
type usageItem struct {
	ID        string  `dynamodbav:"id"`
	Date      string  `dynamodbav:"date"`
	Usage     float64 `dynamodbav:"usage"`
	Timestamp string  `dynamodbav:"timestamp,omitempty"`
}

// thresholdItem projects only the threshold attribute of a user item.
type thresholdItem struct {
	Threshold *float64 `dynamodbav:"threshold"`
}

// RecordStore persists usage records and threshold settings in one DynamoDB
// table keyed by user id. Writes are plain upserts: last write wins, no
// condition expressions.
type RecordStore struct {
	client dynamoAPI
	table  string
}

// NewRecordStore returns a record store over the given table.
func NewRecordStore(client dynamoAPI, table string) *RecordStore {
	return &RecordStore{client: client, table: table}
}

// PutObservation upserts the observation keyed by its user id, overwriting
// any existing item under the same key.
func (s *RecordStore) PutObservation(ctx context.Context, o domain.Observation) error {
	item, err := attributevalue.MarshalMap(usageItem{
		ID:        o.UserID,
		Date:      o.Date,
		Usage:     o.Usage,
		Timestamp: o.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z"),
	})
	if err != nil {
		return fmt.Errorf("marshal usage item: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	return err
}

// GetThreshold returns the user's threshold, or nil when the user has no
// item or the item has no threshold attribute. Errors are store failures only.
func (s *RecordStore) GetThreshold(ctx context.Context, userID string) (*float64, error) {
	proj, err := expression.NewBuilder().
		WithProjection(expression.NamesList(expression.Name("threshold"))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build projection: %w", err)
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:                aws.String(s.table),
		Key:                      userKey(userID),
		ProjectionExpression:     proj.Projection(),
		ExpressionAttributeNames: proj.Names(),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, nil
	}
	var item thresholdItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal threshold: %w", err)
	}
	return item.Threshold, nil
}

// QueryRange returns the user's usage records with dates between startDate
// and endDate inclusive.
func (s *RecordStore) QueryRange(ctx context.Context, userID, startDate, endDate string) ([]domain.UsageRecord, error) {
	keyCond := expression.Key("id").Equal(expression.Value(userID)).
		And(expression.Key("date").Between(expression.Value(startDate), expression.Value(endDate)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("build key condition: %w", err)
	}
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, err
	}
	var items []usageItem
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, fmt.Errorf("unmarshal usage items: %w", err)
	}
	records := make([]domain.UsageRecord, 0, len(items))
	for _, it := range items {
		records = append(records, domain.UsageRecord{
			ID:        it.ID,
			Date:      it.Date,
			Usage:     it.Usage,
			Timestamp: it.Timestamp,
		})
	}
	return records, nil
}

// UpdateThreshold sets only the threshold attribute on the user's item,
// creating the item when it does not exist.
func (s *RecordStore) UpdateThreshold(ctx context.Context, userID string, threshold float64) (*float64, error) {
	update := expression.Set(expression.Name("threshold"), expression.Value(threshold))
	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return nil, fmt.Errorf("build update: %w", err)
	}
	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       userKey(userID),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return nil, err
	}
	var item thresholdItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return nil, fmt.Errorf("unmarshal updated attributes: %w", err)
	}
	return item.Threshold, nil
}

func userKey(userID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: userID},
	}
}
